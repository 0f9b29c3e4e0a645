package errs

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindUnknown          Kind = "unknown"
	KindValidation       Kind = "validation"
	KindNotFound         Kind = "not_found"
	KindConflict         Kind = "conflict"
	KindForbidden        Kind = "forbidden"
	KindTransientChannel Kind = "transient_channel"
	KindConfiguration    Kind = "configuration"
)

// Error carries a Kind so transports can map failures without string matching.
type Error struct {
	Kind    Kind       `json:"kind"`
	Message string     `json:"message"`
	Err     error      `json:"-"`
	Context []KeyValue `json:"context,omitempty"`
}

type KeyValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message != "" {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// WithContext returns a copy of e with one more key/value attached.
func (e *Error) WithContext(key, value string) *Error {
	if e == nil {
		return nil
	}
	ctx := make([]KeyValue, len(e.Context), len(e.Context)+1)
	copy(ctx, e.Context)
	return &Error{
		Kind:    e.Kind,
		Message: e.Message,
		Err:     e.Err,
		Context: append(ctx, KeyValue{Key: key, Value: value}),
	}
}

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) *Error {
	return newf(KindValidation, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return newf(KindNotFound, format, args...)
}

func Conflict(format string, args ...any) *Error {
	return newf(KindConflict, format, args...)
}

func Forbidden(format string, args ...any) *Error {
	return newf(KindForbidden, format, args...)
}

func Configuration(format string, args ...any) *Error {
	return newf(KindConfiguration, format, args...)
}

// TransientChannel wraps a failed delivery attempt; callers retry it within budget.
func TransientChannel(err error, format string, args ...any) *Error {
	e := newf(KindTransientChannel, format, args...)
	e.Err = err
	return e
}

func Wrap(kind Kind, err error, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
