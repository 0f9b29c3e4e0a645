package gateway

import (
	"errors"
	"fmt"
)

var ErrNotConfigured = errors.New("gateway is not configured")

// APIError is a non-2xx answer from a provider.
type APIError struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("provider returned http %d", e.StatusCode)
	}
	return fmt.Sprintf("provider returned http %d: %s (code %d)", e.StatusCode, e.Message, e.Code)
}
