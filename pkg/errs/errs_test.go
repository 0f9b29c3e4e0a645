package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(NotFound("incident %s not found", "abc")))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, KindUnknown, KindOf(nil))

	wrapped := fmt.Errorf("create incident: %w", Conflict("duplicate dedup key"))
	assert.True(t, Is(wrapped, KindConflict))
	assert.False(t, Is(wrapped, KindForbidden))
}

func TestWithContextCopies(t *testing.T) {
	base := Forbidden("cancellation window elapsed")
	withID := base.WithContext("incident_id", "i-1")

	assert.Empty(t, base.Context)
	assert.Equal(t, []KeyValue{{Key: "incident_id", Value: "i-1"}}, withID.Context)
	assert.Equal(t, base.Message, withID.Message)
}

func TestTransientChannelUnwrap(t *testing.T) {
	cause := errors.New("gateway 503")
	err := TransientChannel(cause, "sms to %s failed", "+100")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "sms to +100 failed: gateway 503", err.Error())
	assert.Nil(t, Wrap(KindValidation, nil, "noop"))
}
