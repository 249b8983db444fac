package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError(t *testing.T) {
	err := New(ErrCodeUnknownMessageType, "Unknown type")
	assert.Equal(t, ErrCodeUnknownMessageType, err.Code)
	assert.Equal(t, "UNKNOWN_MESSAGE_TYPE: Unknown type", err.Error())

	cause := fmt.Errorf("unexpected end of JSON input")
	wrapped := Wrap(cause, ErrCodeMalformedMessage, "Invalid message format")
	assert.Equal(t, cause, wrapped.Unwrap())
	assert.True(t, Is(wrapped, ErrCodeMalformedMessage))
	assert.False(t, Is(wrapped, ErrCodeUnknownMessageType))

	detailed := err.WithDetail("type", "cursor")
	assert.Equal(t, "cursor", detailed.Details["type"])
}

func TestGetCodeThroughWrapping(t *testing.T) {
	inner := JobTimeout("30s")
	outer := fmt.Errorf("job 42: %w", inner)

	assert.Equal(t, ErrCodeJobTimeout, GetCode(outer))
	assert.True(t, Is(outer, ErrCodeJobTimeout))
	assert.Equal(t, ErrorCode(""), GetCode(nil))
	assert.Equal(t, ErrorCode(""), GetCode(fmt.Errorf("plain")))
	assert.False(t, Is(fmt.Errorf("plain"), ""))
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "Unknown job state", Message(JobUnknownStatus("bogus")))
	assert.Equal(t, "Unknown job state", Message(fmt.Errorf("poll: %w", JobUnknownStatus("bogus"))))
	assert.Equal(t, "plain", Message(fmt.Errorf("plain")))
	assert.Equal(t, "", Message(nil))
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name    string
		err     *Error
		code    ErrorCode
		message string
	}{
		{"submit rejected", JobSubmitRejected("push-failed"), ErrCodeJobSubmitRejected, "Unable to add your code for execution."},
		{"transport", JobTransport(fmt.Errorf("dial tcp: refused")), ErrCodeJobTransport, "Proxy error: unable to reach backend."},
		{"failed default", JobFailed(""), ErrCodeJobFailed, "Execution failed"},
		{"failed custom", JobFailed("compile error"), ErrCodeJobFailed, "compile error"},
		{"unknown status", JobUnknownStatus("bogus"), ErrCodeJobUnknownStatus, "Unknown job state"},
		{"invalid update", InvalidUpdate("update"), ErrCodeInvalidUpdate, "Missing update payload for update"},
		{"config", ConfigInvalid("bad driver"), ErrCodeConfigInvalid, "invalid configuration: bad driver"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.message, tt.err.Message)
		})
	}

	assert.Equal(t, "bogus", JobUnknownStatus("bogus").Details["status"])
	assert.Equal(t, "sqlite", StoreUnavailable("sqlite", fmt.Errorf("locked")).Details["driver"])
}
