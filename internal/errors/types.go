package errors

import (
	"encoding/json"
	"fmt"
)

// ErrorCode represents a specific error condition
type ErrorCode string

const (
	// Sync protocol errors
	ErrCodeMalformedMessage   ErrorCode = "MALFORMED_MESSAGE"
	ErrCodeUnknownMessageType ErrorCode = "UNKNOWN_MESSAGE_TYPE"
	ErrCodeInvalidUpdate      ErrorCode = "INVALID_UPDATE"

	// Configuration and storage errors
	ErrCodeConfigInvalid    ErrorCode = "CONFIG_INVALID"
	ErrCodeStoreUnavailable ErrorCode = "STORE_UNAVAILABLE"

	// Job execution errors
	ErrCodeJobSubmitRejected ErrorCode = "JOB_SUBMIT_REJECTED"
	ErrCodeJobTransport      ErrorCode = "JOB_TRANSPORT"
	ErrCodeJobFailed         ErrorCode = "JOB_FAILED"
	ErrCodeJobUnknownStatus  ErrorCode = "JOB_UNKNOWN_STATUS"
	ErrCodeJobTimeout        ErrorCode = "JOB_TIMEOUT"

	// General errors
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Error represents a structured error with context
type Error struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ToJSON converts the error to JSON
func (e *Error) ToJSON() string {
	data, _ := json.MarshalIndent(e, "", "  ")
	return string(data)
}

// New creates a new Error
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an Error
func Wrap(err error, code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Is checks if an error carries a specific code anywhere in its chain
func Is(err error, code ErrorCode) bool {
	return GetCode(err) == code && code != ""
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	if err == nil {
		return ""
	}

	e, ok := err.(*Error)
	if !ok {
		if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
			return GetCode(unwrapper.Unwrap())
		}
		return ""
	}

	return e.Code
}

// Message returns the user-facing message of a coded error, or err.Error()
// for anything else.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if e, ok := err.(*Error); ok {
		return e.Message
	}
	if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
		if inner := unwrapper.Unwrap(); inner != nil {
			if _, coded := inner.(*Error); coded {
				return Message(inner)
			}
		}
	}
	return err.Error()
}
