package errors

import "fmt"

// MalformedMessage reports an inbound envelope that could not be parsed
func MalformedMessage(cause error) *Error {
	return Wrap(cause, ErrCodeMalformedMessage, "Invalid message format")
}

// UnknownMessageType reports an envelope whose type is not part of the protocol
func UnknownMessageType(msgType string) *Error {
	return New(ErrCodeUnknownMessageType, "Unknown type").
		WithDetail("type", msgType)
}

// InvalidUpdate reports an update envelope without a usable byte payload
func InvalidUpdate(msgType string) *Error {
	return New(ErrCodeInvalidUpdate, fmt.Sprintf("Missing update payload for %s", msgType)).
		WithDetail("type", msgType)
}

// ConfigInvalid creates an invalid configuration error
func ConfigInvalid(reason string) *Error {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", reason))
}

// StoreUnavailable wraps a failure to reach the room counter store
func StoreUnavailable(driver string, err error) *Error {
	return Wrap(err, ErrCodeStoreUnavailable, fmt.Sprintf("%s store unavailable", driver)).
		WithDetail("driver", driver)
}

// JobSubmitRejected reports a submission the execution backend did not accept
func JobSubmitRejected(status string) *Error {
	return New(ErrCodeJobSubmitRejected, "Unable to add your code for execution.").
		WithDetail("status", status)
}

// JobTransport wraps a network failure talking to the job proxy
func JobTransport(err error) *Error {
	return Wrap(err, ErrCodeJobTransport, "Proxy error: unable to reach backend.")
}

// JobFailed reports a job the backend finished unsuccessfully
func JobFailed(message string) *Error {
	if message == "" {
		message = "Execution failed"
	}
	return New(ErrCodeJobFailed, message)
}

// JobUnknownStatus reports a status value outside the job protocol
func JobUnknownStatus(status string) *Error {
	return New(ErrCodeJobUnknownStatus, "Unknown job state").
		WithDetail("status", status)
}

// JobTimeout reports a job that did not finish before its deadline
func JobTimeout(limit string) *Error {
	return New(ErrCodeJobTimeout, "Execution timed out (internal server limit reached).").
		WithDetail("timeout", limit)
}
