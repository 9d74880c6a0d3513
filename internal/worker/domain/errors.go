package domain

import "errors"

var (
	// ErrInvalidPayload is returned when a refresh message cannot be decoded
	ErrInvalidPayload = errors.New("invalid refresh payload")

	// ErrMaxRetriesExceeded is returned when a refresh has used every retry
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
)

// RetryableError wraps transient errors that should trigger a retry
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return "retryable error: " + e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// NewRetryableError creates a new retryable error
func NewRetryableError(err error) error {
	return &RetryableError{Err: err}
}
