package domain

import (
	"context"
	"errors"
	"fmt"
)

// Common domain errors
var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrEmptyURL      = errors.New("url must not be empty")
	ErrInvalidLimit  = errors.New("limit must be positive")
	ErrFetchCanceled = errors.New("fetch canceled")

	// Attempt domain errors
	ErrAttemptNotFound = errors.New("attempt not found")
	ErrAttemptRunning  = errors.New("attempt already in flight")
)

// TransportError represents a network or HTTP failure before or during
// streaming. It is always fatal to the attempt.
type TransportError struct {
	URL        string
	StatusCode int
	Err        error
}

// Error returns the error message
func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transport error fetching %s: status %d", e.URL, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("transport error fetching %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("transport error fetching %s", e.URL)
}

// Unwrap returns the underlying error
func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError creates a new transport error
func NewTransportError(url string, statusCode int, err error) *TransportError {
	return &TransportError{URL: url, StatusCode: statusCode, Err: err}
}

// IsTransport returns true if the error is a transport failure
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// CanceledError wraps the context error for an abandoned attempt. The
// caller-visible contract distinguishes "stream cut off by policy" (a
// result) from "operation abandoned" (this error).
type CanceledError struct {
	Err error
}

// Error returns the error message
func (e *CanceledError) Error() string {
	if e.Err != nil {
		return "fetch canceled: " + e.Err.Error()
	}
	return ErrFetchCanceled.Error()
}

// Unwrap returns the underlying error
func (e *CanceledError) Unwrap() error {
	return e.Err
}

// Is reports whether target matches the cancellation sentinel.
func (e *CanceledError) Is(target error) bool {
	return target == ErrFetchCanceled
}

// NewCanceledError creates a cancellation error from a context error
func NewCanceledError(cause error) *CanceledError {
	return &CanceledError{Err: cause}
}

// IsCanceled returns true if the error represents an abandoned attempt
// rather than a transport failure.
func IsCanceled(err error) bool {
	return errors.Is(err, ErrFetchCanceled) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
