// Package apperr defines the error taxonomy shared by the client core.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")

	// ErrValidation marks input rejected locally before any network call.
	ErrValidation = errors.New("validation failed")
	// ErrNetwork marks requests that could not complete.
	ErrNetwork = errors.New("network failure")
	// ErrRemote marks error statuses returned by the remote store.
	ErrRemote = errors.New("remote rejected request")
	// ErrParse marks responses that do not match the expected schema.
	ErrParse = errors.New("malformed response")
	// ErrInconsistency marks a fold that targets an id the client does not hold.
	ErrInconsistency = errors.New("state inconsistency")
	// ErrBusy marks an action started while one of the same kind is in flight.
	ErrBusy = errors.New("operation already in progress")
)

// ValidationError describes a local validation failure.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Unwrap lets errors.Is match ErrValidation.
func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid builds a ValidationError.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// RemoteError is a non-2xx response from the remote store.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote error (%d): %s", e.StatusCode, e.Message)
}

// Unwrap lets errors.Is match ErrRemote.
func (e *RemoteError) Unwrap() error { return ErrRemote }

// NetworkError wraps a transport failure.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Is lets errors.Is match ErrNetwork as well as the wrapped cause.
func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

func (e *NetworkError) Unwrap() error { return e.Err }
