// Package apperr holds the error taxonomy shared by the storefront core.
//
// Validation errors are raised locally before any network call. Request
// errors wrap a failed or non-success call to the remote food-ordering API.
// Neither is fatal: callers turn them into notifications.
package apperr

import (
	"errors"
	"fmt"
)

// ValidationError reports input rejected before a collaborator was called.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// NewValidation builds a ValidationError for a single field.
func NewValidation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// RequestError reports a remote call that failed or returned a non-success status.
// StatusCode is 0 when no response was received.
type RequestError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// NewRequest wraps err as a RequestError for op.
func NewRequest(op string, status int, err error) error {
	return &RequestError{Op: op, StatusCode: status, Err: err}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsRequest reports whether err is (or wraps) a RequestError.
func IsRequest(err error) bool {
	var r *RequestError
	return errors.As(err, &r)
}

// StatusCode returns the upstream status carried by a RequestError, or 0.
func StatusCode(err error) int {
	var r *RequestError
	if errors.As(err, &r) {
		return r.StatusCode
	}
	return 0
}
