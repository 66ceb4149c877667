// Package errs defines the error taxonomy shared by the domain services.
// Every store operation either fully succeeds or fails with one of these
// types; handlers map them onto HTTP status codes.
package errs

import (
	"errors"
	"fmt"
)

// ValidationError reports caller-supplied data that violates a precondition,
// such as an empty required field or a duplicate identifier.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Validation builds a ValidationError from a format string.
func Validation(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// NotFoundError reports a referenced identifier that does not resolve.
// Callers should treat it as a stale reference and re-query.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// NotFound builds a NotFoundError for the given record kind and id.
func NotFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// StateError reports an illegal state transition request, such as moving a
// completed session back to waiting.
type StateError struct {
	Msg string
}

func (e *StateError) Error() string { return e.Msg }

// State builds a StateError from a format string.
func State(format string, args ...interface{}) error {
	return &StateError{Msg: fmt.Sprintf(format, args...)}
}

// IsState reports whether err is (or wraps) a StateError.
func IsState(err error) bool {
	var se *StateError
	return errors.As(err, &se)
}
