package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound reports an operation against a document id that does not exist
// (deleted concurrently, or never created). Callers treat it as a recoverable
// no-op condition, not a crash.
type ErrNotFound struct {
	Collection Collection
	ID         string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %q not found", e.Collection, e.ID)
}

// ErrSessionNotFound reports an operation against an unknown session id.
type ErrSessionNotFound struct {
	ID string
}

func (e ErrSessionNotFound) Error() string {
	return fmt.Sprintf("session %q not found", e.ID)
}

// ValidationError reports user input rejected before any state change.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsNotFound reports whether err wraps a not-found condition.
func IsNotFound(err error) bool {
	var nf ErrNotFound
	var snf ErrSessionNotFound
	return errors.As(err, &nf) || errors.As(err, &snf)
}

// IsValidation reports whether err wraps a validation rejection.
func IsValidation(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}
