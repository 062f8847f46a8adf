package models

import (
	"errors"
	"fmt"
)

// Sentinel conditions surfaced by the analytics engines. Callers test with
// errors.Is.
var (
	// ErrInsufficientData means a computation needs more history than the
	// supplied series contains. It is never silently converted to a zero.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrDataUnavailable means a collaborator failed to supply an input
	// snapshot. The engine performs no fallback to stale or default values.
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrUndefined means a result is undefined for the given input, e.g. a
	// zero average volume, zero portfolio value, or zero variance.
	ErrUndefined = errors.New("result undefined")
)

// ValidationError rejects malformed input at the engine boundary.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// NewValidationError creates a ValidationError for a field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}
