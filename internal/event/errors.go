package event

import (
	"errors"
	"fmt"
)

// ErrValidation is wrapped by every payload validation failure.
var ErrValidation = errors.New("event validation failed")

// ValidationError identifies the handler and field that rejected a payload.
type ValidationError struct {
	Kind   Kind
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: field %q: %s", e.Kind, e.Field, e.Reason)
}

// Unwrap lets errors.Is match ErrValidation.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(kind Kind, field, reason string) error {
	return &ValidationError{Kind: kind, Field: field, Reason: reason}
}

// DroppedField records an optional field ignored because of its shape.
type DroppedField struct {
	Field  string
	Reason string
}
