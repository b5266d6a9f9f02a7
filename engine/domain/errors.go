package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for feed and record failures.
var (
	ErrUnknownSchema    = errors.New("unknown feed schema")
	ErrEmptyFeed        = errors.New("feed matched but contains no records")
	ErrMissingField     = errors.New("mandatory field missing")
	ErrPlaceholderValue = errors.New("mandatory field holds a placeholder value")
	ErrEmptySlug        = errors.New("slug is empty")
	ErrNoData           = errors.New("no feed produced any data")
)

// ValidationError wraps a sentinel with context.
type ValidationError struct {
	Field   string
	Value   string
	Wrapped error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s (value=%q)", e.Wrapped, e.Field, e.Value)
}

func (e *ValidationError) Unwrap() error { return e.Wrapped }

// NewValidationError creates a ValidationError.
func NewValidationError(field, value string, wrapped error) *ValidationError {
	return &ValidationError{Field: field, Value: value, Wrapped: wrapped}
}
