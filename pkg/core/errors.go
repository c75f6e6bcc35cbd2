package core

import (
	"errors"
	"fmt"
	"strings"
)

// ErrRelationNotFound is returned by adapters when a described relation does
// not exist in the warehouse.
var ErrRelationNotFound = errors.New("relation not found")

// ValidationError reports malformed or contradictory configuration.
// It always carries the rejected value so users can fix the declaration
// without a warehouse round-trip.
type ValidationError struct {
	// Field is the configuration key that failed validation (e.g. "partition_by.granularity").
	Field string
	// Value is the rejected input.
	Value any
	// Expected describes the accepted shape or enum.
	Expected string
}

func (e *ValidationError) Error() string {
	if e.Expected == "" {
		return fmt.Sprintf("invalid %s: %#v", e.Field, e.Value)
	}
	return fmt.Sprintf("invalid %s: got %#v, expected %s", e.Field, e.Value, e.Expected)
}

// NewValidationError is a convenience constructor.
func NewValidationError(field string, value any, expected string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Expected: expected}
}

// IsValidationError reports whether err wraps a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// OneOf formats an enum list for ValidationError.Expected.
func OneOf(values ...string) string {
	return oneOf(values)
}

func oneOf(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return "one of " + strings.Join(quoted, ", ")
}
