package spread

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidInput marks a structurally invalid spread definition.
	ErrInvalidInput = errors.New("invalid input")
	// ErrEmptyResult means no contract year produced a fully joined series.
	ErrEmptyResult = errors.New("no data")
)

// InvalidInputError names the offending field of a definition.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *InvalidInputError) Unwrap() error { return ErrInvalidInput }

func invalid(field, format string, args ...interface{}) *InvalidInputError {
	return &InvalidInputError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// FieldErrors itemizes every problem found in one definition.
type FieldErrors []*InvalidInputError

func (fe FieldErrors) Error() string {
	parts := make([]string, len(fe))
	for i, e := range fe {
		parts[i] = e.Error()
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

func (fe FieldErrors) Is(target error) bool { return target == ErrInvalidInput }

// Err returns nil for an empty list.
func (fe FieldErrors) Err() error {
	if len(fe) == 0 {
		return nil
	}
	return fe
}
