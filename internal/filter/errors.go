package filter

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownField is matched by UnknownFieldError
	ErrUnknownField = errors.New("unknown field")
	// ErrInvalidCondition is returned when a custom condition cannot be registered
	ErrInvalidCondition = errors.New("invalid condition")
)

// UnknownFieldError is returned when a field is not in the field index
type UnknownFieldError struct {
	RecordType string
	Field      string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("field %q not found in %s", e.Field, e.RecordType)
}

// Is makes errors.Is(err, ErrUnknownField) work
func (e *UnknownFieldError) Is(target error) bool {
	return target == ErrUnknownField
}

// ResolveError wraps a failed custom condition resolution
type ResolveError struct {
	Endpoint string
	Err      error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("failed to resolve field for %s: %v", e.Endpoint, e.Err)
}

func (e *ResolveError) Unwrap() error {
	return e.Err
}
