package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors shared across the portfolio data layer. Callers should use
// errors.Is to match these values.
var (
	// ErrConfiguration means required backend credentials or identifiers are
	// missing. Fatal at startup.
	ErrConfiguration = errors.New("backend configuration missing")

	// ErrBackendUnavailable means the tabular backend could not be reached or
	// kept failing after retries were exhausted.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrInvalidSection means the requested logical section is not registered.
	// Always a client error, never a server fault.
	ErrInvalidSection = errors.New("unknown section")

	// ErrNotFound covers an out-of-range record index or an absent profile.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists means a profile for the tenant is already present.
	ErrAlreadyExists = errors.New("already exists")
)

// ValidationError rejects write input, carrying one message per invalid field
// so callers can surface all of them at once.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("validation failed: %s", strings.Join(names, ", "))
}

// Details returns one "field: message" line per invalid field, in field order.
func (e *ValidationError) Details() []string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return out
}

// NewValidationError builds a ValidationError from field → message pairs.
func NewValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}
