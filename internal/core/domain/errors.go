package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error kinds shared by both workflows. Handlers map these to HTTP codes,
// services use them as guard results.
var (
	ErrNotFound        = errors.New("request not found")
	ErrForbidden       = errors.New("actor is not allowed to act on this request")
	ErrAlreadyTerminal = errors.New("request is in a terminal state")
	ErrExpired         = errors.New("request has expired")
	ErrConflict        = errors.New("request was modified concurrently")
)

// ValidationError carries field-level failures back to the caller verbatim,
// so a form can highlight the offending inputs.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, e.Fields[f]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
