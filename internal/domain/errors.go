// Package domain defines core types, interfaces, and errors for the provisioning audit service.
package domain

import (
	"fmt"
	"strings"
)

// ValidationError indicates invalid input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// MissingRequiredFieldError indicates a required filter field was not supplied
// or could not be extracted from free text.
type MissingRequiredFieldError struct {
	Field string
}

func (e *MissingRequiredFieldError) Error() string {
	return fmt.Sprintf("missing required field %q", e.Field)
}

// MissingFilterError indicates the query builder was handed a filter without
// one of its mandatory predicates.
type MissingFilterError struct {
	Field string
}

func (e *MissingFilterError) Error() string {
	return fmt.Sprintf("mandatory filter %q is not set", e.Field)
}

// InvalidPaginationError indicates a page window that cannot be applied.
type InvalidPaginationError struct {
	Limit  int
	Offset int
}

func (e *InvalidPaginationError) Error() string {
	return fmt.Sprintf("invalid pagination: limit=%d offset=%d (limit must be > 0)", e.Limit, e.Offset)
}

// ExecutionError wraps a failure of the data executor (unreachable database,
// rejected statement, scan failure).
type ExecutionError struct {
	Op  string
	Err error
	// Hint is an operator-facing explanation added for network failures.
	Hint string
	// Unreachable is true when the database could not be contacted at all.
	Unreachable bool
}

func (e *ExecutionError) Error() string {
	msg := e.Op
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// ExtractionError carries every problem found while turning free text into a
// filter. The list is surfaced verbatim to the caller.
type ExtractionError struct {
	Problems []string
}

func (e *ExtractionError) Error() string {
	return "could not extract filters: " + strings.Join(e.Problems, "; ")
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrMissingField creates a MissingRequiredFieldError for field.
func ErrMissingField(field string) *MissingRequiredFieldError {
	return &MissingRequiredFieldError{Field: field}
}

// ErrExecution wraps err as an ExecutionError for the given operation.
func ErrExecution(op string, err error) *ExecutionError {
	return &ExecutionError{Op: op, Err: err}
}
