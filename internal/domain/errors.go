package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors used across all layers. The transport layer maps these
// to status codes; services and repositories only wrap them.
var (
	ErrNotFound      = errors.New("not found")
	ErrDuplicateCode = errors.New("duplicate code")
	ErrValidation    = errors.New("validation error")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")

	// Tree-structure errors.
	ErrCycle       = errors.New("cycle detected")
	ErrConstraint  = errors.New("constraint violation")
	ErrHasChildren = errors.New("node has children")
	ErrNotSibling  = errors.New("not a sibling")

	// ErrVersionConflict means an optimistic write lost a race.
	// Safe to retry with fresh data.
	ErrVersionConflict = errors.New("version conflict")

	// Path-codec contract violations. These indicate corrupted data and
	// must never be retried.
	ErrMalformedPath  = errors.New("malformed path")
	ErrPrefixMismatch = errors.New("prefix mismatch")

	// ErrStorageUnavailable covers connection loss, timeouts, and
	// serialization failures. Always safe to retry.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// FieldError describes a validation error for a specific field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError contains a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s: %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("validation: %d errors", len(e.Errors))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Errors: []FieldError{{Field: field, Message: message}},
	}
}

// NewValidationErrors creates a ValidationError from multiple field errors.
func NewValidationErrors(errs []FieldError) *ValidationError {
	return &ValidationError{Errors: errs}
}

// ConstraintError reports a violated NodeType structural constraint
// (max children or max depth). It unwraps to ErrConstraint.
type ConstraintError struct {
	Constraint string // "max_children" or "max_depth"
	Limit      int32
	Actual     int32
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("constraint %s: limit %d, got %d", e.Constraint, e.Limit, e.Actual)
}

func (e *ConstraintError) Unwrap() error { return ErrConstraint }
