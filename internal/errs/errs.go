// Package errs provides centralized error definitions and helpers for the
// hive codebase. It defines sentinel errors for the storage and locking
// subsystems, semantic error types for common conditions, and classification
// helpers built on the standard errors package.
//
// Mutating operations propagate these errors unchanged to the caller. Read
// accessors return sentinel values (nil, false, empty slice) for "not found"
// instead of an error, so routine polling code is not forced into error
// handling.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions so callers can import only this
// package for error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Storage-related sentinel errors.
var (
	// ErrRegistryRead indicates the registry file is missing or unparsable.
	ErrRegistryRead = New("registry read failed")
	// ErrRegistryWrite indicates the registry file could not be persisted.
	ErrRegistryWrite = New("registry write failed")
	// ErrBoardRead indicates the task board file is missing or unparsable.
	ErrBoardRead = New("task board read failed")
	// ErrBoardWrite indicates the task board file could not be persisted.
	ErrBoardWrite = New("task board write failed")
)

// NotFoundError represents a resource that could not be found.
//
// Example:
//
//	err := errs.NewNotFoundError("task", "task-3")
//	fmt.Println(err) // "task 'task-3' not found"
type NotFoundError struct {
	ResourceType string
	ResourceID   string
	cause        error
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resourceType, resourceID string) *NotFoundError {
	return &NotFoundError{ResourceType: resourceType, ResourceID: resourceID}
}

// WithCause adds a cause to the error.
func (e *NotFoundError) WithCause(cause error) *NotFoundError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *NotFoundError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s '%s' not found: %v", e.ResourceType, e.ResourceID, e.cause)
	}
	return fmt.Sprintf("%s '%s' not found", e.ResourceType, e.ResourceID)
}

// Unwrap returns the underlying error, if any.
func (e *NotFoundError) Unwrap() error { return e.cause }

// Is reports whether this error matches the target.
func (e *NotFoundError) Is(target error) bool {
	if _, ok := target.(*NotFoundError); ok {
		return true
	}
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// ValidationError represents invalid caller input.
//
// Example:
//
//	err := errs.NewValidationError("agent ID cannot be empty").WithField("agentId")
type ValidationError struct {
	Message string
	Field   string
	Value   any
	cause   error
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// WithField adds a field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue adds the invalid value to the error context.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%v", e.Value))
	}

	prefix := "validation error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("validation error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// Unwrap returns the underlying error, if any.
func (e *ValidationError) Unwrap() error { return e.cause }

// Is reports whether this error matches the target.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// ConflictError represents a mutation that lost a check-and-set race, such as
// claiming a task that is already held by another agent.
type ConflictError struct {
	Message string
	cause   error
}

// NewConflictError creates a new ConflictError.
func NewConflictError(message string) *ConflictError {
	return &ConflictError{Message: message}
}

// WithCause adds a cause to the error.
func (e *ConflictError) WithCause(cause error) *ConflictError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *ConflictError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error, if any.
func (e *ConflictError) Unwrap() error { return e.cause }

// Is reports whether this error matches the target.
func (e *ConflictError) Is(target error) bool {
	if _, ok := target.(*ConflictError); ok {
		return true
	}
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// IsNotFound returns true if the error is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return As(err, &nf)
}

// IsConflict returns true if the error is (or wraps) a ConflictError.
func IsConflict(err error) bool {
	var c *ConflictError
	return As(err, &c)
}

// Wrap wraps an error with an additional context message.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
