// Package domain contains business logic types and errors.
// Domain errors represent business-level failures, NOT transport errors.
// Adapters map them to HTTP statuses, CLI exit messages, or sync state.
package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrNotFound indicates the requested entity or key does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a state conflict such as an overlapping sync run.
	ErrConflict = errors.New("conflict")

	// ErrValidation indicates caller input failed validation.
	ErrValidation = errors.New("validation failed")

	// ErrUnavailable indicates the remote source could not be reached or answered badly.
	ErrUnavailable = errors.New("unavailable")

	// ErrParse indicates malformed serialized input (import file or persisted blob).
	ErrParse = errors.New("parse failed")

	// ErrStorage indicates the persistence layer failed to read or write.
	ErrStorage = errors.New("storage failure")
)

// NotFoundError provides context for not found errors.
type NotFoundError struct {
	Entity string
	ID     string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
	}

	return e.Entity + " not found"
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// NewNotFoundError creates a not found error with context.
func NewNotFoundError(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// ConflictError provides context for conflict errors.
type ConflictError struct {
	Entity string
	Reason string
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s conflict: %s", e.Entity, e.Reason)
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

// NewConflictError creates a conflict error with context.
func NewConflictError(entity, reason string) error {
	return &ConflictError{Entity: entity, Reason: reason}
}

// ValidationError provides context for validation errors.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}

	return "validation failed: " + e.Message
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError creates a validation error with context.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// UnavailableError provides context for remote failures (timeouts, bad statuses, bad bodies).
type UnavailableError struct {
	Service string
	Reason  string
}

// Error implements the error interface.
func (e *UnavailableError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("service %q unavailable: %s", e.Service, e.Reason)
	}

	return fmt.Sprintf("service %q unavailable", e.Service)
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *UnavailableError) Unwrap() error {
	return ErrUnavailable
}

// NewUnavailableError creates an unavailable error with context.
func NewUnavailableError(service, reason string) error {
	return &UnavailableError{Service: service, Reason: reason}
}

// ParseError provides context for malformed input.
type ParseError struct {
	Source string
	Reason string
	Cause  error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("parsing %s: %s: %v", e.Source, e.Reason, e.Cause)
	}

	return fmt.Sprintf("parsing %s: %s", e.Source, e.Reason)
}

// Unwrap returns both the sentinel and the underlying cause.
func (e *ParseError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrParse, e.Cause}
	}

	return []error{ErrParse}
}

// NewParseError creates a parse error for the given input source.
func NewParseError(source, reason string, cause error) error {
	return &ParseError{Source: source, Reason: reason, Cause: cause}
}

// StorageError wraps a persistence failure for a specific key.
type StorageError struct {
	Op    string
	Key   string
	Cause error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Cause)
}

// Unwrap returns both the sentinel and the underlying cause.
func (e *StorageError) Unwrap() []error {
	return []error{ErrStorage, e.Cause}
}

// NewStorageError creates a storage error for an operation on a key.
func NewStorageError(op, key string, cause error) error {
	return &StorageError{Op: op, Key: key, Cause: cause}
}

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict checks if an error is a conflict error.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsUnavailable checks if an error is an unavailable error.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// IsParse checks if an error is a parse error.
func IsParse(err error) bool {
	return errors.Is(err, ErrParse)
}

// IsStorage checks if an error is a storage error.
func IsStorage(err error) bool {
	return errors.Is(err, ErrStorage)
}
