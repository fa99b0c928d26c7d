// Package errors provides custom error types for the idmend system.
// These errors separate fatal ruleset and consistency failures from
// recoverable per-table I/O failures so callers can check them programmatically.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Is and As are the standard library functions, re-exported so callers
// need only one errors import.
var (
	Is = errors.Is
	As = errors.As
)

// Common sentinel errors for the idmend system
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrConfig indicates a malformed disposition ruleset or run configuration
	ErrConfig = errors.New("configuration error")

	// ErrInconsistent indicates asymmetric row counts for an exchange
	ErrInconsistent = errors.New("inconsistent row counts")

	// ErrCanceled indicates that an operation was canceled
	ErrCanceled = errors.New("operation canceled")

	// ErrIO indicates a read or write failure on a single table
	ErrIO = errors.New("io failure")
)

// NotFoundError represents an error when a resource is not found
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// ConfigError represents a malformed ruleset or configuration.
// Row is the 1-based data row of the disposition sheet, zero when the
// problem is with the sheet as a whole (for example a missing column).
type ConfigError struct {
	Component string
	Row       int
	Field     string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	var b strings.Builder
	b.WriteString("configuration error")
	if e.Component != "" {
		fmt.Fprintf(&b, " in %s", e.Component)
	}
	if e.Row > 0 {
		fmt.Fprintf(&b, " at row %d", e.Row)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, " (field %s)", e.Field)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	return b.String()
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{
		Component: component,
		Message:   message,
		Err:       err,
	}
}

// NewRowError creates a ConfigError pointing at one ruleset row and field.
func NewRowError(component string, row int, field, message string) *ConfigError {
	return &ConfigError{
		Component: component,
		Row:       row,
		Field:     field,
		Message:   message,
	}
}

// ConsistencyError reports that an exchange found different row counts
// for the two identifiers at one visit of one table.
type ConsistencyError struct {
	Table       string
	Visit       string
	CurrentID   string
	TargetID    string
	CurrentRows int
	TargetRows  int
}

// Error implements the error interface
func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("cannot exchange %s and %s in %s at visit %q: %d rows vs %d rows",
		e.CurrentID, e.TargetID, e.Table, e.Visit, e.CurrentRows, e.TargetRows)
}

// Is implements errors.Is support
func (e *ConsistencyError) Is(target error) bool {
	return target == ErrInconsistent
}

// NewConsistencyError creates a new ConsistencyError
func NewConsistencyError(table, visit, currentID, targetID string, currentRows, targetRows int) *ConsistencyError {
	return &ConsistencyError{
		Table:       table,
		Visit:       visit,
		CurrentID:   currentID,
		TargetID:    targetID,
		CurrentRows: currentRows,
		TargetRows:  targetRows,
	}
}

// ParseError represents an error when parsing data formats
type ParseError struct {
	Format  string // "csv", "xlsx", "yaml"
	File    string
	Line    int
	Column  int
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.File != "" && e.Line > 0 {
		return fmt.Sprintf("parse error in %s at %s:%d:%d: %s", e.Format, e.File, e.Line, e.Column, e.Message)
	}
	if e.File != "" {
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError
func NewParseError(format, file string, message string, err error) *ParseError {
	return &ParseError{
		Format:  format,
		File:    file,
		Message: message,
		Err:     err,
	}
}

// IOError represents an error during I/O operations on a single table or file
type IOError struct {
	Operation string // "read", "write", "create", "open"
	Path      string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("IO error during %s: %s", e.Operation, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *IOError) Is(target error) bool {
	return target == ErrIO
}

// NewIOError creates a new IOError
func NewIOError(operation, path string, err error) *IOError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &IOError{
		Operation: operation,
		Path:      path,
		Message:   message,
		Err:       err,
	}
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsConfig checks if an error is a ruleset or configuration error
func IsConfig(err error) bool {
	return errors.Is(err, ErrConfig)
}

// IsInconsistent checks if an error is an exchange consistency error
func IsInconsistent(err error) bool {
	return errors.Is(err, ErrInconsistent)
}

// IsIO checks if an error is a recoverable I/O error
func IsIO(err error) bool {
	return errors.Is(err, ErrIO)
}

// IsCanceled checks if an error is a cancellation error
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}

// Helper wrapping functions for common patterns

// WrapValidation wraps an error as a ValidationError
func WrapValidation(field string, err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Field: field, Message: err.Error()}
}

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return NewIOError(operation, path, err)
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return NewParseError(format, file, err.Error(), err)
}

// WrapCanceled wraps a context error so that IsCanceled reports true.
func WrapCanceled(operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, ErrCanceled, err)
}
