package gamestore

import (
	"errors"
	"fmt"
)

// Sentinel errors for the storage error taxonomy. Typed errors below unwrap
// to these so callers can match with errors.Is without depending on a
// specific backend.
var (
	ErrNotFound            = errors.New("record not found")
	ErrUnsupportedOperator = errors.New("unsupported filter operator")
	ErrSerialization       = errors.New("serialization failed")
	ErrSchema              = errors.New("invalid schema")
	ErrValidation          = errors.New("validation failed")
	ErrInvalidCursor       = errors.New("invalid cursor")
)

// NotFoundError reports that a referenced id is absent.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with id %d not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NewNotFoundError creates a new not-found error.
func NewNotFoundError(entity string, id int64) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// UnsupportedOperatorError reports a filter naming an operator outside the
// closed set.
type UnsupportedOperatorError struct {
	Op Op
}

func (e *UnsupportedOperatorError) Error() string {
	return fmt.Sprintf("unsupported filter operator %q", string(e.Op))
}

func (e *UnsupportedOperatorError) Unwrap() error { return ErrUnsupportedOperator }

// NewUnsupportedOperatorError creates a new unsupported-operator error.
func NewUnsupportedOperatorError(op Op) *UnsupportedOperatorError {
	return &UnsupportedOperatorError{Op: op}
}

// SerializationError reports that a codec could not round-trip a value.
type SerializationError struct {
	Field   string
	Value   any
	Message string
}

func (e *SerializationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("cannot serialize field %s (%v): %s", e.Field, e.Value, e.Message)
	}
	return fmt.Sprintf("cannot serialize value %v: %s", e.Value, e.Message)
}

func (e *SerializationError) Unwrap() error { return ErrSerialization }

// NewSerializationError creates a new serialization error.
func NewSerializationError(field string, value any, message string) *SerializationError {
	return &SerializationError{Field: field, Value: value, Message: message}
}

// SchemaError reports a malformed schema descriptor.
type SchemaError struct {
	Table   string
	Message string
}

func (e *SchemaError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("schema %s: %s", e.Table, e.Message)
	}
	return "schema: " + e.Message
}

func (e *SchemaError) Unwrap() error { return ErrSchema }

// NewSchemaError creates a new schema error.
func NewSchemaError(table, message string) *SchemaError {
	return &SchemaError{Table: table, Message: message}
}

// ValidationError reports invalid caller input to a repository operation.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error for field %s: %s", e.Field, e.Message)
	}
	return "validation error: " + e.Message
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a new validation error.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// QueryError wraps a backend failure with operation context.
type QueryError struct {
	Operation string
	Entity    string
	Err       error
}

func (e *QueryError) Error() string {
	if e.Entity != "" {
		return fmt.Sprintf("query error during %s on %s: %v", e.Operation, e.Entity, e.Err)
	}
	return fmt.Sprintf("query error during %s: %v", e.Operation, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// WrapQueryError wraps an error with query context; nil passes through.
func WrapQueryError(err error, operation, entity string) error {
	if err == nil {
		return nil
	}
	return &QueryError{Operation: operation, Entity: entity, Err: err}
}

// InvalidCursorError reports a page cursor that cannot be decoded.
type InvalidCursorError struct {
	Cursor string
}

func (e *InvalidCursorError) Error() string {
	return fmt.Sprintf("invalid cursor %q", e.Cursor)
}

func (e *InvalidCursorError) Unwrap() error { return ErrInvalidCursor }

// NewInvalidCursorError creates a new invalid cursor error.
func NewInvalidCursorError(cursor string) *InvalidCursorError {
	return &InvalidCursorError{Cursor: cursor}
}

// Error checking helpers

// IsNotFound checks if an error signals an absent record.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsUnsupportedOperator checks if an error signals an operator outside the
// closed set.
func IsUnsupportedOperator(err error) bool { return errors.Is(err, ErrUnsupportedOperator) }

// IsSerialization checks if an error signals a codec failure.
func IsSerialization(err error) bool { return errors.Is(err, ErrSerialization) }

// IsSchema checks if an error signals a malformed schema descriptor.
func IsSchema(err error) bool { return errors.Is(err, ErrSchema) }
