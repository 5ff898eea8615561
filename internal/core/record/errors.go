package record

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ValidationError represents a validation error in the domain
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) ValidationError {
	return ValidationError{
		Field:   field,
		Message: message,
	}
}

// IsValidationError checks if an error is a validation error (including wrapped errors)
func IsValidationError(err error) bool {
	var validationErr ValidationError
	return errors.As(err, &validationErr)
}

// NotFoundError represents a missing resource (record, snapshot, field type)
type NotFoundError struct {
	Field   string
	Message string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("not found %s: %s", e.Field, e.Message)
}

// NewNotFoundError constructs NotFoundError
func NewNotFoundError(field, message string) NotFoundError {
	return NotFoundError{Field: field, Message: message}
}

// IsNotFoundError checks if error is NotFoundError
func IsNotFoundError(err error) bool {
	var ne NotFoundError
	return errors.As(err, &ne)
}

// SchemaError reports an inconsistent schema. All problems found during
// schema validation are collected before the error is returned, so a caller
// sees the full set of offending attributes at once.
type SchemaError struct {
	Problems []string
}

func (e SchemaError) Error() string {
	return "invalid schema: " + strings.Join(e.Problems, "; ")
}

// NewSchemaError constructs a SchemaError with a deterministic problem order.
func NewSchemaError(problems []string) SchemaError {
	sorted := make([]string, len(problems))
	copy(sorted, problems)
	sort.Strings(sorted)
	return SchemaError{Problems: sorted}
}

// IsSchemaError checks if error is SchemaError
func IsSchemaError(err error) bool {
	var se SchemaError
	return errors.As(err, &se)
}

// FieldValidationError reports one message per offending field of a content
// document. The caller decides whether to re-prompt or abort.
type FieldValidationError struct {
	Fields map[string]string
}

func (e FieldValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return "invalid content: " + strings.Join(parts, "; ")
}

// IsFieldValidationError checks if error is FieldValidationError
func IsFieldValidationError(err error) bool {
	var fe FieldValidationError
	return errors.As(err, &fe)
}

// UnknownFieldTypeError marks data referencing a field type outside the
// registry. Fatal for the field it names; callers diffing or rendering must
// degrade that one field instead of aborting.
type UnknownFieldTypeError struct {
	Type string
}

func (e UnknownFieldTypeError) Error() string {
	return fmt.Sprintf("unknown field type %q", e.Type)
}

// IsUnknownFieldTypeError checks if error is UnknownFieldTypeError
func IsUnknownFieldTypeError(err error) bool {
	var ue UnknownFieldTypeError
	return errors.As(err, &ue)
}

// AlreadyMajorVersionError rejects promoting a snapshot whose minor is
// already zero. Two consecutive promotions with no intervening edit are
// disallowed.
type AlreadyMajorVersionError struct {
	Major int
	Minor int
}

func (e AlreadyMajorVersionError) Error() string {
	return fmt.Sprintf("version %d.%d is already a major version", e.Major, e.Minor)
}

// IsAlreadyMajorVersionError checks if error is AlreadyMajorVersionError
func IsAlreadyMajorVersionError(err error) bool {
	var ae AlreadyMajorVersionError
	return errors.As(err, &ae)
}
