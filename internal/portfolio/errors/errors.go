// Package errors defines the sentinel errors shared by the store, service and
// transport layers, plus ValidationError for field-level form errors.
package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound            = fmt.Errorf("not found")
	ErrDuplicate           = fmt.Errorf("duplicate")
	ErrInvalidInput        = fmt.Errorf("invalid input")
	ErrConstraintViolation = fmt.Errorf("constraint violation")
	ErrConflict            = fmt.Errorf("conflict")
	ErrUnauthorized        = fmt.Errorf("unauthorized")
	ErrForbidden           = fmt.Errorf("forbidden")
	ErrUnknownContentType  = fmt.Errorf("unknown content type")
)

// NonFieldKey is the key used for errors that do not belong to a single field.
const NonFieldKey = "__all__"

// ValidationError collects field -> message pairs. It matches ErrInvalidInput
// with errors.Is.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError returns an empty ValidationError ready for Add.
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: map[string]string{}}
}

// FieldError is shorthand for a ValidationError holding a single message.
func FieldError(field, message string) *ValidationError {
	v := NewValidationError()
	v.Add(field, message)
	return v
}

// Add records a message for field. The first message per field wins.
func (v *ValidationError) Add(field, message string) {
	if _, ok := v.Fields[field]; ok {
		return
	}
	v.Fields[field] = message
}

// Has reports whether field already has a message.
func (v *ValidationError) Has(field string) bool {
	_, ok := v.Fields[field]
	return ok
}

// Merge copies every message of other into v.
func (v *ValidationError) Merge(other *ValidationError) {
	if other == nil {
		return
	}
	for f, m := range other.Fields {
		v.Add(f, m)
	}
}

// OrNil returns nil when no field has been flagged so callers can
// `return v.OrNil()` without the typed-nil trap.
func (v *ValidationError) OrNil() error {
	if v == nil || len(v.Fields) == 0 {
		return nil
	}
	return v
}

func (v *ValidationError) Error() string {
	keys := make([]string, 0, len(v.Fields))
	for k := range v.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+v.Fields[k])
	}
	return fmt.Sprintf("%s: %s", ErrInvalidInput, strings.Join(parts, "; "))
}

func (v *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// AsValidation extracts a ValidationError from err's chain.
func AsValidation(err error) (*ValidationError, bool) {
	var v *ValidationError
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}
