package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationErrorMatchesInvalidInput(t *testing.T) {
	v := FieldError("name", "required")
	wrapped := fmt.Errorf("create company: %w", v)

	assert.ErrorIs(t, wrapped, ErrInvalidInput)
	assert.NotErrorIs(t, wrapped, ErrNotFound)

	got, ok := AsValidation(wrapped)
	assert.True(t, ok)
	assert.Equal(t, "required", got.Fields["name"])
}

func TestValidationErrorFirstMessageWins(t *testing.T) {
	v := NewValidationError()
	v.Add("email", "first")
	v.Add("email", "second")

	assert.Equal(t, "first", v.Fields["email"])
	assert.True(t, v.Has("email"))
}

func TestValidationErrorOrNil(t *testing.T) {
	assert.NoError(t, NewValidationError().OrNil())

	v := NewValidationError()
	v.Add("b", "bad")
	v.Add("a", "also bad")
	err := v.OrNil()
	assert.Error(t, err)
	assert.Equal(t, "invalid input: a: also bad; b: bad", err.Error())
}

func TestAsValidationOnPlainError(t *testing.T) {
	_, ok := AsValidation(errors.New("boom"))
	assert.False(t, ok)
}
