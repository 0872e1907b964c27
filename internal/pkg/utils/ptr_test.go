package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPtrAndDeref(t *testing.T) {
	p := Ptr(42)
	assert.Equal(t, 42, *p)
	assert.Equal(t, 42, Deref(p))

	var nilInt *int
	assert.Equal(t, 0, Deref(nilInt))
}

func TestNilIfEmpty(t *testing.T) {
	assert.Nil(t, NilIfEmpty(""))
	assert.Equal(t, "x", *NilIfEmpty("x"))
}
