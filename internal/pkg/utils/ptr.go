// Package utils holds small generic helpers shared across packages.
package utils

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// Deref returns the value behind p, or the zero value when p is nil.
func Deref[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}

// NilIfEmpty returns nil for the empty string and a pointer to s otherwise.
func NilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
