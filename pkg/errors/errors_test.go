package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypedConstructorsAndPredicates(t *testing.T) {
	cases := []struct {
		name      string
		err       *DomainError
		predicate func(error) bool
	}{
		{"validation", NewValidationError("bad input", nil), IsValidationError},
		{"not_found", NewNotFoundError("missing", nil), IsNotFoundError},
		{"conflict", NewConflictError("exists", nil), IsConflictError},
		{"process", NewProcessError("spawn failed", nil), IsProcessError},
		{"io", NewIOError("read failed", nil), IsIOError},
		{"timeout", NewTimeoutError("too slow", nil), IsTimeoutError},
		{"internal", NewInternalError("oops", nil), IsInternalError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, tc.predicate(tc.err))
			assert.False(t, IsValidationError(tc.err) && tc.name != "validation")
		})
	}
}

func TestPredicates_NonDomainError(t *testing.T) {
	assert.False(t, IsValidationError(fmt.Errorf("plain")))
	assert.False(t, IsProcessError(nil))
}

func TestWithContextAndUnwrap(t *testing.T) {
	cause := fmt.Errorf("underlying")
	err := NewProcessError("spawn failed", cause).
		WithContext("pid", 42).
		WithContext("path", "/bin/awim")

	assert.Equal(t, cause, err.Unwrap())
	assert.Contains(t, err.Error(), "spawn failed")
	assert.Contains(t, err.Error(), "pid=42")
	assert.Contains(t, err.Error(), "path=/bin/awim")
	assert.Contains(t, err.Error(), "underlying")
}

func TestPredicates_WrappedDomainError(t *testing.T) {
	inner := NewValidationError("bad port", nil)
	wrapped := fmt.Errorf("handling request: %w", inner)

	assert.True(t, IsValidationError(wrapped))
	assert.False(t, IsProcessError(wrapped))
}
