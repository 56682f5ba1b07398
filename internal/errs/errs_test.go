package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessageWithAndWithoutHint(t *testing.T) {
	plain := New(NotFound, "memory 123 not found")
	assert.Equal(t, "not_found: memory 123 not found", plain.Error())

	hinted := ProviderUnavailablef("start Ollama", "ollama unreachable at %s", "localhost:11434")
	assert.Equal(t, "provider_unavailable: ollama unreachable at localhost:11434 (start Ollama)", hinted.Error())
}

func TestErrorIsMatchesByKind(t *testing.T) {
	a := NotFoundf("memory %s not found", "abc")
	b := New(NotFound, "")
	assert.True(t, errors.Is(a, b))

	c := New(Conflict, "")
	assert.False(t, errors.Is(a, c))
}

func TestErrorUnwrapExposesCause(t *testing.T) {
	cause := errors.New("connection refused")
	wrapped := StoreUnavailablef("qdrant dial failed").WithCause(cause)
	assert.Equal(t, cause, errors.Unwrap(wrapped))
	assert.True(t, errors.Is(wrapped, cause))
}

func TestKindOfUnwrapsStructuredError(t *testing.T) {
	err := fmt.Errorf("wrapping: %w", DimensionMismatchf("got %d want %d", 256, 768))
	assert.Equal(t, DimensionMismatch, KindOf(err))
}

func TestKindOfDefaultsToInternalForPlainError(t *testing.T) {
	assert.Equal(t, Internal, KindOf(errors.New("boom")))
}

func TestConstructorsSetExpectedKind(t *testing.T) {
	cases := []struct {
		err  *Error
		kind Kind
	}{
		{InvalidParamsf("x"), InvalidParams},
		{DimensionMismatchf("x"), DimensionMismatch},
		{StoreUnavailablef("x"), StoreUnavailable},
		{NotFoundf("x"), NotFound},
		{Conflictf("x"), Conflict},
		{Internalf("x"), Internal},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.kind, tc.err.Kind)
	}
}

func TestWithHintAndWithCauseChain(t *testing.T) {
	cause := errors.New("root cause")
	err := New(Internal, "something broke").WithHint("retry later").WithCause(cause)
	require.Equal(t, "retry later", err.Hint)
	require.Equal(t, cause, err.Cause)
}
