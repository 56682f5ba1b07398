package embed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-cerp/memsrv/internal/config"
)

func TestNewDeterministicProvider(t *testing.T) {
	e, err := New(context.Background(), config.EmbeddingConfig{
		Provider:  "deterministic",
		Dimension: 256,
	})
	require.NoError(t, err)
	assert.Equal(t, 256, e.Dimensions())
	assert.Equal(t, "deterministic", e.ModelName())
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	_, err := New(context.Background(), config.EmbeddingConfig{Provider: "carrier-pigeon"})
	require.Error(t, err)
}

func TestNewOpenAIWithoutKeyFailsClosed(t *testing.T) {
	_, err := New(context.Background(), config.EmbeddingConfig{
		Provider:  "openai",
		Dimension: 1536,
	})
	require.Error(t, err)
}

func TestNewOllamaUnreachableFailsClosed(t *testing.T) {
	_, err := New(context.Background(), config.EmbeddingConfig{
		Provider:  "ollama",
		OllamaURL: "http://127.0.0.1:1",
		Dimension: 768,
	})
	require.Error(t, err)
}
