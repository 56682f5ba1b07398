package embed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-cerp/memsrv/internal/config"
)

func TestNewOpenAIRequiresAPIKey(t *testing.T) {
	_, err := newOpenAI(context.Background(), config.EmbeddingConfig{Dimension: 1536})
	require.Error(t, err)
}

func TestNewOpenAIDefaultsModelAndDimension(t *testing.T) {
	e, err := newOpenAI(context.Background(), config.EmbeddingConfig{OpenAIKey: "sk-test"})
	require.NoError(t, err)
	assert.Equal(t, defaultOpenAIEmbeddingModel, e.ModelName())
	assert.Equal(t, DefaultDimensions, e.Dimensions())
}

func TestNewOpenAIHonorsConfiguredModelAndDimension(t *testing.T) {
	e, err := newOpenAI(context.Background(), config.EmbeddingConfig{
		OpenAIKey: "sk-test",
		Model:     "text-embedding-3-large",
		Dimension: 3072,
	})
	require.NoError(t, err)
	assert.Equal(t, "text-embedding-3-large", e.ModelName())
	assert.Equal(t, 3072, e.Dimensions())
}
