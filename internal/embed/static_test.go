package embed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticEmbedderDimensions(t *testing.T) {
	e := NewStaticEmbedder(256)
	assert.Equal(t, 256, e.Dimensions())

	e2 := NewStaticEmbedder(0)
	assert.Equal(t, StaticDimensions, e2.Dimensions())
}

func TestStaticEmbedderDeterministic(t *testing.T) {
	e := NewStaticEmbedder(256)
	v1, err := e.Embed(context.Background(), "the quick brown fox jumps")
	require.NoError(t, err)
	v2, err := e.Embed(context.Background(), "the quick brown fox jumps")
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
}

func TestStaticEmbedderDifferentTextDifferentVector(t *testing.T) {
	e := NewStaticEmbedder(256)
	v1, err := e.Embed(context.Background(), "alpha beta gamma")
	require.NoError(t, err)
	v2, err := e.Embed(context.Background(), "completely unrelated content here")
	require.NoError(t, err)
	assert.NotEqual(t, v1, v2)
}

func TestStaticEmbedderEmptyTextYieldsZeroVector(t *testing.T) {
	e := NewStaticEmbedder(128)
	v, err := e.Embed(context.Background(), "   ")
	require.NoError(t, err)
	require.Len(t, v, 128)
	for _, x := range v {
		assert.Zero(t, x)
	}
}

func TestStaticEmbedderUnitNorm(t *testing.T) {
	e := NewStaticEmbedder(256)
	v, err := e.Embed(context.Background(), "some reasonably long piece of text to embed")
	require.NoError(t, err)

	var sumSquares float64
	for _, x := range v {
		sumSquares += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, sumSquares, 1e-6)
}

func TestStaticEmbedderBatchMatchesIndividual(t *testing.T) {
	e := NewStaticEmbedder(256)
	texts := []string{"first chunk", "second chunk", "third chunk"}
	batch, err := e.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, batch, 3)
	for i, text := range texts {
		single, err := e.Embed(context.Background(), text)
		require.NoError(t, err)
		assert.Equal(t, single, batch[i])
	}
}

func TestStaticEmbedderEmptyBatch(t *testing.T) {
	e := NewStaticEmbedder(256)
	batch, err := e.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, batch)
}

func TestStaticEmbedderAvailableUntilClosed(t *testing.T) {
	e := NewStaticEmbedder(256)
	assert.True(t, e.Available(context.Background()))
	require.NoError(t, e.Close())
	assert.False(t, e.Available(context.Background()))

	_, err := e.Embed(context.Background(), "text")
	assert.Error(t, err)
}

func TestStaticEmbedderModelName(t *testing.T) {
	e := NewStaticEmbedder(256)
	assert.Equal(t, "deterministic", e.ModelName())
}

func TestSplitCamelCaseAndSnakeCase(t *testing.T) {
	assert.Equal(t, []string{"get", "User", "Name"}, splitCamelCase("getUserName"))
	assert.Equal(t, []string{"get", "user"}, splitCodeToken("get_user"))
}
