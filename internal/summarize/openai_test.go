package summarize

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpenAIProviderAvailableRequiresKey(t *testing.T) {
	assert.False(t, NewOpenAIProvider("").Available(context.Background()))
	assert.True(t, NewOpenAIProvider("sk-test").Available(context.Background()))
}
