package embed

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/aman-cerp/memsrv/internal/config"
	"github.com/aman-cerp/memsrv/internal/errs"
)

const defaultOpenAIEmbeddingModel = "text-embedding-3-small"

// openAIContextWindows maps known embedding models to their documented
// token context window.
var openAIContextWindows = map[string]int{
	"text-embedding-3-small": 8191,
	"text-embedding-3-large": 8191,
	"text-embedding-ada-002": 8191,
}

// OpenAIEmbedder generates embeddings via the OpenAI embeddings API (spec
// §4.4, live provider "openai").
type OpenAIEmbedder struct {
	client *openai.Client
	model  string
	dims   int

	mu     sync.RWMutex
	closed bool
}

var _ Embedder = (*OpenAIEmbedder)(nil)

func newOpenAI(_ context.Context, cfg config.EmbeddingConfig) (Embedder, error) {
	if cfg.OpenAIKey == "" {
		return nil, errs.ProviderUnavailablef("set OPENAI_API_KEY", "openai provider configured but OPENAI_API_KEY is not set")
	}

	model := cfg.Model
	if model == "" {
		model = defaultOpenAIEmbeddingModel
	}

	dims := cfg.Dimension
	if dims <= 0 {
		dims = DefaultDimensions
	}

	client := openai.NewClient(option.WithAPIKey(cfg.OpenAIKey))

	return &OpenAIEmbedder{
		client: &client,
		model:  model,
		dims:   dims,
	}, nil
}

// Embed generates the embedding for a single text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch generates embeddings for multiple texts, chunked into
// DefaultBatchSize-sized requests.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return nil, fmt.Errorf("embedder is closed")
	}
	e.mu.RUnlock()

	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	type indexedText struct {
		idx  int
		text string
	}
	var nonEmpty []indexedText
	results := make([][]float32, len(texts))
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			results[i] = make([]float32, e.dims)
		} else {
			nonEmpty = append(nonEmpty, indexedText{i, text})
		}
	}
	if len(nonEmpty) == 0 {
		return results, nil
	}

	for start := 0; start < len(nonEmpty); start += DefaultBatchSize {
		end := start + DefaultBatchSize
		if end > len(nonEmpty) {
			end = len(nonEmpty)
		}
		batch := nonEmpty[start:end]
		inputs := make([]string, len(batch))
		for i, it := range batch {
			inputs[i] = it.text
		}

		resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Model:          e.model,
			Input:          openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: inputs},
			Dimensions:     openai.Int(int64(e.dims)),
			EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
		})
		if err != nil {
			return nil, errs.ProviderUnavailablef("check OPENAI_API_KEY and network connectivity",
				"openai embeddings request failed: %v", err)
		}
		if len(resp.Data) != len(batch) {
			return nil, errs.Internalf("openai returned %d embeddings for %d inputs", len(resp.Data), len(batch))
		}

		for i, d := range resp.Data {
			vec := make([]float32, len(d.Embedding))
			for j, v := range d.Embedding {
				vec[j] = float32(v)
			}
			if len(vec) != e.dims {
				return nil, errs.DimensionMismatchf("openai model %q returned dimension %d, expected %d", e.model, len(vec), e.dims)
			}
			results[batch[i].idx] = normalizeVector(vec)
		}
	}

	return results, nil
}

func (e *OpenAIEmbedder) Dimensions() int { return e.dims }

func (e *OpenAIEmbedder) ModelName() string { return e.model }

// ContextWindow reports the active model's known context window, or 0 if
// it isn't in openAIContextWindows.
func (e *OpenAIEmbedder) ContextWindow() int {
	return openAIContextWindows[e.model]
}

// Available performs a minimal live probe by embedding a short string.
func (e *OpenAIEmbedder) Available(ctx context.Context) bool {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return false
	}
	e.mu.RUnlock()

	_, err := e.Embed(ctx, "ping")
	return err == nil
}

func (e *OpenAIEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}
