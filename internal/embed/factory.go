package embed

import (
	"context"

	"github.com/aman-cerp/memsrv/internal/config"
	"github.com/aman-cerp/memsrv/internal/errs"
)

// New constructs the Embedder selected by cfg.Provider (spec §4.4,
// §6 EMBEDDING_PROVIDER). An explicitly configured live provider
// (ollama/openai) that is unreachable fails with provider_unavailable; it
// never silently falls back to the deterministic embedder, since a
// dimension mismatch between runs would corrupt the collection.
func New(ctx context.Context, cfg config.EmbeddingConfig) (Embedder, error) {
	switch cfg.Provider {
	case "ollama":
		return newOllama(ctx, cfg)
	case "openai":
		return newOpenAI(ctx, cfg)
	case "deterministic":
		return NewStaticEmbedder(cfg.Dimension), nil
	default:
		return nil, errs.InvalidParamsf("EMBEDDING_PROVIDER %q is not one of ollama, openai, deterministic", cfg.Provider)
	}
}

func newOllama(ctx context.Context, cfg config.EmbeddingConfig) (Embedder, error) {
	oc := DefaultOllamaConfig()
	if cfg.Model != "" {
		oc.Model = cfg.Model
	}
	if cfg.OllamaURL != "" {
		oc.Host = cfg.OllamaURL
	}
	if cfg.Dimension > 0 {
		oc.Dimensions = cfg.Dimension
	}

	embedder, err := NewOllamaEmbedder(ctx, oc)
	if err != nil {
		return nil, err
	}
	if cfg.Dimension > 0 && embedder.Dimensions() != cfg.Dimension {
		_ = embedder.Close()
		return nil, errs.DimensionMismatchf("ollama model %q reports dimension %d, collection expects %d",
			embedder.ModelName(), embedder.Dimensions(), cfg.Dimension)
	}
	return embedder, nil
}
