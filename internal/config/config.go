// Package config loads the server's configuration from environment
// variables, with an optional YAML file for local-dev convenience layered
// underneath them. Environment variables always win.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds every setting recognized by the system (spec §6).
type Config struct {
	Qdrant        QdrantConfig        `yaml:"qdrant" json:"qdrant"`
	Embedding     EmbeddingConfig     `yaml:"embedding" json:"embedding"`
	Splitter      SplitterConfig      `yaml:"splitter" json:"splitter"`
	Server        ServerConfig        `yaml:"server" json:"server"`
	Search        SearchConfig        `yaml:"search" json:"search"`
	Summarization SummarizationConfig `yaml:"summarization" json:"summarization"`
}

type QdrantConfig struct {
	URL            string `yaml:"url" json:"url"`
	CollectionName string `yaml:"collection_name" json:"collection_name"`
	APIKey         string `yaml:"api_key" json:"api_key"`
}

type EmbeddingConfig struct {
	Provider  string `yaml:"provider" json:"provider"` // ollama | openai | deterministic
	Model     string `yaml:"model" json:"model"`
	Dimension int    `yaml:"dimension" json:"dimension"`
	OllamaURL string `yaml:"ollama_url" json:"ollama_url"`
	OpenAIKey string `yaml:"-" json:"-"` // never serialized; read from OPENAI_API_KEY only
}

type SplitterConfig struct {
	ChunkSize      int  `yaml:"chunk_size" json:"chunk_size"`
	ChunkOverlap   int  `yaml:"chunk_overlap" json:"chunk_overlap"`
	UseSafeDefault bool `yaml:"use_safe_defaults" json:"use_safe_defaults"`
}

type ServerConfig struct {
	Port int `yaml:"port" json:"port"`
}

type SearchConfig struct {
	DefaultLimit   int     `yaml:"default_limit" json:"default_limit"`
	MaxLimit       int     `yaml:"max_limit" json:"max_limit"`
	ScoreThreshold float64 `yaml:"default_score_threshold" json:"default_score_threshold"`
}

type SummarizationConfig struct {
	Provider string `yaml:"provider" json:"provider"` // auto | abstractive | extractive
	Model    string `yaml:"model" json:"model"`
	MaxWords int    `yaml:"max_words" json:"max_words"`
}

// Default returns the system's documented defaults.
func Default() Config {
	return Config{
		Qdrant: QdrantConfig{
			URL:            "http://localhost:6334",
			CollectionName: "agent_memory",
		},
		Embedding: EmbeddingConfig{
			Provider:  "deterministic",
			Model:     "nomic-embed-text",
			Dimension: 768,
			OllamaURL: "http://localhost:11434",
		},
		Splitter: SplitterConfig{
			ChunkSize:      512,
			ChunkOverlap:   64,
			UseSafeDefault: false,
		},
		Server: ServerConfig{
			Port: 8765,
		},
		Search: SearchConfig{
			DefaultLimit:   10,
			MaxLimit:       100,
			ScoreThreshold: 0.0,
		},
		Summarization: SummarizationConfig{
			Provider: "auto",
			MaxWords: 200,
		},
	}
}

// Load builds the effective configuration: defaults, an optional YAML file
// at path (if non-empty and present), then environment overrides, then
// validation.
func Load(yamlPath string) (Config, error) {
	cfg := Default()

	if yamlPath != "" {
		if data, err := os.ReadFile(yamlPath); err == nil {
			var fileCfg Config
			if err := yaml.Unmarshal(data, &fileCfg); err != nil {
				return Config{}, fmt.Errorf("parsing config file %s: %w", yamlPath, err)
			}
			cfg = mergeNonZero(cfg, fileCfg)
		} else if !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("reading config file %s: %w", yamlPath, err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// mergeNonZero overlays non-zero-value fields of override onto base.
func mergeNonZero(base, override Config) Config {
	if override.Qdrant.URL != "" {
		base.Qdrant.URL = override.Qdrant.URL
	}
	if override.Qdrant.CollectionName != "" {
		base.Qdrant.CollectionName = override.Qdrant.CollectionName
	}
	if override.Qdrant.APIKey != "" {
		base.Qdrant.APIKey = override.Qdrant.APIKey
	}
	if override.Embedding.Provider != "" {
		base.Embedding.Provider = override.Embedding.Provider
	}
	if override.Embedding.Model != "" {
		base.Embedding.Model = override.Embedding.Model
	}
	if override.Embedding.Dimension != 0 {
		base.Embedding.Dimension = override.Embedding.Dimension
	}
	if override.Embedding.OllamaURL != "" {
		base.Embedding.OllamaURL = override.Embedding.OllamaURL
	}
	if override.Splitter.ChunkSize != 0 {
		base.Splitter.ChunkSize = override.Splitter.ChunkSize
	}
	if override.Splitter.ChunkOverlap != 0 {
		base.Splitter.ChunkOverlap = override.Splitter.ChunkOverlap
	}
	base.Splitter.UseSafeDefault = base.Splitter.UseSafeDefault || override.Splitter.UseSafeDefault
	if override.Server.Port != 0 {
		base.Server.Port = override.Server.Port
	}
	if override.Search.DefaultLimit != 0 {
		base.Search.DefaultLimit = override.Search.DefaultLimit
	}
	if override.Search.MaxLimit != 0 {
		base.Search.MaxLimit = override.Search.MaxLimit
	}
	if override.Search.ScoreThreshold != 0 {
		base.Search.ScoreThreshold = override.Search.ScoreThreshold
	}
	if override.Summarization.Provider != "" {
		base.Summarization.Provider = override.Summarization.Provider
	}
	if override.Summarization.Model != "" {
		base.Summarization.Model = override.Summarization.Model
	}
	if override.Summarization.MaxWords != 0 {
		base.Summarization.MaxWords = override.Summarization.MaxWords
	}
	return base
}

func applyEnvOverrides(cfg *Config) {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	i := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	f := func(key string, dst *float64) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.ParseFloat(v, 64); err == nil {
				*dst = n
			}
		}
	}
	b := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			*dst = strings.EqualFold(v, "true") || v == "1"
		}
	}

	str("QDRANT_URL", &cfg.Qdrant.URL)
	str("QDRANT_COLLECTION_NAME", &cfg.Qdrant.CollectionName)
	str("QDRANT_API_KEY", &cfg.Qdrant.APIKey)

	str("EMBEDDING_PROVIDER", &cfg.Embedding.Provider)
	str("EMBEDDING_MODEL", &cfg.Embedding.Model)
	i("EMBEDDING_DIMENSION", &cfg.Embedding.Dimension)
	str("OLLAMA_URL", &cfg.Embedding.OllamaURL)
	cfg.Embedding.OpenAIKey = os.Getenv("OPENAI_API_KEY")

	i("TEXT_SPLITTER_CHUNK_SIZE", &cfg.Splitter.ChunkSize)
	i("TEXT_SPLITTER_CHUNK_OVERLAP", &cfg.Splitter.ChunkOverlap)
	b("TEXT_SPLITTER_USE_SAFE_DEFAULTS", &cfg.Splitter.UseSafeDefault)

	i("SERVER_PORT", &cfg.Server.Port)
	i("SEARCH_DEFAULT_LIMIT", &cfg.Search.DefaultLimit)
	i("SEARCH_MAX_LIMIT", &cfg.Search.MaxLimit)
	f("SEARCH_DEFAULT_SCORE_THRESHOLD", &cfg.Search.ScoreThreshold)
	str("SUMMARIZATION_PROVIDER", &cfg.Summarization.Provider)
	str("SUMMARIZATION_MODEL", &cfg.Summarization.Model)
	i("SUMMARIZATION_MAX_WORDS", &cfg.Summarization.MaxWords)
}

// Validate enforces the invariants the rest of the system assumes hold.
func (c Config) Validate() error {
	switch c.Embedding.Provider {
	case "ollama", "openai", "deterministic":
	default:
		return fmt.Errorf("invalid EMBEDDING_PROVIDER %q: must be ollama, openai, or deterministic", c.Embedding.Provider)
	}
	if c.Embedding.Dimension <= 0 {
		return fmt.Errorf("EMBEDDING_DIMENSION must be positive, got %d", c.Embedding.Dimension)
	}
	if c.Splitter.ChunkOverlap < 0 {
		return fmt.Errorf("TEXT_SPLITTER_CHUNK_OVERLAP must be non-negative")
	}
	if c.Search.MaxLimit <= 0 {
		return fmt.Errorf("SEARCH_MAX_LIMIT must be positive")
	}
	if c.Search.DefaultLimit <= 0 || c.Search.DefaultLimit > c.Search.MaxLimit {
		return fmt.Errorf("SEARCH_DEFAULT_LIMIT must be in (0, %d]", c.Search.MaxLimit)
	}
	if c.Search.ScoreThreshold < 0 || c.Search.ScoreThreshold > 1 {
		return fmt.Errorf("SEARCH_DEFAULT_SCORE_THRESHOLD must be in [0,1]")
	}
	switch c.Summarization.Provider {
	case "auto", "abstractive", "extractive":
	default:
		return fmt.Errorf("invalid SUMMARIZATION_PROVIDER %q: must be auto, abstractive, or extractive", c.Summarization.Provider)
	}
	if c.Summarization.MaxWords <= 0 {
		return fmt.Errorf("SUMMARIZATION_MAX_WORDS must be positive")
	}
	return nil
}

// Redacted returns a copy safe to print: API keys are masked.
func (c Config) Redacted() Config {
	if c.Qdrant.APIKey != "" {
		c.Qdrant.APIKey = "****"
	}
	c.Embedding.OpenAIKey = ""
	return c
}
