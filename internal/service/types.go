// Package service implements the Processing Service (spec §4.8): the
// transport-agnostic Ingest/Search/Summarize/Health operations shared by
// both surface adapters.
package service

import (
	"time"

	"github.com/aman-cerp/memsrv/internal/summarize"
)

// TimeRange bounds a request by timestamp. Either bound may be the zero
// time to mean unbounded; parsing the RFC3339 wire representation is the
// surface adapter's job, the service only validates start ≤ end.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// IngestInput is the canonical shape for an ingest/push call.
type IngestInput struct {
	Text       string
	ProjectID  string
	MemoryType string
	Tags       any
	SourceURI  string
	Collection string
}

// IngestResult is §4.8.1's result shape.
type IngestResult struct {
	Inserted          int `json:"inserted"`
	Updated           int `json:"updated"`
	SkippedDuplicates int `json:"skipped_duplicates"`
	ChunksIndexed     int `json:"chunks_indexed"`
	ChunkSize         int `json:"chunk_size"`
}

// SearchInput is the pre-alias-resolution shape a surface adapter parses a
// request envelope into. Project/Type/K are the documented aliases for
// ProjectID/MemoryType/Limit; the service resolves them before validating.
type SearchInput struct {
	QueryText      string
	ProjectID      string
	Project        string
	MemoryType     string
	Type           string
	Tags           any
	TimeRange      *TimeRange
	Limit          *int
	K              *int
	ScoreThreshold *float64
	Collection     string
}

// SearchHit is one mapped result; pointer payload fields are nil when the
// underlying memory doesn't carry them.
type SearchHit struct {
	ID         string     `json:"id"`
	Score      float64    `json:"score"`
	Text       *string    `json:"text,omitempty"`
	ProjectID  *string    `json:"project_id,omitempty"`
	MemoryType *string    `json:"memory_type,omitempty"`
	Tags       []string   `json:"tags,omitempty"`
	Timestamp  *time.Time `json:"timestamp,omitempty"`
	SourceURI  *string    `json:"source_uri,omitempty"`
}

// UsedFilters echoes the validated, post-alias filter values a search or
// summarize call actually ran with.
type UsedFilters struct {
	ProjectID  string     `json:"project_id,omitempty"`
	MemoryType string     `json:"memory_type,omitempty"`
	Tags       []string   `json:"tags,omitempty"`
	TimeRange  *TimeRange `json:"time_range,omitempty"`
}

// SearchResult is §4.8.2's response shape. ScoreThreshold and
// ScoreThresholdAlias must be equal; the duplicate field name exists only
// for wire compatibility with older clients.
type SearchResult struct {
	Results             []SearchHit `json:"results"`
	Context             string      `json:"context"`
	Collection          string      `json:"collection"`
	Limit               int         `json:"limit"`
	ScoreThreshold      float64     `json:"score_threshold"`
	ScoreThresholdAlias float64     `json:"scoreThreshold"`
	UsedFilters         UsedFilters `json:"used_filters"`
}

// SummarizeInput is the canonical shape for a summarize call.
type SummarizeInput struct {
	TimeRange  TimeRange
	ProjectID  string
	MemoryType string
	Tags       any
	Limit      *int
	Strategy   summarize.Strategy
	Provider   string
	Model      string
	MaxWords   int
	Collection string
}

// SummarizeResult is §4.8.3's response shape.
type SummarizeResult struct {
	Summary          string             `json:"summary"`
	SourceMemoryIDs  []string           `json:"source_memory_ids"`
	UpsertedMemoryID string             `json:"upserted_memory_id"`
	Strategy         summarize.Strategy `json:"strategy"`
	Provider         string             `json:"provider,omitempty"`
	Model            string             `json:"model,omitempty"`
	UsedFilters      UsedFilters        `json:"used_filters"`
}

// EmbeddingHealth reports the active embedding provider's identity.
type EmbeddingHealth struct {
	Provider  string `json:"provider"`
	Model     string `json:"model"`
	Dimension int    `json:"dimension"`
}

// StoreHealth reports the vector store's reachability.
type StoreHealth struct {
	URL                      string `json:"url"`
	Reachable                bool   `json:"reachable"`
	DefaultCollection        string `json:"default_collection"`
	DefaultCollectionPresent bool   `json:"default_collection_present"`
	Error                    string `json:"error,omitempty"`
}

// HealthResult is §4.8.4's response shape.
type HealthResult struct {
	Embedding EmbeddingHealth `json:"embedding"`
	Store     StoreHealth     `json:"store"`
}
