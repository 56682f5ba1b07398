package mcpadapter

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/aman-cerp/memsrv/internal/metrics"
	"github.com/aman-cerp/memsrv/internal/service"
	"github.com/aman-cerp/memsrv/internal/summarize"
)

// PushInput is the `push`/`index` tool's input envelope.
type PushInput struct {
	Text       string `json:"text" jsonschema:"the free-form text to ingest"`
	ProjectID  string `json:"project_id,omitempty" jsonschema:"project this memory belongs to, defaults to 'default'"`
	MemoryType string `json:"memory_type,omitempty" jsonschema:"one of episodic, semantic, procedural; defaults to semantic"`
	Tags       any    `json:"tags,omitempty" jsonschema:"a tag or array of tags"`
	SourceURI  string `json:"source_uri,omitempty" jsonschema:"an optional origin identifier for the text"`
	Collection string `json:"collection,omitempty" jsonschema:"collection to write to, defaults to the configured default"`
}

// PushOutput is the `push`/`index` tool's result.
type PushOutput struct {
	Status            string `json:"status"`
	Collection        string `json:"collection"`
	ChunksIndexed     int    `json:"chunksIndexed"`
	ChunkSize         int    `json:"chunkSize"`
	Inserted          int    `json:"inserted"`
	Updated           int    `json:"updated"`
	SkippedDuplicates int    `json:"skippedDuplicates"`
}

func (s *Server) handlePush(ctx context.Context, _ *mcp.CallToolRequest, in PushInput) (*mcp.CallToolResult, PushOutput, error) {
	result, err := s.svc.Ingest(ctx, service.IngestInput{
		Text:       in.Text,
		ProjectID:  in.ProjectID,
		MemoryType: in.MemoryType,
		Tags:       in.Tags,
		SourceURI:  in.SourceURI,
		Collection: in.Collection,
	})
	if err != nil {
		return nil, PushOutput{}, mapError(err)
	}
	collection := in.Collection
	if collection == "" {
		collection = s.svc.Config().Qdrant.CollectionName
	}
	return nil, PushOutput{
		Status:            "ok",
		Collection:        collection,
		ChunksIndexed:     result.ChunksIndexed,
		ChunkSize:         result.ChunkSize,
		Inserted:          result.Inserted,
		Updated:           result.Updated,
		SkippedDuplicates: result.SkippedDuplicates,
	}, nil
}

// SearchToolInput is the `search` tool's input envelope.
type SearchToolInput struct {
	QueryText      string   `json:"query_text" jsonschema:"the text to search for"`
	ProjectID      string   `json:"project_id,omitempty" jsonschema:"restrict results to this project"`
	MemoryType     string   `json:"memory_type,omitempty" jsonschema:"restrict results to this memory type"`
	Tags           any      `json:"tags,omitempty" jsonschema:"a tag or array of tags, results must contain at least one"`
	Start          string   `json:"start,omitempty" jsonschema:"RFC3339 lower time bound"`
	End            string   `json:"end,omitempty" jsonschema:"RFC3339 upper time bound"`
	Limit          int      `json:"limit,omitempty" jsonschema:"maximum number of results"`
	ScoreThreshold *float64 `json:"score_threshold,omitempty" jsonschema:"minimum similarity score"`
	Collection     string   `json:"collection,omitempty"`
}

// SearchToolOutput is the `search` tool's result. ScoreThreshold and
// ScoreThresholdAlias carry the same value under snake_case and camelCase
// keys, per the documented search result shape.
type SearchToolOutput struct {
	Results             []service.SearchHit `json:"results"`
	Context             string              `json:"context"`
	Collection          string              `json:"collection"`
	Limit               int                 `json:"limit"`
	ScoreThreshold      float64             `json:"score_threshold"`
	ScoreThresholdAlias float64             `json:"scoreThreshold"`
	UsedFilters         service.UsedFilters `json:"used_filters"`
}

func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, in SearchToolInput) (*mcp.CallToolResult, SearchToolOutput, error) {
	req := service.SearchInput{
		QueryText:      in.QueryText,
		ProjectID:      in.ProjectID,
		MemoryType:     in.MemoryType,
		Tags:           in.Tags,
		ScoreThreshold: in.ScoreThreshold,
		Collection:     in.Collection,
	}
	if in.Limit > 0 {
		req.Limit = &in.Limit
	}
	tr, err := parseTimeRange(in.Start, in.End)
	if err != nil {
		return nil, SearchToolOutput{}, mapError(err)
	}
	req.TimeRange = tr

	result, err := s.svc.Search(ctx, req)
	if err != nil {
		return nil, SearchToolOutput{}, mapError(err)
	}
	return nil, SearchToolOutput{
		Results:             result.Results,
		Context:             result.Context,
		Collection:          result.Collection,
		Limit:               result.Limit,
		ScoreThreshold:      result.ScoreThreshold,
		ScoreThresholdAlias: result.ScoreThresholdAlias,
		UsedFilters:         result.UsedFilters,
	}, nil
}

// SummarizeToolInput is the `summarize` tool's input envelope.
type SummarizeToolInput struct {
	Start      string `json:"start" jsonschema:"RFC3339 window start (required)"`
	End        string `json:"end" jsonschema:"RFC3339 window end (required)"`
	ProjectID  string `json:"project_id,omitempty"`
	MemoryType string `json:"memory_type,omitempty" jsonschema:"memory type to summarize over, defaults to episodic"`
	Tags       any    `json:"tags,omitempty"`
	Limit      int    `json:"limit,omitempty" jsonschema:"maximum number of source memories to consider, defaults to 50"`
	Strategy   string `json:"strategy,omitempty" jsonschema:"auto, abstractive, or extractive; defaults to auto"`
	Model      string `json:"model,omitempty"`
	MaxWords   int    `json:"max_words" jsonschema:"maximum length of the generated summary in words (required)"`
	Collection string `json:"collection,omitempty"`
}

// SummarizeToolOutput is the `summarize` tool's result.
type SummarizeToolOutput struct {
	Summary          string              `json:"summary"`
	SourceMemoryIDs  []string            `json:"source_memory_ids"`
	UpsertedMemoryID string              `json:"upserted_memory_id"`
	Strategy         string              `json:"strategy"`
	UsedFilters      service.UsedFilters `json:"used_filters"`
}

func (s *Server) handleSummarize(ctx context.Context, _ *mcp.CallToolRequest, in SummarizeToolInput) (*mcp.CallToolResult, SummarizeToolOutput, error) {
	start, err := parseTime(in.Start)
	if err != nil {
		return nil, SummarizeToolOutput{}, mapError(err)
	}
	end, err := parseTime(in.End)
	if err != nil {
		return nil, SummarizeToolOutput{}, mapError(err)
	}

	strategy := summarize.Auto
	if in.Strategy != "" {
		strategy = summarize.Strategy(in.Strategy)
	}

	result, err := s.svc.Summarize(ctx, service.SummarizeInput{
		TimeRange:  service.TimeRange{Start: start, End: end},
		ProjectID:  in.ProjectID,
		MemoryType: in.MemoryType,
		Tags:       in.Tags,
		Limit:      optionalInt(in.Limit),
		Strategy:   strategy,
		Model:      in.Model,
		MaxWords:   in.MaxWords,
		Collection: in.Collection,
	})
	if err != nil {
		return nil, SummarizeToolOutput{}, mapError(err)
	}
	return nil, SummarizeToolOutput{
		Summary:          result.Summary,
		SourceMemoryIDs:  result.SourceMemoryIDs,
		UpsertedMemoryID: result.UpsertedMemoryID,
		Strategy:         string(result.Strategy),
		UsedFilters:      result.UsedFilters,
	}, nil
}

// GetCollectionsOutput is the `get-collections` tool's result.
type GetCollectionsOutput struct {
	Collections []string `json:"collections"`
}

func (s *Server) handleGetCollections(ctx context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, GetCollectionsOutput, error) {
	names, err := s.svc.GetCollections(ctx)
	if err != nil {
		return nil, GetCollectionsOutput{}, mapError(err)
	}
	return nil, GetCollectionsOutput{Collections: names}, nil
}

// NewCollectionInput is the `new-collection` tool's input envelope.
type NewCollectionInput struct {
	Name       string `json:"name" jsonschema:"collection name (required)"`
	VectorSize int    `json:"vector_size,omitempty" jsonschema:"vector dimension, defaults to the configured embedding dimension"`
}

// NewCollectionOutput is the `new-collection` tool's result.
type NewCollectionOutput struct {
	Status     string `json:"status"`
	VectorSize int    `json:"vectorSize"`
}

func (s *Server) handleNewCollection(ctx context.Context, _ *mcp.CallToolRequest, in NewCollectionInput) (*mcp.CallToolResult, NewCollectionOutput, error) {
	size, err := s.svc.NewCollection(ctx, in.Name, in.VectorSize)
	if err != nil {
		return nil, NewCollectionOutput{}, mapError(err)
	}
	return nil, NewCollectionOutput{Status: "ok", VectorSize: size}, nil
}

// MetricsOutput is the `metrics` tool's result.
type MetricsOutput struct {
	DocumentsIndexed int64  `json:"documentsIndexed"`
	ChunksIndexed    int64  `json:"chunksIndexed"`
	LastChunkSize    *int64 `json:"lastChunkSize,omitempty"`
}

func (s *Server) handleMetrics(_ context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, MetricsOutput, error) {
	snap := s.svc.Metrics()
	return nil, toMetricsOutput(snap), nil
}

func toMetricsOutput(snap metrics.Snapshot) MetricsOutput {
	return MetricsOutput{
		DocumentsIndexed: snap.DocumentsIndexed,
		ChunksIndexed:    snap.ChunksIndexed,
		LastChunkSize:    snap.LastChunkSize,
	}
}

func optionalInt(v int) *int {
	if v <= 0 {
		return nil
	}
	return &v
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, invalidTimeErr(s)
	}
	return t, nil
}

func parseTimeRange(start, end string) (*service.TimeRange, error) {
	if start == "" && end == "" {
		return nil, nil
	}
	s, err := parseTime(start)
	if err != nil {
		return nil, err
	}
	e, err := parseTime(end)
	if err != nil {
		return nil, err
	}
	return &service.TimeRange{Start: s, End: e}, nil
}
