package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/aman-cerp/memsrv/internal/chunk"
	"github.com/aman-cerp/memsrv/internal/config"
	"github.com/aman-cerp/memsrv/internal/embed"
	"github.com/aman-cerp/memsrv/internal/errs"
	"github.com/aman-cerp/memsrv/internal/filterbuild"
	"github.com/aman-cerp/memsrv/internal/hash"
	"github.com/aman-cerp/memsrv/internal/metrics"
	"github.com/aman-cerp/memsrv/internal/sanitize"
	"github.com/aman-cerp/memsrv/internal/summarize"
	"github.com/aman-cerp/memsrv/internal/vectorstore"
)

const maxQueryTextLen = 512

// Service is the shared, transport-agnostic implementation both surface
// adapters call into. It is constructed once and passed by reference; it
// holds no global state beyond its own fields, and metrics are the only
// mutable state, guarded by atomics.
type Service struct {
	embedder   embed.Embedder
	store      vectorstore.Store
	summarizer *summarize.Client
	metrics    *metrics.Registry
	cfg        config.Config
}

// New wires an already-constructed embedder, store, and summarizer into a
// Service using cfg for defaults (default collection, limits, etc).
func New(embedder embed.Embedder, store vectorstore.Store, summarizer *summarize.Client, reg *metrics.Registry, cfg config.Config) *Service {
	return &Service{embedder: embedder, store: store, summarizer: summarizer, metrics: reg, cfg: cfg}
}

func (s *Service) collectionOrDefault(name string) string {
	if name != "" {
		return name
	}
	return s.cfg.Qdrant.CollectionName
}

// Ingest implements §4.8.1.
func (s *Service) Ingest(ctx context.Context, in IngestInput) (IngestResult, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return IngestResult{}, errs.InvalidParamsf("text must not be empty")
	}

	meta, err := sanitize.Sanitize(sanitize.Raw{
		ProjectID:  in.ProjectID,
		MemoryType: in.MemoryType,
		Tags:       in.Tags,
		SourceURI:  in.SourceURI,
	})
	if err != nil {
		return IngestResult{}, err
	}

	collection := s.collectionOrDefault(in.Collection)
	dimension := s.embedder.Dimensions()
	if err := s.store.EnsureCollection(ctx, collection, dimension); err != nil {
		return IngestResult{}, err
	}
	if err := s.store.CreatePayloadIndexes(ctx, collection); err != nil {
		return IngestResult{}, err
	}

	budget := chunk.DeriveBudget(s.cfg.Splitter.ChunkSize, s.embedder.ContextWindow(), s.cfg.Splitter.UseSafeDefault)
	chunks := chunk.Split(text, budget, s.cfg.Splitter.ChunkOverlap)

	type pending struct {
		text string
		hash string
	}
	seen := make(map[string]bool, len(chunks))
	var kept []pending
	skippedDuplicates := 0
	for _, c := range chunks {
		h := hash.ChunkHash(c.Text)
		if seen[h] {
			skippedDuplicates++
			continue
		}
		seen[h] = true
		kept = append(kept, pending{text: c.Text, hash: h})
	}

	result := IngestResult{
		SkippedDuplicates: skippedDuplicates,
		ChunksIndexed:     len(kept),
		ChunkSize:         budget,
	}
	if len(kept) == 0 {
		s.metrics.RecordIngest(0, budget)
		return result, nil
	}

	texts := make([]string, len(kept))
	for i, p := range kept {
		texts[i] = p.text
	}
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return IngestResult{}, err
	}
	if len(vectors) != len(kept) {
		return IngestResult{}, errs.Internalf("embedder returned %d vectors for %d chunks", len(vectors), len(kept))
	}

	now := time.Now().UTC()
	points := make([]vectorstore.Memory, len(kept))
	for i, p := range kept {
		if len(vectors[i]) != dimension {
			return IngestResult{}, errs.DimensionMismatchf("embedding returned %d dimensions, collection %q expects %d", len(vectors[i]), collection, dimension)
		}
		points[i] = vectorstore.Memory{
			MemoryID:   uuid.NewString(),
			ProjectID:  meta.ProjectID,
			MemoryType: string(meta.MemoryType),
			Timestamp:  now,
			SourceURI:  meta.SourceURI,
			ChunkHash:  p.hash,
			Tags:       meta.Tags,
			Text:       p.text,
			Vector:     vectors[i],
		}
	}

	upsertResult, err := s.store.Upsert(ctx, collection, points)
	if err != nil {
		return IngestResult{}, err
	}
	result.Inserted = upsertResult.Inserted
	result.Updated = upsertResult.Updated

	s.metrics.RecordIngest(len(kept), budget)
	return result, nil
}

// Search implements §4.8.2.
func (s *Service) Search(ctx context.Context, in SearchInput) (SearchResult, error) {
	queryText := strings.TrimSpace(in.QueryText)
	if queryText == "" {
		return SearchResult{}, errs.InvalidParamsf("query_text must not be empty")
	}
	if n := utf8.RuneCountInString(queryText); n > maxQueryTextLen {
		return SearchResult{}, errs.InvalidParamsf("query_text must be at most %d characters, got %d", maxQueryTextLen, n)
	}

	projectID := in.ProjectID
	if projectID == "" {
		projectID = in.Project
	}
	memoryType := in.MemoryType
	if memoryType == "" {
		memoryType = in.Type
	}
	if memoryType != "" && !sanitize.MemoryType(memoryType).Valid() {
		return SearchResult{}, errs.InvalidParamsf("memory_type %q is not one of episodic, semantic, procedural", memoryType)
	}

	tags, err := sanitize.SanitizeTags(in.Tags)
	if err != nil {
		return SearchResult{}, err
	}

	if in.TimeRange != nil {
		if !in.TimeRange.Start.IsZero() && !in.TimeRange.End.IsZero() && in.TimeRange.Start.After(in.TimeRange.End) {
			return SearchResult{}, errs.InvalidParamsf("time_range.start must be <= time_range.end")
		}
	}

	limit := s.cfg.Search.DefaultLimit
	if in.Limit != nil {
		limit = *in.Limit
	} else if in.K != nil {
		limit = *in.K
	}
	if limit <= 0 || limit > s.cfg.Search.MaxLimit {
		return SearchResult{}, errs.InvalidParamsf("limit must be a positive integer <= %d, got %d", s.cfg.Search.MaxLimit, limit)
	}

	scoreThreshold := s.cfg.Search.ScoreThreshold
	if in.ScoreThreshold != nil {
		scoreThreshold = *in.ScoreThreshold
	}
	if scoreThreshold < 0 || scoreThreshold > 1 {
		return SearchResult{}, errs.InvalidParamsf("score_threshold must be in [0,1], got %v", scoreThreshold)
	}

	vec, err := s.embedder.Embed(ctx, queryText)
	if err != nil {
		return SearchResult{}, err
	}

	fbReq := filterbuild.Request{ProjectID: projectID, MemoryType: memoryType, Tags: tags}
	if in.TimeRange != nil {
		fbReq.Start = in.TimeRange.Start
		fbReq.End = in.TimeRange.End
	}
	filter := filterbuild.Build(fbReq)

	collection := s.collectionOrDefault(in.Collection)
	hits, err := s.store.Query(ctx, collection, vec, filter, limit, &scoreThreshold)
	if err != nil {
		return SearchResult{}, err
	}

	searchHits := make([]SearchHit, len(hits))
	var contextParts []string
	for i, h := range hits {
		sh := SearchHit{ID: h.Memory.MemoryID, Score: h.Score, Tags: h.Memory.Tags}
		if h.Memory.Text != "" {
			text := h.Memory.Text
			sh.Text = &text
			contextParts = append(contextParts, fmt.Sprintf("%s [%s]", snippet(text), h.Memory.MemoryID))
		}
		if h.Memory.ProjectID != "" {
			pid := h.Memory.ProjectID
			sh.ProjectID = &pid
		}
		if h.Memory.MemoryType != "" {
			mt := h.Memory.MemoryType
			sh.MemoryType = &mt
		}
		if !h.Memory.Timestamp.IsZero() {
			ts := h.Memory.Timestamp
			sh.Timestamp = &ts
		}
		if h.Memory.SourceURI != "" {
			uri := h.Memory.SourceURI
			sh.SourceURI = &uri
		}
		searchHits[i] = sh
	}

	var timeRangeOut *TimeRange
	if in.TimeRange != nil {
		timeRangeOut = in.TimeRange
	}

	return SearchResult{
		Results:             searchHits,
		Context:             strings.Join(contextParts, "\n"),
		Collection:          collection,
		Limit:               limit,
		ScoreThreshold:      scoreThreshold,
		ScoreThresholdAlias: scoreThreshold,
		UsedFilters: UsedFilters{
			ProjectID:  projectID,
			MemoryType: memoryType,
			Tags:       tags,
			TimeRange:  timeRangeOut,
		},
	}, nil
}

const snippetLen = 320

// snippet truncates text to at most snippetLen runes, appending "…" when it
// had to cut. Slicing by rune (not byte) keeps multibyte characters intact.
func snippet(text string) string {
	runes := []rune(text)
	if len(runes) <= snippetLen {
		return text
	}
	return string(runes[:snippetLen]) + "…"
}

// Summarize implements §4.8.3.
func (s *Service) Summarize(ctx context.Context, in SummarizeInput) (SummarizeResult, error) {
	if in.TimeRange.Start.IsZero() || in.TimeRange.End.IsZero() {
		return SummarizeResult{}, errs.InvalidParamsf("time_range.start and time_range.end are required")
	}
	if in.TimeRange.Start.After(in.TimeRange.End) {
		return SummarizeResult{}, errs.InvalidParamsf("time_range.start must be <= time_range.end")
	}

	memoryType := in.MemoryType
	if memoryType == "" {
		memoryType = string(sanitize.Episodic)
	}
	if !sanitize.MemoryType(memoryType).Valid() {
		return SummarizeResult{}, errs.InvalidParamsf("memory_type %q is not one of episodic, semantic, procedural", memoryType)
	}

	tags, err := sanitize.SanitizeTags(in.Tags)
	if err != nil {
		return SummarizeResult{}, err
	}

	limit := 50
	if in.Limit != nil {
		limit = *in.Limit
	}
	if limit <= 0 || limit > s.cfg.Search.MaxLimit {
		return SummarizeResult{}, errs.InvalidParamsf("limit must be a positive integer <= %d, got %d", s.cfg.Search.MaxLimit, limit)
	}
	if in.MaxWords <= 0 {
		return SummarizeResult{}, errs.InvalidParamsf("max_words must be positive, got %d", in.MaxWords)
	}

	collection := s.collectionOrDefault(in.Collection)
	filter := filterbuild.Build(filterbuild.Request{
		ProjectID:  in.ProjectID,
		MemoryType: memoryType,
		Tags:       tags,
		Start:      in.TimeRange.Start,
		End:        in.TimeRange.End,
	})

	candidates, err := s.scrollAll(ctx, collection, filter, limit)
	if err != nil {
		return SummarizeResult{}, err
	}
	if len(candidates) == 0 {
		return SummarizeResult{}, errs.InvalidParamsf("no memories in window")
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Timestamp.Before(candidates[j].Timestamp) })

	sourceIDs := make([]string, len(candidates))
	for i, c := range candidates {
		sourceIDs[i] = c.MemoryID
	}

	usedFilters := UsedFilters{
		ProjectID:  in.ProjectID,
		MemoryType: memoryType,
		Tags:       tags,
		TimeRange:  &TimeRange{Start: in.TimeRange.Start, End: in.TimeRange.End},
	}

	summaryKey := hash.SummaryKey(in.ProjectID, in.TimeRange.Start.Format(time.RFC3339), in.TimeRange.End.Format(time.RFC3339), sourceIDs)
	summaryTag := hash.SummaryTag(summaryKey)

	probeFilter := filterbuild.Build(filterbuild.Request{
		ProjectID:  in.ProjectID,
		MemoryType: string(sanitize.Semantic),
		Tags:       []string{summaryTag},
	})
	existing, err := s.scrollAll(ctx, collection, probeFilter, 1)
	if err != nil {
		return SummarizeResult{}, err
	}
	if len(existing) > 0 {
		existingMem := existing[0]
		return SummarizeResult{
			Summary:          existingMem.Text,
			SourceMemoryIDs:  existingMem.SourceMemoryIDs,
			UpsertedMemoryID: existingMem.MemoryID,
			Strategy:         in.Strategy,
			Provider:         in.Provider,
			Model:            in.Model,
			UsedFilters:      usedFilters,
		}, nil
	}

	items := make([]summarize.Item, len(candidates))
	for i, c := range candidates {
		items[i] = summarize.Item{ID: c.MemoryID, Text: c.Text, Timestamp: c.Timestamp}
	}
	summary, usedStrategy, err := s.summarizer.Generate(ctx, in.Strategy, in.ProjectID, in.TimeRange.Start, in.TimeRange.End, items, in.MaxWords, in.Model)
	if err != nil {
		return SummarizeResult{}, err
	}

	vec, err := s.embedder.Embed(ctx, summary)
	if err != nil {
		return SummarizeResult{}, err
	}
	dimension := s.embedder.Dimensions()
	if len(vec) != dimension {
		return SummarizeResult{}, errs.DimensionMismatchf("embedding returned %d dimensions, collection %q expects %d", len(vec), collection, dimension)
	}

	summaryTags := append([]string(nil), tags...)
	summaryTags = append(summaryTags, "summary", summaryTag)

	summaryMemory := vectorstore.Memory{
		MemoryID:        uuid.NewString(),
		ProjectID:       in.ProjectID,
		MemoryType:      string(sanitize.Semantic),
		Timestamp:       time.Now().UTC(),
		ChunkHash:       hash.ChunkHash(summary),
		Tags:            summaryTags,
		Text:            summary,
		Vector:          vec,
		SourceMemoryIDs: sourceIDs,
		SummaryKey:      summaryKey,
	}

	if _, err := s.store.Upsert(ctx, collection, []vectorstore.Memory{summaryMemory}); err != nil {
		return SummarizeResult{}, err
	}

	return SummarizeResult{
		Summary:          summary,
		SourceMemoryIDs:  sourceIDs,
		UpsertedMemoryID: summaryMemory.MemoryID,
		Strategy:         usedStrategy,
		Provider:         in.Provider,
		Model:            in.Model,
		UsedFilters:      usedFilters,
	}, nil
}

// GetCollections lists every collection known to the store (the
// `get-collections` MCP tool / `GET /collections` HTTP route).
func (s *Service) GetCollections(ctx context.Context) ([]string, error) {
	return s.store.ListCollections(ctx)
}

// NewCollection explicitly provisions a collection with the given vector
// size, defaulting to the configured embedding dimension when vectorSize is
// unset (the `new-collection` MCP tool / `POST /collections` HTTP route).
func (s *Service) NewCollection(ctx context.Context, name string, vectorSize int) (int, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, errs.InvalidParamsf("name must not be empty")
	}
	if vectorSize <= 0 {
		vectorSize = s.embedder.Dimensions()
	}
	if err := s.store.EnsureCollection(ctx, name, vectorSize); err != nil {
		return 0, err
	}
	if err := s.store.CreatePayloadIndexes(ctx, name); err != nil {
		return 0, err
	}
	return vectorSize, nil
}

// scrollAll drains the store's scroll cursor for filter, capped at limit
// memories.
func (s *Service) scrollAll(ctx context.Context, collection string, filter vectorstore.Filter, limit int) ([]vectorstore.Memory, error) {
	const pageSize = 100
	cursor, err := s.store.Scroll(ctx, collection, filter, pageSize)
	if err != nil {
		return nil, err
	}

	var out []vectorstore.Memory
	for len(out) < limit {
		page, ok, err := cursor.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		out = append(out, page...)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

const resourceEnumerationCap = 1000

// DistinctProjects lazily enumerates distinct project_id values in the
// default collection via scroll, one page at a time. It stops paging once
// resourceEnumerationCap distinct values are collected (the last page can
// push the count past the cap); with fewer distinct values it scrolls the
// whole collection (spec §4.11, §9 lazy enumeration).
func (s *Service) DistinctProjects(ctx context.Context) ([]string, error) {
	cursor, err := s.store.Scroll(ctx, s.cfg.Qdrant.CollectionName, vectorstore.Filter{}, 100)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var out []string
	for len(out) < resourceEnumerationCap {
		page, ok, err := cursor.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		for _, m := range page {
			if m.ProjectID != "" && !seen[m.ProjectID] {
				seen[m.ProjectID] = true
				out = append(out, m.ProjectID)
			}
		}
	}
	return out, nil
}

// DistinctTags lazily enumerates distinct tag values for one project.
func (s *Service) DistinctTags(ctx context.Context, projectID string) ([]string, error) {
	filter := vectorstore.Filter{ProjectID: projectID}
	cursor, err := s.store.Scroll(ctx, s.cfg.Qdrant.CollectionName, filter, 100)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var out []string
	for len(out) < resourceEnumerationCap {
		page, ok, err := cursor.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		for _, m := range page {
			for _, tag := range m.Tags {
				if !seen[tag] {
					seen[tag] = true
					out = append(out, tag)
				}
			}
		}
	}
	return out, nil
}

// Config exposes the effective configuration for resources (settings
// snapshot, default collection name, limits).
func (s *Service) Config() config.Config {
	return s.cfg
}

// Health implements §4.8.4.
func (s *Service) Health(ctx context.Context) HealthResult {
	result := HealthResult{
		Embedding: EmbeddingHealth{
			Provider:  s.cfg.Embedding.Provider,
			Model:     s.embedder.ModelName(),
			Dimension: s.embedder.Dimensions(),
		},
		Store: StoreHealth{
			URL:               s.cfg.Qdrant.URL,
			DefaultCollection: s.cfg.Qdrant.CollectionName,
		},
	}

	collections, err := s.store.ListCollections(ctx)
	if err != nil {
		result.Store.Reachable = false
		result.Store.Error = err.Error()
		return result
	}
	result.Store.Reachable = true
	for _, c := range collections {
		if c == s.cfg.Qdrant.CollectionName {
			result.Store.DefaultCollectionPresent = true
			break
		}
	}
	return result
}

// Metrics exposes the registry for the resource catalog and HTTP /metrics
// endpoint.
func (s *Service) Metrics() metrics.Snapshot {
	return s.metrics.Snapshot()
}
