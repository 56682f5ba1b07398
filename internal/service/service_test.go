package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-cerp/memsrv/internal/config"
	"github.com/aman-cerp/memsrv/internal/errs"
	"github.com/aman-cerp/memsrv/internal/metrics"
	"github.com/aman-cerp/memsrv/internal/summarize"
	"github.com/aman-cerp/memsrv/internal/vectorstore"
)

// fakeEmbedder is a deterministic, dependency-free stand-in for embed.Embedder.
type fakeEmbedder struct {
	dims int
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vecs, err := f.EmbedBatch(nil, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v := make([]float32, f.dims)
		for j := range v {
			if j < len(t) {
				v[j] = float32(t[j]) / 255
			}
		}
		out[i] = v
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int                { return f.dims }
func (f *fakeEmbedder) ModelName() string              { return "fake" }
func (f *fakeEmbedder) ContextWindow() int              { return 0 }
func (f *fakeEmbedder) Available(context.Context) bool { return true }
func (f *fakeEmbedder) Close() error                   { return nil }

// fakeStore is an in-memory vectorstore.Store stand-in.
type fakeStore struct {
	collections map[string][]vectorstore.Memory
	dims        map[string]int
}

func newFakeStore() *fakeStore {
	return &fakeStore{collections: map[string][]vectorstore.Memory{}, dims: map[string]int{}}
}

func (s *fakeStore) EnsureCollection(_ context.Context, name string, dimension int) error {
	if d, ok := s.dims[name]; ok && d != dimension {
		return assertDimErr()
	}
	s.dims[name] = dimension
	if _, ok := s.collections[name]; !ok {
		s.collections[name] = nil
	}
	return nil
}

func assertDimErr() error {
	return &dimErr{}
}

type dimErr struct{}

func (*dimErr) Error() string { return "dimension mismatch" }

func (s *fakeStore) CreatePayloadIndexes(context.Context, string) error { return nil }

func (s *fakeStore) Upsert(_ context.Context, name string, points []vectorstore.Memory) (vectorstore.UpsertResult, error) {
	existing := s.collections[name]
	byHash := make(map[string]int, len(existing))
	for i, m := range existing {
		byHash[m.ChunkHash] = i
	}
	result := vectorstore.UpsertResult{}
	for _, p := range points {
		if idx, ok := byHash[p.ChunkHash]; ok {
			existing[idx] = p
			result.Updated++
		} else {
			existing = append(existing, p)
			byHash[p.ChunkHash] = len(existing) - 1
			result.Inserted++
		}
	}
	s.collections[name] = existing
	return result, nil
}

func (s *fakeStore) Query(_ context.Context, name string, _ []float32, filter vectorstore.Filter, limit int, scoreThreshold *float64) ([]vectorstore.Hit, error) {
	var hits []vectorstore.Hit
	for _, m := range s.collections[name] {
		if !matches(m, filter) {
			continue
		}
		hits = append(hits, vectorstore.Hit{Memory: m, Score: 0.9})
	}
	if scoreThreshold != nil && *scoreThreshold > 0.9 {
		hits = nil
	}
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func matches(m vectorstore.Memory, f vectorstore.Filter) bool {
	if f.ProjectID != "" && m.ProjectID != f.ProjectID {
		return false
	}
	if f.MemoryType != "" && m.MemoryType != f.MemoryType {
		return false
	}
	if len(f.Tags) > 0 {
		found := false
		for _, want := range f.Tags {
			for _, got := range m.Tags {
				if want == got {
					found = true
				}
			}
		}
		if !found {
			return false
		}
	}
	if f.Time != nil {
		if !f.Time.Start.IsZero() && m.Timestamp.Before(f.Time.Start) {
			return false
		}
		if !f.Time.End.IsZero() && m.Timestamp.After(f.Time.End) {
			return false
		}
	}
	return true
}

type fakeCursor struct {
	items []vectorstore.Memory
	done  bool
}

func (c *fakeCursor) Next(context.Context) ([]vectorstore.Memory, bool, error) {
	if c.done {
		return nil, false, nil
	}
	c.done = true
	return c.items, len(c.items) > 0, nil
}

func (s *fakeStore) Scroll(_ context.Context, name string, filter vectorstore.Filter, _ int) (vectorstore.Cursor, error) {
	var matched []vectorstore.Memory
	for _, m := range s.collections[name] {
		if matches(m, filter) {
			matched = append(matched, m)
		}
	}
	return &fakeCursor{items: matched}, nil
}

func (s *fakeStore) ListCollections(context.Context) ([]string, error) {
	names := make([]string, 0, len(s.collections))
	for n := range s.collections {
		names = append(names, n)
	}
	return names, nil
}

func (s *fakeStore) Close() error { return nil }

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Embedding.Dimension = 8
	cfg.Splitter.ChunkSize = 256
	cfg.Qdrant.CollectionName = "test-collection"
	return cfg
}

func TestIngestHappyPath(t *testing.T) {
	store := newFakeStore()
	svc := New(&fakeEmbedder{dims: 8}, store, summarize.NewClient(nil), metrics.New(), testConfig())

	result, err := svc.Ingest(context.Background(), IngestInput{Text: "alpha beta gamma"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Inserted)
	assert.Equal(t, 0, result.Updated)
	assert.Equal(t, 0, result.SkippedDuplicates)
	assert.Equal(t, 1, result.ChunksIndexed)

	snap := svc.Metrics()
	assert.EqualValues(t, 1, snap.DocumentsIndexed)
	assert.EqualValues(t, 1, snap.ChunksIndexed)
}

func TestIngestRejectsEmptyText(t *testing.T) {
	store := newFakeStore()
	svc := New(&fakeEmbedder{dims: 8}, store, summarize.NewClient(nil), metrics.New(), testConfig())

	_, err := svc.Ingest(context.Background(), IngestInput{Text: "   "})
	require.Error(t, err)
}

func TestIngestIntraRequestDedupe(t *testing.T) {
	store := newFakeStore()
	cfg := testConfig()
	cfg.Splitter.ChunkOverlap = 0
	svc := New(&fakeEmbedder{dims: 8}, store, summarize.NewClient(nil), metrics.New(), cfg)

	unit := strings.TrimSpace(strings.Repeat("word ", 256))
	text := strings.Join([]string{unit, unit, unit}, " ")

	result, err := svc.Ingest(context.Background(), IngestInput{Text: text})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Inserted)
	assert.Equal(t, 2, result.SkippedDuplicates)
	assert.Equal(t, 1, result.ChunksIndexed)
}

func TestIngestReingestSameTextYieldsUpdated(t *testing.T) {
	store := newFakeStore()
	svc := New(&fakeEmbedder{dims: 8}, store, summarize.NewClient(nil), metrics.New(), testConfig())

	_, err := svc.Ingest(context.Background(), IngestInput{Text: "alpha beta gamma"})
	require.NoError(t, err)

	second, err := svc.Ingest(context.Background(), IngestInput{Text: "alpha beta gamma"})
	require.NoError(t, err)
	assert.Equal(t, 0, second.Inserted)
	assert.Equal(t, 1, second.Updated)
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	store := newFakeStore()
	svc := New(&fakeEmbedder{dims: 8}, store, summarize.NewClient(nil), metrics.New(), testConfig())

	_, err := svc.Search(context.Background(), SearchInput{QueryText: "  "})
	require.Error(t, err)
}

func TestSearchRejectsOverlongQuery(t *testing.T) {
	store := newFakeStore()
	svc := New(&fakeEmbedder{dims: 8}, store, summarize.NewClient(nil), metrics.New(), testConfig())

	long := make([]byte, 513)
	for i := range long {
		long[i] = 'a'
	}
	_, err := svc.Search(context.Background(), SearchInput{QueryText: string(long)})
	require.Error(t, err)
}

func TestSearchResolvesAliases(t *testing.T) {
	store := newFakeStore()
	svc := New(&fakeEmbedder{dims: 8}, store, summarize.NewClient(nil), metrics.New(), testConfig())

	_, err := svc.Ingest(context.Background(), IngestInput{Text: "kettle", ProjectID: "A", Tags: "t1"})
	require.NoError(t, err)
	_, err = svc.Ingest(context.Background(), IngestInput{Text: "kettle longer text", ProjectID: "B", Tags: "t1"})
	require.NoError(t, err)

	limit := 10
	result, err := svc.Search(context.Background(), SearchInput{QueryText: "kettle", Project: "A", Limit: &limit})
	require.NoError(t, err)
	require.Len(t, result.Results, 1)
	assert.Equal(t, "A", *result.Results[0].ProjectID)
	assert.Contains(t, result.Context, result.Results[0].ID)
}

func TestSearchRejectsBadLimit(t *testing.T) {
	store := newFakeStore()
	svc := New(&fakeEmbedder{dims: 8}, store, summarize.NewClient(nil), metrics.New(), testConfig())

	zero := 0
	_, err := svc.Search(context.Background(), SearchInput{QueryText: "x", Limit: &zero})
	require.Error(t, err)
}

func TestSearchRejectsBadScoreThreshold(t *testing.T) {
	store := newFakeStore()
	svc := New(&fakeEmbedder{dims: 8}, store, summarize.NewClient(nil), metrics.New(), testConfig())

	bad := 1.5
	_, err := svc.Search(context.Background(), SearchInput{QueryText: "x", ScoreThreshold: &bad})
	require.Error(t, err)
}

func TestSummarizeRequiresTimeRange(t *testing.T) {
	store := newFakeStore()
	svc := New(&fakeEmbedder{dims: 8}, store, summarize.NewClient(nil), metrics.New(), testConfig())

	_, err := svc.Summarize(context.Background(), SummarizeInput{MaxWords: 50})
	require.Error(t, err)
}

func TestSummarizeRejectsInvertedTimeRange(t *testing.T) {
	store := newFakeStore()
	svc := New(&fakeEmbedder{dims: 8}, store, summarize.NewClient(nil), metrics.New(), testConfig())

	start := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := svc.Summarize(context.Background(), SummarizeInput{TimeRange: TimeRange{Start: start, End: end}, MaxWords: 50})
	require.Error(t, err)
}

func TestSummarizeRejectsEmptyWindow(t *testing.T) {
	store := newFakeStore()
	svc := New(&fakeEmbedder{dims: 8}, store, summarize.NewClient(nil), metrics.New(), testConfig())

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	_, err := svc.Summarize(context.Background(), SummarizeInput{TimeRange: TimeRange{Start: start, End: end}, MaxWords: 50})
	require.Error(t, err)
	assert.Equal(t, errs.InvalidParams, errs.KindOf(err))
}

func TestSummarizeHappyPathAndIdempotency(t *testing.T) {
	store := newFakeStore()
	svc := New(&fakeEmbedder{dims: 8}, store, summarize.NewClient(nil), metrics.New(), testConfig())

	collection := testConfig().Qdrant.CollectionName
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.EnsureCollection(context.Background(), collection, 8))
	for i, text := range []string{"First thing happened.", "Second thing happened.", "Third thing happened."} {
		store.collections[collection] = append(store.collections[collection], vectorstore.Memory{
			MemoryID:   "mem-" + string(rune('a'+i)),
			ProjectID:  "proj-a",
			MemoryType: "episodic",
			Timestamp:  start.Add(time.Duration(i) * time.Hour),
			ChunkHash:  "hash-" + string(rune('a'+i)),
			Text:       text,
		})
	}

	in := SummarizeInput{
		TimeRange:  TimeRange{Start: start, End: end},
		ProjectID:  "proj-a",
		MaxWords:   50,
		Strategy:   summarize.Extractive,
	}
	first, err := svc.Summarize(context.Background(), in)
	require.NoError(t, err)
	assert.NotEmpty(t, first.Summary)
	assert.Len(t, first.SourceMemoryIDs, 3)
	assert.Equal(t, summarize.Extractive, first.Strategy)

	second, err := svc.Summarize(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, first.UpsertedMemoryID, second.UpsertedMemoryID)
	assert.Equal(t, first.Summary, second.Summary)
}

func TestNewCollectionDefaultsVectorSizeToEmbedderDimension(t *testing.T) {
	store := newFakeStore()
	svc := New(&fakeEmbedder{dims: 8}, store, summarize.NewClient(nil), metrics.New(), testConfig())

	size, err := svc.NewCollection(context.Background(), "custom", 0)
	require.NoError(t, err)
	assert.Equal(t, 8, size)
}

func TestNewCollectionRejectsEmptyName(t *testing.T) {
	store := newFakeStore()
	svc := New(&fakeEmbedder{dims: 8}, store, summarize.NewClient(nil), metrics.New(), testConfig())

	_, err := svc.NewCollection(context.Background(), "  ", 0)
	require.Error(t, err)
}

func TestDistinctProjectsDeduplicates(t *testing.T) {
	store := newFakeStore()
	svc := New(&fakeEmbedder{dims: 8}, store, summarize.NewClient(nil), metrics.New(), testConfig())

	collection := testConfig().Qdrant.CollectionName
	require.NoError(t, store.EnsureCollection(context.Background(), collection, 8))
	store.collections[collection] = []vectorstore.Memory{
		{MemoryID: "1", ProjectID: "A"},
		{MemoryID: "2", ProjectID: "B"},
		{MemoryID: "3", ProjectID: "A"},
	}

	projects, err := svc.DistinctProjects(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"A", "B"}, projects)
}

func TestDistinctTagsScopedToProject(t *testing.T) {
	store := newFakeStore()
	svc := New(&fakeEmbedder{dims: 8}, store, summarize.NewClient(nil), metrics.New(), testConfig())

	collection := testConfig().Qdrant.CollectionName
	require.NoError(t, store.EnsureCollection(context.Background(), collection, 8))
	store.collections[collection] = []vectorstore.Memory{
		{MemoryID: "1", ProjectID: "A", Tags: []string{"x", "y"}},
		{MemoryID: "2", ProjectID: "B", Tags: []string{"z"}},
	}

	tags, err := svc.DistinctTags(context.Background(), "A")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"x", "y"}, tags)
}
