package mcpadapter

import (
	"context"

	"github.com/aman-cerp/memsrv/internal/vectorstore"
)

type fakeEmbedder struct{ dims int }

func (f *fakeEmbedder) Embed(context.Context, string) ([]float32, error) {
	return make([]float32, f.dims), nil
}
func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, f.dims)
	}
	return out, nil
}
func (f *fakeEmbedder) Dimensions() int                { return f.dims }
func (f *fakeEmbedder) ModelName() string              { return "fake" }
func (f *fakeEmbedder) ContextWindow() int              { return 0 }
func (f *fakeEmbedder) Available(context.Context) bool { return true }
func (f *fakeEmbedder) Close() error                   { return nil }

type fakeStore struct {
	collections map[string][]vectorstore.Memory
}

func newFakeStore() *fakeStore {
	return &fakeStore{collections: map[string][]vectorstore.Memory{}}
}

func (s *fakeStore) EnsureCollection(_ context.Context, name string, _ int) error {
	if _, ok := s.collections[name]; !ok {
		s.collections[name] = nil
	}
	return nil
}

func (s *fakeStore) CreatePayloadIndexes(context.Context, string) error { return nil }

func (s *fakeStore) Upsert(_ context.Context, name string, points []vectorstore.Memory) (vectorstore.UpsertResult, error) {
	s.collections[name] = append(s.collections[name], points...)
	return vectorstore.UpsertResult{Inserted: len(points)}, nil
}

func (s *fakeStore) Query(_ context.Context, name string, _ []float32, _ vectorstore.Filter, limit int, _ *float64) ([]vectorstore.Hit, error) {
	var hits []vectorstore.Hit
	for _, m := range s.collections[name] {
		hits = append(hits, vectorstore.Hit{Memory: m, Score: 0.9})
	}
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
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

func (s *fakeStore) Scroll(_ context.Context, name string, _ vectorstore.Filter, _ int) (vectorstore.Cursor, error) {
	return &fakeCursor{items: s.collections[name]}, nil
}

func (s *fakeStore) ListCollections(context.Context) ([]string, error) {
	names := make([]string, 0, len(s.collections))
	for n := range s.collections {
		names = append(names, n)
	}
	return names, nil
}

func (s *fakeStore) Close() error { return nil }
