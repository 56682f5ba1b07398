package resources

import (
	"context"

	"github.com/aman-cerp/memsrv/internal/vectorstore"
)

// fakeEmbedderForResources is a minimal embed.Embedder stand-in; the
// resource catalog never embeds anything itself, but Service requires one.
type fakeEmbedderForResources struct {
	dims int
}

func (f *fakeEmbedderForResources) Embed(context.Context, string) ([]float32, error) {
	return make([]float32, f.dims), nil
}
func (f *fakeEmbedderForResources) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, f.dims)
	}
	return out, nil
}
func (f *fakeEmbedderForResources) Dimensions() int                { return f.dims }
func (f *fakeEmbedderForResources) ModelName() string              { return "fake" }
func (f *fakeEmbedderForResources) ContextWindow() int              { return 0 }
func (f *fakeEmbedderForResources) Available(context.Context) bool { return true }
func (f *fakeEmbedderForResources) Close() error                   { return nil }

type fakeStoreForResources struct {
	collections map[string][]vectorstore.Memory
}

func newFakeStoreForResources() *fakeStoreForResources {
	return &fakeStoreForResources{collections: map[string][]vectorstore.Memory{}}
}

func (s *fakeStoreForResources) seed(collection, projectID string, tags []string) {
	s.collections[collection] = append(s.collections[collection], vectorstore.Memory{
		MemoryID:  projectID + "-" + tags[0],
		ProjectID: projectID,
		Tags:      tags,
	})
}

func (s *fakeStoreForResources) EnsureCollection(_ context.Context, name string, _ int) error {
	if _, ok := s.collections[name]; !ok {
		s.collections[name] = nil
	}
	return nil
}

func (s *fakeStoreForResources) CreatePayloadIndexes(context.Context, string) error { return nil }

func (s *fakeStoreForResources) Upsert(_ context.Context, name string, points []vectorstore.Memory) (vectorstore.UpsertResult, error) {
	s.collections[name] = append(s.collections[name], points...)
	return vectorstore.UpsertResult{Inserted: len(points)}, nil
}

func (s *fakeStoreForResources) Query(context.Context, string, []float32, vectorstore.Filter, int, *float64) ([]vectorstore.Hit, error) {
	return nil, nil
}

type fakeCursorForResources struct {
	items []vectorstore.Memory
	done  bool
}

func (c *fakeCursorForResources) Next(context.Context) ([]vectorstore.Memory, bool, error) {
	if c.done {
		return nil, false, nil
	}
	c.done = true
	return c.items, len(c.items) > 0, nil
}

func (s *fakeStoreForResources) Scroll(_ context.Context, name string, filter vectorstore.Filter, _ int) (vectorstore.Cursor, error) {
	var matched []vectorstore.Memory
	for _, m := range s.collections[name] {
		if filter.ProjectID != "" && m.ProjectID != filter.ProjectID {
			continue
		}
		matched = append(matched, m)
	}
	return &fakeCursorForResources{items: matched}, nil
}

func (s *fakeStoreForResources) ListCollections(context.Context) ([]string, error) {
	names := make([]string, 0, len(s.collections))
	for n := range s.collections {
		names = append(names, n)
	}
	return names, nil
}

func (s *fakeStoreForResources) Close() error { return nil }
