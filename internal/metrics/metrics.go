// Package metrics implements the Metrics Registry (spec §4.9): thread-safe
// cumulative counters with wait-free snapshot reads. Nothing here persists
// across process restarts.
package metrics

import "sync/atomic"

// Registry holds the server's cumulative counters.
type Registry struct {
	documentsIndexed int64
	chunksIndexed    int64
	lastChunkSize    atomic.Int64 // -1 sentinel for "unset"
}

// New returns a Registry with every counter at zero and last_chunk_size
// unset.
func New() *Registry {
	r := &Registry{}
	r.lastChunkSize.Store(-1)
	return r
}

// RecordIngest applies one ingest call's deltas: one document, chunksIndexed
// points, and the chunk budget used for this call.
func (r *Registry) RecordIngest(chunksIndexed, chunkSize int) {
	atomic.AddInt64(&r.documentsIndexed, 1)
	atomic.AddInt64(&r.chunksIndexed, int64(chunksIndexed))
	r.lastChunkSize.Store(int64(chunkSize))
}

// Snapshot is a wait-free point-in-time read of every counter.
type Snapshot struct {
	DocumentsIndexed int64  `json:"documents_indexed"`
	ChunksIndexed    int64  `json:"chunks_indexed"`
	LastChunkSize    *int64 `json:"last_chunk_size,omitempty"` // nil until the first ingest
}

// Snapshot returns the current counter values.
func (r *Registry) Snapshot() Snapshot {
	s := Snapshot{
		DocumentsIndexed: atomic.LoadInt64(&r.documentsIndexed),
		ChunksIndexed:    atomic.LoadInt64(&r.chunksIndexed),
	}
	if v := r.lastChunkSize.Load(); v >= 0 {
		s.LastChunkSize = &v
	}
	return s
}
