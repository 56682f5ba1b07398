// Package vectorstore implements the Vector Store Adapter (spec §4.6): the
// only component that speaks Qdrant's wire protocol. Every other component
// sees the structured Memory/Filter/Hit types in this package.
package vectorstore

import (
	"context"
	"time"
)

// Memory is the universal schema every component above this adapter passes
// around; the adapter alone translates it to and from Qdrant's point
// struct and payload map.
type Memory struct {
	MemoryID        string
	ProjectID       string
	MemoryType      string
	Timestamp       time.Time
	SourceURI       string
	ChunkHash       string
	Tags            []string
	Text            string
	Vector          []float32
	SourceMemoryIDs []string // summaries only
	SummaryKey      string   // summaries only
}

// TimeRange bounds timestamp filtering; either end may be zero to mean
// unbounded.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Filter is an AND of payload conditions (spec §4.7). A zero-value Filter
// matches everything.
type Filter struct {
	ProjectID  string
	MemoryType string
	Tags       []string // contains-any
	Time       *TimeRange
}

// IsEmpty reports whether the filter has no conditions at all, in which
// case the adapter must omit the filter entirely rather than send an empty
// AND clause.
func (f Filter) IsEmpty() bool {
	return f.ProjectID == "" && f.MemoryType == "" && len(f.Tags) == 0 && f.Time == nil
}

// Hit is one scored result from a similarity query.
type Hit struct {
	Memory Memory
	Score  float64
}

// UpsertResult reports how many points were newly created vs. updated in
// place, determined by whether chunk_hash already existed in the
// collection.
type UpsertResult struct {
	Inserted int
	Updated  int
}

// Cursor is a finite, non-restartable lazy sequence over a collection's
// points, used to enumerate large result sets (summarize candidates,
// distinct projects/tags) without materializing them all at once.
type Cursor interface {
	// Next returns the next page, or (nil, false, nil) once exhausted.
	Next(ctx context.Context) ([]Memory, bool, error)
}
