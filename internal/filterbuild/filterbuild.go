// Package filterbuild implements the Filter Builder (spec §4.7): it maps a
// caller's already-validated request fields into an AND of payload
// conditions for the Vector Store Adapter.
package filterbuild

import (
	"time"

	"github.com/aman-cerp/memsrv/internal/vectorstore"
)

// Request holds the already-coerced fields a Search or Summarize request
// may filter on. Alias resolution (project→project_id, type→memory_type,
// k→limit) and scalar-to-list tag coercion happen upstream in the
// Processing Service; this package only builds the AND clause.
type Request struct {
	ProjectID  string
	MemoryType string
	Tags       []string
	Start      time.Time
	End        time.Time
}

// Build maps a request into a vectorstore.Filter. If every condition is
// empty the returned filter is the zero value, which the adapter omits
// entirely rather than sending an empty AND clause.
func Build(req Request) vectorstore.Filter {
	f := vectorstore.Filter{
		ProjectID:  req.ProjectID,
		MemoryType: req.MemoryType,
	}
	if len(req.Tags) > 0 {
		f.Tags = append([]string(nil), req.Tags...)
	}
	if !req.Start.IsZero() || !req.End.IsZero() {
		f.Time = &vectorstore.TimeRange{Start: req.Start, End: req.End}
	}
	return f
}
