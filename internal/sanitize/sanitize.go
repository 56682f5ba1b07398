// Package sanitize normalizes free-form request metadata to the canonical
// fields the rest of the pipeline assumes (spec §4.1). It is the single
// normalization step that produces canonical records; every downstream
// component sees only sanitized values.
package sanitize

import (
	"strings"

	"github.com/aman-cerp/memsrv/internal/errs"
)

// MemoryType enumerates the three memory categories.
type MemoryType string

const (
	Episodic   MemoryType = "episodic"
	Semantic   MemoryType = "semantic"
	Procedural MemoryType = "procedural"
)

func validMemoryType(s string) bool {
	return MemoryType(s).Valid()
}

// Valid reports whether m is one of the three recognized memory types.
func (m MemoryType) Valid() bool {
	switch m {
	case Episodic, Semantic, Procedural:
		return true
	}
	return false
}

// Metadata is the sanitized shape every downstream component consumes.
type Metadata struct {
	ProjectID  string
	MemoryType MemoryType
	Tags       []string
	SourceURI  string
}

// Raw is the unsanitized request shape. Tags is `any` because callers may
// hand in a bare string or a list of strings.
type Raw struct {
	ProjectID  string
	MemoryType string
	Tags       any
	SourceURI  string
}

// Sanitize trims and defaults raw metadata, returning invalid_params on any
// field whose value can't be coerced into the canonical shape.
func Sanitize(raw Raw) (Metadata, error) {
	projectID := strings.TrimSpace(raw.ProjectID)
	if projectID == "" {
		projectID = "default"
	}

	memType := strings.TrimSpace(raw.MemoryType)
	if memType == "" {
		memType = string(Semantic)
	} else if !validMemoryType(memType) {
		return Metadata{}, errs.InvalidParamsf("memory_type %q is not one of episodic, semantic, procedural", memType)
	}

	tags, err := SanitizeTags(raw.Tags)
	if err != nil {
		return Metadata{}, err
	}

	return Metadata{
		ProjectID:  projectID,
		MemoryType: MemoryType(memType),
		Tags:       tags,
		SourceURI:  strings.TrimSpace(raw.SourceURI),
	}, nil
}

// SanitizeTags accepts nil, a single string, or a []string (or []any of
// strings), coerces a scalar to a one-element list, trims each element,
// drops empties, and deduplicates preserving first occurrence. Search and
// Summarize requests use this directly for their `tags` filter coercion
// (spec §4.8.2/§4.8.3), without the project_id/memory_type defaulting that
// ingest metadata gets.
func SanitizeTags(raw any) ([]string, error) {
	var items []string
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, errs.InvalidParamsf("tags must not be an empty string")
		}
		items = []string{v}
	case []string:
		items = v
	case []any:
		for _, e := range v {
			s, ok := e.(string)
			if !ok {
				return nil, errs.InvalidParamsf("tags must be a string or array of strings")
			}
			items = append(items, s)
		}
	default:
		return nil, errs.InvalidParamsf("tags must be a string or array of strings")
	}

	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it == "" || seen[it] {
			continue
		}
		seen[it] = true
		out = append(out, it)
	}
	return out, nil
}
