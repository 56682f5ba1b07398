// Package resources implements the Resource Catalog (spec §4.11):
// read-only, URI-addressed snapshots shared by both surface adapters.
// Enumerations stream through the service's scroll-backed lookups so they
// terminate on large collections instead of materializing the full corpus.
package resources

import (
	"context"

	"github.com/aman-cerp/memsrv/internal/sanitize"
	"github.com/aman-cerp/memsrv/internal/service"
)

// Catalog serves the six static/live resource snapshots.
type Catalog struct {
	svc *service.Service
}

// New builds a Catalog backed by the given Processing Service instance.
func New(svc *service.Service) *Catalog {
	return &Catalog{svc: svc}
}

// MemoryTypesResource is the `memory-types` resource payload.
type MemoryTypesResource struct {
	Types   []string `json:"types"`
	Default string   `json:"default"`
}

// MemoryTypes returns the static enumeration of memory types and the
// ingest default.
func (c *Catalog) MemoryTypes() MemoryTypesResource {
	return MemoryTypesResource{
		Types:   []string{string(sanitize.Episodic), string(sanitize.Semantic), string(sanitize.Procedural)},
		Default: string(sanitize.Semantic),
	}
}

// ProjectsResource is the `projects` resource payload.
type ProjectsResource struct {
	Projects []string `json:"projects"`
}

// Projects returns the distinct project_ids in the default collection.
func (c *Catalog) Projects(ctx context.Context) (ProjectsResource, error) {
	projects, err := c.svc.DistinctProjects(ctx)
	if err != nil {
		return ProjectsResource{}, err
	}
	if projects == nil {
		projects = []string{}
	}
	return ProjectsResource{Projects: projects}, nil
}

// TagsResource is the `{project_id}/tags` resource payload.
type TagsResource struct {
	ProjectID string   `json:"project_id"`
	Tags      []string `json:"tags"`
}

// Tags returns the distinct tag values used within one project.
func (c *Catalog) Tags(ctx context.Context, projectID string) (TagsResource, error) {
	tags, err := c.svc.DistinctTags(ctx, projectID)
	if err != nil {
		return TagsResource{}, err
	}
	if tags == nil {
		tags = []string{}
	}
	return TagsResource{ProjectID: projectID, Tags: tags}, nil
}

// HealthResource is the `health` resource payload.
type HealthResource struct {
	Embedding service.EmbeddingHealth `json:"embedding"`
	Store     service.StoreHealth    `json:"store"`
}

// Health returns a live health snapshot.
func (c *Catalog) Health(ctx context.Context) HealthResource {
	h := c.svc.Health(ctx)
	return HealthResource{Embedding: h.Embedding, Store: h.Store}
}

// SettingsResource is the `settings` resource payload.
type SettingsResource struct {
	DefaultLimit   int     `json:"default_limit"`
	MaxLimit       int     `json:"max_limit"`
	ScoreThreshold float64 `json:"score_threshold"`
}

// Settings returns the effective search defaults.
func (c *Catalog) Settings() SettingsResource {
	cfg := c.svc.Config()
	return SettingsResource{
		DefaultLimit:   cfg.Search.DefaultLimit,
		MaxLimit:       cfg.Search.MaxLimit,
		ScoreThreshold: cfg.Search.ScoreThreshold,
	}
}

// UsageResource is the `usage` resource payload: a static policy
// description and the recommended ingest/search/summarize flow.
type UsageResource struct {
	Policy           string   `json:"policy"`
	RecommendedFlows []string `json:"recommended_flows"`
}

// Usage returns the static usage guidance shown to agent clients.
func (c *Catalog) Usage() UsageResource {
	return UsageResource{
		Policy: "Ingest raw observations as episodic memories, tag them by project, " +
			"and periodically summarize a time window into a semantic memory " +
			"so future searches retrieve the distilled summary instead of every " +
			"raw chunk.",
		RecommendedFlows: []string{
			"push text with project_id and tags describing the source",
			"search with project_id/tags/time_range filters before falling back to an unfiltered query",
			"summarize a completed time window once per project, then search memory_type=semantic for the distilled result",
		},
	}
}
