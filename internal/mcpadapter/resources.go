package mcpadapter

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/aman-cerp/memsrv/internal/errs"
	"github.com/aman-cerp/memsrv/internal/resources"
	"github.com/aman-cerp/memsrv/internal/service"
)

// catalog wraps the shared resource catalog so Server's resource handlers
// have a single, cheaply-copyable field to close over.
type catalog struct {
	c *resources.Catalog
}

func newCatalog(svc *service.Service) *catalog {
	return &catalog{c: resources.New(svc)}
}

// registerResources wires every spec §4.11 resource URI into the MCP
// server, mirroring the teacher's one-resource-per-AddResource pattern.
func (s *Server) registerResources() {
	s.mcp.AddResource(&mcp.Resource{
		Name: "memory-types", URI: "mcp://memory-types",
		Description: "Recognized memory types and the ingest default.",
		MIMEType:    "application/json",
	}, s.readMemoryTypes)

	s.mcp.AddResource(&mcp.Resource{
		Name: "projects", URI: "mcp://projects",
		Description: "Distinct project_id values seen in the default collection.",
		MIMEType:    "application/json",
	}, s.readProjects)

	s.mcp.AddResource(&mcp.Resource{
		Name: "tags", URI: "mcp://{project_id}/tags",
		Description: "Distinct tag values used within one project. Read mcp://<project_id>/tags.",
		MIMEType:    "application/json",
	}, s.readTags)

	s.mcp.AddResource(&mcp.Resource{
		Name: "health", URI: "mcp://health",
		Description: "Live embedding and vector store reachability snapshot.",
		MIMEType:    "application/json",
	}, s.readHealth)

	s.mcp.AddResource(&mcp.Resource{
		Name: "settings", URI: "mcp://settings",
		Description: "Effective search defaults (default_limit, max_limit, score_threshold).",
		MIMEType:    "application/json",
	}, s.readSettings)

	s.mcp.AddResource(&mcp.Resource{
		Name: "usage", URI: "mcp://usage",
		Description: "Recommended ingest/search/summarize usage policy.",
		MIMEType:    "application/json",
	}, s.readUsage)
}

func jsonResourceResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, mapError(errs.Internalf("marshaling resource %s: %v", uri, err))
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{URI: uri, MIMEType: "application/json", Text: string(body)},
		},
	}, nil
}

func (s *Server) readMemoryTypes(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	return jsonResourceResult(req.Params.URI, s.resources().MemoryTypes())
}

func (s *Server) readProjects(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	out, err := s.resources().Projects(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return jsonResourceResult(req.Params.URI, out)
}

func (s *Server) readTags(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	projectID := projectIDFromTagsURI(req.Params.URI)
	out, err := s.resources().Tags(ctx, projectID)
	if err != nil {
		return nil, mapError(err)
	}
	return jsonResourceResult(req.Params.URI, out)
}

// projectIDFromTagsURI extracts the project_id segment from a concrete
// `mcp://<project_id>/tags` URI (the registered URI template is the
// catalog entry; each read targets one expanded instance of it).
func projectIDFromTagsURI(uri string) string {
	trimmed := strings.TrimPrefix(uri, "mcp://")
	trimmed = strings.TrimSuffix(trimmed, "/tags")
	return trimmed
}

func (s *Server) readHealth(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	return jsonResourceResult(req.Params.URI, s.resources().Health(ctx))
}

func (s *Server) readSettings(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	return jsonResourceResult(req.Params.URI, s.resources().Settings())
}

func (s *Server) readUsage(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	return jsonResourceResult(req.Params.URI, s.resources().Usage())
}

func (s *Server) resources() *resources.Catalog {
	return s.catalog.c
}
