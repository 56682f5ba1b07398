// Package mcpadapter is the MCP stdio Surface Adapter (spec §4.10, §6): it
// exposes the Processing Service's operations as MCP tools and resources,
// translating between the wire envelope and the service's typed
// inputs/outputs without performing any storage side effects itself.
package mcpadapter

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/aman-cerp/memsrv/internal/service"
	"github.com/aman-cerp/memsrv/pkg/version"
)

// Server bridges the stdio MCP transport to the Processing Service.
type Server struct {
	mcp     *mcp.Server
	svc     *service.Service
	catalog *catalog
	logger  *slog.Logger
}

// New builds an MCP server with every tool and resource registered.
func New(svc *service.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		svc:     svc,
		catalog: newCatalog(svc),
		logger:  logger,
	}
	s.mcp = mcp.NewServer(&mcp.Implementation{Name: "memsrv", Version: version.Version}, nil)
	s.registerTools()
	s.registerResources()
	return s
}

// Run serves MCP stdio until ctx is canceled or the transport closes.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("starting MCP stdio server")
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "push",
		Description: "Ingest a free-form text observation into agent memory: chunks it, embeds each chunk, and stores it tagged by project and memory type.",
	}, s.handlePush)
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "index",
		Description: "Alias of push: ingest a free-form text observation into agent memory.",
	}, s.handlePush)
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "search",
		Description: "Semantic search over stored memories, optionally filtered by project, memory type, tags, and a time window.",
	}, s.handleSearch)
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "summarize",
		Description: "Summarize every memory in a project/time window into a single semantic memory, reusing an existing summary for the same window if one already exists.",
	}, s.handleSummarize)
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get-collections",
		Description: "List every collection known to the vector store.",
	}, s.handleGetCollections)
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "new-collection",
		Description: "Explicitly provision a new collection with a given vector size (defaults to the configured embedding dimension).",
	}, s.handleNewCollection)
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "metrics",
		Description: "Report process-lifetime ingest counters: documents indexed, chunks indexed, and the most recent chunk size used.",
	}, s.handleMetrics)
}
