// Package httpadapter is the HTTP Surface Adapter (spec §4.10, §6): the
// same Processing Service operations exposed over an Echo router instead
// of MCP stdio, sharing identical validation/shaping through the service's
// typed inputs and outputs.
package httpadapter

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/aman-cerp/memsrv/internal/resources"
	"github.com/aman-cerp/memsrv/internal/service"
)

// Server wraps an Echo instance routing to the Processing Service.
type Server struct {
	e   *echo.Echo
	svc *service.Service
	res *resources.Catalog
}

// New builds an HTTP server with every route registered (spec §6's route
// table: POST /index, GET /collections, POST /collections, GET /metrics,
// GET /commands).
func New(svc *service.Service) *Server {
	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	s := &Server{e: e, svc: svc, res: resources.New(svc)}

	e.POST("/index", s.postIndex)
	e.GET("/collections", s.getCollections)
	e.POST("/collections", s.postCollections)
	e.GET("/metrics", s.getMetrics)
	e.GET("/commands", s.getCommands)

	e.POST("/search", s.postSearch)
	e.POST("/summarize", s.postSummarize)
	e.GET("/health", s.getHealth)
	e.GET("/resources/memory-types", s.getMemoryTypes)
	e.GET("/resources/projects", s.getProjects)
	e.GET("/resources/:project_id/tags", s.getTags)
	e.GET("/resources/settings", s.getSettings)
	e.GET("/resources/usage", s.getUsage)

	return s
}

// Handler returns the underlying http.Handler for use with net/http.Server.
func (s *Server) Handler() http.Handler {
	return s.e
}

// Start serves HTTP on addr until the underlying echo server is shut down
// or its listener fails, and returns that error.
func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}
