package httpadapter

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/aman-cerp/memsrv/internal/errs"
	"github.com/aman-cerp/memsrv/internal/service"
	"github.com/aman-cerp/memsrv/internal/summarize"
)

// errorEnvelope is the user-visible error shape (spec §7): kind, message,
// and an optional hint, identical in substance to the MCP adapter's
// ToolError but expressed as the HTTP JSON body.
type errorEnvelope struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
}

// statusFor maps an error kind to the HTTP status a REST client expects.
func statusFor(kind errs.Kind) int {
	switch kind {
	case errs.InvalidParams, errs.DimensionMismatch:
		return http.StatusBadRequest
	case errs.NotFound:
		return http.StatusNotFound
	case errs.Conflict:
		return http.StatusConflict
	case errs.ProviderUnavailable, errs.StoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c echo.Context, err error) error {
	kind := errs.KindOf(err)
	env := errorEnvelope{Kind: string(kind), Message: err.Error()}
	var se *errs.Error
	if errors.As(err, &se) {
		env.Message = se.Message
		env.Hint = se.Hint
	}
	return c.JSON(statusFor(kind), env)
}

// indexRequest is the `POST /index` request body.
type indexRequest struct {
	Text       string `json:"text"`
	ProjectID  string `json:"project_id,omitempty"`
	MemoryType string `json:"memory_type,omitempty"`
	Tags       any    `json:"tags,omitempty"`
	SourceURI  string `json:"source_uri,omitempty"`
	Collection string `json:"collection,omitempty"`
}

func (s *Server) postIndex(c echo.Context) error {
	var req indexRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, errs.InvalidParamsf("invalid request body: %v", err))
	}
	result, err := s.svc.Ingest(c.Request().Context(), service.IngestInput{
		Text:       req.Text,
		ProjectID:  req.ProjectID,
		MemoryType: req.MemoryType,
		Tags:       req.Tags,
		SourceURI:  req.SourceURI,
		Collection: req.Collection,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) getCollections(c echo.Context) error {
	names, err := s.svc.GetCollections(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"collections": names})
}

type newCollectionRequest struct {
	Name       string `json:"name"`
	VectorSize int    `json:"vector_size,omitempty"`
}

func (s *Server) postCollections(c echo.Context) error {
	var req newCollectionRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, errs.InvalidParamsf("invalid request body: %v", err))
	}
	size, err := s.svc.NewCollection(c.Request().Context(), req.Name, req.VectorSize)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]any{"status": "ok", "vector_size": size})
}

func (s *Server) getMetrics(c echo.Context) error {
	return c.JSON(http.StatusOK, s.svc.Metrics())
}

// getCommands returns the resource/command catalog (the `GET /commands`
// discovery route every HTTP client can use to enumerate what this server
// exposes, mirroring the MCP tool/resource list).
func (s *Server) getCommands(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"tools": []string{"push", "index", "search", "summarize", "get-collections", "new-collection", "metrics"},
		"resources": []string{
			"mcp://memory-types", "mcp://projects", "mcp://{project_id}/tags",
			"mcp://health", "mcp://settings", "mcp://usage",
		},
		"routes": []string{
			"POST /index", "GET /collections", "POST /collections", "GET /metrics", "GET /commands",
			"POST /search", "POST /summarize", "GET /health",
			"GET /resources/memory-types", "GET /resources/projects", "GET /resources/:project_id/tags",
			"GET /resources/settings", "GET /resources/usage",
		},
	})
}

type searchRequest struct {
	QueryText      string   `json:"query_text"`
	ProjectID      string   `json:"project_id,omitempty"`
	Project        string   `json:"project,omitempty"`
	MemoryType     string   `json:"memory_type,omitempty"`
	Type           string   `json:"type,omitempty"`
	Tags           any      `json:"tags,omitempty"`
	Start          string   `json:"start,omitempty"`
	End            string   `json:"end,omitempty"`
	Limit          *int     `json:"limit,omitempty"`
	K              *int     `json:"k,omitempty"`
	ScoreThreshold *float64 `json:"score_threshold,omitempty"`
	Collection     string   `json:"collection,omitempty"`
}

func (s *Server) postSearch(c echo.Context) error {
	var req searchRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, errs.InvalidParamsf("invalid request body: %v", err))
	}
	tr, err := parseTimeRange(req.Start, req.End)
	if err != nil {
		return writeError(c, err)
	}
	result, err := s.svc.Search(c.Request().Context(), service.SearchInput{
		QueryText:      req.QueryText,
		ProjectID:      req.ProjectID,
		Project:        req.Project,
		MemoryType:     req.MemoryType,
		Type:           req.Type,
		Tags:           req.Tags,
		TimeRange:      tr,
		Limit:          req.Limit,
		K:              req.K,
		ScoreThreshold: req.ScoreThreshold,
		Collection:     req.Collection,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

type summarizeRequest struct {
	Start      string `json:"start"`
	End        string `json:"end"`
	ProjectID  string `json:"project_id,omitempty"`
	MemoryType string `json:"memory_type,omitempty"`
	Tags       any    `json:"tags,omitempty"`
	Limit      *int   `json:"limit,omitempty"`
	Strategy   string `json:"strategy,omitempty"`
	Provider   string `json:"provider,omitempty"`
	Model      string `json:"model,omitempty"`
	MaxWords   int    `json:"max_words"`
	Collection string `json:"collection,omitempty"`
}

func (s *Server) postSummarize(c echo.Context) error {
	var req summarizeRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, errs.InvalidParamsf("invalid request body: %v", err))
	}
	start, err := parseTime(req.Start)
	if err != nil {
		return writeError(c, err)
	}
	end, err := parseTime(req.End)
	if err != nil {
		return writeError(c, err)
	}
	strategy := summarize.Auto
	if req.Strategy != "" {
		strategy = summarize.Strategy(req.Strategy)
	}
	result, err := s.svc.Summarize(c.Request().Context(), service.SummarizeInput{
		TimeRange:  service.TimeRange{Start: start, End: end},
		ProjectID:  req.ProjectID,
		MemoryType: req.MemoryType,
		Tags:       req.Tags,
		Limit:      req.Limit,
		Strategy:   strategy,
		Provider:   req.Provider,
		Model:      req.Model,
		MaxWords:   req.MaxWords,
		Collection: req.Collection,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) getHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, s.svc.Health(c.Request().Context()))
}

func (s *Server) getMemoryTypes(c echo.Context) error {
	return c.JSON(http.StatusOK, s.res.MemoryTypes())
}

func (s *Server) getProjects(c echo.Context) error {
	out, err := s.res.Projects(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) getTags(c echo.Context) error {
	out, err := s.res.Tags(c.Request().Context(), c.Param("project_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) getSettings(c echo.Context) error {
	return c.JSON(http.StatusOK, s.res.Settings())
}

func (s *Server) getUsage(c echo.Context) error {
	return c.JSON(http.StatusOK, s.res.Usage())
}

func parseTime(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, errs.InvalidParamsf("%q is not a valid RFC3339 timestamp", v)
	}
	return t, nil
}

func parseTimeRange(start, end string) (*service.TimeRange, error) {
	if start == "" && end == "" {
		return nil, nil
	}
	s, err := parseTime(start)
	if err != nil {
		return nil, err
	}
	e, err := parseTime(end)
	if err != nil {
		return nil, err
	}
	return &service.TimeRange{Start: s, End: e}, nil
}
