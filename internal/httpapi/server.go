// Package httpapi serves the dashboard-facing REST API.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/dejoiner/dejoiner/internal/bot"
	"github.com/dejoiner/dejoiner/internal/ingest"
	"github.com/dejoiner/dejoiner/internal/search"
	"github.com/dejoiner/dejoiner/internal/storage"
	"github.com/dejoiner/dejoiner/pkg/types"
)

const (
	// DefaultQuickLimit is the dropdown result cap when the client sends none
	DefaultQuickLimit = 6

	// DefaultPageSize is the resource listing page size
	DefaultPageSize = 20
)

// Searcher serves the quick search path
type Searcher interface {
	Quick(ctx context.Context, query string, limit int) (*search.QuickResponse, error)
}

// Ingester saves, deletes, and syncs resources
type Ingester interface {
	Save(ctx context.Context, req ingest.SaveRequest) (*types.Resource, error)
	Delete(ctx context.Context, idPrefix string) (*types.Resource, error)
	SyncTeam(ctx context.Context, teamInput string) (*types.SyncStats, error)
}

// Store is the slice of the resource store the listing endpoints read
type Store interface {
	ListResources(ctx context.Context, opts storage.ListOptions) ([]types.Resource, int, error)
}

// Commander processes chat-style commands posted by transport adapters
type Commander interface {
	HandleMessage(ctx context.Context, msg bot.Message) (*bot.Reply, error)
}

// Server provides the HTTP endpoints
type Server struct {
	echo      *echo.Echo
	store     Store
	search    Searcher
	ingester  Ingester
	commander Commander
	metrics   *Metrics
	logger    *zap.Logger
	addr      string
}

// NewServer creates the API server listening on addr. commander may be nil,
// which disables the command endpoint.
func NewServer(addr string, store Store, searcher Searcher, ingester Ingester,
	commander Commander, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)
			return err
		}
	})

	s := &Server{
		echo:      e,
		store:     store,
		search:    searcher,
		ingester:  ingester,
		commander: commander,
		metrics:   NewMetrics(),
		logger:    logger,
		addr:      addr,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.echo.GET("/healthz", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(
		promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{})))

	api := s.echo.Group("/api")
	api.GET("/search/quick", s.handleQuickSearch)
	api.GET("/resources", s.handleListResources)
	api.POST("/resources", s.handleSaveResource)
	api.DELETE("/resources/:id", s.handleDeleteResource)
	api.POST("/sync/figma-team", s.handleTeamSync)
	api.POST("/commands", s.handleCommand)
}

// HealthResponse is the body of GET /healthz
type HealthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *Server) handleQuickSearch(c echo.Context) error {
	query := c.QueryParam("q")

	limit := DefaultQuickLimit
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = parsed
	}

	start := time.Now()
	resp, err := s.search.Quick(c.Request().Context(), query, limit)
	if err != nil {
		s.logger.Error("quick search failed", zap.String("query", query), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "search failed")
	}

	s.metrics.searchesTotal.Inc()
	s.metrics.searchDuration.Observe(time.Since(start).Seconds())

	return c.JSON(http.StatusOK, resp)
}

// ListResourcesResponse is the body of GET /api/resources
type ListResourcesResponse struct {
	Resources []types.Resource `json:"resources"`
	Total     int              `json:"total"`
	Limit     int              `json:"limit"`
	Offset    int              `json:"offset"`
}

func (s *Server) handleListResources(c echo.Context) error {
	opts := storage.ListOptions{Limit: DefaultPageSize}

	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		opts.Limit = parsed
	}
	if raw := c.QueryParam("offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "offset must be a non-negative integer")
		}
		opts.Offset = parsed
	}
	opts.Type = types.ResourceType(c.QueryParam("type"))

	resources, total, err := s.store.ListResources(c.Request().Context(), opts)
	if err != nil {
		s.logger.Error("resource listing failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "listing failed")
	}

	return c.JSON(http.StatusOK, ListResourcesResponse{
		Resources: resources,
		Total:     total,
		Limit:     opts.Limit,
		Offset:    opts.Offset,
	})
}

// SaveResourceRequest is the body of POST /api/resources
type SaveResourceRequest struct {
	URL        string `json:"url"`
	Title      string `json:"title"`
	Context    string `json:"context"`
	AuthorName string `json:"authorName"`
}

// SaveResourceResponse is the success body of POST /api/resources
type SaveResourceResponse struct {
	Success  bool            `json:"success"`
	Resource *types.Resource `json:"resource"`
}

// DuplicateResponse is the 409 body when the URL is already indexed
type DuplicateResponse struct {
	Error     string          `json:"error"`
	Duplicate bool            `json:"duplicate"`
	Existing  *types.Resource `json:"existing"`
}

func (s *Server) handleSaveResource(c echo.Context) error {
	var req SaveResourceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.URL == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "URL is required")
	}

	authorName := req.AuthorName
	if authorName == "" {
		authorName = "Dashboard Upload"
	}

	resource, err := s.ingester.Save(c.Request().Context(), ingest.SaveRequest{
		URL:        req.URL,
		Title:      req.Title,
		Context:    req.Context,
		AuthorName: authorName,
	})
	if err != nil {
		var dup *ingest.DuplicateError
		if errors.As(err, &dup) {
			s.metrics.ingestsTotal.WithLabelValues(ingestOutcomeDuplicate).Inc()
			return c.JSON(http.StatusConflict, DuplicateResponse{
				Error:     "Duplicate file detected",
				Duplicate: true,
				Existing:  dup.Existing,
			})
		}
		s.metrics.ingestsTotal.WithLabelValues(ingestOutcomeError).Inc()
		s.logger.Error("resource save failed", zap.String("url", req.URL), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "save failed")
	}

	s.metrics.ingestsTotal.WithLabelValues(ingestOutcomeSaved).Inc()
	return c.JSON(http.StatusCreated, SaveResourceResponse{Success: true, Resource: resource})
}

// DeleteResourceResponse is the body of DELETE /api/resources/:id
type DeleteResourceResponse struct {
	Success bool            `json:"success"`
	Deleted *types.Resource `json:"deleted"`
}

func (s *Server) handleDeleteResource(c echo.Context) error {
	id := c.Param("id")

	resource, err := s.ingester.Delete(c.Request().Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "resource not found")
	}
	if errors.Is(err, storage.ErrAmbiguousPrefix) {
		return echo.NewHTTPError(http.StatusBadRequest, "id prefix matches multiple resources")
	}
	if err != nil {
		s.logger.Error("resource delete failed", zap.String("id", id), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "delete failed")
	}

	return c.JSON(http.StatusOK, DeleteResourceResponse{Success: true, Deleted: resource})
}

// TeamSyncRequest is the body of POST /api/sync/figma-team
type TeamSyncRequest struct {
	TeamID string `json:"teamId"`
}

// TeamSyncResponse is the body of a completed team sync
type TeamSyncResponse struct {
	Success bool             `json:"success"`
	Stats   *types.SyncStats `json:"stats"`
}

func (s *Server) handleTeamSync(c echo.Context) error {
	var req TeamSyncRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.TeamID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Team ID is required")
	}

	s.metrics.syncRunsTotal.Inc()
	stats, err := s.ingester.SyncTeam(c.Request().Context(), req.TeamID)
	if err != nil {
		s.logger.Error("team sync failed", zap.String("team_id", req.TeamID), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "sync failed")
	}
	s.metrics.syncedFiles.Add(float64(stats.FilesIndexed))

	return c.JSON(http.StatusOK, TeamSyncResponse{Success: true, Stats: stats})
}

// CommandRequest is the body of POST /api/commands
type CommandRequest struct {
	Text       string `json:"text"`
	AuthorID   string `json:"authorId"`
	AuthorName string `json:"authorName"`
}

// CommandResponse is the processor's rendered reply
type CommandResponse struct {
	Text    string       `json:"text,omitempty"`
	Prompts []bot.Prompt `json:"prompts,omitempty"`
}

func (s *Server) handleCommand(c echo.Context) error {
	if s.commander == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "command processing not configured")
	}

	var req CommandRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Text == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "text field is required")
	}

	reply, err := s.commander.HandleMessage(c.Request().Context(), bot.Message{
		Text:       req.Text,
		AuthorID:   req.AuthorID,
		AuthorName: req.AuthorName,
	})
	if err != nil {
		s.logger.Error("command processing failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "command failed")
	}
	if reply == nil {
		return c.NoContent(http.StatusNoContent)
	}

	return c.JSON(http.StatusOK, CommandResponse{Text: reply.Text, Prompts: reply.Prompts})
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	s.logger.Info("starting http server", zap.String("addr", s.addr))
	return s.echo.Start(s.addr)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
