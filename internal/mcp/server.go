package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/dejoiner/dejoiner/internal/ingest"
	"github.com/dejoiner/dejoiner/internal/search"
	"github.com/dejoiner/dejoiner/internal/storage"
	"github.com/dejoiner/dejoiner/pkg/types"
)

const (
	// ServerName is the MCP server name
	ServerName = "dejoiner"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Store is the slice of the resource store the MCP tools read
type Store interface {
	ListRecent(ctx context.Context, limit int) ([]types.Resource, error)
	Stats(ctx context.Context) (*storage.Stats, error)
}

// Searcher serves the search_resources tool
type Searcher interface {
	Quick(ctx context.Context, query string, limit int) (*search.QuickResponse, error)
}

// Ingester serves the save_resource tool
type Ingester interface {
	Save(ctx context.Context, req ingest.SaveRequest) (*types.Resource, error)
}

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp      *server.MCPServer
	store    Store
	search   Searcher
	ingester Ingester
	logger   *zap.Logger
}

// NewServer creates a new MCP server over already-wired services
func NewServer(store Store, searcher Searcher, ingester Ingester, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		mcp:      server.NewMCPServer(ServerName, ServerVersion),
		store:    store,
		search:   searcher,
		ingester: ingester,
		logger:   logger,
	}
	s.registerTools()
	return s
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("starting mcp server", zap.String("name", ServerName))
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(searchResourcesTool(), s.handleSearchResources)
	s.mcp.AddTool(saveResourceTool(), s.handleSaveResource)
	s.mcp.AddTool(listRecentTool(), s.handleListRecent)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
}
