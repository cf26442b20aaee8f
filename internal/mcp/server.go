package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/server"

	"driveindex/internal/config"
	"driveindex/internal/embedder"
	"driveindex/internal/extractor"
	"driveindex/internal/remote"
	"driveindex/internal/searcher"
	"driveindex/internal/storage"
	"driveindex/internal/syncer"
)

const (
	// ServerName is the MCP server name
	ServerName = "driveindex"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp      *server.MCPServer
	cfg      *config.Config
	storage  storage.Storage
	engine   *syncer.Engine
	searcher *searcher.Searcher
	logger   *slog.Logger
}

// NewServer wires the full application behind an MCP server instance.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}

	if dir := filepath.Dir(cfg.Index.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	store, err := storage.NewSQLiteStorage(cfg.Index.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	client := remote.NewGraphClient(remote.StaticTokenSource(cfg.Token()))
	if cfg.Store.BaseURL != "" {
		client = client.WithBaseURL(cfg.Store.BaseURL)
	}

	// One embedder service behind the processor and the searcher, so both
	// share a provider and its cache.
	emb := newEmbedderService(cfg, logger)

	return newServer(cfg, store, client, emb, logger), nil
}

// newServer assembles a Server from already-built dependencies.
func newServer(cfg *config.Config, store storage.Storage, client remote.Client, emb *embedder.Service, logger *slog.Logger) *Server {
	s := &Server{
		mcp:      server.NewMCPServer(ServerName, ServerVersion),
		cfg:      cfg,
		storage:  store,
		engine:   syncer.New(client, store, extractor.New(), emb, cfg, logger),
		searcher: searcher.New(store, emb, cfg, logger),
		logger:   logger,
	}
	s.registerTools()
	return s
}

func newEmbedderService(cfg *config.Config, logger *slog.Logger) *embedder.Service {
	if cfg.Embedder.Provider == "" {
		return embedder.NewServiceFromEnv(logger)
	}
	return embedder.NewService(func() (embedder.Embedder, error) {
		return embedder.New(embedder.Config{
			Provider:  cfg.Embedder.Provider,
			APIKey:    os.Getenv(cfg.Embedder.APIKeyEnv),
			CacheSize: cfg.Embedder.CacheSize,
		})
	}, logger)
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.storage.Close() }()
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(syncDriveTool(), s.handleSyncDrive)
	s.mcp.AddTool(verifyIntegrityTool(), s.handleVerifyIntegrity)
	s.mcp.AddTool(repairIndexTool(), s.handleRepairIndex)
	s.mcp.AddTool(searchDocumentsTool(), s.handleSearchDocuments)
	s.mcp.AddTool(syncStatusTool(), s.handleSyncStatus)
}
