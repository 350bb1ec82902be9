package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/server"

	"github.com/dshills/gochunk-mcp/internal/chunker"
	"github.com/dshills/gochunk-mcp/internal/config"
	"github.com/dshills/gochunk-mcp/internal/coordinator"
	"github.com/dshills/gochunk-mcp/internal/discovery"
	"github.com/dshills/gochunk-mcp/internal/events"
	"github.com/dshills/gochunk-mcp/internal/searcher"
	"github.com/dshills/gochunk-mcp/internal/storage"
)

const (
	// ServerName is the MCP server name
	ServerName = "gochunk-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp      *server.MCPServer
	storage  storage.Storage
	chunker  *chunker.Chunker
	searcher *searcher.Searcher
	logger   *slog.Logger

	// coordinator persists to storage; ephemeral never does
	coordinator *coordinator.Coordinator
	ephemeral   *coordinator.Coordinator

	discovery discovery.Options
}

// NewServer creates a new MCP server instance from cfg. Events from every
// chunking run go to sink.
func NewServer(cfg *config.Config, sink events.Sink, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dbPath, err := cfg.ResolveDBPath()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	cc, err := cfg.ChunkerConfig(sink, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	c, err := chunker.New(cc)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize chunker: %w", err)
	}

	srch, err := searcher.New(store, searcher.DefaultCacheSize)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	workers := cfg.Concurrency.MaxParallelFiles
	s := &Server{
		mcp:         server.NewMCPServer(ServerName, ServerVersion, server.WithToolCapabilities(false)),
		storage:     store,
		chunker:     c,
		searcher:    srch,
		logger:      logger,
		coordinator: coordinator.New(c, coordinator.Config{Workers: workers, Store: store, Logger: logger}),
		ephemeral:   coordinator.New(c, coordinator.Config{Workers: workers, Logger: logger}),
		discovery:   cfg.DiscoveryOptions(),
	}

	if err := s.registerTools(); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	logger.Info("MCP server initialized",
		"db_path", dbPath,
		"driver", storage.DriverName,
		"workers", workers)
	return s, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.storage.Close() }()
	return server.ServeStdio(s.mcp)
}

// Close releases the store without serving
func (s *Server) Close() error {
	return s.storage.Close()
}

// registerTools registers all MCP tools
func (s *Server) registerTools() error {
	s.mcp.AddTool(chunkFileTool(), s.handleChunkFile)
	s.mcp.AddTool(chunkDirectoryTool(), s.handleChunkDirectory)
	s.mcp.AddTool(getChunksTool(), s.handleGetChunks)
	s.mcp.AddTool(searchChunksTool(), s.handleSearchChunks)
	s.mcp.AddTool(detectLanguageFamilyTool(), s.handleDetectLanguageFamily)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
	return nil
}
