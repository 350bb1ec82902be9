package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/gochunk-mcp/internal/coordinator"
	"github.com/dshills/gochunk-mcp/internal/delimiter"
	"github.com/dshills/gochunk-mcp/internal/discovery"
	"github.com/dshills/gochunk-mcp/internal/language"
	"github.com/dshills/gochunk-mcp/internal/searcher"
	"github.com/dshills/gochunk-mcp/internal/storage"
	"github.com/dshills/gochunk-mcp/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams      = -32602 // Invalid method parameters
	ErrorCodeInternalError      = -32603 // Internal JSON-RPC error
	ErrorCodePathNotFound       = -32001 // Specified path does not exist
	ErrorCodeChunkingInProgress = -32002 // Another directory run is already active
	ErrorCodeNotChunked         = -32003 // Directory or file has not been chunked
	ErrorCodeEmptyQuery         = -32004 // Query parameter is empty
)

// maxReportedErrors caps the per-file errors echoed in a response
const maxReportedErrors = 5

// handleChunkFile handles the chunk_file tool invocation
func (s *Server) handleChunkFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, err := requirePath(args, "path", validateFile)
	if err != nil {
		return nil, err
	}

	file, err := discovery.Load(path)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to read file", map[string]interface{}{
			"error": err.Error(),
		})
	}
	if lang := getStringDefault(args, "language", ""); lang != "" {
		file.Language = language.Normalize(lang)
	}
	includeContent := getBoolDefault(args, "include_content", true)

	res, err := s.ephemeral.ChunkFiles(ctx, []types.DiscoveredFile{file})
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "chunking failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
	fr := res.Files[file.Path]

	chunks := make([]map[string]interface{}, 0, len(fr.Chunks))
	for _, c := range fr.Chunks {
		chunks = append(chunks, chunkResponse(c, includeContent))
	}

	response := map[string]interface{}{
		"path":        fr.Path,
		"language":    fr.Language,
		"strategy":    fr.Strategy,
		"visited":     fr.Visited,
		"partial":     fr.Partial,
		"degraded":    fr.Degraded,
		"chunk_count": len(fr.Chunks),
		"duration_ms": fr.Duration.Milliseconds(),
		"chunks":      chunks,
	}
	if fr.Err != nil {
		response["error"] = fr.Err.Error()
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleChunkDirectory handles the chunk_directory tool invocation
func (s *Server) handleChunkDirectory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, err := requirePath(args, "path", validateDir)
	if err != nil {
		return nil, err
	}

	opts := s.discovery
	if include := getStringSlice(args, "include"); include != nil {
		opts.Include = include
	}
	if exclude := getStringSlice(args, "exclude"); exclude != nil {
		opts.Exclude = exclude
	}
	if err := opts.Validate(); err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid glob pattern", map[string]interface{}{
			"reason": err.Error(),
		})
	}

	force := getBoolDefault(args, "force", false)
	persist := getBoolDefault(args, "persist", true)

	co := s.coordinator
	if !persist {
		co = s.ephemeral
	}

	res, err := co.ChunkDirectory(ctx, path, opts, force)
	if errors.Is(err, coordinator.ErrRunInProgress) {
		return nil, newMCPError(ErrorCodeChunkingInProgress, "a chunking run is already in progress", nil)
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "chunking failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
	if persist {
		s.searcher.InvalidateCache()
	}

	response := map[string]interface{}{
		"chunked":         true,
		"persisted":       persist,
		"root":            res.Root,
		"files_chunked":   res.FilesChunked,
		"files_unchanged": res.FilesUnchanged,
		"files_degraded":  res.FilesDegraded,
		"files_partial":   res.FilesPartial,
		"files_failed":    res.FilesFailed,
		"files_removed":   res.FilesRemoved,
		"files_skipped":   len(res.Skipped),
		"chunks_created":  res.ChunksCreated,
		"duration_ms":     res.Duration.Milliseconds(),
	}

	if len(res.ErrorMessages) > 0 {
		errorCount := len(res.ErrorMessages)
		if errorCount > maxReportedErrors {
			response["errors"] = res.ErrorMessages[:maxReportedErrors]
			response["error_count"] = errorCount
		} else {
			response["errors"] = res.ErrorMessages
		}
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetChunks handles the get_chunks tool invocation
func (s *Server) handleGetChunks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	root, err := requirePath(args, "path", validateDir)
	if err != nil {
		return nil, err
	}

	rel, ok := args["file"].(string)
	if !ok || rel == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "file parameter is required", map[string]interface{}{
			"param":  "file",
			"reason": "missing or empty",
		})
	}
	if filepath.IsAbs(rel) {
		r, err := filepath.Rel(root, rel)
		if err != nil || strings.HasPrefix(r, "..") {
			return nil, newMCPError(ErrorCodeInvalidParams, "file is outside the directory", map[string]interface{}{
				"param": "file",
				"value": rel,
			})
		}
		rel = r
	}
	rel = filepath.ToSlash(filepath.Clean(rel))

	project, err := s.projectFor(ctx, root)
	if err != nil {
		return nil, err
	}

	file, err := s.storage.GetFile(ctx, project.ID, rel)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, newMCPError(ErrorCodeNotChunked, "file has not been chunked", map[string]interface{}{
			"file": rel,
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get file", map[string]interface{}{
			"error": err.Error(),
		})
	}

	stored, err := s.storage.ListChunksByFile(ctx, file.ID)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to list chunks", map[string]interface{}{
			"error": err.Error(),
		})
	}

	chunks := make([]map[string]interface{}, 0, len(stored))
	for _, c := range stored {
		cc, err := c.ToCodeChunk(file.FilePath)
		if err != nil {
			return nil, newMCPError(ErrorCodeInternalError, "failed to decode chunk", map[string]interface{}{
				"error": err.Error(),
			})
		}
		chunks = append(chunks, chunkResponse(cc, true))
	}

	response := map[string]interface{}{
		"file": map[string]interface{}{
			"path":            file.FilePath,
			"language":        file.Language,
			"strategy":        file.Strategy,
			"degraded":        file.Degraded,
			"last_chunked_at": file.LastChunkedAt.Format(time.RFC3339),
		},
		"chunk_count": len(chunks),
		"chunks":      chunks,
	}
	if file.ChunkError != nil {
		response["error"] = *file.ChunkError
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearchChunks handles the search_chunks tool invocation
func (s *Server) handleSearchChunks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	root, err := requirePath(args, "path", validateDir)
	if err != nil {
		return nil, err
	}

	query, ok := args["query"].(string)
	if !ok || strings.TrimSpace(query) == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	limit := getIntDefault(args, "limit", 10)
	if limit < 1 || limit > 100 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	var filters *storage.SearchFilters
	if raw, ok := args["filters"].(map[string]interface{}); ok {
		filters = &storage.SearchFilters{
			Languages:    getStringSlice(raw, "languages"),
			Kinds:        getStringSlice(raw, "kinds"),
			FilePattern:  getStringDefault(raw, "file_pattern", ""),
			MinRelevance: getFloatDefault(raw, "min_relevance", 0),
		}
	}

	project, err := s.projectFor(ctx, root)
	if err != nil {
		return nil, err
	}

	resp, err := s.searcher.Search(ctx, searcher.Request{
		ProjectID: project.ID,
		Query:     query,
		Limit:     limit,
		Filters:   filters,
		UseCache:  true,
	})
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	results := make([]map[string]interface{}, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		c := hit.Chunk
		results = append(results, map[string]interface{}{
			"rank":       hit.Rank,
			"file":       hit.FilePath,
			"score":      hit.Score,
			"start_line": c.StartLine,
			"end_line":   c.EndLine,
			"kind":       c.Kind,
			"language":   c.Language,
			"name":       c.Name,
			"content":    c.Content,
		})
	}

	response := map[string]interface{}{
		"query":       query,
		"count":       len(results),
		"cache_hit":   resp.CacheHit,
		"duration_ms": resp.Duration.Milliseconds(),
		"results":     results,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleDetectLanguageFamily handles the detect_language_family tool invocation
func (s *Server) handleDetectLanguageFamily(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	content := getStringDefault(args, "content", "")
	response := map[string]interface{}{}

	if path := getStringDefault(args, "path", ""); path != "" {
		if err := validateFile(path); err != nil {
			return nil, pathError("path", err)
		}
		file, err := discovery.Load(path)
		if err != nil {
			return nil, newMCPError(ErrorCodeInternalError, "failed to read file", map[string]interface{}{
				"error": err.Error(),
			})
		}
		content = string(file.Content)
		response["path"] = path
		if file.Language != "" {
			response["language"] = file.Language
			response["catalog_family"] = s.chunker.Catalog().Family(file.Language)
		}
	}
	if content == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "content or path is required", map[string]interface{}{
			"param":  "content",
			"reason": "missing or empty",
		})
	}

	minConfidence := getIntDefault(args, "min_confidence", delimiter.DefaultMinConfidence)
	if minConfidence < 1 {
		return nil, newMCPError(ErrorCodeInvalidParams, "min_confidence must be positive", map[string]interface{}{
			"param": "min_confidence",
			"value": minConfidence,
		})
	}

	var result delimiter.DetectResult
	select {
	case result = <-s.chunker.Detector().DetectAsync(ctx, content, minConfidence):
	case <-ctx.Done():
		return nil, newMCPError(ErrorCodeInternalError, "detection cancelled", map[string]interface{}{
			"error": ctx.Err().Error(),
		})
	}
	if result.Err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "detection failed", map[string]interface{}{
			"error": result.Err.Error(),
		})
	}

	response["family"] = result.Family
	response["score"] = result.Score
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, err := requirePath(args, "path", validateDir)
	if err != nil {
		return nil, err
	}

	project, err := s.storage.GetProject(ctx, path)
	if errors.Is(err, storage.ErrNotFound) {
		response := map[string]interface{}{
			"chunked": false,
			"path":    path,
			"message": "Directory not chunked. Use the chunk_directory tool to chunk it.",
		}
		return mcp.NewToolResultText(formatJSON(response)), nil
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get project status", map[string]interface{}{
			"error": err.Error(),
		})
	}

	status, err := s.storage.GetStatus(ctx, project.ID)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get status", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"chunked": true,
		"project": map[string]interface{}{
			"path":            project.RootPath,
			"schema_version":  project.SchemaVersion,
			"last_chunked_at": project.LastChunkedAt.Format(time.RFC3339),
		},
		"statistics": map[string]interface{}{
			"files_count":    status.FilesCount,
			"chunks_count":   status.ChunksCount,
			"degraded_files": status.DegradedFiles,
			"failed_files":   status.FailedFiles,
			"chunks_by_kind": status.ChunksByKind,
			"index_size_mb":  fmt.Sprintf("%.2f", status.IndexSizeMB),
		},
		"health": map[string]interface{}{
			"database_accessible": status.Health.DatabaseAccessible,
			"fts_indexes_built":   status.Health.FTSIndexesBuilt,
		},
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// projectFor returns the stored project for root or a NotChunked error
func (s *Server) projectFor(ctx context.Context, root string) (*storage.Project, error) {
	project, err := s.storage.GetProject(ctx, root)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, newMCPError(ErrorCodeNotChunked, "directory has not been chunked", map[string]interface{}{
			"path": root,
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get project", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return project, nil
}

// chunkResponse renders a chunk for a tool response
func chunkResponse(c *types.CodeChunk, includeContent bool) map[string]interface{} {
	out := map[string]interface{}{
		"id":         c.Metadata.ChunkID.String(),
		"start_line": c.Span.StartLine,
		"end_line":   c.Span.EndLine,
		"kind":       c.Kind,
		"source":     c.Source,
		"language":   c.Language,
		"tokens":     c.EstimatedTokens(),
	}
	if c.Metadata.Name != "" {
		out["name"] = c.Metadata.Name
	}
	if c.ParentID != nil {
		out["parent_id"] = c.ParentID.String()
	}
	if sem := c.Metadata.Semantic; sem != nil {
		out["category"] = sem.Category
	}
	if len(c.Metadata.Tags) > 0 {
		out["tags"] = c.Metadata.Tags
	}
	if includeContent {
		out["content"] = c.Content
	}
	return out
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// requirePath extracts an absolute path parameter and validates it
func requirePath(args map[string]interface{}, key string, validate func(string) error) (string, error) {
	path, ok := args[key].(string)
	if !ok || path == "" {
		return "", newMCPError(ErrorCodeInvalidParams, key+" parameter is required", map[string]interface{}{
			"param":  key,
			"reason": "missing or empty",
		})
	}
	if err := validate(path); err != nil {
		return "", pathError(key, err)
	}
	return filepath.Clean(path), nil
}

func pathError(key string, err error) error {
	code := ErrorCodeInvalidParams
	if errors.Is(err, ErrPathNotFound) {
		code = ErrorCodePathNotFound
	}
	return newMCPError(code, "invalid path", map[string]interface{}{
		"param":  key,
		"reason": err.Error(),
	})
}

// validateDir checks that path is an absolute, readable directory
func validateDir(path string) error {
	info, err := statAbs(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return ErrNotDirectory
	}

	f, err := os.Open(path)
	if err != nil {
		return ErrPathNotReadable
	}
	_ = f.Close()
	return nil
}

// validateFile checks that path is an absolute regular file
func validateFile(path string) error {
	info, err := statAbs(path)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return ErrNotFile
	}
	return nil
}

func statAbs(path string) (os.FileInfo, error) {
	if path == "" {
		return nil, ErrPathRequired
	}
	if !filepath.IsAbs(path) {
		return nil, ErrPathNotAbsolute
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, ErrPathNotFound
	}
	if err != nil {
		return nil, ErrPathNotReadable
	}
	return info, nil
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getFloatDefault extracts a number parameter with a default value
func getFloatDefault(args map[string]interface{}, key string, defaultValue float64) float64 {
	if val, ok := args[key].(float64); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}

// getStringSlice extracts a string array parameter; nil when absent
func getStringSlice(args map[string]interface{}, key string) []string {
	switch val := args[key].(type) {
	case []string:
		return val
	case []interface{}:
		out := make([]string, 0, len(val))
		for _, v := range val {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Validation helpers

var (
	ErrPathRequired    = errors.New("path is required")
	ErrPathNotAbsolute = errors.New("path must be absolute")
	ErrPathNotFound    = errors.New("path does not exist")
	ErrPathNotReadable = errors.New("path is not readable")
	ErrNotDirectory    = errors.New("path is not a directory")
	ErrNotFile         = errors.New("path is not a regular file")
)
