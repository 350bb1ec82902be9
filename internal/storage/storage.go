package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/gochunk-mcp/pkg/types"
)

// Storage defines the interface for persisting and querying chunked files
type Storage interface {
	// Project operations
	CreateProject(ctx context.Context, project *Project) error
	GetProject(ctx context.Context, rootPath string) (*Project, error)
	UpdateProject(ctx context.Context, project *Project) error

	// File operations
	UpsertFile(ctx context.Context, file *File) error
	GetFile(ctx context.Context, projectID int64, filePath string) (*File, error)
	GetFileByID(ctx context.Context, fileID int64) (*File, error)
	GetFileByHash(ctx context.Context, projectID int64, contentHash [32]byte) (*File, error)
	DeleteFile(ctx context.Context, fileID int64) error
	ListFiles(ctx context.Context, projectID int64) ([]*File, error)

	// Chunk operations
	UpsertChunk(ctx context.Context, chunk *Chunk) error
	GetChunk(ctx context.Context, chunkID int64) (*Chunk, error)
	ListChunksByFile(ctx context.Context, fileID int64) ([]*Chunk, error)
	DeleteChunksByFile(ctx context.Context, fileID int64) error

	// Search operations
	SearchText(ctx context.Context, projectID int64, query string, limit int, filters *SearchFilters) ([]TextResult, error)

	// Status operations
	GetStatus(ctx context.Context, projectID int64) (*ProjectStatus, error)

	// Database operations
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Storage
}

// Project is a chunked directory tree
type Project struct {
	ID            int64
	RootPath      string
	TotalFiles    int
	TotalChunks   int
	SchemaVersion string
	LastChunkedAt time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// File is a chunked source file
type File struct {
	ID            int64
	ProjectID     int64
	FilePath      string // relative to the project root
	Language      string
	ContentHash   [32]byte
	SizeBytes     int64
	Strategy      string  // strategy that produced the stored chunks
	ChunkError    *string // nullable
	Degraded      bool
	LastChunkedAt time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Chunk is a stored code chunk. Metadata holds the JSON encoding of
// types.Metadata.
type Chunk struct {
	ID          int64
	FileID      int64
	Position    int // order within the file
	ChunkUUID   string
	ParentUUID  *string // nullable
	Content     string
	ContentHash [32]byte
	TokenCount  int
	StartLine   int
	EndLine     int
	Kind        string
	Source      string
	Language    string
	Name        string
	Category    string
	Metadata    string
	CreatedAt   time.Time
}

// SearchFilters narrows text search results
type SearchFilters struct {
	Languages    []string // chunk languages
	Kinds        []string // chunk kinds (ast_node, delimiter_bounded, recursive_text)
	FilePattern  string   // doublestar glob over file paths
	MinRelevance float64  // minimum normalized score
}

// TextResult is one full-text search hit
type TextResult struct {
	ChunkID  int64
	FilePath string
	Score    float64 // normalized BM25, higher is better
}

// ProjectStatus contains statistics about a chunked project
type ProjectStatus struct {
	Project       *Project
	FilesCount    int
	ChunksCount   int
	DegradedFiles int
	FailedFiles   int
	ChunksByKind  map[string]int
	IndexSizeMB   float64
	LastChunkedAt time.Time
	Health        HealthStatus
}

// HealthStatus represents the health of the store
type HealthStatus struct {
	DatabaseAccessible bool
	FTSIndexesBuilt    bool
}

// FromCodeChunk converts a chunk produced by the pipeline into a storage record
func FromCodeChunk(c *types.CodeChunk, fileID int64, position int) (*Chunk, error) {
	meta, err := json.Marshal(c.Metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to encode chunk metadata: %w", err)
	}

	rec := &Chunk{
		FileID:      fileID,
		Position:    position,
		ChunkUUID:   c.Metadata.ChunkID.String(),
		Content:     c.Content,
		ContentHash: c.ContentHash(),
		TokenCount:  c.EstimatedTokens(),
		StartLine:   c.Span.StartLine,
		EndLine:     c.Span.EndLine,
		Kind:        string(c.Kind),
		Source:      c.Source,
		Language:    c.Language,
		Name:        c.Metadata.Name,
		Metadata:    string(meta),
	}
	if c.ParentID != nil {
		parent := c.ParentID.String()
		rec.ParentUUID = &parent
	}
	if c.Metadata.Semantic != nil {
		rec.Category = c.Metadata.Semantic.Category
	}
	return rec, nil
}

// ToCodeChunk converts a storage record back into a pipeline chunk
func (c *Chunk) ToCodeChunk(filePath string) (*types.CodeChunk, error) {
	out := &types.CodeChunk{
		Content:  c.Content,
		Span:     types.Span{StartLine: c.StartLine, EndLine: c.EndLine},
		Kind:     types.ChunkKind(c.Kind),
		Language: c.Language,
		FilePath: filePath,
		Source:   c.Source,
	}
	if c.Metadata != "" {
		if err := json.Unmarshal([]byte(c.Metadata), &out.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode chunk metadata: %w", err)
		}
	}
	if c.ParentUUID != nil {
		parent, err := uuid.Parse(*c.ParentUUID)
		if err != nil {
			return nil, fmt.Errorf("invalid parent id %q: %w", *c.ParentUUID, err)
		}
		out.ParentID = &parent
	}
	return out, nil
}
