package types

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CharsPerToken is the heuristic used for token estimation
const CharsPerToken = 4

// ChunkKind records how a chunk's boundaries were found
type ChunkKind string

const (
	KindASTNode          ChunkKind = "ast_node"
	KindDelimiterBounded ChunkKind = "delimiter_bounded"
	KindRecursiveText    ChunkKind = "recursive_text"
)

// Span is a 1-based, inclusive line range
type Span struct {
	StartLine int `json:"start_line"`
	EndLine   int `json:"end_line"`
}

// Lines returns the number of lines covered by the span
func (s Span) Lines() int {
	if s.EndLine < s.StartLine {
		return 0
	}
	return s.EndLine - s.StartLine + 1
}

// Overlaps reports whether two spans share at least one line
func (s Span) Overlaps(other Span) bool {
	return s.StartLine <= other.EndLine && other.StartLine <= s.EndLine
}

// SemanticInfo is the classification summary attached to AST chunks
type SemanticInfo struct {
	Category        string `json:"category"`
	Group           string `json:"group"`
	Tier            int    `json:"tier"`
	IsDeclaration   bool   `json:"is_declaration"`
	IsControlFlow   bool   `json:"is_control_flow"`
	IsDocumentation bool   `json:"is_documentation"`
}

// Metadata carries identification and descriptive data for a chunk.
// Tags and Context are non-essential and may be stripped by the governor.
type Metadata struct {
	ChunkID   uuid.UUID         `json:"chunk_id"`
	CreatedAt time.Time         `json:"created_at"`
	Name      string            `json:"name,omitempty"`
	Semantic  *SemanticInfo     `json:"semantic,omitempty"`
	Tags      []string          `json:"tags,omitempty"`
	Context   map[string]string `json:"context,omitempty"`
}

// CodeChunk is a size-bounded section of a source file ready for embedding
type CodeChunk struct {
	Content  string    `json:"content"`
	Span     Span      `json:"span"`
	Kind     ChunkKind `json:"kind"`
	Language string    `json:"language"`
	FilePath string    `json:"file_path,omitempty"`
	Source   string    `json:"source"` // strategy that produced the chunk

	// ParentID links re-split pieces back to the chunk they replaced
	ParentID *uuid.UUID `json:"parent_id,omitempty"`

	// ContentLine is the line Content starts on when it is later than
	// Span.StartLine (leading blank lines trimmed). Zero means Span.StartLine.
	ContentLine int `json:"-"`

	Metadata Metadata `json:"metadata"`
}

// NewMetadata returns metadata with a fresh time-ordered chunk ID
func NewMetadata(name string) Metadata {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return Metadata{
		ChunkID:   id,
		CreatedAt: time.Now().UTC(),
		Name:      name,
	}
}

// AddTag inserts a tag, keeping the tag set sorted and unique
func (m *Metadata) AddTag(tag string) {
	i, found := slices.BinarySearch(m.Tags, tag)
	if found {
		return
	}
	m.Tags = slices.Insert(m.Tags, i, tag)
}

// HasTag reports whether the tag is present
func (m *Metadata) HasTag(tag string) bool {
	_, found := slices.BinarySearch(m.Tags, tag)
	return found
}

// SetContext stores a key/value pair in the chunk context
func (m *Metadata) SetContext(key, value string) {
	if m.Context == nil {
		m.Context = make(map[string]string)
	}
	m.Context[key] = value
}

// embeddingView is the ordered serialization used for token estimation
type embeddingView struct {
	Title    string            `json:"title,omitempty"`
	Language string            `json:"language,omitempty"`
	Lines    [2]int            `json:"lines"`
	Semantic *SemanticInfo     `json:"semantic,omitempty"`
	Tags     []string          `json:"tags,omitempty"`
	Context  map[string]string `json:"context,omitempty"`
	Content  string            `json:"content"`
}

// SerializeForEmbedding renders the chunk in the form sent to an embedding provider
func (c *CodeChunk) SerializeForEmbedding() []byte {
	view := embeddingView{
		Title:    c.Metadata.Name,
		Language: c.Language,
		Lines:    [2]int{c.Span.StartLine, c.Span.EndLine},
		Semantic: c.Metadata.Semantic,
		Tags:     c.Metadata.Tags,
		Context:  c.Metadata.Context,
		Content:  c.Content,
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(view); err != nil {
		return []byte(c.Content)
	}
	return bytes.TrimRight(buf.Bytes(), "\n")
}

// ContentStartLine returns the source line of the first line of Content
func (c *CodeChunk) ContentStartLine() int {
	if c.ContentLine > c.Span.StartLine {
		return c.ContentLine
	}
	return c.Span.StartLine
}

// EstimatedTokens estimates the token count of the serialized chunk
func (c *CodeChunk) EstimatedTokens() int {
	return EstimateTokens(len(c.SerializeForEmbedding()))
}

// EstimateTokens converts a byte length into a token estimate, rounding up
func EstimateTokens(n int) int {
	return (n + CharsPerToken - 1) / CharsPerToken
}

// ContentHash returns the SHA-256 of the whitespace-trimmed content
func (c *CodeChunk) ContentHash() [32]byte {
	return sha256.Sum256([]byte(strings.TrimSpace(c.Content)))
}

// WithoutMetadata returns a copy with tags and context removed
func (c *CodeChunk) WithoutMetadata() *CodeChunk {
	clone := *c
	clone.Metadata.Tags = nil
	clone.Metadata.Context = nil
	return &clone
}

// Derive returns a new chunk with fresh identity that records c as its parent
func (c *CodeChunk) Derive(content string, span Span, name string) *CodeChunk {
	parent := c.Metadata.ChunkID
	if c.ParentID != nil {
		parent = *c.ParentID
	}
	meta := NewMetadata(name)
	meta.Semantic = c.Metadata.Semantic
	return &CodeChunk{
		Content:  content,
		Span:     span,
		Kind:     c.Kind,
		Language: c.Language,
		FilePath: c.FilePath,
		Source:   c.Source,
		ParentID: &parent,
		Metadata: meta,
	}
}

// Validate checks the structural invariants of the chunk
func (c *CodeChunk) Validate() error {
	if c.Content == "" {
		return ErrEmptyContent
	}

	if c.Span.StartLine <= 0 || c.Span.EndLine <= 0 {
		return errors.New("line numbers must be positive")
	}

	if c.Span.StartLine > c.Span.EndLine {
		return errors.New("start line must be before or equal to end line")
	}

	switch c.Kind {
	case KindASTNode, KindDelimiterBounded, KindRecursiveText:
	default:
		return errors.New("invalid chunk kind")
	}

	if c.Metadata.ChunkID == uuid.Nil {
		return errors.New("chunk ID is required")
	}

	return nil
}
