package types

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newChunk(content string, start, end int) *CodeChunk {
	return &CodeChunk{
		Content:  content,
		Span:     Span{StartLine: start, EndLine: end},
		Kind:     KindASTNode,
		Language: "go",
		Source:   "semantic",
		Metadata: NewMetadata("chunk"),
	}
}

func TestSpan(t *testing.T) {
	assert.Equal(t, 3, Span{StartLine: 2, EndLine: 4}.Lines())
	assert.Equal(t, 0, Span{StartLine: 5, EndLine: 4}.Lines())

	a := Span{StartLine: 1, EndLine: 5}
	assert.True(t, a.Overlaps(Span{StartLine: 5, EndLine: 9}))
	assert.False(t, a.Overlaps(Span{StartLine: 6, EndLine: 9}))
}

func TestMetadata_Tags(t *testing.T) {
	m := NewMetadata("x")
	m.AddTag("b")
	m.AddTag("a")
	m.AddTag("b")

	assert.Equal(t, []string{"a", "b"}, m.Tags)
	assert.True(t, m.HasTag("a"))
	assert.False(t, m.HasTag("c"))

	m.SetContext("parent", "Server")
	assert.Equal(t, "Server", m.Context["parent"])
}

func TestCodeChunk_SerializeForEmbedding(t *testing.T) {
	c := newChunk("if a < b && b > c {}", 3, 3)
	out := string(c.SerializeForEmbedding())

	assert.Contains(t, out, `"title":"chunk"`)
	assert.Contains(t, out, `"lines":[3,3]`)
	// HTML escaping stays off
	assert.Contains(t, out, "a < b && b > c")
	assert.False(t, strings.HasSuffix(out, "\n"))
	// Field order is fixed
	assert.Less(t, strings.Index(out, `"title"`), strings.Index(out, `"content"`))

	assert.Equal(t, EstimateTokens(len(out)), c.EstimatedTokens())
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(0))
	assert.Equal(t, 1, EstimateTokens(1))
	assert.Equal(t, 1, EstimateTokens(4))
	assert.Equal(t, 2, EstimateTokens(5))
}

func TestCodeChunk_WithoutMetadata(t *testing.T) {
	c := newChunk("x", 1, 1)
	c.Metadata.AddTag("t")
	c.Metadata.SetContext("k", "v")

	stripped := c.WithoutMetadata()
	assert.Nil(t, stripped.Metadata.Tags)
	assert.Nil(t, stripped.Metadata.Context)
	assert.Equal(t, c.Metadata.ChunkID, stripped.Metadata.ChunkID)
	// The original is untouched
	assert.True(t, c.Metadata.HasTag("t"))
}

func TestCodeChunk_Derive(t *testing.T) {
	root := newChunk("abc\ndef", 1, 2)

	child := root.Derive("abc", Span{StartLine: 1, EndLine: 1}, "chunk, part 1")
	require.NotNil(t, child.ParentID)
	assert.Equal(t, root.Metadata.ChunkID, *child.ParentID)
	assert.NotEqual(t, root.Metadata.ChunkID, child.Metadata.ChunkID)

	// Grandchildren point at the original root
	grandchild := child.Derive("a", Span{StartLine: 1, EndLine: 1}, "chunk, part 1a")
	assert.Equal(t, root.Metadata.ChunkID, *grandchild.ParentID)
}

func TestCodeChunk_ContentHash(t *testing.T) {
	assert.Equal(t, newChunk("  x \n", 1, 1).ContentHash(), newChunk("x", 1, 1).ContentHash())
	assert.NotEqual(t, newChunk("x", 1, 1).ContentHash(), newChunk("y", 1, 1).ContentHash())
}

func TestCodeChunk_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*CodeChunk)
		wantErr bool
	}{
		{"valid", func(*CodeChunk) {}, false},
		{"empty content", func(c *CodeChunk) { c.Content = "" }, true},
		{"zero line", func(c *CodeChunk) { c.Span.StartLine = 0 }, true},
		{"reversed span", func(c *CodeChunk) { c.Span = Span{StartLine: 5, EndLine: 2} }, true},
		{"bad kind", func(c *CodeChunk) { c.Kind = "symbol" }, true},
		{"no id", func(c *CodeChunk) { c.Metadata.ChunkID = [16]byte{} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newChunk("x", 1, 2)
			tt.modify(c)
			if tt.wantErr {
				assert.Error(t, c.Validate())
			} else {
				assert.NoError(t, c.Validate())
			}
		})
	}
}

func TestFileResult(t *testing.T) {
	var nilResult *FileResult
	assert.Equal(t, 0, nilResult.ChunkCount())

	r := &FileResult{Chunks: []*CodeChunk{newChunk("a", 1, 2), newChunk("b", 3, 4)}}
	assert.Equal(t, 2, r.ChunkCount())
	assert.NoError(t, r.Validate())

	r.Chunks[0], r.Chunks[1] = r.Chunks[1], r.Chunks[0]
	assert.ErrorIs(t, r.Validate(), ErrOutOfOrder)
}

func TestIsBinary(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		want    bool
	}{
		{"text", []byte("package main\n"), false},
		{"empty", nil, false},
		{"nul byte", []byte("abc\x00def"), true},
		{"invalid utf8", []byte{0xff, 0xfe, 0x41, 0x42}, true},
		{"utf8 multibyte", []byte("héllo wörld"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &DiscoveredFile{Content: tt.content}
			assert.Equal(t, tt.want, f.IsBinary())
		})
	}

	// A rune split at the sniff boundary is still text
	content := []byte(strings.Repeat("a", binarySniffLen-1) + "é")
	assert.False(t, IsBinary(content))
}

func TestErrors(t *testing.T) {
	base := errors.New("boom")

	pe := &ParseError{File: "a.go", Line: 3, Column: 7, Message: "unexpected }", Err: base}
	assert.Equal(t, "parse error in a.go:3:7: unexpected }", pe.Error())
	assert.ErrorIs(t, pe, base)
	assert.True(t, IsFallbackError(fmt.Errorf("wrapped: %w", pe)))

	se := &StructureError{File: "a.txt", Strategy: "delimiter", Reason: "no matches"}
	assert.True(t, IsFallbackError(se))
	assert.Contains(t, se.Error(), "delimiter strategy")

	assert.False(t, IsFallbackError(&ResourceLimitExceeded{LimitType: LimitChunkCount, Limit: 10, Actual: 12}))

	timeout := &ResourceLimitExceeded{LimitType: LimitTimeout, Limit: int64(time.Second), Actual: int64(2 * time.Second)}
	assert.Contains(t, timeout.Error(), "timeout after 2s")

	ce := &ConfigurationError{Field: "governor.token_limit", Reason: "must be positive"}
	assert.Equal(t, "invalid configuration governor.token_limit: must be positive", ce.Error())
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{&ParseError{Message: "bad"}, ErrorKindParse},
		{fmt.Errorf("walk: %w", &StructureError{Reason: "none"}), ErrorKindStructure},
		{&ResourceLimitExceeded{LimitType: LimitTimeout}, ErrorKindResourceLimit},
		{&ConfigurationError{Field: "x"}, ErrorKindConfiguration},
		{fmt.Errorf("f: %w", ErrBinaryContent), ErrorKindBinary},
		{fmt.Errorf("chunking f: %w", context.Canceled), ErrorKindCancelled},
		{errors.New("disk on fire"), ErrorKindInternal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ErrorKind(tt.err), "%v", tt.err)
	}
}
