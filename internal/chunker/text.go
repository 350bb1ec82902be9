package chunker

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dshills/gochunk-mcp/internal/textsplit"
	"github.com/dshills/gochunk-mcp/pkg/types"
)

// metadataReserve is the share of the token limit left for the serialized
// title, tags, and context around chunk content
const metadataReserve = 64

// contentBudget is the number of content tokens a chunk may use under limit
func contentBudget(limit int) int {
	return max(1, limit-min(metadataReserve, limit/2))
}

// tokenLength measures text with the same heuristic as CodeChunk.EstimatedTokens
func tokenLength(s string) int {
	return types.EstimateTokens(len(s))
}

func baseName(path string) string {
	if path == "" {
		return "content"
	}
	return filepath.Base(path)
}

func spanName(path string, span types.Span) string {
	return fmt.Sprintf("%s:%d-%d", baseName(path), span.StartLine, span.EndLine)
}

// headline returns the first non-blank line of text, cut to n runes
func headline(text string, n int) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if r := []rune(line); len(r) > n {
			return string(r[:n])
		}
		return line
	}
	return ""
}

func newChunk(content string, span types.Span, kind types.ChunkKind, language, path string, source Strategy, name string) *types.CodeChunk {
	c := &types.CodeChunk{
		Content:  content,
		Span:     span,
		Kind:     kind,
		Language: language,
		FilePath: path,
		Source:   source.String(),
		Metadata: types.NewMetadata(name),
	}
	c.Metadata.SetContext("chunker_type", source.String())
	return c
}

// wholeContent returns content as a single chunk spanning every line
func wholeContent(content, path, language string, kind types.ChunkKind, source Strategy) *types.CodeChunk {
	li := textsplit.NewLineIndex(content)
	span := types.Span{StartLine: 1, EndLine: li.Lines()}
	return newChunk(content, span, kind, language, path, source, spanName(path, span))
}

// splitChunks runs a splitter over content and converts each trimmed piece
// into a chunk with its line span
func splitChunks(s *textsplit.Splitter, content, path, language string, source Strategy) []*types.CodeChunk {
	li := textsplit.NewLineIndex(content)
	var out []*types.CodeChunk
	for _, p := range s.Split(content) {
		start, end := textsplit.Trim(content, p.Start, p.End)
		if start == end {
			continue
		}
		first, last := li.Span(start, end)
		span := types.Span{StartLine: first, EndLine: last}
		c := newChunk(content[start:end], span, types.KindRecursiveText, language, path, source, spanName(path, span))
		c.Metadata.SetContext("piece", strconv.Itoa(len(out)+1))
		out = append(out, c)
	}
	return out
}

// SpecialChunker splits prose-like formats on their structural separators
// (headings, sections, top-level declarations). Languages without a
// separator list return no chunks.
type SpecialChunker struct {
	chunkSize int
	overlap   int
}

// NewSpecialChunker sizes pieces for a governor limit and overlap, both in tokens
func NewSpecialChunker(limit, overlap int) *SpecialChunker {
	return &SpecialChunker{chunkSize: contentBudget(limit), overlap: overlap}
}

// Chunk implements StrategyChunker
func (s *SpecialChunker) Chunk(_ context.Context, content, path, language string) ([]*types.CodeChunk, error) {
	seps, ok := textsplit.LanguageSeparators(language)
	if !ok || strings.TrimSpace(content) == "" {
		return nil, nil
	}
	splitter := &textsplit.Splitter{
		Separators: seps,
		ChunkSize:  s.chunkSize,
		Overlap:    s.overlap,
		Length:     tokenLength,
	}
	chunks := splitChunks(splitter, content, path, language, StrategySpecial)
	for _, c := range chunks {
		c.Metadata.SetContext("separators", language)
	}
	return chunks, nil
}

// RecursiveTextChunker is the terminal strategy. It never returns an
// empty result for non-empty content.
type RecursiveTextChunker struct {
	chunkSize int
	overlap   int
}

// NewRecursiveTextChunker sizes pieces for a governor limit and overlap, both in tokens
func NewRecursiveTextChunker(limit, overlap int) *RecursiveTextChunker {
	return &RecursiveTextChunker{chunkSize: contentBudget(limit), overlap: overlap}
}

// Chunk implements StrategyChunker
func (r *RecursiveTextChunker) Chunk(_ context.Context, content, path, language string) ([]*types.CodeChunk, error) {
	if content == "" {
		return nil, nil
	}
	splitter := &textsplit.Splitter{
		Separators: textsplit.DefaultSeparators,
		ChunkSize:  r.chunkSize,
		Overlap:    r.overlap,
		Length:     tokenLength,
	}
	chunks := splitChunks(splitter, content, path, language, StrategyRecursiveText)
	if len(chunks) == 0 {
		chunks = append(chunks, wholeContent(content, path, language, types.KindRecursiveText, StrategyRecursiveText))
	}
	return chunks, nil
}
