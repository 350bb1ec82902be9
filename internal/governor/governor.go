package governor

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/dshills/gochunk-mcp/internal/events"
	"github.com/dshills/gochunk-mcp/internal/textsplit"
	"github.com/dshills/gochunk-mcp/pkg/types"
)

// Outcome summarises what ValidateAndFix did to a file's chunks
type Outcome struct {
	Chunks   []*types.CodeChunk
	Partial  bool
	Dropped  int
	Resplit  int
	Stripped int
	Merged   int
}

// Governor applies a Config to strategy output
type Governor struct {
	cfg  Config
	sink events.Sink
}

// New validates cfg and returns a governor reporting to sink
func New(cfg Config, sink events.Sink) (*Governor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sink == nil {
		sink = events.Discard
	}
	return &Governor{cfg: cfg, sink: sink}, nil
}

// Config returns the governor's limits
func (g *Governor) Config() Config { return g.cfg }

// ValidateAndFix makes every chunk fit the effective token limit and the
// file fit the chunk count cap. When the budget expires the chunks
// validated so far are returned, flagged partial, with a
// ResourceLimitExceeded error.
func (g *Governor) ValidateAndFix(ctx context.Context, file string, chunks []*types.CodeChunk, budget *Budget) (Outcome, error) {
	var out Outcome
	limit := g.cfg.EffectiveLimit()

	for _, c := range chunks {
		if budget.Expired(ctx) {
			exceeded := budget.Exceeded()
			g.sink.Emit(ctx, events.ResourceLimit{
				File:      file,
				LimitType: exceeded.LimitType,
				Limit:     exceeded.Limit,
				Actual:    exceeded.Actual,
			})
			out.Partial = true
			return out, exceeded
		}

		if c.EstimatedTokens() <= limit {
			out.Chunks = append(out.Chunks, c)
			continue
		}
		out.Chunks = append(out.Chunks, g.fit(ctx, file, c, 0, &out)...)
	}

	if len(out.Chunks) > int(g.cfg.MaxChunksPerFile) {
		if err := g.enforceCount(ctx, file, &out); err != nil {
			return out, err
		}
	}
	return out, nil
}

// fit strips metadata, then re-splits, until c fits
func (g *Governor) fit(ctx context.Context, file string, c *types.CodeChunk, depth int, out *Outcome) []*types.CodeChunk {
	limit := g.cfg.EffectiveLimit()
	if c.EstimatedTokens() <= limit {
		return []*types.CodeChunk{c}
	}

	stripped := c.WithoutMetadata()
	if stripped.EstimatedTokens() <= limit {
		out.Stripped++
		return []*types.CodeChunk{stripped}
	}

	if depth >= g.cfg.MaxResplitDepth {
		return g.drop(ctx, file, stripped, out)
	}

	pieces := g.resplit(stripped)
	if len(pieces) <= 1 {
		return g.drop(ctx, file, stripped, out)
	}
	out.Resplit++

	var fitted []*types.CodeChunk
	for _, p := range pieces {
		fitted = append(fitted, g.fit(ctx, file, p, depth+1, out)...)
	}
	return fitted
}

func (g *Governor) drop(ctx context.Context, file string, c *types.CodeChunk, out *Outcome) []*types.CodeChunk {
	out.Dropped++
	g.sink.Emit(ctx, events.ResourceLimit{
		File:      file,
		LimitType: types.LimitTokens,
		Limit:     int64(g.cfg.EffectiveLimit()),
		Actual:    int64(c.EstimatedTokens()),
	})
	return nil
}

func baseName(c *types.CodeChunk) string {
	if c.Metadata.Name != "" {
		return c.Metadata.Name
	}
	if c.FilePath != "" {
		return filepath.Base(c.FilePath)
	}
	return "chunk"
}

// resplit cuts a stripped chunk into derived pieces along line boundaries
// where possible. Pieces are measured with the chunk's own serialization
// overhead so that each piece fits once derived.
func (g *Governor) resplit(c *types.CodeChunk) []*types.CodeChunk {
	name := baseName(c)

	sized := *c
	sized.Metadata.Name = name + ", cont. 99999"
	length := func(s string) int {
		sized.Content = s
		return sized.EstimatedTokens()
	}

	s := &textsplit.Splitter{
		Separators: textsplit.ResplitSeparators,
		ChunkSize:  g.cfg.EffectiveLimit(),
		Overlap:    g.cfg.Overlap(),
		Length:     length,
	}

	lines := textsplit.NewLineIndex(c.Content)
	offset := c.ContentStartLine()
	var out []*types.CodeChunk
	for _, p := range s.Split(c.Content) {
		start, end := textsplit.Trim(c.Content, p.Start, p.End)
		if start == end {
			continue
		}
		first, last := lines.Span(start, end)
		span := types.Span{
			StartLine: offset + first - 1,
			EndLine:   offset + last - 1,
		}
		piece := c.Derive(c.Content[start:end], span, fmt.Sprintf("%s, cont. %d", name, len(out)+1))
		out = append(out, piece)
	}
	return out
}

func tierOf(c *types.CodeChunk) int {
	if c.Metadata.Semantic == nil || c.Metadata.Semantic.Tier == 0 {
		return 5
	}
	return c.Metadata.Semantic.Tier
}

type mergeCandidate struct {
	index int
	tier  int
	size  int
}

// enforceCount merges adjacent chunks, least important first, until the
// count fits. When no merge stays within budget the tail is truncated.
func (g *Governor) enforceCount(ctx context.Context, file string, out *Outcome) error {
	maxChunks := int(g.cfg.MaxChunksPerFile)
	limit := g.cfg.EffectiveLimit()
	total := len(out.Chunks)

	for len(out.Chunks) > maxChunks {
		chunks := out.Chunks
		candidates := make([]mergeCandidate, 0, len(chunks)-1)
		for i := 0; i+1 < len(chunks); i++ {
			candidates = append(candidates, mergeCandidate{
				index: i,
				tier:  min(tierOf(chunks[i]), tierOf(chunks[i+1])),
				size:  len(chunks[i].Content) + len(chunks[i+1].Content),
			})
		}
		sort.SliceStable(candidates, func(a, b int) bool {
			if candidates[a].tier != candidates[b].tier {
				return candidates[a].tier > candidates[b].tier
			}
			return candidates[a].size < candidates[b].size
		})

		merged := false
		for _, cand := range candidates {
			m := mergePair(chunks[cand.index], chunks[cand.index+1])
			if m.EstimatedTokens() > limit {
				continue
			}
			out.Chunks = slices.Replace(chunks, cand.index, cand.index+2, m)
			out.Merged++
			merged = true
			break
		}
		if !merged {
			break
		}
	}

	if len(out.Chunks) <= maxChunks {
		return nil
	}

	out.Chunks = out.Chunks[:maxChunks]
	out.Partial = true
	g.sink.Emit(ctx, events.ResourceLimit{
		File:      file,
		LimitType: types.LimitChunkCount,
		Limit:     int64(maxChunks),
		Actual:    int64(total),
	})
	return &types.ResourceLimitExceeded{
		LimitType: types.LimitChunkCount,
		Limit:     int64(maxChunks),
		Actual:    int64(total),
	}
}

// mergePair joins two adjacent chunks into one with fresh identity
func mergePair(a, b *types.CodeChunk) *types.CodeChunk {
	sep := "\n"
	if strings.HasSuffix(a.Content, "\n") {
		sep = ""
	}
	meta := types.NewMetadata(a.Metadata.Name)
	meta.Semantic = a.Metadata.Semantic
	if tierOf(b) < tierOf(a) {
		meta.Semantic = b.Metadata.Semantic
		meta.Name = b.Metadata.Name
	}
	return &types.CodeChunk{
		Content:  a.Content + sep + b.Content,
		Span:     types.Span{StartLine: a.Span.StartLine, EndLine: max(a.Span.EndLine, b.Span.EndLine)},
		Kind:     a.Kind,
		Language: a.Language,
		FilePath: a.FilePath,
		Source:   a.Source,
		Metadata: meta,

		ContentLine: a.ContentLine,
	}
}
