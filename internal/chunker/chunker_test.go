package chunker

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/gochunk-mcp/internal/events"
	"github.com/dshills/gochunk-mcp/internal/semantic"
	"github.com/dshills/gochunk-mcp/internal/textsplit"
	"github.com/dshills/gochunk-mcp/pkg/types"
)

func newTestChunker(t *testing.T, mutate ...func(*Config)) (*Chunker, *events.Recorder) {
	t.Helper()
	rec := &events.Recorder{}
	cfg := DefaultConfig()
	cfg.Sink = rec
	for _, m := range mutate {
		m(&cfg)
	}
	c, err := New(cfg)
	require.NoError(t, err)
	return c, rec
}

func withLimit(limit uint32, margin float64) func(*Config) {
	return func(cfg *Config) {
		cfg.Governor.TokenLimit = limit
		cfg.Governor.SafetyMargin = margin
	}
}

// pythonFunction returns a function spanning lines 1..39 (the last one
// blank) followed by a comment on line 40
func pythonFunction() string {
	var b strings.Builder
	b.WriteString("def process(items):\n")
	b.WriteString("    total = 0\n")
	for i := 0; i < 35; i++ {
		fmt.Fprintf(&b, "    total += items[%d] * %d\n", i, i+1)
	}
	b.WriteString("    return total\n")
	b.WriteString("\n")
	b.WriteString("# trailing comment\n")
	return b.String()
}

// assertTiles checks that chunk spans cover lines 1..lines exactly once
func assertTiles(t *testing.T, chunks []*types.CodeChunk, lines int) {
	t.Helper()
	require.NotEmpty(t, chunks)
	next := 1
	for _, c := range chunks {
		assert.Equal(t, next, c.Span.StartLine, "chunk %q", c.Metadata.Name)
		assert.GreaterOrEqual(t, c.Span.EndLine, c.Span.StartLine)
		next = c.Span.EndLine + 1
	}
	assert.Equal(t, lines, next-1)
}

func TestNew(t *testing.T) {
	c, _ := newTestChunker(t)
	assert.NotNil(t, c.Registry())
	assert.NotNil(t, c.Governor())
	assert.NotNil(t, c.Catalog())
	assert.NotNil(t, c.Detector())

	for _, s := range Strategies() {
		_, ok := c.Registry().Get(s)
		assert.True(t, ok, "strategy %s", s)
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"boundary tier", func(c *Config) { c.BoundaryTier = 9 }, "semantic.boundary_tier"},
		{"threshold", func(c *Config) { c.ImportanceThreshold = 1.5 }, "semantic.importance_threshold"},
		{"ast depth", func(c *Config) { c.MaxASTDepth = 0 }, "performance.max_ast_depth"},
		{"parse timeout", func(c *Config) { c.ParseTimeout = -time.Second }, "performance.parse_timeout"},
		{"slow threshold", func(c *Config) { c.SlowThreshold = -time.Second }, "performance.slow_threshold"},
		{"token limit", func(c *Config) { c.Governor.TokenLimit = 0 }, "governor.token_limit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			_, err := New(cfg)
			var cerr *types.ConfigurationError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, tt.field, cerr.Field)
		})
	}
}

func TestChunkFile_PythonFunctionWithTrailingComment(t *testing.T) {
	c, _ := newTestChunker(t, withLimit(500, 0.1))
	content := pythonFunction()

	res := c.ChunkFile(context.Background(), types.DiscoveredFile{Path: "process.py", Content: []byte(content)})
	require.NoError(t, res.Err)
	assert.Equal(t, "semantic", res.Strategy)
	assert.Equal(t, []string{"semantic"}, res.Visited)
	require.Len(t, res.Chunks, 2)

	fn, comment := res.Chunks[0], res.Chunks[1]
	assert.Equal(t, types.Span{StartLine: 1, EndLine: 39}, fn.Span)
	assert.Equal(t, "process", fn.Metadata.Name)
	require.NotNil(t, fn.Metadata.Semantic)
	assert.Equal(t, string(semantic.GroupCallable), fn.Metadata.Semantic.Group)
	assert.True(t, fn.Metadata.Semantic.IsDeclaration)

	assert.Equal(t, types.Span{StartLine: 40, EndLine: 40}, comment.Span)
	assert.Equal(t, "# trailing comment", comment.Content)
	require.NotNil(t, comment.Metadata.Semantic)
	assert.Equal(t, int(semantic.TierSyntaxReferences), comment.Metadata.Semantic.Tier)

	limit := c.Governor().Config().EffectiveLimit()
	for _, ch := range res.Chunks {
		assert.LessOrEqual(t, ch.EstimatedTokens(), limit)
		assert.Equal(t, "python", ch.Language)
		assert.Equal(t, "semantic", ch.Source)
	}
	assert.NoError(t, res.Validate())
}

func TestChunkFile_EmptyFile(t *testing.T) {
	c, rec := newTestChunker(t)

	res := c.ChunkFile(context.Background(), types.DiscoveredFile{Path: "empty.py"})
	assert.NoError(t, res.Err)
	assert.Empty(t, res.Chunks)
	assert.Equal(t, 0, res.ChunkCount())

	edges := rec.Named(events.NameEdgeCase)
	require.Len(t, edges, 1)
	assert.Equal(t, events.EdgeEmptyFile, edges[0].(events.EdgeCase).Case)

	for _, s := range Strategies() {
		impl, ok := c.Registry().Get(s)
		require.True(t, ok)
		chunks, err := impl.Chunk(context.Background(), "", "empty.py", "python")
		assert.NoError(t, err, "strategy %s", s)
		assert.Empty(t, chunks, "strategy %s", s)
	}
}

func TestChunkFile_UnterminatedBlockComment(t *testing.T) {
	c, rec := newTestChunker(t)
	content := "/* This comment never ends\n * more text here\n * and more\n"

	builtin, ok := c.Registry().Get(StrategyBuiltinDelimiter)
	require.True(t, ok)
	chunks, err := builtin.Chunk(context.Background(), content, "broken.c", "c")
	require.NoError(t, err)
	assert.Empty(t, chunks)

	res := c.ChunkFile(context.Background(), types.DiscoveredFile{Path: "broken.c", Content: []byte(content)})
	require.NoError(t, res.Err)
	assert.Equal(t, "recursive_text", res.Strategy)
	assert.Equal(t, []string{"semantic", "user_delimiter", "special", "builtin_delimiter", "recursive_text"}, res.Visited)
	require.NotEmpty(t, res.Chunks)
	assert.Equal(t, types.KindRecursiveText, res.Chunks[0].Kind)

	fallbacks := rec.Named(events.NameFallback)
	require.Len(t, fallbacks, 4)
	last := fallbacks[3].(events.Fallback)
	assert.Equal(t, "builtin_delimiter", last.From)
	assert.Equal(t, "recursive_text", last.To)
	assert.Equal(t, "no chunks produced", last.Reason)
}

func TestChunkFile_BinaryContent(t *testing.T) {
	c, rec := newTestChunker(t)

	res := c.ChunkFile(context.Background(), types.DiscoveredFile{
		Path:    "image.png",
		Content: []byte{0x89, 'P', 'N', 'G', 0x00, 0x01, 0x02},
	})
	require.Error(t, res.Err)
	assert.ErrorIs(t, res.Err, types.ErrBinaryContent)
	assert.Empty(t, res.Chunks)

	edges := rec.Named(events.NameEdgeCase)
	require.Len(t, edges, 1)
	assert.Equal(t, events.EdgeBinary, edges[0].(events.EdgeCase).Case)
}

func TestChunkFile_EmitsCompletedAndDeduplication(t *testing.T) {
	c, rec := newTestChunker(t)
	content := "package main\n\nfunc main() {\n\tprintln(\"hi\")\n}\n"

	res := c.ChunkFile(context.Background(), types.DiscoveredFile{Path: "main.go", Content: []byte(content)})
	require.NoError(t, res.Err)
	assert.Equal(t, "go", res.Language)

	completed := rec.Named(events.NameCompleted)
	require.Len(t, completed, 1)
	ev := completed[0].(events.Completed)
	assert.Equal(t, "main.go", ev.File)
	assert.Equal(t, "semantic", ev.Strategy)
	assert.Equal(t, len(res.Chunks), ev.Chunks)
	assert.Equal(t, len(content), ev.Size)
	assert.Equal(t, "go", ev.Language)

	dedup := rec.Named(events.NameDeduplication)
	require.Len(t, dedup, 1)
	assert.Equal(t, 0, dedup[0].(events.Deduplication).Duplicates)
}

func TestChunkFile_Cancelled(t *testing.T) {
	c, rec := newTestChunker(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := c.ChunkFile(ctx, types.DiscoveredFile{Path: "main.go", Content: []byte("package main\n\nfunc a() {}\n")})
	require.Error(t, res.Err)
	assert.ErrorIs(t, res.Err, context.Canceled)
	assert.True(t, res.Partial)
	assert.Empty(t, res.Chunks)
	assert.Len(t, rec.Named(events.NameFailed), 1)
}

func TestChunkFile_Deterministic(t *testing.T) {
	c, _ := newTestChunker(t, withLimit(200, 0.1))
	file := types.DiscoveredFile{Path: "process.py", Content: []byte(pythonFunction())}

	first := c.ChunkFile(context.Background(), file)
	second := c.ChunkFile(context.Background(), file)
	require.NoError(t, first.Err)
	require.NoError(t, second.Err)
	require.Equal(t, len(first.Chunks), len(second.Chunks))

	for i := range first.Chunks {
		assert.Equal(t, first.Chunks[i].Content, second.Chunks[i].Content)
		assert.Equal(t, first.Chunks[i].Span, second.Chunks[i].Span)
		assert.Equal(t, first.Chunks[i].Metadata.Name, second.Chunks[i].Metadata.Name)
		assert.NotEqual(t, first.Chunks[i].Metadata.ChunkID, second.Chunks[i].Metadata.ChunkID)
	}
}

func TestChunkFile_OversizedFunctionStaysWithinLimit(t *testing.T) {
	c, _ := newTestChunker(t, withLimit(100, 0.1))
	content := pythonFunction()

	res := c.ChunkFile(context.Background(), types.DiscoveredFile{Path: "process.py", Content: []byte(content)})
	require.NoError(t, res.Err)
	assert.Equal(t, "semantic", res.Strategy)
	require.Greater(t, len(res.Chunks), 2)

	limit := c.Governor().Config().EffectiveLimit()
	for _, ch := range res.Chunks {
		assert.LessOrEqual(t, ch.EstimatedTokens(), limit)
	}
	assert.NoError(t, res.Validate())
}

func TestChunkFileFrom_StartsAtStrategy(t *testing.T) {
	c, rec := newTestChunker(t)
	content := "package main\n\nfunc a() {\n\treturn\n}\n"

	res := c.ChunkFileFrom(context.Background(), types.DiscoveredFile{Path: "main.go", Content: []byte(content)}, StrategyRecursiveText)
	require.NoError(t, res.Err)
	assert.Equal(t, "recursive_text", res.Strategy)
	assert.Equal(t, []string{"recursive_text"}, res.Visited)
	assert.NotEmpty(t, res.Chunks)
	assert.Empty(t, rec.Named(events.NameFallback))
}

func TestChunkWithFallback_Monotonic(t *testing.T) {
	c, rec := newTestChunker(t)
	inputs := map[string]string{
		"notes.txt":  "just some prose\nwith two lines\n",
		"broken.c":   "/* never closed\n",
		"main.go":    "package main\n\nfunc a() {}\n",
		"README.md":  "# Title\n\nSome text.\n",
		"script.xyz": "alpha beta\ngamma delta\n",
	}

	for path, content := range inputs {
		for _, start := range Strategies() {
			res, err := c.ChunkWithFallback(context.Background(), start, content, path, "")
			require.NoError(t, err)
			require.NotEmpty(t, res.Visited)
			assert.Equal(t, start, res.Visited[0])
			for i := 1; i < len(res.Visited); i++ {
				assert.Greater(t, res.Visited[i], res.Visited[i-1], "%s from %s", path, start)
			}
			assert.Equal(t, res.Visited[len(res.Visited)-1], res.Strategy)
			assert.NotEmpty(t, res.Chunks, "%s from %s", path, start)
		}
	}

	for _, e := range rec.Named(events.NameFallback) {
		fb := e.(events.Fallback)
		from, err := ParseStrategy(fb.From)
		require.NoError(t, err)
		to, err := ParseStrategy(fb.To)
		require.NoError(t, err)
		assert.Equal(t, from+1, to)
	}
}

func TestChunkWithFallback_Cancelled(t *testing.T) {
	c, _ := newTestChunker(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := c.ChunkWithFallback(ctx, StrategySemantic, "x", "x.txt", "")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, res.Visited)
	assert.Empty(t, res.Chunks)
}

// stubStrategy returns err with no chunks after waiting delay
type stubStrategy struct {
	delay time.Duration
	err   error
	calls int
}

func (s *stubStrategy) Chunk(ctx context.Context, content, path, language string) ([]*types.CodeChunk, error) {
	s.calls++
	time.Sleep(s.delay)
	return nil, s.err
}

func TestChunkWithFallback_FailedMarksFallback(t *testing.T) {
	c, rec := newTestChunker(t)

	res, err := c.ChunkWithFallback(context.Background(), StrategySemantic, "x = 1\ny = 2\n", "vars.py", "python")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Chunks)

	failed := rec.Named(events.NameFailed)
	require.NotEmpty(t, failed)
	ev := failed[0].(events.Failed)
	assert.Equal(t, "semantic", ev.Strategy)
	assert.Equal(t, types.ErrorKindStructure, ev.ErrorKind)
	assert.True(t, ev.FallbackTriggered)
	assert.ErrorIs(t, ev.Err, types.ErrNoBoundaries)
}

func TestChunkWithFallback_TerminalFailure(t *testing.T) {
	c, rec := newTestChunker(t)
	c.Registry().Register(StrategyRecursiveText, &stubStrategy{
		err: &types.StructureError{File: "a.txt", Strategy: "recursive_text", Reason: "nothing to split", Err: types.ErrNoBoundaries},
	})

	res, err := c.ChunkWithFallback(context.Background(), StrategyRecursiveText, "text\n", "a.txt", "")
	require.NoError(t, err)
	assert.Empty(t, res.Chunks)

	failed := rec.Named(events.NameFailed)
	require.Len(t, failed, 1)
	assert.False(t, failed[0].(events.Failed).FallbackTriggered)
	assert.Empty(t, rec.Named(events.NameFallback))
}

func TestChunkFile_TimeoutBetweenStrategies(t *testing.T) {
	c, rec := newTestChunker(t, func(cfg *Config) { cfg.Governor.Timeout = 10 * time.Millisecond })
	slow := &stubStrategy{delay: 50 * time.Millisecond}
	next := &stubStrategy{}
	c.Registry().Register(StrategySemantic, slow)
	c.Registry().Register(StrategyUserDelimiter, next)

	res := c.ChunkFile(context.Background(), types.DiscoveredFile{Path: "main.go", Content: []byte("package main\n\nfunc a() {}\n")})
	require.Error(t, res.Err)
	assert.True(t, res.Partial)
	assert.Empty(t, res.Chunks)
	assert.Equal(t, []string{"semantic"}, res.Visited)
	assert.Equal(t, 1, slow.calls)
	assert.Zero(t, next.calls)

	var rle *types.ResourceLimitExceeded
	require.ErrorAs(t, res.Err, &rle)
	assert.Equal(t, types.LimitTimeout, rle.LimitType)

	limits := rec.Named(events.NameResourceLimit)
	require.Len(t, limits, 1)
	assert.Equal(t, types.LimitTimeout, limits[0].(events.ResourceLimit).LimitType)

	failed := rec.Named(events.NameFailed)
	require.NotEmpty(t, failed)
	assert.Equal(t, types.ErrorKindResourceLimit, failed[len(failed)-1].(events.Failed).ErrorKind)
}

func TestDeduplicate_Idempotent(t *testing.T) {
	mk := func(content string, line int) *types.CodeChunk {
		return newChunk(content, types.Span{StartLine: line, EndLine: line}, types.KindRecursiveText, "", "f.txt", StrategyRecursiveText, "f")
	}
	chunks := []*types.CodeChunk{
		mk("alpha", 1),
		mk("beta", 2),
		mk("  alpha\n", 3),
		mk("gamma", 4),
		mk("beta", 5),
	}

	once, dups := Deduplicate(chunks)
	assert.Equal(t, 2, dups)
	require.Len(t, once, 3)
	assert.Equal(t, 1, once[0].Span.StartLine)
	assert.Equal(t, 2, once[1].Span.StartLine)
	assert.Equal(t, 4, once[2].Span.StartLine)

	twice, dups := Deduplicate(once)
	assert.Equal(t, 0, dups)
	assert.Equal(t, once, twice)
}

func TestSemantic_TilesGoFile(t *testing.T) {
	c, _ := newTestChunker(t)
	content := `package shapes

import (
	"fmt"
	"math"
)

// Shape has an area.
type Shape interface {
	Area() float64
}

type Circle struct {
	R float64
}

var unit = Circle{R: 1}

// Area returns the circle's area.
func (c Circle) Area() float64 {
	return math.Pi * c.R * c.R
}

func Describe(s Shape) string {
	if s == nil {
		return "nothing"
	}
	return fmt.Sprintf("%.2f", s.Area())
}
`
	impl, _ := c.Registry().Get(StrategySemantic)
	chunks, err := impl.Chunk(context.Background(), content, "shapes.go", "go")
	require.NoError(t, err)
	assertTiles(t, chunks, textsplit.NewLineIndex(content).Lines())

	var names []string
	for _, ch := range chunks {
		names = append(names, ch.Metadata.Name)
	}
	assert.Contains(t, names, "Area")
	assert.Contains(t, names, "Describe")
}

func TestSemantic_CommentAttachesToDefinition(t *testing.T) {
	c, _ := newTestChunker(t)
	content := "package main\n\n// Greet says hello\nfunc Greet() {\n\tprintln(\"hi\")\n}\n"

	impl, _ := c.Registry().Get(StrategySemantic)
	chunks, err := impl.Chunk(context.Background(), content, "main.go", "go")
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	assert.Equal(t, types.Span{StartLine: 1, EndLine: 2}, chunks[0].Span)
	assert.Equal(t, "package main", chunks[0].Content)

	fn := chunks[1]
	assert.Equal(t, types.Span{StartLine: 3, EndLine: 6}, fn.Span)
	assert.Equal(t, "Greet", fn.Metadata.Name)
	assert.True(t, strings.HasPrefix(fn.Content, "// Greet says hello\nfunc Greet()"))
	assert.Equal(t, "2", fn.Metadata.Context["node_count"])
}

func TestSemantic_TestFunctionPromoted(t *testing.T) {
	c, _ := newTestChunker(t)
	content := "def test_add():\n    assert 1 + 1 == 2\n"

	impl, _ := c.Registry().Get(StrategySemantic)
	chunks, err := impl.Chunk(context.Background(), content, "test_math.py", "python")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	require.NotNil(t, chunks[0].Metadata.Semantic)
	assert.Equal(t, string(semantic.DefinitionTest), chunks[0].Metadata.Semantic.Category)
	assert.Equal(t, "test_add", chunks[0].Metadata.Name)
}

func TestSemantic_AdjacentImportsCoalesce(t *testing.T) {
	c, _ := newTestChunker(t)
	content := "import os\nimport sys\n\ndef main():\n    pass\n"

	impl, _ := c.Registry().Get(StrategySemantic)
	chunks, err := impl.Chunk(context.Background(), content, "main.py", "python")
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	assert.Equal(t, "import os\nimport sys", chunks[0].Content)
	assert.Equal(t, types.Span{StartLine: 1, EndLine: 3}, chunks[0].Span)
	assert.Equal(t, string(semantic.BoundaryModule), chunks[0].Metadata.Semantic.Category)
	assert.Equal(t, types.Span{StartLine: 4, EndLine: 5}, chunks[1].Span)
}

func TestSemantic_DecoratedClassIsType(t *testing.T) {
	c, _ := newTestChunker(t)
	content := "@dataclass\nclass P:\n    x: int\n"

	impl, _ := c.Registry().Get(StrategySemantic)
	chunks, err := impl.Chunk(context.Background(), content, "p.py", "python")
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	ch := chunks[0]
	assert.Equal(t, "P", ch.Metadata.Name)
	require.NotNil(t, ch.Metadata.Semantic)
	assert.Equal(t, string(semantic.DefinitionType), ch.Metadata.Semantic.Category)
	assert.Equal(t, "decorated_definition", ch.Metadata.Context["node_kind"])
}

func TestSemantic_DecoratedFunctionStaysCallable(t *testing.T) {
	c, _ := newTestChunker(t)
	content := "@cache\ndef load(path):\n    return open(path).read()\n"

	impl, _ := c.Registry().Get(StrategySemantic)
	chunks, err := impl.Chunk(context.Background(), content, "load.py", "python")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "load", chunks[0].Metadata.Name)
	assert.Equal(t, string(semantic.DefinitionCallable), chunks[0].Metadata.Semantic.Category)
}

func TestSemantic_LeadingBlankLinesTrimmed(t *testing.T) {
	c, _ := newTestChunker(t)
	content := "\n\n\ndef f():\n    pass\n"

	impl, _ := c.Registry().Get(StrategySemantic)
	chunks, err := impl.Chunk(context.Background(), content, "f.py", "python")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assertTiles(t, chunks, textsplit.NewLineIndex(content).Lines())

	ch := chunks[0]
	assert.Equal(t, "def f():\n    pass", ch.Content)
	assert.Equal(t, 1, ch.Span.StartLine)
	assert.Equal(t, 4, ch.ContentStartLine())
	assert.NoError(t, ch.Validate())
}

func TestSemantic_NoImportanceTags(t *testing.T) {
	c, _ := newTestChunker(t)

	impl, _ := c.Registry().Get(StrategySemantic)
	chunks, err := impl.Chunk(context.Background(), pythonFunction(), "process.py", "python")
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	for _, ch := range chunks {
		for _, tag := range ch.Metadata.Tags {
			assert.False(t, strings.HasPrefix(tag, "importance:"), "tag %q", tag)
		}
		assert.NotContains(t, string(ch.SerializeForEmbedding()), "importance")
	}
}

func TestSemantic_RustFile(t *testing.T) {
	c, _ := newTestChunker(t)
	content := "use std::io;\n\nstruct P {\n    x: i32,\n}\n\nfn main() {\n    println!(\"hi\");\n}\n"

	impl, _ := c.Registry().Get(StrategySemantic)
	chunks, err := impl.Chunk(context.Background(), content, "main.rs", "rust")
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assertTiles(t, chunks, textsplit.NewLineIndex(content).Lines())

	assert.Equal(t, string(semantic.BoundaryModule), chunks[0].Metadata.Semantic.Category)
	assert.Equal(t, "P", chunks[1].Metadata.Name)
	assert.Equal(t, string(semantic.DefinitionType), chunks[1].Metadata.Semantic.Category)
	assert.Equal(t, "main", chunks[2].Metadata.Name)
	assert.Equal(t, string(semantic.DefinitionCallable), chunks[2].Metadata.Semantic.Category)
}

func TestSemantic_NoBoundaries(t *testing.T) {
	c, _ := newTestChunker(t)

	impl, _ := c.Registry().Get(StrategySemantic)
	chunks, err := impl.Chunk(context.Background(), "x = 1\ny = 2\n", "vars.py", "python")
	assert.Empty(t, chunks)

	var serr *types.StructureError
	require.ErrorAs(t, err, &serr)
	assert.ErrorIs(t, err, types.ErrNoBoundaries)
	assert.True(t, types.IsFallbackError(err))
}

func TestSemantic_EdgeCases(t *testing.T) {
	c, rec := newTestChunker(t)
	impl, _ := c.Registry().Get(StrategySemantic)

	t.Run("single line", func(t *testing.T) {
		chunks, err := impl.Chunk(context.Background(), "import os", "one.py", "python")
		require.NoError(t, err)
		require.Len(t, chunks, 1)
		assert.Equal(t, events.EdgeSingleLine, chunks[0].Metadata.Context["edge_case"])
	})

	t.Run("whitespace only", func(t *testing.T) {
		chunks, err := impl.Chunk(context.Background(), "\n\n   \n", "blank.py", "python")
		require.NoError(t, err)
		require.Len(t, chunks, 1)
		assert.Equal(t, events.EdgeWhitespaceOnly, chunks[0].Metadata.Context["edge_case"])
	})

	t.Run("nul byte", func(t *testing.T) {
		_, err := impl.Chunk(context.Background(), "x = 1\x00\n", "bad.py", "python")
		var perr *types.ParseError
		require.ErrorAs(t, err, &perr)
		assert.ErrorIs(t, err, types.ErrBinaryContent)
	})

	t.Run("no grammar", func(t *testing.T) {
		chunks, err := impl.Chunk(context.Background(), "defmodule A do\nend\n", "a.ex", "elixir")
		assert.NoError(t, err)
		assert.Empty(t, chunks)
	})

	assert.Len(t, rec.Named(events.NameEdgeCase), 2)
}

func TestDelimiterChunker_RegionsAndInterstitials(t *testing.T) {
	c, _ := newTestChunker(t)
	content := "x := 1\n\nfunc a() {\n}\n"

	impl, _ := c.Registry().Get(StrategyBuiltinDelimiter)
	chunks, err := impl.Chunk(context.Background(), content, "main.go", "go")
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	gap := chunks[0]
	assert.Equal(t, "x := 1", gap.Content)
	assert.Equal(t, types.Span{StartLine: 1, EndLine: 1}, gap.Span)
	assert.Equal(t, interstitialKind, gap.Metadata.Context["delimiter_kind"])

	fn := chunks[1]
	assert.Equal(t, "func a() {\n}", fn.Content)
	assert.Equal(t, types.Span{StartLine: 3, EndLine: 4}, fn.Span)
	assert.Equal(t, "function", fn.Metadata.Context["delimiter_kind"])
	assert.Equal(t, "c_style", fn.Metadata.Context["family"])
	assert.True(t, fn.Metadata.HasTag("delimiter:function"))
	assert.Equal(t, types.KindDelimiterBounded, fn.Kind)
}

func TestDelimiterChunker_UserWithoutDelimiters(t *testing.T) {
	c, _ := newTestChunker(t)
	impl, _ := c.Registry().Get(StrategyUserDelimiter)
	chunks, err := impl.Chunk(context.Background(), "func a() {\n}\n", "main.go", "go")
	assert.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestSpecialChunker_Markdown(t *testing.T) {
	c, _ := newTestChunker(t)
	impl, _ := c.Registry().Get(StrategySpecial)

	content := "# Title\n\nIntro paragraph.\n\n## Section\n\nBody text.\n"
	chunks, err := impl.Chunk(context.Background(), content, "README.md", "markdown")
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	for _, ch := range chunks {
		assert.Equal(t, "special", ch.Source)
		assert.Equal(t, "markdown", ch.Metadata.Context["separators"])
	}

	none, err := impl.Chunk(context.Background(), "int x;\n", "x.c", "c")
	assert.NoError(t, err)
	assert.Empty(t, none)
}

func TestRecursiveText_NeverEmpty(t *testing.T) {
	r := NewRecursiveTextChunker(60, 10)
	inputs := []string{
		"x",
		"   ",
		"\n\n\n",
		"one line without newline",
		strings.Repeat("word ", 400),
		strings.Repeat("a", 2000),
	}
	for _, in := range inputs {
		chunks, err := r.Chunk(context.Background(), in, "f.txt", "")
		require.NoError(t, err)
		assert.NotEmpty(t, chunks, "input %q", in)
		for _, ch := range chunks {
			assert.NoError(t, ch.Validate())
		}
	}
}
