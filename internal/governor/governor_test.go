package governor

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/gochunk-mcp/internal/events"
	"github.com/dshills/gochunk-mcp/pkg/types"
)

func newChunk(content string, start, end int) *types.CodeChunk {
	return &types.CodeChunk{
		Content:  content,
		Span:     types.Span{StartLine: start, EndLine: end},
		Kind:     types.KindRecursiveText,
		Language: "text",
		FilePath: "/tmp/file.txt",
		Source:   "recursive_text",
		Metadata: types.NewMetadata("file.txt"),
	}
}

func newGovernor(t *testing.T, cfg Config) (*Governor, *events.Recorder) {
	t.Helper()
	rec := &events.Recorder{}
	g, err := New(cfg, rec)
	require.NoError(t, err)
	return g, rec
}

func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.TokenLimit = 100
	cfg.SafetyMargin = 0
	return cfg
}

func TestConfig_Defaults(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 460, cfg.EffectiveLimit())
	assert.Equal(t, 92, cfg.Overlap())

	assert.Equal(t, 25, smallConfig().Overlap())

	big := DefaultConfig()
	big.TokenLimit = 8192
	assert.Equal(t, 200, big.Overlap())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"zero token limit", func(c *Config) { c.TokenLimit = 0 }, "governor.token_limit"},
		{"margin too large", func(c *Config) { c.SafetyMargin = 1 }, "governor.safety_margin"},
		{"negative margin", func(c *Config) { c.SafetyMargin = -0.1 }, "governor.safety_margin"},
		{"negative timeout", func(c *Config) { c.Timeout = -time.Second }, "governor.timeout"},
		{"zero chunk cap", func(c *Config) { c.MaxChunksPerFile = 0 }, "governor.max_chunks_per_file"},
		{"zero depth", func(c *Config) { c.MaxResplitDepth = 0 }, "governor.max_resplit_depth"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			err := cfg.Validate()

			var ce *types.ConfigurationError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field)

			_, err = New(cfg, nil)
			assert.Error(t, err)
		})
	}
}

func TestValidateAndFix_KeepsFittingChunks(t *testing.T) {
	g, _ := newGovernor(t, DefaultConfig())
	c := newChunk("func main() {}", 1, 1)

	out, err := g.ValidateAndFix(context.Background(), "f", []*types.CodeChunk{c}, NewBudget(time.Minute))
	require.NoError(t, err)
	require.Len(t, out.Chunks, 1)
	assert.Same(t, c, out.Chunks[0])
	assert.False(t, out.Partial)
}

func TestValidateAndFix_StripsMetadata(t *testing.T) {
	g, _ := newGovernor(t, smallConfig())

	c := newChunk("short content", 1, 1)
	for i := 0; i < 40; i++ {
		c.Metadata.AddTag(fmt.Sprintf("tag-number-%02d", i))
	}
	require.Greater(t, c.EstimatedTokens(), 100)

	out, err := g.ValidateAndFix(context.Background(), "f", []*types.CodeChunk{c}, NewBudget(0))
	require.NoError(t, err)
	require.Len(t, out.Chunks, 1)
	assert.Equal(t, 1, out.Stripped)
	assert.Empty(t, out.Chunks[0].Metadata.Tags)
	assert.Equal(t, c.Content, out.Chunks[0].Content)
}

func TestValidateAndFix_Resplits(t *testing.T) {
	g, _ := newGovernor(t, smallConfig())

	var lines []string
	for i := 1; i <= 60; i++ {
		lines = append(lines, fmt.Sprintf("line %02d has a little text on it", i))
	}
	c := newChunk(strings.Join(lines, "\n"), 11, 70)

	out, err := g.ValidateAndFix(context.Background(), "f", []*types.CodeChunk{c}, NewBudget(time.Minute))
	require.NoError(t, err)
	require.Greater(t, len(out.Chunks), 1)
	assert.Equal(t, 1, out.Resplit)

	for i, piece := range out.Chunks {
		assert.LessOrEqual(t, piece.EstimatedTokens(), 100)
		require.NotNil(t, piece.ParentID)
		assert.Equal(t, c.Metadata.ChunkID, *piece.ParentID)
		assert.Equal(t, fmt.Sprintf("file.txt, cont. %d", i+1), piece.Metadata.Name)
		assert.GreaterOrEqual(t, piece.Span.StartLine, 11)
		assert.LessOrEqual(t, piece.Span.EndLine, 70)
		assert.NotEqual(t, c.Metadata.ChunkID, piece.Metadata.ChunkID)
	}
	assert.Equal(t, 11, out.Chunks[0].Span.StartLine)
	assert.Equal(t, 70, out.Chunks[len(out.Chunks)-1].Span.EndLine)
}

func TestValidateAndFix_DropsUnfittable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TokenLimit = 10
	cfg.SafetyMargin = 0
	g, rec := newGovernor(t, cfg)

	c := newChunk(strings.Repeat("abcdefgh ", 20), 1, 1)
	out, err := g.ValidateAndFix(context.Background(), "f", []*types.CodeChunk{c}, NewBudget(time.Minute))
	require.NoError(t, err)
	assert.Empty(t, out.Chunks)
	assert.Positive(t, out.Dropped)

	limits := rec.Named(events.NameResourceLimit)
	require.NotEmpty(t, limits)
	assert.Equal(t, types.LimitTokens, limits[0].(events.ResourceLimit).LimitType)
}

func TestValidateAndFix_MergesToCountCap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxChunksPerFile = 2
	g, _ := newGovernor(t, cfg)

	var chunks []*types.CodeChunk
	for i := 1; i <= 5; i++ {
		chunks = append(chunks, newChunk(fmt.Sprintf("x = %d", i), i, i))
	}

	out, err := g.ValidateAndFix(context.Background(), "f", chunks, NewBudget(time.Minute))
	require.NoError(t, err)
	assert.Len(t, out.Chunks, 2)
	assert.Equal(t, 3, out.Merged)
	assert.False(t, out.Partial)

	assert.Equal(t, 1, out.Chunks[0].Span.StartLine)
	assert.Equal(t, 5, out.Chunks[1].Span.EndLine)
	for _, c := range out.Chunks {
		assert.LessOrEqual(t, c.EstimatedTokens(), cfg.EffectiveLimit())
	}
}

func TestValidateAndFix_TruncatesWhenMergeImpossible(t *testing.T) {
	cfg := smallConfig()
	cfg.MaxChunksPerFile = 2
	g, rec := newGovernor(t, cfg)

	var chunks []*types.CodeChunk
	for i := 1; i <= 4; i++ {
		chunks = append(chunks, newChunk(strings.Repeat("z", 280), i, i))
	}
	for _, c := range chunks {
		require.LessOrEqual(t, c.EstimatedTokens(), 100)
	}

	out, err := g.ValidateAndFix(context.Background(), "f", chunks, NewBudget(time.Minute))
	var rle *types.ResourceLimitExceeded
	require.ErrorAs(t, err, &rle)
	assert.Equal(t, types.LimitChunkCount, rle.LimitType)
	assert.True(t, out.Partial)
	assert.Len(t, out.Chunks, 2)
	assert.Len(t, rec.Named(events.NameResourceLimit), 1)
}

func TestValidateAndFix_Timeout(t *testing.T) {
	g, rec := newGovernor(t, DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	chunks := []*types.CodeChunk{newChunk("a", 1, 1), newChunk("b", 2, 2)}
	out, err := g.ValidateAndFix(ctx, "f", chunks, NewBudget(time.Minute))

	var rle *types.ResourceLimitExceeded
	require.ErrorAs(t, err, &rle)
	assert.Equal(t, types.LimitTimeout, rle.LimitType)
	assert.True(t, out.Partial)
	assert.Empty(t, out.Chunks)
	assert.Len(t, rec.Named(events.NameResourceLimit), 1)
}

func TestValidateAndFix_BudgetInvariant(t *testing.T) {
	for _, limit := range []uint32{60, 100, 200, 512} {
		cfg := DefaultConfig()
		cfg.TokenLimit = limit
		g, _ := newGovernor(t, cfg)

		var chunks []*types.CodeChunk
		for i := 1; i <= 6; i++ {
			body := strings.Repeat(fmt.Sprintf("statement %d; ", i), i*40)
			c := newChunk(body, i*10, i*10+5)
			c.Metadata.AddTag("exported")
			c.Metadata.SetContext("chunker_type", "test")
			chunks = append(chunks, c)
		}

		out, err := g.ValidateAndFix(context.Background(), "f", chunks, NewBudget(time.Minute))
		require.NoError(t, err)
		for _, c := range out.Chunks {
			assert.LessOrEqual(t, c.EstimatedTokens(), cfg.EffectiveLimit(), "limit %d", limit)
			assert.NoError(t, c.Validate())
		}
	}
}
