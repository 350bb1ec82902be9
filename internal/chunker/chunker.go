package chunker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dshills/gochunk-mcp/internal/delimiter"
	"github.com/dshills/gochunk-mcp/internal/events"
	"github.com/dshills/gochunk-mcp/internal/governor"
	"github.com/dshills/gochunk-mcp/internal/grammar"
	"github.com/dshills/gochunk-mcp/internal/language"
	"github.com/dshills/gochunk-mcp/internal/semantic"
	"github.com/dshills/gochunk-mcp/pkg/types"
)

// Config wires the chunker's limits and shared read-only state. Nil
// dependencies are replaced with defaults by New.
type Config struct {
	Governor            governor.Config
	BoundaryTier        semantic.Tier
	ImportanceThreshold float64
	MaxASTDepth         int
	ParseTimeout        time.Duration
	SlowThreshold       time.Duration

	Grammars *grammar.Registry
	Cache    *semantic.Cache
	Catalog  *delimiter.Catalog
	Detector *delimiter.Detector
	Sink     events.Sink
	Logger   *slog.Logger
}

// DefaultConfig returns the default limits with no dependencies set
func DefaultConfig() Config {
	return Config{
		Governor:            governor.DefaultConfig(),
		BoundaryTier:        semantic.TierControlFlowLogic,
		ImportanceThreshold: semantic.DefaultImportanceThreshold,
		MaxASTDepth:         DefaultMaxASTDepth,
		ParseTimeout:        DefaultParseTimeout,
		SlowThreshold:       events.DefaultSlowThreshold,
	}
}

func (cfg Config) validate() error {
	switch {
	case cfg.BoundaryTier < semantic.TierPrimaryDefinitions || cfg.BoundaryTier > semantic.TierSyntaxReferences:
		return &types.ConfigurationError{Field: "semantic.boundary_tier", Reason: fmt.Sprintf("tier %d is outside 1..5", cfg.BoundaryTier)}
	case cfg.ImportanceThreshold < 0 || cfg.ImportanceThreshold > 1:
		return &types.ConfigurationError{Field: "semantic.importance_threshold", Reason: "must be within [0, 1]"}
	case cfg.MaxASTDepth < 1:
		return &types.ConfigurationError{Field: "performance.max_ast_depth", Reason: "must be positive"}
	case cfg.ParseTimeout < 0:
		return &types.ConfigurationError{Field: "performance.parse_timeout", Reason: "must not be negative"}
	case cfg.SlowThreshold < 0:
		return &types.ConfigurationError{Field: "performance.slow_threshold", Reason: "must not be negative"}
	}
	return nil
}

// Chunker turns files into governed chunks through the strategy hierarchy
type Chunker struct {
	registry *Registry
	governor *governor.Governor
	catalog  *delimiter.Catalog
	detector *delimiter.Detector
	sink     events.Sink
	logger   *slog.Logger
	slow     time.Duration
}

// New creates a Chunker. Invalid limits are reported as ConfigurationError.
func New(cfg Config) (*Chunker, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Sink == nil {
		cfg.Sink = events.Discard
	}
	if cfg.Grammars == nil {
		cfg.Grammars = grammar.NewRegistry()
	}
	if cfg.Cache == nil {
		classifier, err := semantic.NewClassifier(cfg.Grammars, nil)
		if err != nil {
			return nil, err
		}
		cfg.Cache = semantic.NewCache(classifier, cfg.Grammars)
	}
	if cfg.Catalog == nil {
		cfg.Catalog = delimiter.DefaultCatalog()
	}
	if cfg.Detector == nil {
		d, err := delimiter.NewDetector(256, 4)
		if err != nil {
			return nil, err
		}
		cfg.Detector = d
	}

	gov, err := governor.New(cfg.Governor, cfg.Sink)
	if err != nil {
		return nil, err
	}

	limit := cfg.Governor.EffectiveLimit()
	overlap := cfg.Governor.Overlap()

	reg := &Registry{}
	reg.Register(StrategySemantic, NewSemanticChunker(cfg.Grammars, cfg.Cache, SemanticOptions{
		BoundaryTier:        cfg.BoundaryTier,
		ImportanceThreshold: cfg.ImportanceThreshold,
		MaxASTDepth:         cfg.MaxASTDepth,
		TokenLimit:          limit,
		ParseTimeout:        cfg.ParseTimeout,
	}, cfg.Sink))
	reg.Register(StrategyUserDelimiter, NewUserDelimiterChunker(cfg.Catalog))
	reg.Register(StrategySpecial, NewSpecialChunker(limit, overlap))
	reg.Register(StrategyBuiltinDelimiter, NewBuiltinDelimiterChunker(cfg.Catalog, cfg.Detector))
	reg.Register(StrategyRecursiveText, NewRecursiveTextChunker(limit, overlap))

	return &Chunker{
		registry: reg,
		governor: gov,
		catalog:  cfg.Catalog,
		detector: cfg.Detector,
		sink:     cfg.Sink,
		logger:   cfg.Logger,
		slow:     cfg.SlowThreshold,
	}, nil
}

// Registry exposes the strategy table
func (c *Chunker) Registry() *Registry { return c.registry }

// Governor returns the governor applied to every file
func (c *Chunker) Governor() *governor.Governor { return c.governor }

// Catalog returns the delimiter catalog
func (c *Chunker) Catalog() *delimiter.Catalog { return c.catalog }

// Detector returns the family detector
func (c *Chunker) Detector() *delimiter.Detector { return c.detector }

// ChunkFile runs the full pipeline for one file: edge cases, the fallback
// hierarchy, deduplication, and governance. It never fails silently: the
// result carries chunks (possibly partial) or an explicit empty list, and
// Err explains anything short of a complete result.
func (c *Chunker) ChunkFile(ctx context.Context, file types.DiscoveredFile) *types.FileResult {
	return c.chunk(ctx, file, StrategySemantic)
}

// ChunkFileFrom is ChunkFile starting at a later strategy
func (c *Chunker) ChunkFileFrom(ctx context.Context, file types.DiscoveredFile, start Strategy) *types.FileResult {
	return c.chunk(ctx, file, start)
}

func (c *Chunker) chunk(ctx context.Context, file types.DiscoveredFile, start Strategy) *types.FileResult {
	started := time.Now()
	lang := language.Resolve(file.Language, file.Path)
	res := &types.FileResult{Path: file.Path, Language: lang}
	defer func() { res.Duration = time.Since(started) }()

	switch {
	case len(file.Content) == 0:
		c.sink.Emit(ctx, events.EdgeCase{File: file.Path, Case: events.EdgeEmptyFile})
		c.logger.Info("file produced no chunks", "file", file.Path, "reason", "empty file")
		return res
	case file.IsBinary():
		c.sink.Emit(ctx, events.EdgeCase{File: file.Path, Case: events.EdgeBinary})
		c.logger.Info("file produced no chunks", "file", file.Path, "reason", "binary content")
		res.Err = fmt.Errorf("%s: %w", file.Path, types.ErrBinaryContent)
		return res
	}

	budget := governor.NewBudget(c.governor.Config().Timeout)
	content := string(file.Content)

	fb, err := c.walk(ctx, budget, start, content, file.Path, lang)
	res.Strategy = fb.Strategy.String()
	res.Visited = fb.VisitedNames()
	if err != nil {
		res.Partial = true
		res.Err = c.interrupted(ctx, file.Path, budget, err)
		c.sink.Emit(ctx, events.Failed{
			File:      file.Path,
			Language:  lang,
			Strategy:  res.Strategy,
			ErrorKind: types.ErrorKind(res.Err),
			Err:       res.Err,
		})
		return res
	}

	chunks, dups := Deduplicate(fb.Chunks)
	if len(fb.Chunks) > 0 {
		c.sink.Emit(ctx, events.Deduplication{
			File:       file.Path,
			Total:      len(fb.Chunks),
			Duplicates: dups,
			Unique:     len(chunks),
		})
	}

	out, err := c.governor.ValidateAndFix(ctx, file.Path, chunks, budget)
	res.Chunks = out.Chunks
	res.Partial = out.Partial
	if err != nil {
		res.Err = err
	}

	if len(res.Chunks) == 0 {
		c.logger.Info("file produced no chunks", "file", file.Path, "strategy", res.Strategy)
	}

	elapsed := time.Since(started)
	c.sink.Emit(ctx, events.Completed{
		File:     file.Path,
		Language: lang,
		Strategy: res.Strategy,
		Chunks:   len(res.Chunks),
		Duration: elapsed,
		Size:     len(file.Content),
		Partial:  res.Partial,
	})
	if c.slow > 0 && elapsed > c.slow {
		c.sink.Emit(ctx, events.PerformanceWarning{File: file.Path, Duration: elapsed, Threshold: c.slow})
	}
	return res
}

// interrupted converts a cancelled or expired walk into the error reported
// on the result
func (c *Chunker) interrupted(ctx context.Context, path string, budget *governor.Budget, err error) error {
	var exceeded *types.ResourceLimitExceeded
	switch {
	case errors.As(err, &exceeded):
	case errors.Is(err, context.DeadlineExceeded):
		exceeded = budget.Exceeded()
	default:
		return fmt.Errorf("chunking %s: %w", path, err)
	}
	c.sink.Emit(ctx, events.ResourceLimit{
		File:      path,
		LimitType: exceeded.LimitType,
		Limit:     exceeded.Limit,
		Actual:    exceeded.Actual,
	})
	return exceeded
}
