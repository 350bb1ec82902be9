// Package events defines the structured events emitted while chunking and
// the sinks that record them.
package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/dshills/gochunk-mcp/pkg/types"
)

// Event names
const (
	NameCompleted          = "chunking_completed"
	NameFailed             = "chunking_failed"
	NameFallback           = "chunking_fallback"
	NameEdgeCase           = "chunking_edge_case"
	NamePerformanceWarning = "chunking_performance_warning"
	NameResourceLimit      = "chunking_resource_limit"
	NameDeduplication      = "chunking_deduplication"
)

// DefaultSlowThreshold triggers a performance warning for a single file
const DefaultSlowThreshold = time.Second

// Edge case identifiers
const (
	EdgeEmptyFile      = "empty"
	EdgeWhitespaceOnly = "whitespace_only"
	EdgeSingleLine     = "single_line"
	EdgeBinary         = "binary"
)

// Event is a single observation from the chunking pipeline
type Event interface {
	Name() string
	Level() slog.Level
	Attrs() []slog.Attr
}

// Sink receives events. Implementations must be safe for concurrent use.
type Sink interface {
	Emit(ctx context.Context, e Event)
}

// Completed is emitted once per file that produced a result
type Completed struct {
	File     string
	Language string
	Strategy string
	Chunks   int
	Duration time.Duration
	Size     int // file size in bytes
	Partial  bool
}

func (Completed) Name() string      { return NameCompleted }
func (Completed) Level() slog.Level { return slog.LevelInfo }
func (e Completed) Attrs() []slog.Attr {
	return []slog.Attr{
		slog.String("file", e.File),
		slog.String("language", e.Language),
		slog.String("strategy", e.Strategy),
		slog.Int("chunk_count", e.Chunks),
		slog.Int64("duration_ms", e.Duration.Milliseconds()),
		slog.Int("file_size_bytes", e.Size),
		slog.Bool("partial", e.Partial),
	}
}

// Failed is emitted when a strategy errors or a file ends with an error.
// FallbackTriggered is set when the file moves on to the next strategy.
type Failed struct {
	File              string
	Language          string
	Strategy          string
	ErrorKind         string
	FallbackTriggered bool
	Err               error
}

func (Failed) Name() string      { return NameFailed }
func (Failed) Level() slog.Level { return slog.LevelWarn }
func (e Failed) Attrs() []slog.Attr {
	msg := ""
	if e.Err != nil {
		msg = e.Err.Error()
	}
	return []slog.Attr{
		slog.String("file", e.File),
		slog.String("language", e.Language),
		slog.String("strategy", e.Strategy),
		slog.String("error_kind", e.ErrorKind),
		slog.Bool("fallback_triggered", e.FallbackTriggered),
		slog.String("error", msg),
	}
}

// Fallback is emitted each time a file moves to the next strategy
type Fallback struct {
	File   string
	From   string
	To     string
	Reason string
}

func (Fallback) Name() string      { return NameFallback }
func (Fallback) Level() slog.Level { return slog.LevelInfo }
func (e Fallback) Attrs() []slog.Attr {
	return []slog.Attr{
		slog.String("file", e.File),
		slog.String("from_strategy", e.From),
		slog.String("to_strategy", e.To),
		slog.String("reason", e.Reason),
	}
}

// EdgeCase is emitted for content handled without normal chunking
type EdgeCase struct {
	File string
	Case string
}

func (EdgeCase) Name() string      { return NameEdgeCase }
func (EdgeCase) Level() slog.Level { return slog.LevelInfo }
func (e EdgeCase) Attrs() []slog.Attr {
	return []slog.Attr{slog.String("file", e.File), slog.String("kind", e.Case)}
}

// PerformanceWarning is emitted when a file takes longer than the threshold
type PerformanceWarning struct {
	File      string
	Duration  time.Duration
	Threshold time.Duration
}

func (PerformanceWarning) Name() string      { return NamePerformanceWarning }
func (PerformanceWarning) Level() slog.Level { return slog.LevelWarn }
func (e PerformanceWarning) Attrs() []slog.Attr {
	return []slog.Attr{
		slog.String("file", e.File),
		slog.Int64("duration_ms", e.Duration.Milliseconds()),
		slog.Int64("threshold_ms", e.Threshold.Milliseconds()),
	}
}

// ResourceLimit is emitted when a timeout or a token or count cap is hit.
// Timeout values are durations in nanoseconds and are logged in milliseconds.
type ResourceLimit struct {
	File      string
	LimitType string
	Limit     int64
	Actual    int64
}

func (ResourceLimit) Name() string      { return NameResourceLimit }
func (ResourceLimit) Level() slog.Level { return slog.LevelWarn }
func (e ResourceLimit) Attrs() []slog.Attr {
	return []slog.Attr{
		slog.String("file", e.File),
		slog.String("limit_type", e.LimitType),
		slog.Int64("limit_value", e.value(e.Limit)),
		slog.Int64("actual_value", e.value(e.Actual)),
	}
}

func (e ResourceLimit) value(v int64) int64 {
	if e.LimitType == types.LimitTimeout {
		return time.Duration(v).Milliseconds()
	}
	return v
}

// Deduplication reports how many chunks were dropped as duplicates
type Deduplication struct {
	File       string
	Total      int
	Duplicates int
	Unique     int
}

func (Deduplication) Name() string      { return NameDeduplication }
func (Deduplication) Level() slog.Level { return slog.LevelInfo }
func (e Deduplication) Attrs() []slog.Attr {
	return []slog.Attr{
		slog.String("file", e.File),
		slog.Int("total", e.Total),
		slog.Int("duplicates", e.Duplicates),
		slog.Int("unique", e.Unique),
	}
}
