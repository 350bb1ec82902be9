package chunker

import (
	"context"
	"crypto/sha256"

	"github.com/dshills/gochunk-mcp/internal/events"
	"github.com/dshills/gochunk-mcp/internal/governor"
	"github.com/dshills/gochunk-mcp/pkg/types"
)

// FallbackResult is the outcome of walking the strategy hierarchy
type FallbackResult struct {
	Chunks   []*types.CodeChunk
	Strategy Strategy   // the strategy that produced Chunks, or the last one tried
	Visited  []Strategy // every strategy attempted, in order
}

// VisitedNames returns the visited strategies as strings
func (r FallbackResult) VisitedNames() []string {
	out := make([]string, len(r.Visited))
	for i, s := range r.Visited {
		out[i] = s.String()
	}
	return out
}

// ChunkWithFallback runs strategies from start in increasing order until
// one produces chunks. Every hand-off emits a fallback event, and a
// strategy error also emits a failed event before the hand-off. Cancellation
// is checked between strategies; when ctx ends the result so far is
// returned with ctx's error.
func (c *Chunker) ChunkWithFallback(ctx context.Context, start Strategy, content, path, language string) (FallbackResult, error) {
	return c.walk(ctx, governor.NewBudget(0), start, content, path, language)
}

// walk is ChunkWithFallback that also stops at a strategy boundary once
// budget expires, returning ResourceLimitExceeded
func (c *Chunker) walk(ctx context.Context, budget *governor.Budget, start Strategy, content, path, language string) (FallbackResult, error) {
	res := FallbackResult{Strategy: start}

	s := start
	for step := 0; step < numStrategies; step++ {
		if budget.Expired(ctx) {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			return res, budget.Exceeded()
		}

		res.Strategy = s
		res.Visited = append(res.Visited, s)

		reason := "strategy not registered"
		if impl, ok := c.registry.Get(s); ok {
			chunks, err := impl.Chunk(ctx, content, path, language)
			switch {
			case err != nil:
				if ctxErr := ctx.Err(); ctxErr != nil {
					return res, ctxErr
				}
				reason = err.Error()
				if !types.IsFallbackError(err) {
					c.logger.Warn("strategy failed", "file", path, "strategy", s.String(), "error", err)
				}
				_, more := s.Next()
				c.sink.Emit(ctx, events.Failed{
					File:              path,
					Language:          language,
					Strategy:          s.String(),
					ErrorKind:         types.ErrorKind(err),
					FallbackTriggered: more,
					Err:               err,
				})
			case len(chunks) == 0:
				reason = "no chunks produced"
			default:
				res.Chunks = chunks
				return res, nil
			}
		}

		next, ok := s.Next()
		if !ok {
			break
		}
		c.sink.Emit(ctx, events.Fallback{File: path, From: s.String(), To: next.String(), Reason: reason})
		s = next
	}
	return res, nil
}

// Deduplicate drops chunks whose whitespace-trimmed content was already
// seen, keeping the first occurrence. It returns the unique chunks and
// the number dropped.
func Deduplicate(chunks []*types.CodeChunk) ([]*types.CodeChunk, int) {
	seen := make(map[[sha256.Size]byte]struct{}, len(chunks))
	unique := make([]*types.CodeChunk, 0, len(chunks))
	for _, ch := range chunks {
		h := ch.ContentHash()
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}
		unique = append(unique, ch)
	}
	return unique, len(chunks) - len(unique)
}
