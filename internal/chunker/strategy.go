package chunker

import (
	"context"
	"fmt"
	"strings"

	"github.com/dshills/gochunk-mcp/pkg/types"
)

// Strategy identifies one level of the fallback hierarchy. Values are
// ordered: a file only ever moves to a higher value.
type Strategy uint8

const (
	// StrategySemantic splits on grammar nodes classified as important
	StrategySemantic Strategy = iota
	// StrategyUserDelimiter uses delimiters supplied in configuration
	StrategyUserDelimiter
	// StrategySpecial uses per-language separator lists for prose-like formats
	StrategySpecial
	// StrategyBuiltinDelimiter uses the generated delimiter table of the language family
	StrategyBuiltinDelimiter
	// StrategyRecursiveText splits on paragraphs, lines, words, then runes
	StrategyRecursiveText

	numStrategies = int(StrategyRecursiveText) + 1
)

var strategyNames = [numStrategies]string{
	"semantic",
	"user_delimiter",
	"special",
	"builtin_delimiter",
	"recursive_text",
}

func (s Strategy) String() string {
	if int(s) < numStrategies {
		return strategyNames[s]
	}
	return fmt.Sprintf("strategy(%d)", uint8(s))
}

// Next returns the following strategy. It reports false for the terminal one.
func (s Strategy) Next() (Strategy, bool) {
	if int(s)+1 >= numStrategies {
		return s, false
	}
	return s + 1, true
}

// Terminal reports whether s is the last strategy
func (s Strategy) Terminal() bool {
	return s == StrategyRecursiveText
}

// Strategies returns the full hierarchy in order
func Strategies() []Strategy {
	out := make([]Strategy, numStrategies)
	for i := range out {
		out[i] = Strategy(i)
	}
	return out
}

// ParseStrategy converts a name such as "builtin_delimiter" into a Strategy
func ParseStrategy(name string) (Strategy, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, s := range strategyNames {
		if s == n {
			return Strategy(i), nil
		}
	}
	return 0, fmt.Errorf("unknown chunking strategy %q", name)
}

// StrategyChunker produces chunks for one strategy. An empty result, a
// ParseError, or a StructureError all hand the file to the next strategy.
type StrategyChunker interface {
	Chunk(ctx context.Context, content, path, language string) ([]*types.CodeChunk, error)
}

// Registry maps each strategy to its implementation
type Registry struct {
	chunkers [numStrategies]StrategyChunker
}

// Register installs the implementation for a strategy, replacing any previous one
func (r *Registry) Register(s Strategy, c StrategyChunker) {
	if int(s) < numStrategies {
		r.chunkers[s] = c
	}
}

// Get returns the implementation for a strategy
func (r *Registry) Get(s Strategy) (StrategyChunker, bool) {
	if int(s) >= numStrategies || r.chunkers[s] == nil {
		return nil, false
	}
	return r.chunkers[s], true
}
