// Package governor enforces per-chunk token budgets, per-file chunk counts,
// and per-file deadlines on strategy output.
package governor

import (
	"fmt"
	"math"
	"time"

	"github.com/dshills/gochunk-mcp/pkg/types"
)

// Defaults
const (
	DefaultTokenLimit       = 512
	DefaultSafetyMargin     = 0.1
	DefaultTimeout          = 30 * time.Second
	DefaultMaxChunksPerFile = 5000
	DefaultMaxResplitDepth  = 8
)

// Config holds the read-only limits shared by every worker
type Config struct {
	TokenLimit       uint32        `yaml:"token_limit" json:"token_limit"`
	SafetyMargin     float64       `yaml:"safety_margin" json:"safety_margin"`
	Timeout          time.Duration `yaml:"timeout" json:"timeout"`
	MaxChunksPerFile uint32        `yaml:"max_chunks_per_file" json:"max_chunks_per_file"`
	MaxResplitDepth  int           `yaml:"max_resplit_depth" json:"max_resplit_depth"`
}

// DefaultConfig returns the default limits
func DefaultConfig() Config {
	return Config{
		TokenLimit:       DefaultTokenLimit,
		SafetyMargin:     DefaultSafetyMargin,
		Timeout:          DefaultTimeout,
		MaxChunksPerFile: DefaultMaxChunksPerFile,
		MaxResplitDepth:  DefaultMaxResplitDepth,
	}
}

// Validate reports the first invalid field as a ConfigurationError
func (c Config) Validate() error {
	switch {
	case c.TokenLimit == 0:
		return &types.ConfigurationError{Field: "governor.token_limit", Reason: "must be positive"}
	case c.SafetyMargin < 0 || c.SafetyMargin >= 1 || math.IsNaN(c.SafetyMargin):
		return &types.ConfigurationError{
			Field:  "governor.safety_margin",
			Reason: fmt.Sprintf("%v is outside [0, 1)", c.SafetyMargin),
		}
	case c.EffectiveLimit() < 1:
		return &types.ConfigurationError{Field: "governor.token_limit", Reason: "effective limit rounds to zero"}
	case c.Timeout < 0:
		return &types.ConfigurationError{Field: "governor.timeout", Reason: "must not be negative"}
	case c.MaxChunksPerFile == 0:
		return &types.ConfigurationError{Field: "governor.max_chunks_per_file", Reason: "must be positive"}
	case c.MaxResplitDepth < 1:
		return &types.ConfigurationError{Field: "governor.max_resplit_depth", Reason: "must be at least 1"}
	}
	return nil
}

// EffectiveLimit is the token limit after the safety margin
func (c Config) EffectiveLimit() int {
	return int(math.Floor(float64(c.TokenLimit) * (1 - c.SafetyMargin)))
}

// Overlap is 20% of the effective limit clamped to [50, 200], and never more
// than a quarter of the effective limit
func (c Config) Overlap() int {
	eff := c.EffectiveLimit()
	o := int(math.Max(50, math.Min(200, float64(eff)*0.2)))
	return min(o, eff/4)
}
