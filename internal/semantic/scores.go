package semantic

import "math"

// MaxScore is the ceiling for adjusted scores
const MaxScore = 0.99

// DefaultImportanceThreshold is the minimum Max() score for a chunk boundary
const DefaultImportanceThreshold = 0.3

// ImportanceScores rates a node for each retrieval context. Every value is in [0, 1].
type ImportanceScores struct {
	Discovery     float64 `json:"discovery" yaml:"discovery"`
	Comprehension float64 `json:"comprehension" yaml:"comprehension"`
	Modification  float64 `json:"modification" yaml:"modification"`
	Debugging     float64 `json:"debugging" yaml:"debugging"`
	Documentation float64 `json:"documentation" yaml:"documentation"`
}

// Max returns the highest score across contexts
func (s ImportanceScores) Max() float64 {
	return math.Max(s.Discovery, math.Max(s.Comprehension,
		math.Max(s.Modification, math.Max(s.Debugging, s.Documentation))))
}

// Add shifts every score by delta, clamped to [0, MaxScore]
func (s ImportanceScores) Add(delta float64) ImportanceScores {
	return ImportanceScores{
		Discovery:     clamp(s.Discovery + delta),
		Comprehension: clamp(s.Comprehension + delta),
		Modification:  clamp(s.Modification + delta),
		Debugging:     clamp(s.Debugging + delta),
		Documentation: clamp(s.Documentation + delta),
	}
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(MaxScore, v))
}

// Scorer applies contextual adjustments to category default scores
type Scorer struct {
	DepthPenalty       float64
	SizeBonusThreshold int
	SizeBonusFactor    float64
	RootBonus          float64
}

// NewScorer returns a scorer with the standard adjustment factors
func NewScorer() Scorer {
	return Scorer{
		DepthPenalty:       0.04,
		SizeBonusThreshold: 50,
		SizeBonusFactor:    0.1,
		RootBonus:          0.05,
	}
}

// Adjust returns the category scores shifted for a node at depth with size bytes of text.
// Depth counts ancestors, so direct children of the root have depth 1.
func (s Scorer) Adjust(scores ImportanceScores, depth, size int, category Category) ImportanceScores {
	adjustment := -float64(depth) * s.DepthPenalty

	if s.SizeBonusThreshold > 0 && size > s.SizeBonusThreshold {
		multiplier := math.Min(2.0, float64(size)/float64(s.SizeBonusThreshold))
		adjustment += (multiplier - 1.0) * s.SizeBonusFactor
	}

	if depth <= 1 && category.IsDefinition() {
		adjustment += s.RootBonus
	}

	return scores.Add(adjustment)
}

// Score is shorthand for adjusting the category's default scores
func (s Scorer) Score(category Category, depth, size int) ImportanceScores {
	return s.Adjust(category.DefaultScores(), depth, size, category)
}
