package semantic

import (
	"fmt"
	"strings"

	"github.com/dshills/gochunk-mcp/internal/grammar"
	"github.com/dshills/gochunk-mcp/pkg/types"
)

// Rule names the classification rule that produced a result
type Rule string

const (
	RuleOverride  Rule = "language_override"
	RuleAbstract  Rule = "abstract_type"
	RuleFields    Rule = "field_semantics"
	RuleChildren  Rule = "children_constraints"
	RuleStatement Rule = "statement_position"
	RuleExtra     Rule = "extra_node"
	RuleUnknown   Rule = "unknown"
)

// Classification is the result of classifying a node kind
type Classification struct {
	Kind       string   `json:"kind"`
	Language   string   `json:"language"`
	Category   Category `json:"category"`
	Tier       Tier     `json:"tier"`
	Confidence float64  `json:"confidence"`
	Rule       Rule     `json:"rule"`
}

// NodeSource provides grammar metadata for (language, kind) pairs
type NodeSource interface {
	NodeInfo(language, kind string) (*grammar.NodeInfo, bool)
}

// Override forces a classification for a kind. Language "*" matches every language.
type Override struct {
	Language string   `yaml:"language" json:"language"`
	Kind     string   `yaml:"kind" json:"kind"`
	Category Category `yaml:"category" json:"category"`
}

// Classifier assigns categories to grammar node kinds. It is a pure function
// of (kind, language, grammar metadata) and safe for concurrent use.
type Classifier struct {
	nodes     NodeSource
	overrides map[string]map[string]Category
}

// NewClassifier returns a classifier over nodes. User overrides take
// precedence over the built-in idioms.
func NewClassifier(nodes NodeSource, overrides []Override) (*Classifier, error) {
	merged := make(map[string]map[string]Category, len(builtinOverrides))
	for lang, kinds := range builtinOverrides {
		m := make(map[string]Category, len(kinds))
		for k, c := range kinds {
			m[k] = c
		}
		merged[lang] = m
	}

	for i, o := range overrides {
		field := fmt.Sprintf("semantic.overrides[%d]", i)
		if o.Language == "" || o.Kind == "" {
			return nil, &types.ConfigurationError{Field: field, Reason: "language and kind are required"}
		}
		if !o.Category.Valid() {
			return nil, &types.ConfigurationError{Field: field, Reason: fmt.Sprintf("unknown category %q", o.Category)}
		}
		lang := strings.ToLower(o.Language)
		if merged[lang] == nil {
			merged[lang] = make(map[string]Category)
		}
		merged[lang][o.Kind] = o.Category
	}

	return &Classifier{nodes: nodes, overrides: merged}, nil
}

func (c *Classifier) result(kind, language string, cat Category, confidence float64, rule Rule) Classification {
	return Classification{
		Kind:       kind,
		Language:   language,
		Category:   cat,
		Tier:       cat.Tier(),
		Confidence: confidence,
		Rule:       rule,
	}
}

// Classify returns the category of kind in language
func (c *Classifier) Classify(kind, language string) Classification {
	if cl, ok := c.shallow(kind, language); ok {
		return cl
	}

	info, ok := c.nodes.NodeInfo(language, kind)
	if !ok {
		return c.result(kind, language, Unknown, 0, RuleUnknown)
	}

	if cat, ok := c.byChildren(info, language); ok {
		return c.result(kind, language, cat, 0.65, RuleChildren)
	}
	if inStatementContainer(info) {
		return c.result(kind, language, FlowControl, 0.60, RuleStatement)
	}

	if info.IsExtra {
		return c.classifyExtra(kind, language)
	}

	return c.result(kind, language, Unknown, 0, RuleUnknown)
}

// shallow applies the override, abstract-type, and field rules
func (c *Classifier) shallow(kind, language string) (Classification, bool) {
	if cat, ok := c.override(kind, language); ok {
		return c.result(kind, language, cat, 0.95, RuleOverride), true
	}

	info, ok := c.nodes.NodeInfo(language, kind)
	if !ok {
		return Classification{}, false
	}

	fieldCat, hasFieldCat := byFields(info)

	if entry, n, ok := byAbstract(info); ok {
		cat := entry.category
		// The supertype names a broad role. A field signature in the same
		// tier is more specific.
		if hasFieldCat && fieldCat != cat && fieldCat.Tier() == cat.Tier() {
			cat = fieldCat
		}
		confidence := 0.90
		if n > 1 {
			confidence = 0.85
		}
		return c.result(kind, language, cat, confidence, RuleAbstract), true
	}

	if hasFieldCat {
		return c.result(kind, language, fieldCat, 0.85, RuleFields), true
	}

	return Classification{}, false
}

func (c *Classifier) override(kind, language string) (Category, bool) {
	if cat, ok := c.overrides[language][kind]; ok {
		return cat, true
	}
	cat, ok := c.overrides[anyLanguage][kind]
	return cat, ok
}

// byAbstract returns the best-weighted abstract entry and how many memberships matched
func byAbstract(info *grammar.NodeInfo) (abstractEntry, int, bool) {
	candidates := info.AbstractCategories
	if info.IsAbstract {
		candidates = append([]string{info.Kind}, candidates...)
	}

	var best abstractEntry
	matched := 0
	for _, super := range candidates {
		entry, ok := lookupAbstract(grammar.NormalizeSupertype(super))
		if !ok {
			continue
		}
		matched++
		if entry.weight > best.weight {
			best = entry
		}
	}
	return best, matched, matched > 0
}

func byFields(info *grammar.NodeInfo) (Category, bool) {
	if len(info.Fields) == 0 {
		return "", false
	}

	scores := make(map[Category]float64)
	for _, sig := range fieldSignatures {
		if sig.matches(info.HasField) {
			scores[sig.category] += sig.weight
		}
	}
	return argmax(scores)
}

func (c *Classifier) byChildren(info *grammar.NodeInfo, language string) (Category, bool) {
	if info.Children == nil {
		return "", false
	}

	votes := make(map[Category]float64)
	for _, child := range info.Children.TypeNames() {
		if child == info.Kind {
			continue
		}
		if cl, ok := c.shallow(child, language); ok && cl.Category != Unknown {
			votes[cl.Category] += float64(cl.Category.Priority())
		}
	}
	return argmax(votes)
}

func inStatementContainer(info *grammar.NodeInfo) bool {
	for _, super := range info.AbstractCategories {
		if statementContainers[grammar.NormalizeSupertype(super)] {
			return true
		}
	}
	return false
}

func (c *Classifier) classifyExtra(kind, language string) Classification {
	switch {
	case strings.Contains(kind, "comment"):
		return c.result(kind, language, SyntaxComment, 0.99, RuleExtra)
	case kind == "line_continuation":
		return c.result(kind, language, SyntaxPunctuation, 0.90, RuleExtra)
	case kind == "text_interpolation":
		return c.result(kind, language, SyntaxIdentifier, 0.90, RuleExtra)
	default:
		return c.result(kind, language, SyntaxWhitespace, 0.90, RuleExtra)
	}
}

// argmax picks the highest score, breaking ties by category priority
func argmax(scores map[Category]float64) (Category, bool) {
	var best Category
	bestScore := 0.0
	for cat, s := range scores {
		if s > bestScore || (s == bestScore && best != "" && cat.Priority() > best.Priority()) {
			best, bestScore = cat, s
		}
	}
	return best, best != ""
}
