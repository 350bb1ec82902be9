package delimiter

import (
	"fmt"
	"sort"

	"github.com/dshills/gochunk-mcp/pkg/types"
)

// Delimiter is a concrete start/end marker pair with chunking rules
type Delimiter struct {
	Start          string `json:"start" yaml:"start"`
	End            string `json:"end" yaml:"end"`
	Kind           Kind   `json:"kind" yaml:"kind"`
	Nestable       bool   `json:"nestable" yaml:"nestable"`
	Priority       uint32 `json:"priority" yaml:"priority"`
	Inclusive      bool   `json:"inclusive" yaml:"inclusive"`
	TakeWholeLines bool   `json:"take_whole_lines" yaml:"take_whole_lines"`
	Description    string `json:"description,omitempty" yaml:"description,omitempty"`
}

// New returns a delimiter with the kind's default priority and line strategy
func New(start, end string, kind Kind) Delimiter {
	ls := kind.LineStrategy()
	return Delimiter{
		Start:          start,
		End:            end,
		Kind:           kind,
		Nestable:       kind.Nestable(),
		Priority:       kind.DefaultPriority(),
		Inclusive:      ls.Inclusive,
		TakeWholeLines: ls.TakeWholeLines,
	}
}

// Key identifies a delimiter within a table
func (d Delimiter) Key() [2]string {
	return [2]string{d.Start, d.End}
}

// Symmetric reports whether the same marker opens and closes the region
func (d Delimiter) Symmetric() bool {
	return d.Start == d.End
}

// Validate checks a user-supplied delimiter
func (d Delimiter) Validate() error {
	if d.Start == "" {
		return fmt.Errorf("start marker is required")
	}
	if !d.Kind.Valid() {
		return fmt.Errorf("unknown kind %q", d.Kind)
	}
	if d.Priority == 0 || d.Priority >= 100 {
		return fmt.Errorf("priority %d must be between 1 and 99", d.Priority)
	}
	return nil
}

// AnyEnd marks a pattern whose regions have no closing marker
var AnyEnd = []string{"ANY"}

// Pattern is a family-level template expanded into concrete delimiters
type Pattern struct {
	Name   string
	Starts []string
	Ends   []string
	Kind   Kind

	// Optional overrides of the kind defaults
	Priority       uint32
	Inclusive      *bool
	TakeWholeLines *bool
	Nestable       *bool

	Description string
}

func boolPtr(b bool) *bool { return &b }

func (p Pattern) isAnyEnd() bool {
	return len(p.Ends) == 1 && p.Ends[0] == AnyEnd[0]
}

func isLineTerminator(s string) bool {
	return s == "\n" || s == "\r\n" || s == "\r"
}

var lineTerminators = []string{"\n", "\r\n", "\r"}

// Expand produces the cross product of starts and ends. A line terminator
// end expands into every platform variant.
func (p Pattern) Expand() []Delimiter {
	ends := p.Ends
	if p.isAnyEnd() {
		ends = []string{""}
	}

	var expanded []string
	seen := make(map[string]bool)
	for _, e := range ends {
		variants := []string{e}
		if isLineTerminator(e) {
			variants = lineTerminators
		}
		for _, v := range variants {
			if !seen[v] {
				seen[v] = true
				expanded = append(expanded, v)
			}
		}
	}

	base := New("", "", p.Kind)
	if p.Priority > 0 {
		base.Priority = p.Priority
	}
	if p.Inclusive != nil {
		base.Inclusive = *p.Inclusive
	}
	if p.TakeWholeLines != nil {
		base.TakeWholeLines = *p.TakeWholeLines
	}
	if p.Nestable != nil {
		base.Nestable = *p.Nestable
	}
	base.Description = p.Description
	if base.Description == "" {
		base.Description = p.Name
	}

	out := make([]Delimiter, 0, len(p.Starts)*len(expanded))
	for _, s := range p.Starts {
		for _, e := range expanded {
			d := base
			d.Start, d.End = s, e
			out = append(out, d)
		}
	}
	return out
}

// Dedupe keeps one delimiter per (start, end), preferring the higher priority,
// and sorts by priority descending, then start, then end.
func Dedupe(delims []Delimiter) []Delimiter {
	best := make(map[[2]string]Delimiter, len(delims))
	for _, d := range delims {
		if cur, ok := best[d.Key()]; !ok || d.Priority > cur.Priority {
			best[d.Key()] = d
		}
	}

	out := make([]Delimiter, 0, len(best))
	for _, d := range best {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		return out[i].End < out[j].End
	})
	return out
}

func configError(field string, err error) error {
	return &types.ConfigurationError{Field: field, Reason: err.Error()}
}
