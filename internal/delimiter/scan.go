package delimiter

import (
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"
)

// Region is one delimited span found by a Scanner. Start/End cover the
// markers (expanded to whole lines when the delimiter asks for it) and are
// what regions are compared on for overlap. TextStart/TextEnd is the part
// that becomes chunk content.
type Region struct {
	Delimiter Delimiter
	Start     int
	End       int
	TextStart int
	TextEnd   int
	Level     int
}

// Text returns the chunk text of the region
func (r Region) Text(content string) string {
	return content[r.TextStart:r.TextEnd]
}

// Scanner finds delimited regions using one combined expression for every
// marker in a table.
type Scanner struct {
	delims  []Delimiter
	re      *regexp.Regexp
	byStart map[string][]int
	byEnd   map[string][]int
}

// NewScanner compiles a scanner for the bounded delimiters of a table
func NewScanner(delims []Delimiter) (*Scanner, error) {
	s := &Scanner{
		delims:  Bounded(delims),
		byStart: make(map[string][]int),
		byEnd:   make(map[string][]int),
	}
	if len(s.delims) == 0 {
		return s, nil
	}

	markers := make(map[string]bool)
	for i, d := range s.delims {
		s.byStart[d.Start] = append(s.byStart[d.Start], i)
		markers[d.Start] = true
		if d.End != "" {
			s.byEnd[d.End] = append(s.byEnd[d.End], i)
			markers[d.End] = true
		}
	}

	ordered := make([]string, 0, len(markers))
	for m := range markers {
		ordered = append(ordered, m)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if len(ordered[i]) != len(ordered[j]) {
			return len(ordered[i]) > len(ordered[j])
		}
		return ordered[i] < ordered[j]
	})

	alts := make([]string, len(ordered))
	for i, m := range ordered {
		alts[i] = markerExpr(m)
	}
	re, err := regexp.Compile(strings.Join(alts, "|"))
	if err != nil {
		return nil, fmt.Errorf("failed to compile delimiter markers: %w", err)
	}
	s.re = re
	return s, nil
}

// Len returns the number of delimiters the scanner matches
func (s *Scanner) Len() int { return len(s.delims) }

func isWordByte(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}

// markerExpr quotes a marker, word-bounding the ends that are word characters
func markerExpr(m string) string {
	expr := regexp.QuoteMeta(m)
	if isWordByte(m[0]) {
		expr = `\b` + expr
	}
	if isWordByte(m[len(m)-1]) {
		expr += `\b`
	}
	return expr
}

type openMarker struct {
	pos       int
	textStart int
	level     int
}

type pendingMarker struct {
	idx   int
	depth int
	openMarker
}

// Scan runs the three phases: find markers, pair them, and keep the
// highest-priority non-overlapping regions. Unclosed starts are dropped,
// except empty-end starts, which stay pending until one of:
//   - a code element starts at the same or a shallower block depth
//   - a control-flow start of equal or higher priority at that depth
//   - the block enclosing them closes
//   - the content ends
//
// Control flow opened inside a block belongs to that block's region and is
// not reported on its own.
func (s *Scanner) Scan(content string) []Region {
	if s.re == nil || strings.TrimSpace(content) == "" {
		return nil
	}

	stacks := make([][]openMarker, len(s.delims))
	var pending []pendingMarker
	var found []Region

	depth := func() int {
		n := 0
		for i, d := range s.delims {
			if d.Kind == KindBlock {
				n += len(stacks[i])
			}
		}
		return n
	}

	closePending := func(at int, done func(pendingMarker) bool) {
		kept := pending[:0]
		for _, p := range pending {
			if !done(p) {
				kept = append(kept, p)
				continue
			}
			d := s.delims[p.idx]
			if p.depth > 0 && d.Kind.IsControlFlow() {
				continue
			}
			found = append(found, Region{
				Delimiter: d,
				Start:     p.pos,
				End:       at,
				TextStart: p.textStart,
				TextEnd:   at,
				Level:     p.depth,
			})
		}
		pending = kept
	}

	for _, loc := range s.re.FindAllStringIndex(content, -1) {
		start, end := loc[0], loc[1]
		token := content[start:end]

		closed, blockClosed := false, false
		for _, i := range s.closers(token) {
			stack := stacks[i]
			if len(stack) == 0 {
				continue
			}
			top := stack[len(stack)-1]
			stacks[i] = stack[:len(stack)-1]
			found = append(found, Region{
				Delimiter: s.delims[i],
				Start:     top.pos,
				End:       end,
				TextStart: top.textStart,
				TextEnd:   start,
				Level:     top.level,
			})
			closed = true
			blockClosed = blockClosed || s.delims[i].Kind == KindBlock
		}
		if blockClosed {
			level := depth()
			closePending(start, func(p pendingMarker) bool { return p.depth > level })
		}
		if closed {
			continue
		}

		level := depth()
		openers := s.byStart[token]
		var flowMax uint32
		element, flow := false, false
		for _, i := range openers {
			d := s.delims[i]
			if d.End != "" {
				continue
			}
			if d.Kind.IsCodeElement() {
				element = true
			} else {
				flow = true
				flowMax = max(flowMax, d.Priority)
			}
		}
		switch {
		case element:
			closePending(start, func(p pendingMarker) bool { return p.depth >= level })
		case flow:
			closePending(start, func(p pendingMarker) bool {
				d := s.delims[p.idx]
				return p.depth > level || (p.depth == level && !d.Kind.IsCodeElement() && d.Priority <= flowMax)
			})
		}

		for _, i := range openers {
			d := s.delims[i]
			if d.End == "" {
				pending = append(pending, pendingMarker{idx: i, depth: level, openMarker: openMarker{pos: start, textStart: end}})
				continue
			}
			if !d.Nestable && len(stacks[i]) > 0 {
				continue
			}
			nesting := 0
			if d.Nestable {
				nesting = len(stacks[i])
			}
			stacks[i] = append(stacks[i], openMarker{pos: start, textStart: end, level: nesting})
		}
	}
	closePending(len(content), func(pendingMarker) bool { return true })

	for i := range found {
		found[i] = expand(content, found[i])
	}
	return selectRegions(found)
}

// closers returns the delimiters a token can close. A run of line
// terminators also closes delimiters that end at its first terminator.
func (s *Scanner) closers(token string) []int {
	idx := s.byEnd[token]
	if len(token) > 1 && (token[0] == '\n' || token[0] == '\r') {
		first := token[:1]
		if strings.HasPrefix(token, "\r\n") {
			first = "\r\n"
		}
		if first != token {
			idx = append(slices.Clone(idx), s.byEnd[first]...)
		}
	}
	return idx
}

func expand(content string, r Region) Region {
	d := r.Delimiter
	switch {
	case d.TakeWholeLines:
		r.Start = lineStart(content, r.Start)
		r.End = lineEnd(content, r.End)
		r.TextStart, r.TextEnd = r.Start, r.End
	case d.Inclusive:
		r.TextStart, r.TextEnd = r.Start, r.End
	}
	return r
}

func lineStart(content string, pos int) int {
	return strings.LastIndexByte(content[:pos], '\n') + 1
}

func lineEnd(content string, pos int) int {
	if pos == 0 || content[pos-1] == '\n' {
		return pos
	}
	if i := strings.IndexByte(content[pos:], '\n'); i >= 0 {
		return pos + i + 1
	}
	return len(content)
}

// selectRegions keeps regions greedily by priority, then length, then
// position, dropping any that overlap a kept region.
func selectRegions(found []Region) []Region {
	sort.SliceStable(found, func(i, j int) bool {
		a, b := found[i], found[j]
		if a.Delimiter.Priority != b.Delimiter.Priority {
			return a.Delimiter.Priority > b.Delimiter.Priority
		}
		if la, lb := a.End-a.Start, b.End-b.Start; la != lb {
			return la > lb
		}
		return a.Start < b.Start
	})

	var kept []Region
	for _, r := range found {
		if r.End <= r.Start {
			continue
		}
		i := sort.Search(len(kept), func(k int) bool { return kept[k].Start >= r.End })
		if i > 0 && kept[i-1].End > r.Start {
			continue
		}
		kept = slices.Insert(kept, i, r)
	}
	return kept
}
