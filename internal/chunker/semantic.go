package chunker

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/dshills/gochunk-mcp/internal/events"
	"github.com/dshills/gochunk-mcp/internal/grammar"
	"github.com/dshills/gochunk-mcp/internal/semantic"
	"github.com/dshills/gochunk-mcp/internal/textsplit"
	"github.com/dshills/gochunk-mcp/pkg/types"
)

const (
	// DefaultMaxASTDepth bounds how deep oversized nodes are subdivided
	DefaultMaxASTDepth = 200
	// DefaultParseTimeout bounds a single tree-sitter parse
	DefaultParseTimeout = 10 * time.Second
)

// SemanticOptions controls which syntax nodes become chunk boundaries
type SemanticOptions struct {
	// BoundaryTier is the least important tier that may start a chunk
	BoundaryTier semantic.Tier
	// ImportanceThreshold is the minimum best-context score of a boundary
	ImportanceThreshold float64
	// MaxASTDepth limits subdivision of oversized nodes before line slicing
	MaxASTDepth int
	// TokenLimit is the effective per-chunk token limit
	TokenLimit int
	// ParseTimeout bounds the parse; zero means only ctx applies
	ParseTimeout time.Duration
}

// SemanticChunker splits source files along grammar nodes. Important
// nodes (definitions, module boundaries, control flow) start chunks; the
// nodes between them are gathered into gap chunks so that the chunk spans
// tile the whole file.
type SemanticChunker struct {
	grammars *grammar.Registry
	cache    *semantic.Cache
	scorer   semantic.Scorer
	opts     SemanticOptions
	sink     events.Sink
}

// NewSemanticChunker creates the semantic strategy
func NewSemanticChunker(grammars *grammar.Registry, cache *semantic.Cache, opts SemanticOptions, sink events.Sink) *SemanticChunker {
	if sink == nil {
		sink = events.Discard
	}
	return &SemanticChunker{
		grammars: grammars,
		cache:    cache,
		scorer:   semantic.NewScorer(),
		opts:     opts,
		sink:     sink,
	}
}

// unit is one classified syntax node
type unit struct {
	node     *sitter.Node
	start    int // first line, 1-based
	end      int // last line, 1-based
	class    semantic.Classification
	category semantic.Category
	scores   semantic.ImportanceScores
	name     string
	depth    int
	boundary bool
	comment  bool
}

// segment is a run of units that becomes one chunk
type segment struct {
	units    []unit
	start    int
	end      int
	depth    int
	boundary bool
	part     int // line-slice index, 0 when the segment is whole
}

type parsed struct {
	content  string
	source   []byte
	lines    *textsplit.LineIndex
	path     string
	language string
}

// Chunk implements StrategyChunker
func (s *SemanticChunker) Chunk(ctx context.Context, content, path, language string) ([]*types.CodeChunk, error) {
	lang, ok := s.grammars.Get(language)
	if !ok || content == "" {
		return nil, nil
	}
	if strings.IndexByte(content, 0) >= 0 {
		return nil, &types.ParseError{
			File:     path,
			Language: language,
			Message:  "content contains NUL bytes",
			Err:      types.ErrBinaryContent,
		}
	}

	lines := textsplit.NewLineIndex(content)
	if strings.TrimSpace(content) == "" {
		return s.edgeCase(ctx, content, path, language, events.EdgeWhitespaceOnly), nil
	}
	if lines.Lines() == 1 {
		return s.edgeCase(ctx, content, path, language, events.EdgeSingleLine), nil
	}

	source := []byte(content)
	pctx := ctx
	if s.opts.ParseTimeout > 0 {
		var cancel context.CancelFunc
		pctx, cancel = context.WithTimeout(ctx, s.opts.ParseTimeout)
		defer cancel()
	}
	tree, err := lang.Parse(pctx, source)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &types.ParseError{File: path, Language: language, Message: err.Error(), Err: err}
	}
	defer tree.Close()

	p := &parsed{content: content, source: source, lines: lines, path: path, language: language}
	root := tree.RootNode()

	segs := group(s.units(p, root, 1), 1)
	if !hasBoundary(segs) {
		reason := "no nodes qualify as chunk boundaries"
		if root.HasError() {
			reason = "syntax errors left no usable chunk boundaries"
		}
		return nil, &types.StructureError{
			File:     path,
			Strategy: StrategySemantic.String(),
			Reason:   reason,
			Err:      types.ErrNoBoundaries,
		}
	}

	var out []*types.CodeChunk
	for _, sg := range tile(segs, 1, lines.Lines()) {
		for _, piece := range s.expand(p, sg) {
			if c := s.build(p, piece); c != nil {
				out = append(out, c)
			}
		}
	}
	return out, nil
}

func (s *SemanticChunker) edgeCase(ctx context.Context, content, path, language, edge string) []*types.CodeChunk {
	s.sink.Emit(ctx, events.EdgeCase{File: path, Case: edge})
	c := wholeContent(content, path, language, types.KindASTNode, StrategySemantic)
	c.Metadata.SetContext("edge_case", edge)
	return []*types.CodeChunk{c}
}

// nodeLines returns the 1-based line range of n. A node ending at column 0
// stops on the previous line.
func nodeLines(n *sitter.Node, lines *textsplit.LineIndex) (int, int) {
	sp, ep := n.StartPoint(), n.EndPoint()
	endRow := ep.Row
	if ep.Column == 0 && endRow > sp.Row {
		endRow--
	}
	start := min(int(sp.Row)+1, lines.Lines())
	end := min(int(endRow)+1, lines.Lines())
	return start, max(start, end)
}

// nodeName finds the declared name of a definition node
func nodeName(n *sitter.Node, source []byte) string {
	target := n
	if def := n.ChildByFieldName("definition"); def != nil {
		target = def
	}
	if name := target.ChildByFieldName("name"); name != nil {
		return name.Content(source)
	}
	if target.NamedChildCount() > 0 {
		if child := target.NamedChild(0); child != nil {
			if name := child.ChildByFieldName("name"); name != nil {
				return name.Content(source)
			}
		}
	}
	return ""
}

func isTestName(name string) bool {
	return strings.HasPrefix(name, "test") || strings.HasPrefix(name, "Test")
}

// units classifies the named children of n
func (s *SemanticChunker) units(p *parsed, n *sitter.Node, depth int) []unit {
	count := int(n.NamedChildCount())
	out := make([]unit, 0, count)
	for i := 0; i < count; i++ {
		child := n.NamedChild(i)
		if child == nil || child.EndByte() <= child.StartByte() {
			continue
		}
		out = append(out, s.classify(p, child, depth))
	}
	return out
}

func (s *SemanticChunker) classify(p *parsed, n *sitter.Node, depth int) unit {
	kind := n.Type()
	// wrappers such as decorated definitions take the category of what they wrap
	target := kind
	if def := n.ChildByFieldName("definition"); def != nil {
		target = def.Type()
	}
	cl := s.cache.Classify(target, p.language)
	cat := cl.Category

	name := nodeName(n, p.source)
	if cat == semantic.DefinitionCallable && isTestName(name) {
		cat = semantic.DefinitionTest
	}

	comment := cat == semantic.SyntaxComment || strings.Contains(kind, "comment")
	if comment && cat == semantic.Unknown {
		cat = semantic.SyntaxComment
	}

	scores := s.scorer.Score(cat, depth, int(n.EndByte()-n.StartByte()))
	start, end := nodeLines(n, p.lines)
	return unit{
		node:     n,
		start:    start,
		end:      end,
		class:    cl,
		category: cat,
		scores:   scores,
		name:     name,
		depth:    depth,
		comment:  comment,
		boundary: !comment && cat.Tier() <= s.opts.BoundaryTier && scores.Max() >= s.opts.ImportanceThreshold,
	}
}

// group turns classified units into segments. Boundary units start new
// segments; comments directly above a boundary move with it; adjacent
// boundaries of one category with no blank line between them coalesce.
func group(units []unit, depth int) []segment {
	var segs []segment
	for i, u := range units {
		last := len(segs) - 1

		if !u.boundary {
			if last >= 0 && !segs[last].boundary {
				segs[last].units = append(segs[last].units, u)
			} else {
				segs = append(segs, segment{units: []unit{u}, depth: depth})
			}
			continue
		}

		first := i
		for first > 0 {
			c := units[first-1]
			if !c.comment || c.end+1 < units[first].start {
				break
			}
			if first > 1 && units[first-2].end >= c.start {
				break
			}
			first--
		}
		if attached := i - first; attached > 0 {
			gap := &segs[last]
			gap.units = gap.units[:len(gap.units)-attached]
			if len(gap.units) == 0 {
				segs = segs[:last]
			}
			last = len(segs) - 1
		}

		if first == i && last >= 0 && segs[last].boundary {
			prev := segs[last].units[len(segs[last].units)-1]
			if prev.category == u.category && prev.end+1 >= u.start {
				segs[last].units = append(segs[last].units, u)
				continue
			}
		}

		owned := make([]unit, i-first+1)
		copy(owned, units[first:i+1])
		segs = append(segs, segment{units: owned, depth: depth, boundary: true})
	}
	return segs
}

// perUnit gives every unit its own segment
func perUnit(units []unit, depth int) []segment {
	segs := make([]segment, len(units))
	for i, u := range units {
		segs[i] = segment{units: []unit{u}, depth: depth, boundary: u.boundary}
	}
	return segs
}

func hasBoundary(segs []segment) bool {
	for _, sg := range segs {
		if sg.boundary {
			return true
		}
	}
	return false
}

// tile assigns line ranges so the segments cover [from, to] exactly once.
// Segments that share a line are merged; blank lines between segments go
// to the earlier one.
func tile(segs []segment, from, to int) []segment {
	out := make([]segment, 0, len(segs))
	for _, sg := range segs {
		sg.start, sg.end = sg.units[0].start, sg.units[0].end
		for _, u := range sg.units[1:] {
			sg.end = max(sg.end, u.end)
		}
		if n := len(out); n > 0 && sg.start <= out[n-1].end {
			prev := &out[n-1]
			prev.units = append(prev.units, sg.units...)
			prev.end = max(prev.end, sg.end)
			prev.boundary = prev.boundary || sg.boundary
			continue
		}
		out = append(out, sg)
	}
	if len(out) == 0 {
		return nil
	}

	out[0].start = from
	for k := 1; k < len(out); k++ {
		out[k-1].end = out[k].start - 1
	}
	out[len(out)-1].end = max(to, out[len(out)-1].start)
	return out
}

// text returns the content of lines [start, end] without leading blank
// lines or trailing whitespace
func (s *SemanticChunker) text(p *parsed, start, end int) string {
	text, _ := trimBlankLines(p.content[p.lines.Start(start):p.lines.End(end)])
	return text
}

// trimBlankLines drops leading blank lines and trailing whitespace,
// reporting how many lines were dropped from the front
func trimBlankLines(text string) (string, int) {
	skipped := 0
	for {
		i := strings.IndexByte(text, '\n')
		if i < 0 || strings.TrimSpace(text[:i]) != "" {
			break
		}
		text = text[i+1:]
		skipped++
	}
	return strings.TrimRightFunc(text, unicode.IsSpace), skipped
}

func (s *SemanticChunker) fits(p *parsed, sg segment) bool {
	return tokenLength(s.text(p, sg.start, sg.end)) <= contentBudget(s.opts.TokenLimit)
}

// expand splits an oversized segment along its nodes' children, falling
// back to line slices when the tree offers nothing smaller
func (s *SemanticChunker) expand(p *parsed, sg segment) []segment {
	if s.fits(p, sg) {
		return []segment{sg}
	}
	if sg.depth < s.opts.MaxASTDepth {
		if sub := s.subdivide(p, sg); len(sub) > 1 {
			var out []segment
			for _, x := range sub {
				out = append(out, s.expand(p, x)...)
			}
			return out
		}
	}
	return s.slice(p, sg)
}

func (s *SemanticChunker) subdivide(p *parsed, sg segment) []segment {
	if len(sg.units) > 1 {
		return tile(perUnit(sg.units, sg.depth), sg.start, sg.end)
	}

	n := sg.units[0].node
	depth := sg.depth + 1
	var units []unit
	for {
		units = s.units(p, n, depth)
		if len(units) != 1 {
			break
		}
		if depth >= s.opts.MaxASTDepth {
			return nil
		}
		n = units[0].node
		depth++
	}
	if len(units) == 0 {
		return nil
	}

	segs := tile(group(units, depth), sg.start, sg.end)
	if len(segs) <= 1 {
		segs = tile(perUnit(units, depth), sg.start, sg.end)
	}
	return segs
}

// slice cuts a segment into runs of whole lines that fit the content
// budget. A single line longer than the budget stays whole.
func (s *SemanticChunker) slice(p *parsed, sg segment) []segment {
	budget := contentBudget(s.opts.TokenLimit) * types.CharsPerToken

	var out []segment
	cur := sg
	size := 0
	for line := sg.start; line <= sg.end; line++ {
		n := p.lines.End(line) - p.lines.Start(line)
		if size > 0 && size+n > budget {
			cur.end = line - 1
			out = append(out, cur)
			cur.start = line
			size = 0
		}
		size += n
	}
	cur.end = sg.end
	out = append(out, cur)

	folded := out[:0]
	for _, x := range out {
		if strings.TrimSpace(s.text(p, x.start, x.end)) != "" {
			folded = append(folded, x)
			continue
		}
		if n := len(folded); n > 0 {
			folded[n-1].end = x.end
		}
	}
	if len(folded) == 0 {
		return []segment{sg}
	}
	folded[0].start = sg.start
	for i := range folded {
		folded[i].part = i + 1
	}
	if len(folded) == 1 {
		folded[0].part = 0
	}
	return folded
}

// representative picks the unit whose classification describes the
// segment: the first boundary unit, else the most important unit
func (sg segment) representative() unit {
	if sg.boundary {
		for _, u := range sg.units {
			if u.boundary {
				return u
			}
		}
	}
	best := sg.units[0]
	for _, u := range sg.units[1:] {
		bt, ut := best.category.Tier(), u.category.Tier()
		if ut < bt || (ut == bt && u.scores.Max() > best.scores.Max()) {
			best = u
		}
	}
	return best
}

func (s *SemanticChunker) build(p *parsed, sg segment) *types.CodeChunk {
	text, skipped := trimBlankLines(p.content[p.lines.Start(sg.start):p.lines.End(sg.end)])
	if strings.TrimSpace(text) == "" {
		return nil
	}

	rep := sg.representative()
	name := rep.name
	if name == "" {
		name = rep.node.Type()
	}
	if sg.part > 0 {
		name = fmt.Sprintf("%s (part %d)", name, sg.part)
	}

	span := types.Span{StartLine: sg.start, EndLine: sg.end}
	c := newChunk(text, span, types.KindASTNode, p.language, p.path, StrategySemantic, name)
	if skipped > 0 {
		c.ContentLine = sg.start + skipped
	}

	cat := rep.category
	c.Metadata.Semantic = &types.SemanticInfo{
		Category:        string(cat),
		Group:           string(cat.Group()),
		Tier:            int(cat.Tier()),
		IsDeclaration:   cat.IsDefinition(),
		IsControlFlow:   cat.IsControlFlow(),
		IsDocumentation: cat.IsDocumentation(),
	}
	c.Metadata.SetContext("node_kind", rep.node.Type())
	c.Metadata.SetContext("classification_rule", string(rep.class.Rule))
	c.Metadata.SetContext("confidence", strconv.FormatFloat(rep.class.Confidence, 'f', 2, 64))
	c.Metadata.SetContext("nesting_level", strconv.Itoa(rep.depth))
	if len(sg.units) > 1 {
		c.Metadata.SetContext("node_count", strconv.Itoa(len(sg.units)))
	}
	if sg.part > 0 {
		c.Metadata.SetContext("oversized_fallback", "line_slice")
	}
	return c
}
