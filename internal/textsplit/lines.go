package textsplit

import (
	"sort"
	"strings"
	"unicode"
)

// LineIndex maps byte offsets to 1-based line numbers
type LineIndex struct {
	starts []int
	size   int
}

// NewLineIndex indexes the line starts of content
func NewLineIndex(content string) *LineIndex {
	starts := []int{0}
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' && i+1 < len(content) {
			starts = append(starts, i+1)
		}
	}
	return &LineIndex{starts: starts, size: len(content)}
}

// Lines returns the number of lines in the content
func (li *LineIndex) Lines() int { return len(li.starts) }

// Line returns the line containing offset
func (li *LineIndex) Line(offset int) int {
	return sort.Search(len(li.starts), func(i int) bool { return li.starts[i] > offset })
}

// Start returns the byte offset where a 1-based line begins
func (li *LineIndex) Start(line int) int {
	if line <= 1 {
		return 0
	}
	if line > len(li.starts) {
		return li.size
	}
	return li.starts[line-1]
}

// End returns the byte offset just past a 1-based line, including its newline
func (li *LineIndex) End(line int) int {
	if line >= len(li.starts) {
		return li.size
	}
	return li.starts[line]
}

// Span returns the inclusive line range covering [start, end)
func (li *LineIndex) Span(start, end int) (int, int) {
	if end <= start {
		l := li.Line(start)
		return l, l
	}
	return li.Line(start), li.Line(end - 1)
}

// Trim narrows [start, end) to drop leading blank lines and trailing
// whitespace. Indentation of the first non-blank line is kept.
func Trim(content string, start, end int) (int, int) {
	seg := content[start:end]
	first := strings.IndexFunc(seg, func(r rune) bool { return !unicode.IsSpace(r) })
	if first < 0 {
		return start, start
	}
	lineBegin := strings.LastIndexByte(seg[:first], '\n') + 1
	return start + lineBegin, start + len(strings.TrimRightFunc(seg, unicode.IsSpace))
}
