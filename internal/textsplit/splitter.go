// Package textsplit implements recursive separator-based text splitting with
// overlap, keeping byte offsets so callers can recover line spans.
package textsplit

import (
	"strings"
	"unicode/utf8"
)

// DefaultSeparators are tried in order: paragraphs, lines, words, runes
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// ResplitSeparators prefer line and sentence boundaries when cutting
// oversized chunks
var ResplitSeparators = []string{"\n\n", "\n", ".", "!", "?", ";", " ", ""}

// LengthFunc measures a candidate piece of text
type LengthFunc func(string) int

// RuneCount is the default length function
func RuneCount(s string) int { return utf8.RuneCountInString(s) }

// Piece is a split result with its byte range in the original text
type Piece struct {
	Text  string
	Start int
	End   int
}

// Splitter splits text so that every piece measures at most ChunkSize when
// a separator allows it. Separators stay attached to the start of the
// piece that follows them.
type Splitter struct {
	Separators []string
	ChunkSize  int
	Overlap    int
	Length     LengthFunc
}

// New returns a splitter with default separators and rune-count length
func New(chunkSize, overlap int) *Splitter {
	return &Splitter{
		Separators: DefaultSeparators,
		ChunkSize:  chunkSize,
		Overlap:    overlap,
		Length:     RuneCount,
	}
}

type span struct{ start, end int }

// Split returns the non-blank pieces of text in order
func (s *Splitter) Split(text string) []Piece {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if s.Length == nil {
		s.Length = RuneCount
	}
	seps := s.Separators
	if len(seps) == 0 {
		seps = DefaultSeparators
	}

	spans := s.split(text, span{0, len(text)}, seps)
	out := make([]Piece, 0, len(spans))
	for _, sp := range spans {
		t := text[sp.start:sp.end]
		if strings.TrimSpace(t) == "" {
			continue
		}
		out = append(out, Piece{Text: t, Start: sp.start, End: sp.end})
	}
	return out
}

func (s *Splitter) split(text string, within span, seps []string) []span {
	segment := text[within.start:within.end]

	sep, rest := seps[len(seps)-1], []string(nil)
	for i, c := range seps {
		if c == "" {
			sep, rest = "", nil
			break
		}
		if strings.Contains(segment, c) {
			sep, rest = c, seps[i+1:]
			break
		}
	}

	var out, good []span
	for _, p := range cut(segment, within.start, sep) {
		if s.Length(text[p.start:p.end]) <= s.ChunkSize {
			good = append(good, p)
			continue
		}
		if len(good) > 0 {
			out = append(out, s.merge(text, good)...)
			good = nil
		}
		if len(rest) == 0 {
			out = append(out, p)
			continue
		}
		out = append(out, s.split(text, p, rest)...)
	}
	if len(good) > 0 {
		out = append(out, s.merge(text, good)...)
	}
	return out
}

// cut splits segment at each occurrence of sep, or at rune boundaries when
// sep is empty. Offsets are shifted by base.
func cut(segment string, base int, sep string) []span {
	var out []span
	if sep == "" {
		for i, r := range segment {
			out = append(out, span{base + i, base + i + utf8.RuneLen(r)})
		}
		return out
	}

	prev := 0
	for prev < len(segment) {
		i := strings.Index(segment[prev+1:], sep)
		if i < 0 {
			break
		}
		next := prev + 1 + i
		out = append(out, span{base + prev, base + next})
		prev = next
	}
	return append(out, span{base + prev, base + len(segment)})
}

// merge joins adjacent small spans into windows no longer than ChunkSize,
// carrying up to Overlap of trailing text into the next window.
func (s *Splitter) merge(text string, spans []span) []span {
	var docs []span
	var window []span

	measure := func(from, to int) int { return s.Length(text[from:to]) }

	for _, p := range spans {
		if len(window) > 0 && measure(window[0].start, p.end) > s.ChunkSize {
			docs = append(docs, span{window[0].start, window[len(window)-1].end})
			for len(window) > 0 {
				tooLong := measure(window[0].start, window[len(window)-1].end) > s.Overlap
				wontFit := measure(window[0].start, p.end) > s.ChunkSize
				if !tooLong && !wontFit {
					break
				}
				window = window[1:]
			}
		}
		window = append(window, p)
	}
	if len(window) > 0 {
		docs = append(docs, span{window[0].start, window[len(window)-1].end})
	}
	return docs
}
