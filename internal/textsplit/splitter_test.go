package textsplit

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_SmallTextIsOnePiece(t *testing.T) {
	s := New(100, 10)
	pieces := s.Split("hello world")
	require.Len(t, pieces, 1)
	assert.Equal(t, "hello world", pieces[0].Text)
	assert.Equal(t, 0, pieces[0].Start)
	assert.Equal(t, 11, pieces[0].End)
}

func TestSplit_BlankText(t *testing.T) {
	assert.Empty(t, New(10, 0).Split(""))
	assert.Empty(t, New(10, 0).Split(" \n\t\n"))
}

func TestSplit_RespectsChunkSize(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 50; i++ {
		b.WriteString("line of some text number\n")
		if i%7 == 0 {
			b.WriteString("\n")
		}
	}
	text := b.String()

	s := New(80, 20)
	pieces := s.Split(text)
	require.Greater(t, len(pieces), 1)
	for _, p := range pieces {
		assert.LessOrEqual(t, RuneCount(p.Text), 80)
		assert.Equal(t, text[p.Start:p.End], p.Text)
	}
}

func TestSplit_CoversText(t *testing.T) {
	text := strings.Repeat("alpha beta gamma delta\n", 30)
	pieces := New(60, 0).Split(text)
	require.NotEmpty(t, pieces)

	assert.Equal(t, 0, pieces[0].Start)
	for i := 1; i < len(pieces); i++ {
		assert.LessOrEqual(t, pieces[i].Start, pieces[i-1].End, "gap before piece %d", i)
	}
	assert.Equal(t, len(text), pieces[len(pieces)-1].End)
}

func TestSplit_OverlapRepeatsTrailingText(t *testing.T) {
	text := strings.Repeat("word ", 40)
	pieces := New(30, 10).Split(text)
	require.Greater(t, len(pieces), 1)

	overlapped := false
	for i := 1; i < len(pieces); i++ {
		if pieces[i].Start < pieces[i-1].End {
			overlapped = true
		}
	}
	assert.True(t, overlapped)
}

func TestSplit_FallsBackToRunes(t *testing.T) {
	text := strings.Repeat("x", 25)
	pieces := New(10, 0).Split(text)
	require.Len(t, pieces, 3)
	assert.Equal(t, strings.Repeat("x", 10), pieces[0].Text)
	assert.Equal(t, strings.Repeat("x", 5), pieces[2].Text)
}

func TestSplit_CustomLength(t *testing.T) {
	s := &Splitter{
		Separators: []string{"\n", ""},
		ChunkSize:  3,
		Length:     func(s string) int { return strings.Count(s, "\n") + 1 },
	}
	pieces := s.Split("a\nb\nc\nd\ne\nf")
	require.Len(t, pieces, 3)
	assert.Equal(t, "a\nb\nc", pieces[0].Text)
	assert.Equal(t, "\nd\ne", pieces[1].Text)
	assert.Equal(t, "\nf", pieces[2].Text)
}

func TestLanguageSeparators(t *testing.T) {
	seps, ok := LanguageSeparators("markdown")
	require.True(t, ok)
	assert.Equal(t, "\n# ", seps[0])

	_, ok = LanguageSeparators("rst")
	assert.True(t, ok)

	_, ok = LanguageSeparators("go")
	assert.False(t, ok)
	assert.Len(t, SpecialLanguages(), 8)
}

func TestLineIndex(t *testing.T) {
	content := "one\ntwo\n\nfour\n"
	li := NewLineIndex(content)
	assert.Equal(t, 4, li.Lines())
	assert.Equal(t, 1, li.Line(0))
	assert.Equal(t, 1, li.Line(3))
	assert.Equal(t, 2, li.Line(4))
	assert.Equal(t, 4, li.Line(9))

	start, end := li.Span(4, 14)
	assert.Equal(t, 2, start)
	assert.Equal(t, 4, end)

	assert.Equal(t, 4, li.Start(2))
	assert.Equal(t, 8, li.End(2))
	assert.Equal(t, len(content), li.End(4))
}

func TestTrim(t *testing.T) {
	content := "\n\n  body  \n\n"
	s, e := Trim(content, 0, len(content))
	assert.Equal(t, "  body", content[s:e])

	s, e = Trim("   ", 0, 3)
	assert.Equal(t, s, e)
}
