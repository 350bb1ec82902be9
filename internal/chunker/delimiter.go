package chunker

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dshills/gochunk-mcp/internal/delimiter"
	"github.com/dshills/gochunk-mcp/internal/textsplit"
	"github.com/dshills/gochunk-mcp/pkg/types"
)

// interstitialKind labels chunks made from text between delimited regions
const interstitialKind = "interstitial"

// DelimiterChunker splits content on start/end delimiter pairs. The same
// type serves the user table and the built-in family table.
type DelimiterChunker struct {
	catalog  *delimiter.Catalog
	detector *delimiter.Detector
	source   Strategy
}

// NewUserDelimiterChunker chunks with the delimiters supplied in configuration
func NewUserDelimiterChunker(catalog *delimiter.Catalog) *DelimiterChunker {
	return &DelimiterChunker{catalog: catalog, source: StrategyUserDelimiter}
}

// NewBuiltinDelimiterChunker chunks with the generated family tables.
// Languages without a family mapping are detected from content.
func NewBuiltinDelimiterChunker(catalog *delimiter.Catalog, detector *delimiter.Detector) *DelimiterChunker {
	return &DelimiterChunker{catalog: catalog, detector: detector, source: StrategyBuiltinDelimiter}
}

func (d *DelimiterChunker) scanner(content, language string) (*delimiter.Scanner, delimiter.Family, error) {
	if d.source == StrategyUserDelimiter {
		if !d.catalog.HasUserDelimiters(language) {
			return nil, "", nil
		}
		s, err := d.catalog.UserScanner(language)
		return s, d.catalog.Family(language), err
	}

	if language != "" && d.catalog.Known(language) {
		s, err := d.catalog.BuiltinScanner(language)
		return s, d.catalog.Family(language), err
	}

	var family delimiter.Family
	if d.detector != nil {
		family, _ = d.detector.Detect(content, delimiter.DefaultMinConfidence)
	} else {
		family, _ = delimiter.DetectLanguageFamily(content, delimiter.DefaultMinConfidence)
	}
	s, err := d.catalog.FamilyScanner(family)
	return s, family, err
}

// Chunk implements StrategyChunker
func (d *DelimiterChunker) Chunk(_ context.Context, content, path, language string) ([]*types.CodeChunk, error) {
	scanner, family, err := d.scanner(content, language)
	if err != nil {
		return nil, &types.StructureError{
			File:     path,
			Strategy: d.source.String(),
			Reason:   "delimiter table does not compile",
			Err:      err,
		}
	}
	if scanner == nil || scanner.Len() == 0 {
		return nil, nil
	}

	regions := scanner.Scan(content)
	if len(regions) == 0 {
		return nil, nil
	}

	li := textsplit.NewLineIndex(content)
	var out []*types.CodeChunk
	gap := func(from, to int) {
		if from >= to {
			return
		}
		start, end := textsplit.Trim(content, from, to)
		if start == end {
			return
		}
		out = append(out, d.interstitial(content, start, end, li, path, language))
	}

	cursor := 0
	for _, r := range regions {
		gap(cursor, r.Start)
		if c := d.region(content, r, li, path, language, family); c != nil {
			out = append(out, c)
		}
		cursor = max(cursor, r.End)
	}
	gap(cursor, len(content))

	return out, nil
}

func (d *DelimiterChunker) region(content string, r delimiter.Region, li *textsplit.LineIndex, path, language string, family delimiter.Family) *types.CodeChunk {
	start, end := textsplit.Trim(content, r.TextStart, r.TextEnd)
	if start == end {
		return nil
	}
	first, last := li.Span(start, end)
	span := types.Span{StartLine: first, EndLine: last}
	text := content[start:end]

	name := headline(text, 80)
	if name == "" {
		name = spanName(path, span)
	}

	c := newChunk(text, span, types.KindDelimiterBounded, language, path, d.source, name)
	dl := r.Delimiter
	c.Metadata.SetContext("delimiter_kind", string(dl.Kind))
	c.Metadata.SetContext("delimiter_start", dl.Start)
	c.Metadata.SetContext("delimiter_end", dl.End)
	c.Metadata.SetContext("priority", strconv.FormatUint(uint64(dl.Priority), 10))
	c.Metadata.SetContext("nesting_level", strconv.Itoa(r.Level))
	if family != "" {
		c.Metadata.SetContext("family", string(family))
	}
	c.Metadata.AddTag(fmt.Sprintf("delimiter:%s", dl.Kind))
	return c
}

func (d *DelimiterChunker) interstitial(content string, start, end int, li *textsplit.LineIndex, path, language string) *types.CodeChunk {
	first, last := li.Span(start, end)
	span := types.Span{StartLine: first, EndLine: last}
	c := newChunk(content[start:end], span, types.KindDelimiterBounded, language, path, d.source, spanName(path, span))
	c.Metadata.SetContext("delimiter_kind", interstitialKind)
	c.Metadata.AddTag("delimiter:" + interstitialKind)
	return c
}
