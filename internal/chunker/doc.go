// Package chunker divides source files into size-bounded chunks for embedding
// and retrieval.
//
// A file is handed through an ordered hierarchy of strategies until one of
// them produces chunks. The terminal strategy always does, so every non-empty
// text file ends with at least one chunk.
//
// # Basic Usage
//
//	c, err := chunker.New(chunker.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	res := c.ChunkFile(ctx, types.DiscoveredFile{Path: "service.py", Content: src})
//	for _, chunk := range res.Chunks {
//	    fmt.Printf("%s lines %d-%d (%d tokens)\n",
//	        chunk.Metadata.Name, chunk.Span.StartLine, chunk.Span.EndLine, chunk.EstimatedTokens())
//	}
//
// # Strategy Hierarchy
//
// Strategies are tried in this order:
//   - semantic: tree-sitter nodes classified by importance
//   - user_delimiter: delimiters from configuration
//   - special: separator lists for markdown, latex, rst, protobuf and similar formats
//   - builtin_delimiter: the generated delimiter table of the language family
//   - recursive_text: paragraphs, then lines, then words, then runes
//
// An empty result, a *types.ParseError, or a *types.StructureError moves the
// file to the next strategy and emits a chunking_fallback event.
//
// # Semantic Chunks
//
// Definitions, module boundaries, and control flow start chunks. Everything
// else is gathered into gap chunks, so the chunk spans of a file tile every
// line. Comments directly above a definition stay with it, and runs of
// adjacent imports coalesce. Nodes that are too large are split along their
// own children, then along lines.
//
// # Governance
//
// After deduplication every chunk passes through the governor, which strips
// metadata, re-splits, merges, or truncates so that each chunk fits the
// effective token limit and the file fits the chunk cap.
package chunker
