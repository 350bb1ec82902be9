// Package types provides shared type definitions for the gochunk pipeline.
//
// This package defines the domain types passed between discovery, the
// chunking strategies, the governor, and storage.
//
// # Core Types
//
// CodeChunk is a size-bounded section of a source file:
//
//	chunk := &types.CodeChunk{
//	    Content:  functionBody,
//	    Span:     types.Span{StartLine: 12, EndLine: 40},
//	    Kind:     types.KindASTNode,
//	    Language: "go",
//	    Source:   "semantic",
//	    Metadata: types.NewMetadata("ParseFile"),
//	}
//
// Kind records how the boundaries were found: syntax nodes, language
// delimiters, or recursive text splitting. Chunks produced by re-splitting
// an oversized chunk carry the original's ID in ParentID.
//
// # Token Estimation
//
// Size limits are enforced on the serialized form returned by
// SerializeForEmbedding, at CharsPerToken bytes per token:
//
//	if chunk.EstimatedTokens() > limit {
//	    // re-split
//	}
//
// # Errors
//
// ParseError and StructureError hand a file to the next strategy
// (IsFallbackError). ResourceLimitExceeded accompanies a partial result.
// ConfigurationError is only returned from constructors.
//
// # Validation
//
//	if err := result.Validate(); err != nil {
//	    // a chunk is malformed or chunks are out of source order
//	}
package types
