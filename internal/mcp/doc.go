// Package mcp implements the Model Context Protocol (MCP) server for gochunk.
//
// The server exposes six tools to AI coding assistants:
//   - chunk_file: Split one file into chunks and return them
//   - chunk_directory: Chunk a directory tree and store the chunks
//   - get_chunks: Return the stored chunks of one file
//   - search_chunks: Full-text search over stored chunks
//   - detect_language_family: Guess the syntax family of source text
//   - get_status: Report chunking statistics for a directory
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport. The server reads
// requests from stdin and writes responses to stdout; logs go to stderr.
// It is started via the serve command:
//
//	gochunk serve --config gochunk.yaml
//
// # Tool: chunk_directory
//
//	Request:
//	{
//	  "name": "chunk_directory",
//	  "arguments": {
//	    "path": "/path/to/project",
//	    "include": ["**/*.go"],
//	    "force": false
//	  }
//	}
//
//	Response:
//	{
//	  "chunked": true,
//	  "files_chunked": 42,
//	  "files_unchanged": 3,
//	  "files_degraded": 1,
//	  "chunks_created": 517,
//	  "duration_ms": 812
//	}
//
// Files whose content hash matches the stored hash are skipped unless
// force is set. With persist set to false, nothing is written.
//
// # Tool: search_chunks
//
//	Request:
//	{
//	  "name": "search_chunks",
//	  "arguments": {
//	    "path": "/path/to/project",
//	    "query": "retry backoff",
//	    "filters": {"kinds": ["ast_node"], "file_pattern": "internal/**"}
//	  }
//	}
//
// Scores are normalized BM25 in (0, 1], higher is better.
//
// # Error Handling
//
// Handler errors are *MCPError values carrying a JSON-RPC code:
//   - -32602: Invalid params (missing/invalid arguments)
//   - -32603: Internal error (database, filesystem, etc.)
//   - -32001: Path not found
//   - -32002: A chunking run is already in progress
//   - -32003: Directory or file not chunked
//   - -32004: Empty query
package mcp
