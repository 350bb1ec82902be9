package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/gochunk-mcp/pkg/types"
)

var chunkKinds = []string{
	string(types.KindASTNode),
	string(types.KindDelimiterBounded),
	string(types.KindRecursiveText),
}

func pathProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

func stringArrayProperty(description string, enum ...string) map[string]interface{} {
	items := map[string]interface{}{"type": "string"}
	if len(enum) > 0 {
		items["enum"] = enum
	}
	return map[string]interface{}{
		"type":        "array",
		"description": description,
		"items":       items,
	}
}

// chunkFileTool returns the tool definition for chunk_file
func chunkFileTool() mcp.Tool {
	return mcp.Tool{
		Name:        "chunk_file",
		Description: "Split one source file into semantically meaningful chunks",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": pathProperty("Absolute path to the file"),
				"language": map[string]interface{}{
					"type":        "string",
					"description": "Language name; inferred from the extension when omitted",
				},
				"include_content": map[string]interface{}{
					"type":        "boolean",
					"description": "If false, return chunk spans and metadata without content",
					"default":     true,
				},
			},
			Required: []string{"path"},
		},
	}
}

// chunkDirectoryTool returns the tool definition for chunk_directory
func chunkDirectoryTool() mcp.Tool {
	return mcp.Tool{
		Name:        "chunk_directory",
		Description: "Chunk every file under a directory and store the chunks for retrieval",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path":    pathProperty("Absolute path to the directory root"),
				"include": stringArrayProperty("Glob patterns of files to chunk (e.g., '**/*.go'); all files when empty"),
				"exclude": stringArrayProperty("Glob patterns of files to skip; wins over include"),
				"force": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, re-chunk all files ignoring stored content hashes",
					"default":     false,
				},
				"persist": map[string]interface{}{
					"type":        "boolean",
					"description": "If false, chunk without storing results",
					"default":     true,
				},
			},
			Required: []string{"path"},
		},
	}
}

// getChunksTool returns the tool definition for get_chunks
func getChunksTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_chunks",
		Description: "Return the stored chunks of one file from a chunked directory",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": pathProperty("Absolute path to the chunked directory root"),
				"file": map[string]interface{}{
					"type":        "string",
					"description": "File path relative to the root, or absolute under it",
				},
			},
			Required: []string{"path", "file"},
		},
	}
}

// searchChunksTool returns the tool definition for search_chunks
func searchChunksTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_chunks",
		Description: "Full-text search over stored chunks of a chunked directory",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": pathProperty("Absolute path to the chunked directory root"),
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search keywords",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     10,
					"minimum":     1,
					"maximum":     100,
				},
				"filters": map[string]interface{}{
					"type":        "object",
					"description": "Optional filters to narrow search",
					"properties": map[string]interface{}{
						"languages": stringArrayProperty("Filter by chunk language"),
						"kinds":     stringArrayProperty("Filter by chunk kind", chunkKinds...),
						"file_pattern": map[string]interface{}{
							"type":        "string",
							"description": "Glob pattern for file paths (e.g., 'internal/**')",
						},
						"min_relevance": map[string]interface{}{
							"type":        "number",
							"description": "Minimum relevance score threshold (0.0-1.0)",
							"minimum":     0.0,
							"maximum":     1.0,
						},
					},
				},
			},
			Required: []string{"path", "query"},
		},
	}
}

// detectLanguageFamilyTool returns the tool definition for detect_language_family
func detectLanguageFamilyTool() mcp.Tool {
	return mcp.Tool{
		Name:        "detect_language_family",
		Description: "Guess the syntax family (c_style, python_style, ...) of source text",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"content": map[string]interface{}{
					"type":        "string",
					"description": "Source text to inspect",
				},
				"path": pathProperty("Absolute path to a file to inspect instead of content"),
				"min_confidence": map[string]interface{}{
					"type":        "integer",
					"description": "Minimum number of matching patterns before a family is reported",
					"default":     3,
					"minimum":     1,
				},
			},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Query chunking status and statistics for a directory",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": pathProperty("Absolute path to the chunked directory root"),
			},
			Required: []string{"path"},
		},
	}
}
