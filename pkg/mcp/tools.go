package mcp

import "github.com/mark3labs/mcp-go/mcp"

const (
	pathDescription      = "Path of the .bgn file, absolute or relative to the workspace root"
	sourceDescription    = "Unsaved content to analyze instead of the file on disk"
	lineDescription      = "0-based line"
	characterDescription = "0-based byte column within the line"
)

func documentParams() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("path", mcp.Required(), mcp.Description(pathDescription)),
		mcp.WithString("source", mcp.Description(sourceDescription)),
	}
}

func positionParams() []mcp.ToolOption {
	return append(documentParams(),
		mcp.WithNumber("line", mcp.Required(), mcp.Description(lineDescription)),
		mcp.WithNumber("character", mcp.Required(), mcp.Description(characterDescription)),
	)
}

func newTool(name, description string, params ...mcp.ToolOption) mcp.Tool {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription(description),
		mcp.WithReadOnlyHintAnnotation(true),
	}, params...)
	return mcp.NewTool(name, opts...)
}

func analyzeFileTool() mcp.Tool {
	return newTool("analyze_file",
		"Compile a brgen file and summarize the analysis: diagnostic counts, "+
			"token source and whether a syntax tree is available.",
		documentParams()...)
}

func hoverTool() mcp.Tool {
	return newTool("hover",
		"Describe the symbol at a position: its kind, type, and where a reference "+
			"is defined. Returns found=false when nothing hoverable is there.",
		positionParams()...)
}

func definitionTool() mcp.Tool {
	return newTool("definition",
		"Find the definition of the identifier at a position, following "+
			"reference chains to the defining identifier.",
		positionParams()...)
}

func semanticTokensTool() mcp.Tool {
	return newTool("semantic_tokens",
		"Classify the file for syntax highlighting. Returns the legend and "+
			"delta-encoded data, or decoded spans with decoded=true.",
		append(documentParams(),
			mcp.WithBoolean("decoded", mcp.Description("Return absolute spans instead of delta-encoded data")),
		)...)
}

func documentSymbolsTool() mcp.Tool {
	return newTool("document_symbols",
		"Outline of the formats, enums, functions and states defined in a file.",
		documentParams()...)
}

func diagnosticsTool() mcp.Tool {
	return newTool("diagnostics",
		"Compiler errors and warnings. With path, for that file; without, for "+
			"every file analyzed so far.",
		mcp.WithString("path", mcp.Description(pathDescription)),
		mcp.WithString("source", mcp.Description(sourceDescription)),
	)
}

func scanWorkspaceTool() mcp.Tool {
	return newTool("scan_workspace",
		"Analyze every .bgn file under the workspace root and report statistics.")
}
