package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/brgenlens/pkg/analysis"
	"github.com/gnana997/brgenlens/pkg/ast/asttest"
	"github.com/gnana997/brgenlens/pkg/compiler"
	"github.com/gnana997/brgenlens/pkg/mcplog"
	"github.com/gnana997/brgenlens/pkg/util"
	"github.com/gnana997/brgenlens/pkg/workspace"
)

// --- helpers ---

const brokenSource = "fmt Broken ::\n"

// sampleRunner answers every file with the sample fixture, except that
// brokenSource yields an AST the decoder rejects.
func sampleRunner() compiler.Runner {
	return compiler.Funcs{
		ParseFunc: func(_ context.Context, path string, src []byte) ([]byte, error) {
			if string(src) == brokenSource {
				return []byte(`{"ast":{"node":[{"node_type":"no_such_node","loc":{}}],"scope":[]},"file":["` + path + `"]}`), nil
			}
			return asttest.NewSample(path).JSON(), nil
		},
		TokenizeFunc: func(_ context.Context, path string, _ []byte) ([]byte, error) {
			return asttest.SampleTokens(path), nil
		},
	}
}

// testServer returns a server over a workspace holding sample.bgn.
func testServer(t *testing.T, callLog *mcplog.Logger) (*Server, string) {
	t.Helper()
	root := t.TempDir()
	path := filepath.Join(root, "sample.bgn")
	require.NoError(t, os.WriteFile(path, []byte(asttest.SampleSource), 0o644))

	ws, err := workspace.New(workspace.Config{
		Root:    root,
		Runner:  sampleRunner(),
		Options: workspace.DefaultScanOptions(),
		Logger:  util.DiscardLogger(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })

	return NewServer(ws, callLog), path
}

func callTool(t *testing.T, s *Server, req mcp.CallToolRequest) *mcp.CallToolResult {
	t.Helper()
	var handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

	switch req.Params.Name {
	case "analyze_file":
		handler = s.handleAnalyzeFile
	case "hover":
		handler = s.handleHover
	case "definition":
		handler = s.handleDefinition
	case "semantic_tokens":
		handler = s.handleSemanticTokens
	case "document_symbols":
		handler = s.handleDocumentSymbols
	case "diagnostics":
		handler = s.handleDiagnostics
	case "scan_workspace":
		handler = s.handleScanWorkspace
	default:
		t.Fatalf("unknown tool: %s", req.Params.Name)
	}

	result, err := handler(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func makeRequest(toolName string, args map[string]any) mcp.CallToolRequest {
	var arguments any
	if args != nil {
		arguments = args
	}
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      toolName,
			Arguments: arguments,
		},
	}
}

func resultJSON(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	textContent, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])
	return textContent.Text
}

func decode[T any](t *testing.T, result *mcp.CallToolResult) T {
	t.Helper()
	require.False(t, result.IsError, resultJSON(t, result))
	var out T
	require.NoError(t, json.Unmarshal([]byte(resultJSON(t, result)), &out))
	return out
}

// --- analyze_file ---

func TestHandleAnalyzeFile(t *testing.T) {
	s, path := testServer(t, nil)
	result := callTool(t, s, makeRequest("analyze_file", map[string]any{"path": "sample.bgn"}))

	out := decode[analyzeResponse](t, result)
	assert.Equal(t, path, out.Path)
	assert.Equal(t, analysis.PathToURI(path), out.URI)
	assert.Equal(t, uint64(1), out.File)
	assert.Equal(t, analysis.TokensFull, out.TokenSource)
	assert.Equal(t, 29, out.Tokens)
	assert.True(t, out.HasTree)
	assert.Equal(t, 3, out.Symbols)
	assert.Zero(t, out.Errors)
	assert.Empty(t, out.DecodeError)
}

func TestHandleAnalyzeFile_MissingPath(t *testing.T) {
	s, _ := testServer(t, nil)
	result := callTool(t, s, makeRequest("analyze_file", nil))
	assert.True(t, result.IsError)
}

func TestHandleAnalyzeFile_NotFound(t *testing.T) {
	s, _ := testServer(t, nil)
	result := callTool(t, s, makeRequest("analyze_file", map[string]any{"path": "missing.bgn"}))
	assert.True(t, result.IsError)
	assert.Contains(t, resultJSON(t, result), "missing.bgn")
}

func TestHandleAnalyzeFile_UnsavedSource(t *testing.T) {
	s, _ := testServer(t, nil)
	result := callTool(t, s, makeRequest("analyze_file", map[string]any{
		"path":   "unsaved.bgn",
		"source": asttest.SampleSource,
	}))

	out := decode[analyzeResponse](t, result)
	assert.Equal(t, filepath.Join(s.ws.Root(), "unsaved.bgn"), out.Path)
	assert.True(t, out.HasTree)
}

func TestHandleAnalyzeFile_FailedPassHasNoTree(t *testing.T) {
	s, _ := testServer(t, nil)
	callTool(t, s, makeRequest("analyze_file", map[string]any{"path": "sample.bgn"}))

	result := callTool(t, s, makeRequest("analyze_file", map[string]any{
		"path": "sample.bgn", "source": brokenSource,
	}))
	out := decode[analyzeResponse](t, result)
	assert.False(t, out.HasTree)
	assert.True(t, out.CarriedOver)
	assert.NotEmpty(t, out.DecodeError)
	assert.Zero(t, out.Symbols)
}

func TestHandlePositionQueries_FailedPass(t *testing.T) {
	s, _ := testServer(t, nil)
	callTool(t, s, makeRequest("analyze_file", map[string]any{"path": "sample.bgn"}))

	for _, tool := range []string{"hover", "definition"} {
		t.Run(tool, func(t *testing.T) {
			result := callTool(t, s, makeRequest(tool, map[string]any{
				"path": "sample.bgn", "source": brokenSource, "line": 0, "character": 7,
			}))
			assert.True(t, result.IsError)
			assert.Contains(t, resultJSON(t, result), "no syntax tree")
		})
	}
}

// --- hover ---

func TestHandleHover(t *testing.T) {
	s, _ := testServer(t, nil)
	result := callTool(t, s, makeRequest("hover", map[string]any{
		"path": "sample.bgn", "line": float64(9), "character": float64(9),
	}))

	out := decode[hoverResponse](t, result)
	require.True(t, out.Found)
	assert.Equal(t, "a", out.Title)
	require.NotNil(t, out.Hover)
	assert.Equal(t, "markdown", out.Hover.Contents.Kind)
	assert.Contains(t, out.Hover.Contents.Value, "defined at line 9, column 5")
	require.NotNil(t, out.Hover.Range)
	assert.Equal(t, analysis.Position{Line: 9, Character: 9}, out.Hover.Range.Start)
}

func TestHandleHover_NoTarget(t *testing.T) {
	s, _ := testServer(t, nil)
	result := callTool(t, s, makeRequest("hover", map[string]any{
		"path": "sample.bgn", "line": 0, "character": 0,
	}))

	out := decode[hoverResponse](t, result)
	assert.False(t, out.Found)
	assert.Nil(t, out.Hover)
}

func TestHandleHover_BadPosition(t *testing.T) {
	s, _ := testServer(t, nil)

	result := callTool(t, s, makeRequest("hover", map[string]any{"path": "sample.bgn", "line": 1}))
	assert.True(t, result.IsError)

	result = callTool(t, s, makeRequest("hover", map[string]any{
		"path": "sample.bgn", "line": -1, "character": 0,
	}))
	assert.True(t, result.IsError)
}

// --- definition ---

func TestHandleDefinition(t *testing.T) {
	s, path := testServer(t, nil)
	result := callTool(t, s, makeRequest("definition", map[string]any{
		"path": "sample.bgn", "line": 9, "character": 9,
	}))

	out := decode[definitionResponse](t, result)
	require.True(t, out.Found)
	require.NotNil(t, out.Location)
	assert.Equal(t, analysis.PathToURI(path), out.Location.URI)
	assert.Equal(t, analysis.Position{Line: 8, Character: 4}, out.Location.Range.Start)
}

func TestHandleDefinition_NotFound(t *testing.T) {
	s, _ := testServer(t, nil)
	result := callTool(t, s, makeRequest("definition", map[string]any{
		"path": "sample.bgn", "line": 0, "character": 0,
	}))

	out := decode[definitionResponse](t, result)
	assert.False(t, out.Found)
}

// --- semantic_tokens ---

func TestHandleSemanticTokens(t *testing.T) {
	s, _ := testServer(t, nil)
	result := callTool(t, s, makeRequest("semantic_tokens", map[string]any{"path": "sample.bgn"}))

	out := decode[semanticTokensResponse](t, result)
	assert.Equal(t, analysis.Legend, out.Legend)
	assert.Equal(t, analysis.TokensFull, out.TokenSource)
	assert.Len(t, out.Data, 29*5)
	assert.Empty(t, out.Spans)
}

func TestHandleSemanticTokens_Decoded(t *testing.T) {
	s, _ := testServer(t, nil)
	result := callTool(t, s, makeRequest("semantic_tokens", map[string]any{
		"path": "sample.bgn", "decoded": true,
	}))

	out := decode[semanticTokensResponse](t, result)
	assert.Empty(t, out.Data)
	require.Len(t, out.Spans, 29)
	assert.Equal(t, spanResponse{Line: 0, Character: 0, Length: 6, Type: "macro"}, out.Spans[0])
	assert.Equal(t, spanResponse{Line: 0, Character: 7, Length: 5, Type: "class"}, out.Spans[1])
}

// --- document_symbols ---

func TestHandleDocumentSymbols(t *testing.T) {
	s, _ := testServer(t, nil)
	result := callTool(t, s, makeRequest("document_symbols", map[string]any{"path": "sample.bgn"}))

	out := decode[[]analysis.DocumentSymbol](t, result)
	require.Len(t, out, 3)
	assert.Equal(t, "Point", out[0].Name)
	assert.Equal(t, analysis.SymbolStruct, out[0].Kind)
	require.Len(t, out[0].Children, 2)
	assert.Equal(t, "u8", out[0].Children[0].Detail)
}

// --- diagnostics ---

func TestHandleDiagnostics_All(t *testing.T) {
	s, path := testServer(t, nil)

	out := decode[[]fileDiagnostics](t, callTool(t, s, makeRequest("diagnostics", nil)))
	assert.Empty(t, out, "nothing analyzed yet")

	callTool(t, s, makeRequest("analyze_file", map[string]any{"path": "sample.bgn"}))
	out = decode[[]fileDiagnostics](t, callTool(t, s, makeRequest("diagnostics", nil)))
	require.Len(t, out, 1)
	assert.Equal(t, path, out[0].Path)
	assert.Empty(t, out[0].Diagnostics)
}

func TestHandleDiagnostics_Path(t *testing.T) {
	s, _ := testServer(t, nil)

	result := callTool(t, s, makeRequest("diagnostics", map[string]any{"path": "sample.bgn"}))
	out := decode[[]fileDiagnostics](t, result)
	require.Len(t, out, 1)
	assert.NotNil(t, out[0].Diagnostics)
}

// --- scan_workspace ---

func TestHandleScanWorkspace(t *testing.T) {
	s, _ := testServer(t, nil)
	result := callTool(t, s, makeRequest("scan_workspace", nil))

	out := decode[workspace.ScanStats](t, result)
	assert.Equal(t, 1, out.FilesDiscovered)
	assert.Equal(t, 1, out.FilesAnalyzed)
	assert.Zero(t, out.FilesFailed)
}

// --- logging middleware ---

func TestLoggingMiddleware(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "calls.jsonl")
	callLog, err := mcplog.NewLogger(logPath)
	require.NoError(t, err)

	s, _ := testServer(t, callLog)
	handler := s.loggingMiddleware()(s.handleHover)

	_, err = handler(context.Background(), makeRequest("hover", map[string]any{
		"path": "sample.bgn", "line": 9, "character": 9,
	}))
	require.NoError(t, err)
	_, err = handler(context.Background(), makeRequest("hover", map[string]any{"path": "missing.bgn", "line": 0, "character": 0}))
	require.NoError(t, err)
	require.NoError(t, callLog.Close())

	entries, err := mcplog.ReadEntries(logPath)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "hover", entries[0].Tool)
	assert.Equal(t, "sample.bgn", entries[0].Path)
	assert.False(t, entries[0].IsError)
	assert.Positive(t, entries[0].ResponseBytes)
	assert.Equal(t, entries[0].ResponseBytes/4, entries[0].TokensEst)
	assert.True(t, entries[1].IsError)
	assert.Nil(t, entries[1].Error)
}

// --- registration ---

func TestNewServer_RegistersTools(t *testing.T) {
	s, _ := testServer(t, nil)
	resp := s.MCPServer().HandleMessage(context.Background(),
		[]byte(`{"jsonrpc":"2.0","id":1,"method":"tools/list","params":{}}`))

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	for _, name := range []string{
		"analyze_file", "hover", "definition", "semantic_tokens",
		"document_symbols", "diagnostics", "scan_workspace",
	} {
		assert.Contains(t, string(raw), `"name":"`+name+`"`)
	}
}
