package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gnana997/brgenlens/pkg/analysis"
)

type analyzeResponse struct {
	URI         string                `json:"uri"`
	Path        string                `json:"path"`
	Generation  uint64                `json:"generation"`
	File        uint64                `json:"file"`
	Errors      int                   `json:"errors"`
	Warnings    int                   `json:"warnings"`
	Diagnostics []analysis.Diagnostic `json:"diagnostics"`
	TokenSource analysis.TokenSource  `json:"token_source"`
	Tokens      int                   `json:"tokens"`
	HasTree     bool                  `json:"has_tree"`
	CarriedOver bool                  `json:"carried_over,omitempty"`
	DecodeError string                `json:"decode_error,omitempty"`
	Symbols     int                   `json:"symbols"`
}

type hoverResponse struct {
	Found bool                  `json:"found"`
	Title string                `json:"title,omitempty"`
	Hover *analysis.HoverResult `json:"hover,omitempty"`
}

type definitionResponse struct {
	Found    bool               `json:"found"`
	Location *analysis.Location `json:"location,omitempty"`
}

type semanticTokensResponse struct {
	Legend      []string             `json:"legend"`
	TokenSource analysis.TokenSource `json:"token_source"`
	Data        []uint32             `json:"data,omitempty"`
	Spans       []spanResponse       `json:"spans,omitempty"`
}

type spanResponse struct {
	Line      uint32 `json:"line"`
	Character uint32 `json:"character"`
	Length    uint32 `json:"length"`
	Type      string `json:"type"`
}

type fileDiagnostics struct {
	Path        string                `json:"path"`
	Diagnostics []analysis.Diagnostic `json:"diagnostics"`
}

// analyze runs (or reuses) the analysis for the request's document. A
// non-nil tool result reports a failure to the client.
func (s *Server) analyze(ctx context.Context, req mcp.CallToolRequest) (*analysis.Result, *mcp.CallToolResult) {
	path, err := req.RequireString("path")
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}

	var res *analysis.Result
	if source := req.GetString("source", ""); source != "" {
		res, err = s.ws.AnalyzeSource(ctx, path, []byte(source))
	} else {
		res, err = s.ws.AnalyzeFile(ctx, path)
	}
	if err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("analyze %s: %v", path, err))
	}
	return res, nil
}

// position resolves the request's line/character against the document.
func position(req mcp.CallToolRequest, doc *analysis.Document) (uint64, *mcp.CallToolResult) {
	line, err := req.RequireInt("line")
	if err != nil {
		return 0, mcp.NewToolResultError(err.Error())
	}
	character, err := req.RequireInt("character")
	if err != nil {
		return 0, mcp.NewToolResultError(err.Error())
	}
	if line < 0 || character < 0 {
		return 0, mcp.NewToolResultError("line and character must be non-negative")
	}
	if doc == nil {
		return 0, mcp.NewToolResultError("no syntax tree available; see the diagnostics tool")
	}
	offset, ok := doc.Offset(analysis.Position{Line: uint32(line), Character: uint32(character)})
	if !ok {
		return 0, mcp.NewToolResultError("document has no source text for position mapping")
	}
	return offset, nil
}

func (s *Server) handleAnalyzeFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, failed := s.analyze(ctx, req)
	if failed != nil {
		return failed, nil
	}

	out := analyzeResponse{
		URI:         res.URI,
		Path:        res.Path,
		Generation:  res.Generation,
		File:        res.File,
		Diagnostics: res.Diagnostics,
		TokenSource: res.TokenSource,
		Tokens:      len(res.Tokens.Data) / 5,
		HasTree:     res.Doc != nil,
		CarriedOver: res.CarriedOver,
	}
	for _, d := range res.Diagnostics {
		if d.Severity == analysis.SeverityError {
			out.Errors++
		} else {
			out.Warnings++
		}
	}
	if res.Err != nil {
		out.DecodeError = res.Err.Error()
	}
	if res.Doc != nil {
		out.Symbols = len(res.Doc.Symbols())
	}
	return jsonResult(out)
}

func (s *Server) handleHover(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, failed := s.analyze(ctx, req)
	if failed != nil {
		return failed, nil
	}
	offset, failed := position(req, res.Doc)
	if failed != nil {
		return failed, nil
	}

	h := res.Doc.Hover(offset)
	if h == nil {
		return jsonResult(hoverResponse{})
	}
	return jsonResult(hoverResponse{Found: true, Title: h.Title, Hover: h.LSP(res.Doc.Lines)})
}

func (s *Server) handleDefinition(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, failed := s.analyze(ctx, req)
	if failed != nil {
		return failed, nil
	}
	offset, failed := position(req, res.Doc)
	if failed != nil {
		return failed, nil
	}

	def := res.Doc.Definition(offset)
	if def == nil {
		return jsonResult(definitionResponse{})
	}
	return jsonResult(definitionResponse{Found: true, Location: def.LSP()})
}

func (s *Server) handleSemanticTokens(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, failed := s.analyze(ctx, req)
	if failed != nil {
		return failed, nil
	}

	out := semanticTokensResponse{Legend: analysis.Legend, TokenSource: res.TokenSource}
	if req.GetBool("decoded", false) {
		spans := analysis.DecodeSemanticTokens(res.Tokens.Data)
		out.Spans = make([]spanResponse, len(spans))
		for i, sp := range spans {
			out.Spans[i] = spanResponse{Line: sp.Line, Character: sp.Col, Length: sp.Length, Type: sp.Type.String()}
		}
	} else {
		out.Data = res.Tokens.Data
	}
	return jsonResult(out)
}

func (s *Server) handleDocumentSymbols(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, failed := s.analyze(ctx, req)
	if failed != nil {
		return failed, nil
	}
	symbols := []analysis.DocumentSymbol{}
	if res.Doc != nil {
		symbols = append(symbols, res.Doc.Symbols()...)
	}
	return jsonResult(symbols)
}

func (s *Server) handleDiagnostics(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if req.GetString("path", "") != "" {
		res, failed := s.analyze(ctx, req)
		if failed != nil {
			return failed, nil
		}
		return jsonResult([]fileDiagnostics{{Path: res.Path, Diagnostics: res.Diagnostics}})
	}

	out := []fileDiagnostics{}
	for _, res := range s.ws.Results() {
		out = append(out, fileDiagnostics{Path: res.Path, Diagnostics: res.Diagnostics})
	}
	return jsonResult(out)
}

func (s *Server) handleScanWorkspace(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.ws.Scan(ctx, nil)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("scan failed: %v", err)), nil
	}
	return jsonResult(stats)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal tool result: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}
