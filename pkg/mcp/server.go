// Package mcp exposes brgen workspace analysis as MCP tools.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/gnana997/brgenlens/pkg/mcplog"
	"github.com/gnana997/brgenlens/pkg/workspace"
)

const serverName = "brgenlens"

// Version is reported to clients during initialization.
var Version = "0.1.0-dev"

// Server implements the MCP server, answering position queries against a
// workspace.
type Server struct {
	mcpServer *server.MCPServer
	ws        *workspace.Workspace
	logger    *mcplog.Logger // nil disables tool-call logging
}

// NewServer creates a new MCP server over ws. callLog may be nil.
func NewServer(ws *workspace.Workspace, callLog *mcplog.Logger) *Server {
	s := &Server{ws: ws, logger: callLog}

	opts := []server.ServerOption{
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	}
	if callLog != nil {
		opts = append(opts, server.WithToolHandlerMiddleware(s.loggingMiddleware()))
	}
	s.mcpServer = server.NewMCPServer(serverName, Version, opts...)

	s.mcpServer.AddTools(
		server.ServerTool{Tool: analyzeFileTool(), Handler: s.handleAnalyzeFile},
		server.ServerTool{Tool: hoverTool(), Handler: s.handleHover},
		server.ServerTool{Tool: definitionTool(), Handler: s.handleDefinition},
		server.ServerTool{Tool: semanticTokensTool(), Handler: s.handleSemanticTokens},
		server.ServerTool{Tool: documentSymbolsTool(), Handler: s.handleDocumentSymbols},
		server.ServerTool{Tool: diagnosticsTool(), Handler: s.handleDiagnostics},
		server.ServerTool{Tool: scanWorkspaceTool(), Handler: s.handleScanWorkspace},
	)

	return s
}

// MCPServer returns the underlying server, for transports other than stdio.
func (s *Server) MCPServer() *server.MCPServer { return s.mcpServer }

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
