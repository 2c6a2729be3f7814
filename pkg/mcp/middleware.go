package mcp

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/gnana997/brgenlens/pkg/mcplog"
)

// loggingMiddleware records every tool call as a JSONL entry. Only
// installed when the server has a call log.
func (s *Server) loggingMiddleware() server.ToolHandlerMiddleware {
	return func(next server.ToolHandlerFunc) server.ToolHandlerFunc {
		return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			start := mcplog.Now()
			result, err := next(ctx, req)
			elapsed := time.Since(start).Milliseconds()

			rb := mcplog.ResponseBytes(result)
			var errStr *string
			if err != nil {
				msg := err.Error()
				errStr = &msg
			}

			entry := mcplog.LogEntry{
				Ts:            start.UTC().Format(time.RFC3339),
				Tool:          req.Params.Name,
				Path:          req.GetString("path", ""),
				Params:        mcplog.SanitizeParams(req.GetArguments()),
				DurationMs:    elapsed,
				ResponseBytes: rb,
				TokensEst:     rb / 4,
				IsError:       result != nil && result.IsError,
				Error:         errStr,
			}
			_ = s.logger.Write(entry)

			return result, err
		}
	}
}
