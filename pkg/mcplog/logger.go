// Package mcplog records MCP tool calls as JSONL and summarizes the log.
package mcplog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

// LogEntry is the schema for one JSONL line written per MCP tool call.
type LogEntry struct {
	Ts            string         `json:"ts"`
	Tool          string         `json:"tool"`
	Path          string         `json:"path,omitempty"`
	Params        map[string]any `json:"params"`
	DurationMs    int64          `json:"duration_ms"`
	ResponseBytes int            `json:"response_bytes"`
	TokensEst     int            `json:"tokens_est"`
	IsError       bool           `json:"is_error,omitempty"`
	Error         *string        `json:"error"`
}

// Logger appends structured JSONL entries to a file.
// It is safe for concurrent use. A nil *Logger discards everything.
type Logger struct {
	mu  sync.Mutex
	f   *os.File
	enc *json.Encoder
}

// NewLogger opens (or creates) the file at path for append-only writing.
// Parent directories are created automatically.
// Returns nil, nil if path is empty; a nil Logger is disabled.
func NewLogger(path string) (*Logger, error) {
	if path == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mcplog: create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("mcplog: open log file: %w", err)
	}
	return &Logger{f: f, enc: json.NewEncoder(f)}, nil
}

// Write appends a single JSONL entry. Callers usually ignore the error so
// that log failures never affect tool results.
func (l *Logger) Write(entry LogEntry) error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enc.Encode(entry)
}

// Close closes the underlying log file.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}

// SanitizeParams returns a copy of args safe for logging.
// String values longer than shortStringMax bytes are replaced with a
// "{key}_len" integer entry so inline source text never lands in the log.
func SanitizeParams(args map[string]any) map[string]any {
	const shortStringMax = 256
	out := make(map[string]any, len(args))
	for k, v := range args {
		if s, ok := v.(string); ok && len(s) > shortStringMax {
			out[k+"_len"] = len(s)
		} else {
			out[k] = v
		}
	}
	return out
}

// ResponseBytes returns the serialized byte length of a CallToolResult's
// content. Returns 0 for a nil result or on marshal error.
func ResponseBytes(result *mcp.CallToolResult) int {
	if result == nil {
		return 0
	}
	b, err := json.Marshal(result.Content)
	if err != nil {
		return 0
	}
	return len(b)
}

// Now is a replaceable clock for testing.
var Now = func() time.Time { return time.Now() }

// ReadEntries loads every entry of a JSONL log. Blank lines are skipped;
// a malformed line is an error naming its line number.
func ReadEntries(path string) ([]LogEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mcplog: open log file: %w", err)
	}
	defer f.Close()

	var entries []LogEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var e LogEntry
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, fmt.Errorf("mcplog: line %d: %w", line, err)
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("mcplog: read log file: %w", err)
	}
	return entries, nil
}

// ToolSummary aggregates the calls of one tool.
type ToolSummary struct {
	Tool          string `json:"tool"`
	Calls         int    `json:"calls"`
	Errors        int    `json:"errors"`
	TotalMs       int64  `json:"total_ms"`
	MaxMs         int64  `json:"max_ms"`
	ResponseBytes int    `json:"response_bytes"`
	TokensEst     int    `json:"tokens_est"`
}

// Summarize groups entries by tool, sorted by descending call count and
// then by name.
func Summarize(entries []LogEntry) []ToolSummary {
	byTool := make(map[string]*ToolSummary)
	for _, e := range entries {
		s, ok := byTool[e.Tool]
		if !ok {
			s = &ToolSummary{Tool: e.Tool}
			byTool[e.Tool] = s
		}
		s.Calls++
		if e.IsError || e.Error != nil {
			s.Errors++
		}
		s.TotalMs += e.DurationMs
		if e.DurationMs > s.MaxMs {
			s.MaxMs = e.DurationMs
		}
		s.ResponseBytes += e.ResponseBytes
		s.TokensEst += e.TokensEst
	}

	out := make([]ToolSummary, 0, len(byTool))
	for _, s := range byTool {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Calls != out[j].Calls {
			return out[i].Calls > out[j].Calls
		}
		return out[i].Tool < out[j].Tool
	})
	return out
}
