// Package compiler runs the brgen front end and returns its raw JSON.
//
// The compiler is a black box: this package only knows how to invoke it and
// hand back the envelope. Decoding is pkg/ast's job.
package compiler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// DefaultBinary is the compiler looked up on PATH when none is configured.
const DefaultBinary = "src2json"

var (
	// ErrCompilerNotFound is returned when the src2json binary cannot be
	// located.
	ErrCompilerNotFound = errors.New("src2json not found")

	// ErrEmptyOutput is returned when the compiler exits without writing
	// anything to stdout.
	ErrEmptyOutput = errors.New("compiler produced no output")
)

// Runner produces compiler output for one document.
//
// Compiler diagnostics travel inside the returned envelope; a non-nil error
// means the compiler could not be run at all.
type Runner interface {
	// Parse returns the AST envelope {ast, file, error} for src.
	Parse(ctx context.Context, path string, src []byte) ([]byte, error)
	// Tokenize returns the lexer envelope {tokens, error} for src.
	Tokenize(ctx context.Context, path string, src []byte) ([]byte, error)
}

// Src2JSON runs the src2json executable, feeding the source on stdin.
type Src2JSON struct {
	binary string
	args   []string
	logger *slog.Logger
}

// Option configures a Src2JSON runner.
type Option func(*Src2JSON)

// WithArgs appends extra command-line arguments to every invocation.
func WithArgs(args ...string) Option {
	return func(s *Src2JSON) { s.args = append(s.args, args...) }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Src2JSON) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// lookPath is swapped in tests.
var lookPath = exec.LookPath

// NewSrc2JSON resolves binary (a path or a name on PATH; empty means
// DefaultBinary) and returns a runner for it.
func NewSrc2JSON(binary string, opts ...Option) (*Src2JSON, error) {
	if binary == "" {
		binary = DefaultBinary
	}
	resolved, err := lookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCompilerNotFound, binary, err)
	}
	s := &Src2JSON{binary: resolved, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Binary is the resolved executable path.
func (s *Src2JSON) Binary() string { return s.binary }

// Parse implements Runner.
func (s *Src2JSON) Parse(ctx context.Context, path string, src []byte) ([]byte, error) {
	return s.run(ctx, path, src, false)
}

// Tokenize implements Runner.
func (s *Src2JSON) Tokenize(ctx context.Context, path string, src []byte) ([]byte, error) {
	return s.run(ctx, path, src, true)
}

func (s *Src2JSON) run(ctx context.Context, path string, src []byte, lexer bool) ([]byte, error) {
	start := time.Now()

	args := []string{"--stdin", "--stdin-name", path}
	if lexer {
		args = append(args, "--lexer")
	}
	args = append(args, s.args...)

	cmd := exec.CommandContext(ctx, s.binary, args...)
	cmd.Stdin = bytes.NewReader(src)
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	out := bytes.TrimSpace(stdout.Bytes())
	stderrStr := strings.TrimSpace(stderr.String())
	if len(out) == 0 {
		if runErr != nil {
			return nil, fmt.Errorf("src2json %s: %w (stderr: %s)", path, runErr, stderrStr)
		}
		return nil, fmt.Errorf("src2json %s: %w", path, ErrEmptyOutput)
	}

	// src2json exits non-zero when the source has errors but still prints
	// the envelope describing them.
	if runErr != nil {
		s.logger.Debug("src2json reported errors",
			"path", path, "lexer", lexer, "error", runErr, "stderr", stderrStr)
	}
	s.logger.Debug("src2json finished",
		"path", path,
		"lexer", lexer,
		"bytes", len(out),
		"ms", time.Since(start).Milliseconds())
	return out, nil
}

// Funcs adapts plain functions to a Runner, for pre-dumped compiler output
// and tests. A nil function yields ErrEmptyOutput.
type Funcs struct {
	ParseFunc    func(ctx context.Context, path string, src []byte) ([]byte, error)
	TokenizeFunc func(ctx context.Context, path string, src []byte) ([]byte, error)
}

// Parse implements Runner.
func (f Funcs) Parse(ctx context.Context, path string, src []byte) ([]byte, error) {
	if f.ParseFunc == nil {
		return nil, fmt.Errorf("parse %s: %w", path, ErrEmptyOutput)
	}
	return f.ParseFunc(ctx, path, src)
}

// Tokenize implements Runner.
func (f Funcs) Tokenize(ctx context.Context, path string, src []byte) ([]byte, error) {
	if f.TokenizeFunc == nil {
		return nil, fmt.Errorf("tokenize %s: %w", path, ErrEmptyOutput)
	}
	return f.TokenizeFunc(ctx, path, src)
}
