// Package workspace analyzes brgen sources on disk: discovery, parallel
// scans, compiler invocation and change watching, feeding the results into
// an analysis.Analyzer.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gnana997/brgenlens/pkg/analysis"
	"github.com/gnana997/brgenlens/pkg/cache"
	"github.com/gnana997/brgenlens/pkg/compiler"
	"github.com/gnana997/brgenlens/pkg/util"
)

// Config assembles a Workspace.
type Config struct {
	// Root is the workspace directory. Empty means the current directory.
	Root string

	// Runner produces compiler output. Required.
	Runner compiler.Runner

	// Analyzer receives every pass. Nil creates one with default settings.
	Analyzer *analysis.Analyzer

	// Sources reads files. Nil creates a SourceCache with default settings.
	Sources SourceCache

	// Options selects the files a scan picks up.
	Options ScanOptions

	// Logger for workspace messages. Nil uses slog.Default().
	Logger *slog.Logger
}

// Workspace ties the compiler, the source cache and the analyzer together
// for one directory tree.
//
// **Usage:**
//
//	ws, err := workspace.New(workspace.Config{Root: dir, Runner: runner})
//	if err != nil {
//	    return err
//	}
//	defer ws.Close()
//
//	stats, err := ws.Scan(ctx, nil)
//	res, err := ws.AnalyzeFile(ctx, "proto/header.bgn")
//
// **Thread Safety:** All methods are safe for concurrent use. Concurrent
// passes over the same file are ordered by generation; the older pass
// reports cache.ErrStaleGeneration.
type Workspace struct {
	root     string
	runner   compiler.Runner
	analyzer *analysis.Analyzer
	sources  SourceCache
	options  ScanOptions
	logger   *slog.Logger

	mu    sync.RWMutex
	known map[string]string // absolute path -> uri
}

// New creates a Workspace.
func New(config Config) (*Workspace, error) {
	if config.Runner == nil {
		return nil, errors.New("workspace: compiler runner is required")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	root := config.Root
	if root == "" {
		root = "."
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace root: %w", err)
	}

	if err := validatePatterns(config.Options); err != nil {
		return nil, err
	}

	analyzer := config.Analyzer
	if analyzer == nil {
		analyzer = analysis.NewAnalyzer(nil, logger)
	}
	sources := config.Sources
	if sources == nil {
		sources = NewSourceCache(&SourceCacheConfig{
			MaxFiles: DefaultSourceCacheConfig().MaxFiles,
			Logger:   logger,
		})
	}

	return &Workspace{
		root:     absRoot,
		runner:   config.Runner,
		analyzer: analyzer,
		sources:  sources,
		options:  config.Options,
		logger:   logger,
		known:    make(map[string]string),
	}, nil
}

// Root returns the absolute workspace directory.
func (w *Workspace) Root() string { return w.root }

// Analyzer returns the analyzer holding committed results.
func (w *Workspace) Analyzer() *analysis.Analyzer { return w.analyzer }

// Options returns the scan options.
func (w *Workspace) Options() ScanOptions { return w.options }

// Abs resolves path against the workspace root.
func (w *Workspace) Abs(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(w.root, path)
}

// AnalyzeFile reads path and analyzes it. If the committed result was
// computed from the same content it is returned without running the
// compiler again.
func (w *Workspace) AnalyzeFile(ctx context.Context, path string) (*analysis.Result, error) {
	abs := w.Abs(path)
	src, err := w.sources.Read(abs)
	if err != nil {
		return nil, err
	}

	uri := analysis.PathToURI(abs)
	if w.analyzer.Fresh(uri, src) {
		if res, ok := w.analyzer.Latest(uri); ok {
			w.logger.Debug("analysis up to date", "path", abs)
			return res, nil
		}
	}
	return w.AnalyzeSource(ctx, abs, src)
}

// AnalyzeSource analyzes src as the content of path, which need not
// exist on disk.
//
// The compiler's parse and lexer runs happen concurrently. If one of them
// cannot run the pass continues with the other; only when both fail is an
// error returned.
func (w *Workspace) AnalyzeSource(ctx context.Context, path string, src []byte) (*analysis.Result, error) {
	abs := w.Abs(path)
	uri := analysis.PathToURI(abs)
	gen := w.analyzer.Begin(uri)

	w.mu.Lock()
	w.known[abs] = uri
	w.mu.Unlock()

	var (
		astOut, tokOut []byte
		astErr, tokErr error
	)
	// The two runs are independent: a failed parse must not cancel the
	// lexer run the pass falls back on, and vice versa. The group carries
	// no derived context and each run records its own error.
	var g errgroup.Group
	g.Go(func() error {
		astOut, astErr = w.runner.Parse(ctx, abs, src)
		return nil
	})
	g.Go(func() error {
		tokOut, tokErr = w.runner.Tokenize(ctx, abs, src)
		return nil
	})
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if astErr != nil && tokErr != nil {
		return nil, fmt.Errorf("compile %s: %w", abs, errors.Join(astErr, tokErr))
	}
	if astErr != nil {
		w.logger.Warn("parse failed, continuing with lexer output", "path", abs, "error", astErr)
	}
	if tokErr != nil {
		w.logger.Warn("tokenize failed, continuing with parser output", "path", abs, "error", tokErr)
	}

	return w.analyzer.AnalyzeSourceCode(analysis.Input{
		URI:        uri,
		Path:       abs,
		Generation: gen,
		Source:     src,
		AST:        astOut,
		Tokens:     tokOut,
	})
}

// Result returns the last committed result for path.
func (w *Workspace) Result(path string) (*analysis.Result, bool) {
	return w.analyzer.Latest(analysis.PathToURI(w.Abs(path)))
}

// Results returns the committed results for every file analyzed through
// this workspace, sorted by path.
func (w *Workspace) Results() []*analysis.Result {
	w.mu.RLock()
	paths := make([]string, 0, len(w.known))
	for p := range w.known {
		paths = append(paths, p)
	}
	w.mu.RUnlock()

	sort.Strings(paths)
	out := make([]*analysis.Result, 0, len(paths))
	for _, p := range paths {
		if res, ok := w.Result(p); ok {
			out = append(out, res)
		}
	}
	return out
}

// Remove forgets path: its committed result is dropped and in-flight
// passes for it are rejected.
func (w *Workspace) Remove(path string) {
	abs := w.Abs(path)
	w.sources.Invalidate(abs)
	w.analyzer.Close(analysis.PathToURI(abs))

	w.mu.Lock()
	delete(w.known, abs)
	w.mu.Unlock()
}

// Scan discovers every matching file under the root and analyzes them in
// parallel.
//
// **Parameters:**
//   - ctx: Cancelling stops the scan; the partial stats are returned with
//     Cancelled set
//   - progress: Optional progress callback
//
// A file whose pass was superseded by a concurrent edit counts as
// analyzed; the newer pass owns the result.
func (w *Workspace) Scan(ctx context.Context, progress ProgressCallback) (*ScanStats, error) {
	startTime := time.Now()
	stats := &ScanStats{
		StartTime: startTime,
		Errors:    make([]FileError, 0),
	}

	w.logger.Info("Starting workspace scan", "root", w.root)

	discoveryStart := time.Now()
	files, err := Discover(w.root, w.options, w.logger)
	if err != nil {
		return nil, fmt.Errorf("file discovery failed: %w", err)
	}
	stats.FilesDiscovered = len(files)
	stats.DiscoveryTimeMs = time.Since(discoveryStart).Milliseconds()

	w.logger.Info("File discovery complete",
		"files_found", len(files),
		"duration_ms", stats.DiscoveryTimeMs)

	if len(files) == 0 {
		w.logger.Warn("No files found matching criteria")
		stats.EndTime = time.Now()
		stats.TotalTimeMs = time.Since(startTime).Milliseconds()
		return stats, nil
	}

	analysisStart := time.Now()
	w.analyzeParallel(ctx, files, stats, progress)
	stats.AnalysisTimeMs = time.Since(analysisStart).Milliseconds()

	stats.EndTime = time.Now()
	stats.TotalTimeMs = time.Since(startTime).Milliseconds()
	if stats.FilesAnalyzed > 0 && stats.AnalysisTimeMs > 0 {
		stats.FilesPerSecond = float64(stats.FilesAnalyzed) / (float64(stats.AnalysisTimeMs) / 1000.0)
	}

	w.logger.Info("Workspace scan complete",
		"files_analyzed", stats.FilesAnalyzed,
		"files_failed", stats.FilesFailed,
		"files_with_errors", stats.FilesWithErrors,
		"diagnostics", stats.Diagnostics,
		"cancelled", stats.Cancelled,
		"duration_ms", stats.TotalTimeMs)

	return stats, nil
}

func (w *Workspace) analyzeParallel(ctx context.Context, files []string, stats *ScanStats, progress ProgressCallback) {
	total := len(files)
	workers := w.options.Workers
	if workers <= 0 {
		workers = util.GetOptimalPoolSize()
	}
	if workers > total {
		workers = total
	}
	stats.WorkerCount = workers

	pool := NewWorkerPool(ctx, workers, w.AnalyzeFile, w.logger)
	pool.Start()
	defer pool.Stop()

	// The collector must be running before jobs are submitted: a full
	// results channel would otherwise block the workers and then Submit.
	done := make(chan struct{})
	go func() {
		defer close(done)
		finished := 0
		for finished < total {
			select {
			case <-ctx.Done():
				return

			case result := <-pool.Results():
				finished++
				stats.FilesAnalyzed++
				stats.Diagnostics += len(result.Result.Diagnostics)
				if hasError(result.Result.Diagnostics) {
					stats.FilesWithErrors++
				}
				if result.Result.TokenSource != analysis.TokensFull {
					stats.DegradedFiles++
				}
				if progress != nil {
					progress(finished, total, result.FilePath)
				}

			case fileErr := <-pool.Errors():
				finished++
				if errors.Is(fileErr.Error, cache.ErrStaleGeneration) {
					stats.FilesAnalyzed++
				} else {
					stats.FilesFailed++
					stats.Errors = append(stats.Errors, fileErr)
					w.logger.Warn("File analysis failed", "file", fileErr.FilePath, "error", fileErr.Error)
				}
				if progress != nil {
					progress(finished, total, fileErr.FilePath)
				}
			}
		}
	}()

	for i, file := range files {
		if err := pool.Submit(FileJob{FilePath: file, JobID: i}); err != nil {
			break
		}
	}
	pool.FinishSubmitting()

	<-done
	if ctx.Err() != nil {
		stats.Cancelled = true
	}
}

// Close releases the source cache.
func (w *Workspace) Close() error {
	return w.sources.Close()
}

func hasError(diags []analysis.Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == analysis.SeverityError {
			return true
		}
	}
	return false
}
