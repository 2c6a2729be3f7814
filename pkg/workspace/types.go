package workspace

import (
	"time"

	"github.com/gnana997/brgenlens/pkg/analysis"
)

// ScanOptions configures workspace scanning behavior.
type ScanOptions struct {
	// Include patterns (doublestar syntax, e.g., "**/*.bgn"), matched
	// against slash-separated paths relative to the root.
	// If empty, every file that is not excluded is included.
	Include []string

	// Exclude patterns (doublestar syntax, e.g., "build/**").
	// A matching directory is skipped entirely.
	Exclude []string

	// Workers is the number of files analyzed concurrently.
	// 0 = util.GetOptimalPoolSize()
	Workers int
}

// DefaultScanOptions returns recommended scan options.
func DefaultScanOptions() ScanOptions {
	return ScanOptions{
		Include: []string{
			"**/*.bgn",
		},
		Exclude: []string{
			".git/**",
			"node_modules/**",
			"build/**",
			"dist/**",
			".brgenlens/**",
		},
	}
}

// ScanStats contains statistics about a workspace scan.
type ScanStats struct {
	// FilesDiscovered is the total number of files found
	FilesDiscovered int `json:"files_discovered"`

	// FilesAnalyzed is the number of files analyzed and committed
	FilesAnalyzed int `json:"files_analyzed"`

	// FilesFailed is the number of files that could not be analyzed
	// (unreadable, compiler not runnable)
	FilesFailed int `json:"files_failed"`

	// FilesWithErrors is the number of analyzed files carrying at least one
	// error-severity diagnostic
	FilesWithErrors int `json:"files_with_errors"`

	// Diagnostics is the total number of diagnostics reported
	Diagnostics int `json:"diagnostics"`

	// DegradedFiles is the number of files whose tokens did not come from a
	// full AST + lexer pass
	DegradedFiles int `json:"degraded_files"`

	// TotalTimeMs is the total scan duration in milliseconds
	TotalTimeMs int64 `json:"total_time_ms"`

	// DiscoveryTimeMs is time spent discovering files
	DiscoveryTimeMs int64 `json:"discovery_time_ms"`

	// AnalysisTimeMs is time spent compiling and analyzing files
	AnalysisTimeMs int64 `json:"analysis_time_ms"`

	// FilesPerSecond is the throughput rate
	FilesPerSecond float64 `json:"files_per_second"`

	// WorkerCount is the number of workers used
	WorkerCount int `json:"worker_count"`

	// Errors contains per-file errors (if any)
	Errors []FileError `json:"errors,omitempty"`

	// Cancelled indicates if the scan was cancelled
	Cancelled bool `json:"cancelled,omitempty"`

	// StartTime is when the scan started
	StartTime time.Time `json:"start_time"`

	// EndTime is when the scan completed
	EndTime time.Time `json:"end_time"`
}

// FileError represents an error that occurred while processing a file.
type FileError struct {
	FilePath string `json:"file"`
	Error    error  `json:"-"`
	Message  string `json:"error"`
}

func newFileError(path string, err error) FileError {
	return FileError{FilePath: path, Error: err, Message: err.Error()}
}

// ProgressCallback is called after each file of a scan.
//
// Parameters:
//   - done: Number of files finished so far (analyzed or failed)
//   - total: Total number of files to analyze
//   - currentFile: Path of the file that just finished
type ProgressCallback func(done, total int, currentFile string)

// WatchOptions configures file watching behavior.
type WatchOptions struct {
	// DebounceMs is the debounce delay in milliseconds
	// Multiple rapid changes to one file are grouped into a single pass
	// Default: 200ms
	DebounceMs int

	// IgnorePatterns are doublestar patterns to ignore during watching,
	// matched against the path relative to the root and the base name
	IgnorePatterns []string
}

// DefaultWatchOptions returns recommended watch options.
func DefaultWatchOptions() WatchOptions {
	return WatchOptions{
		DebounceMs: 200,
		IgnorePatterns: []string{
			"**/*.swp",
			"**/*.tmp",
			"**/*~",
			".git/**",
		},
	}
}

// WatchEvent reports one re-analysis triggered by the watcher.
type WatchEvent struct {
	// FilePath is the absolute path to the changed file
	FilePath string

	// Op is the operation that occurred (Create, Write, Remove, Rename)
	Op string

	// Result is the committed analysis, nil for removals and failures
	Result *analysis.Result

	// Err is set when the file could not be analyzed
	Err error

	// Timestamp is when the event was handled
	Timestamp time.Time
}
