package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/edsrzf/mmap-go"
)

// SourceCache reads brgen sources through memory-mapped files.
//
// **Freshness:** every Read stats the file; a changed size or modification
// time unmaps the old region and maps the file again, so edits picked up
// by the watcher are never served stale.
//
// **Safety Features:**
//   - Optional MaxFiles limit (prevents file descriptor exhaustion)
//   - Graceful fallback to os.ReadFile if mmap fails
//   - Thread-safe with sync.RWMutex (parallel reads, exclusive loads)
//
// Read returns a private copy of the content: analysis results keep the
// source for position mapping long after the mapping may be gone.
type SourceCache interface {
	// Read returns the current content of filePath.
	Read(filePath string) ([]byte, error)

	// Invalidate drops filePath from the cache.
	Invalidate(filePath string)

	// Size returns number of currently cached files.
	Size() int

	// Stats returns current cache metrics.
	Stats() SourceCacheStats

	// Close unmaps all files and releases resources.
	Close() error
}

// SourceCacheConfig controls SourceCache behavior.
type SourceCacheConfig struct {
	// MaxFiles is the maximum number of files to keep mapped.
	// When the limit is reached, files are read without being cached.
	// 0 = unlimited
	MaxFiles int

	// Logger for warnings and errors.
	// If nil, uses slog.Default().
	Logger *slog.Logger
}

// DefaultSourceCacheConfig returns recommended defaults.
func DefaultSourceCacheConfig() *SourceCacheConfig {
	return &SourceCacheConfig{MaxFiles: 4096}
}

// SourceCacheStats tracks cache performance metrics.
type SourceCacheStats struct {
	// FilesLoaded is the total number of files mapped or read (cumulative).
	FilesLoaded int64 `json:"files_loaded"`

	// FilesCached is the current number of cached files.
	FilesCached int `json:"files_cached"`

	// CacheHits is the number of reads served from a current mapping.
	CacheHits int64 `json:"cache_hits"`

	// Reloads is the number of mappings replaced because the file changed.
	Reloads int64 `json:"reloads"`

	// MmapFailures is the number of files that fell back to os.ReadFile.
	MmapFailures int64 `json:"mmap_failures"`
}

// mappedSource is one cached file.
type mappedSource struct {
	data    mmap.MMap
	file    *os.File // nil for fallback entries
	size    int64
	modTime time.Time
}

func (m *mappedSource) release() error {
	var err error
	if m.file != nil {
		if m.data != nil {
			err = m.data.Unmap()
		}
		if cerr := m.file.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// NewSourceCache creates a SourceCache. A nil config uses
// DefaultSourceCacheConfig().
func NewSourceCache(config *SourceCacheConfig) SourceCache {
	if config == nil {
		config = DefaultSourceCacheConfig()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &sourceCacheImpl{
		config: config,
		logger: logger,
		cache:  make(map[string]*mappedSource),
	}
}

type sourceCacheImpl struct {
	config *SourceCacheConfig
	logger *slog.Logger

	cache map[string]*mappedSource
	mu    sync.RWMutex

	stats   SourceCacheStats
	statsMu sync.Mutex
}

func (sc *sourceCacheImpl) Read(filePath string) ([]byte, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat source %q: %w", filePath, err)
	}

	// Fast path: current mapping (RLock - allows parallel reads)
	sc.mu.RLock()
	if ms, ok := sc.cache[filePath]; ok && ms.size == info.Size() && ms.modTime.Equal(info.ModTime()) {
		out := clone(ms.data)
		sc.mu.RUnlock()
		sc.record(func(s *SourceCacheStats) { s.CacheHits++ })
		return out, nil
	}
	sc.mu.RUnlock()

	// Slow path: (re)load under the write lock
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if ms, ok := sc.cache[filePath]; ok {
		if ms.size == info.Size() && ms.modTime.Equal(info.ModTime()) {
			sc.record(func(s *SourceCacheStats) { s.CacheHits++ })
			return clone(ms.data), nil
		}
		if err := ms.release(); err != nil {
			sc.logger.Warn("failed to release stale mapping", "path", filePath, "error", err)
		}
		delete(sc.cache, filePath)
		sc.record(func(s *SourceCacheStats) { s.Reloads++ })
	}

	ms, err := sc.load(filePath)
	if err != nil {
		return nil, err
	}
	sc.record(func(s *SourceCacheStats) { s.FilesLoaded++ })

	out := clone(ms.data)
	if sc.config.MaxFiles > 0 && len(sc.cache) >= sc.config.MaxFiles {
		if err := ms.release(); err != nil {
			sc.logger.Warn("failed to release mapping", "path", filePath, "error", err)
		}
		return out, nil
	}
	sc.cache[filePath] = ms
	return out, nil
}

// load opens and maps a file, with fallback to os.ReadFile if mmap fails.
//
// Must be called while holding mu.Lock.
func (sc *sourceCacheImpl) load(filePath string) (*mappedSource, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open source %q: %w", filePath, err)
	}
	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat source %q: %w", filePath, err)
	}

	// Handle empty files (can't mmap zero bytes)
	if stat.Size() == 0 {
		file.Close()
		return &mappedSource{modTime: stat.ModTime()}, nil
	}

	data, err := mmap.Map(file, mmap.RDONLY, 0)
	if err != nil {
		file.Close()
		sc.logger.Warn("mmap failed, using fallback", "path", filePath, "size", stat.Size(), "error", err)
		sc.record(func(s *SourceCacheStats) { s.MmapFailures++ })

		raw, readErr := os.ReadFile(filePath)
		if readErr != nil {
			return nil, fmt.Errorf("mmap failed and fallback failed for %q: mmap error: %v, read error: %w",
				filePath, err, readErr)
		}
		return &mappedSource{data: mmap.MMap(raw), size: stat.Size(), modTime: stat.ModTime()}, nil
	}

	return &mappedSource{data: data, file: file, size: stat.Size(), modTime: stat.ModTime()}, nil
}

func (sc *sourceCacheImpl) Invalidate(filePath string) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if ms, ok := sc.cache[filePath]; ok {
		if err := ms.release(); err != nil {
			sc.logger.Warn("failed to release mapping", "path", filePath, "error", err)
		}
		delete(sc.cache, filePath)
	}
}

func (sc *sourceCacheImpl) Size() int {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return len(sc.cache)
}

func (sc *sourceCacheImpl) Stats() SourceCacheStats {
	sc.mu.RLock()
	cached := len(sc.cache)
	sc.mu.RUnlock()

	sc.statsMu.Lock()
	defer sc.statsMu.Unlock()
	stats := sc.stats
	stats.FilesCached = cached
	return stats
}

func (sc *sourceCacheImpl) Close() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	var errs []error
	for path, ms := range sc.cache {
		if err := ms.release(); err != nil {
			sc.logger.Warn("failed to release mapping", "path", path, "error", err)
			errs = append(errs, fmt.Errorf("release %q: %w", path, err))
		}
	}
	sc.cache = make(map[string]*mappedSource)

	sc.logger.Debug("SourceCache closed",
		"files_loaded", sc.stats.FilesLoaded,
		"cache_hits", sc.stats.CacheHits,
		"mmap_failures", sc.stats.MmapFailures)

	if len(errs) > 0 {
		return fmt.Errorf("errors during close: %v", errs)
	}
	return nil
}

func (sc *sourceCacheImpl) record(f func(*SourceCacheStats)) {
	sc.statsMu.Lock()
	f(&sc.stats)
	sc.statsMu.Unlock()
}

func clone(data []byte) []byte {
	out := make([]byte, len(data))
	copy(out, data)
	return out
}
