// Package cache holds the last good analysis result per document and the
// generation counters that decide whether a finished pass is still
// current.
package cache

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
)

// ErrStaleGeneration is returned by Commit when a newer pass for the same
// document has already begun. Callers drop the result silently.
var ErrStaleGeneration = errors.New("stale generation")

// Entry is one cached result.
type Entry[V any] struct {
	URI        string
	Generation uint64
	// Hash is the content hash of the source the value was computed from.
	Hash      uint64
	Value     V
	Timestamp int64
}

// DocumentCache keeps the latest committed result per document URI.
//
// **Architecture:**
//   - LRU of committed entries, bounded by Config.MaxDocuments
//   - Generation counters per URI in a plain map, so a document evicted
//     from the LRU still rejects late results of an old pass
//   - Content hashes (xxhash) to skip re-analysis of unchanged text
//
// **Generations:** Begin hands out a strictly increasing number per URI.
// Commit accepts a value only if its generation is still the latest one
// handed out for that URI.
//
// **Thread Safety:**
//   - sync.RWMutex around the counters and the LRU
//   - Atomic counters for statistics
//
// **Usage:**
//
//	c := cache.New[*analysis.Result](cache.DefaultConfig(), logger)
//	gen := c.Begin(uri)
//	result := analyze(...)
//	if err := c.Commit(uri, gen, cache.HashContent(src), result); errors.Is(err, cache.ErrStaleGeneration) {
//	    // a newer edit arrived; drop result
//	}
type DocumentCache[V any] struct {
	entries     *lru.Cache[string, *Entry[V]]
	generations map[string]uint64
	// closing is the URI Close is removing; its eviction callback counts a
	// close, not an eviction. Guarded by mu.
	closing string

	mu sync.RWMutex

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
	closes    atomic.Int64
	commits   atomic.Int64
	stale     atomic.Int64

	config Config
	logger *slog.Logger
}

// Config configures a DocumentCache.
type Config struct {
	// MaxDocuments bounds the number of cached results.
	// Default: 256
	MaxDocuments int

	// Debug enables verbose logging
	Debug bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{MaxDocuments: 256}
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Documents    int     `json:"documents"`
	Hits         int64   `json:"hits"`
	Misses       int64   `json:"misses"`
	HitRate      float64 `json:"hit_rate"`
	Evictions    int64   `json:"evictions"`
	Closes       int64   `json:"closes"`
	Commits      int64   `json:"commits"`
	StaleCommits int64   `json:"stale_commits"`
}

// New creates a DocumentCache. A nil logger uses slog.Default().
func New[V any](config Config, logger *slog.Logger) *DocumentCache[V] {
	if config.MaxDocuments <= 0 {
		config.MaxDocuments = DefaultConfig().MaxDocuments
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &DocumentCache[V]{
		generations: make(map[string]uint64, config.MaxDocuments),
		config:      config,
		logger:      logger,
	}
	entries, err := lru.NewWithEvict(config.MaxDocuments, func(uri string, e *Entry[V]) {
		if uri == c.closing {
			c.closes.Add(1)
			return
		}
		c.evictions.Add(1)
		if config.Debug {
			logger.Debug("evicting document", "uri", uri, "generation", e.Generation)
		}
	})
	if err != nil {
		// only possible with a non-positive size, which is excluded above
		panic(fmt.Sprintf("failed to create LRU cache: %v", err))
	}
	c.entries = entries
	return c
}

// Begin starts a new generation for uri and returns it.
//
// **Thread Safety:** Safe for concurrent calls.
func (c *DocumentCache[V]) Begin(uri string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generations[uri]++
	return c.generations[uri]
}

// Current returns the latest generation handed out for uri (0 if none).
func (c *DocumentCache[V]) Current(uri string) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generations[uri]
}

// IsCurrent reports whether gen is still the latest generation of uri.
func (c *DocumentCache[V]) IsCurrent(uri string, gen uint64) bool {
	return c.Current(uri) == gen
}

// Commit stores value as the result of pass gen. It returns
// ErrStaleGeneration, and stores nothing, when a newer pass has begun.
// Committing a generation that was never handed out is also stale.
//
// **Thread Safety:** Safe for concurrent calls.
func (c *DocumentCache[V]) Commit(uri string, gen, hash uint64, value V) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cur := c.generations[uri]; gen != cur {
		c.stale.Add(1)
		if c.config.Debug {
			c.logger.Debug("dropping stale result", "uri", uri, "generation", gen, "current", cur)
		}
		return fmt.Errorf("commit %s generation %d (current %d): %w", uri, gen, cur, ErrStaleGeneration)
	}

	c.entries.Add(uri, &Entry[V]{
		URI:        uri,
		Generation: gen,
		Hash:       hash,
		Value:      value,
		Timestamp:  time.Now().UnixMilli(),
	})
	c.commits.Add(1)
	return nil
}

// Get returns the last committed entry for uri.
//
// **Thread Safety:** Safe for concurrent calls.
func (c *DocumentCache[V]) Get(uri string) (*Entry[V], bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries.Get(uri)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return e, ok
}

// Fresh reports whether the committed entry for uri was computed from
// content with the given hash, i.e. re-analysis can be skipped.
func (c *DocumentCache[V]) Fresh(uri string, hash uint64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries.Peek(uri)
	return ok && e.Hash == hash
}

// Close forgets uri: its cached entry is evicted and its generation is
// bumped so any pass still in flight is rejected on commit.
//
// **Thread Safety:** Safe for concurrent calls.
func (c *DocumentCache[V]) Close(uri string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closing = uri
	c.entries.Remove(uri)
	c.closing = ""
	c.generations[uri]++
	if c.config.Debug {
		c.logger.Debug("closed document", "uri", uri)
	}
}

// URIs lists the cached documents, least recently used first.
func (c *DocumentCache[V]) URIs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries.Keys()
}

// Stats returns a snapshot of the counters.
func (c *DocumentCache[V]) Stats() Stats {
	c.mu.RLock()
	docs := c.entries.Len()
	c.mu.RUnlock()

	hits := c.hits.Load()
	misses := c.misses.Load()
	rate := 0.0
	if total := hits + misses; total > 0 {
		rate = float64(hits) / float64(total)
	}
	return Stats{
		Documents:    docs,
		Hits:         hits,
		Misses:       misses,
		HitRate:      rate,
		Evictions:    c.evictions.Load(),
		Closes:       c.closes.Load(),
		Commits:      c.commits.Load(),
		StaleCommits: c.stale.Load(),
	}
}

// HashContent hashes document content for change detection.
func HashContent(content []byte) uint64 {
	return xxhash.Sum64(content)
}
