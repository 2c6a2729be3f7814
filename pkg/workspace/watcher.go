package workspace

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/gnana997/brgenlens/pkg/cache"
)

// FileWatcher watches the workspace and re-analyzes files as they change.
//
// **Features:**
//   - Debouncing - rapid saves to one file trigger a single pass
//   - Selective - only the changed file is recompiled
//   - New directories are watched as they appear
//
// **Usage:**
//
//	watcher, err := NewFileWatcher(ws, DefaultWatchOptions(), func(ev WatchEvent) {
//	    fmt.Println(ev.FilePath, len(ev.Result.Diagnostics))
//	})
//	if err != nil {
//	    return err
//	}
//	if err := watcher.Start(ctx); err != nil {
//	    return err
//	}
//	defer watcher.Stop()
type FileWatcher struct {
	watcher *fsnotify.Watcher
	ws      *Workspace
	options WatchOptions
	onEvent func(WatchEvent)

	ctx    context.Context
	cancel context.CancelFunc

	// Debouncing. Fired timers still running reanalyze are tracked in
	// callbacks; closed stops new ones from starting.
	debounceTimers map[string]*time.Timer
	debounceMu     sync.Mutex
	callbacks      sync.WaitGroup
	closed         bool

	// Lifecycle
	started bool
	stopped bool
	mu      sync.Mutex
	loop    sync.WaitGroup
}

// NewFileWatcher creates a watcher over ws. onEvent, if non-nil, is called
// after every re-analysis or removal; it runs on the debounce goroutine
// and must not block for long.
func NewFileWatcher(ws *Workspace, options WatchOptions, onEvent func(WatchEvent)) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	if options.DebounceMs <= 0 {
		options.DebounceMs = DefaultWatchOptions().DebounceMs
	}
	for _, pattern := range options.IgnorePatterns {
		if !doublestar.ValidatePattern(pattern) {
			watcher.Close()
			return nil, fmt.Errorf("invalid ignore pattern: %s", pattern)
		}
	}

	return &FileWatcher{
		watcher:        watcher,
		ws:             ws,
		options:        options,
		onEvent:        onEvent,
		debounceTimers: make(map[string]*time.Timer),
	}, nil
}

// Start begins watching the workspace root. Analyses triggered by the
// watcher run under ctx; cancelling it has the same effect as Stop.
func (fw *FileWatcher) Start(ctx context.Context) error {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if fw.stopped {
		return errors.New("watcher already stopped")
	}
	if fw.started {
		return errors.New("watcher already started")
	}

	if err := fw.addTree(fw.ws.Root(), false); err != nil {
		return err
	}

	fw.ctx, fw.cancel = context.WithCancel(ctx)
	fw.started = true

	fw.ws.logger.Info("File watcher started", "root", fw.ws.Root(), "debounce_ms", fw.options.DebounceMs)

	fw.loop.Add(1)
	go fw.eventLoop()
	return nil
}

// addTree watches dir and every non-excluded directory below it. With
// analyze set, matching files already present are scheduled too.
func (fw *FileWatcher) addTree(dir string, analyze bool) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return fmt.Errorf("failed to watch %s: %w", dir, err)
			}
			return nil
		}
		if !d.IsDir() {
			if analyze && !fw.shouldIgnore(path) && Matches(fw.ws.Root(), path, fw.ws.Options()) {
				fw.debounce(path, fsnotify.Create.String())
			}
			return nil
		}
		if path != fw.ws.Root() {
			if fw.shouldIgnore(path) || matchAny(fw.ws.Options().Exclude, relSlash(fw.ws.Root(), path)) {
				return filepath.SkipDir
			}
		}
		if err := fw.watcher.Add(path); err != nil {
			if path == dir {
				return fmt.Errorf("failed to watch %s: %w", path, err)
			}
			fw.ws.logger.Warn("Failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
}

// Stop stops the file watcher and waits for analyses it started to
// finish. Safe to call multiple times.
func (fw *FileWatcher) Stop() error {
	fw.mu.Lock()
	if fw.stopped {
		fw.mu.Unlock()
		return nil
	}
	fw.stopped = true
	if fw.cancel != nil {
		fw.cancel()
	}
	fw.mu.Unlock()

	fw.debounceMu.Lock()
	fw.closed = true
	for _, timer := range fw.debounceTimers {
		timer.Stop()
	}
	fw.debounceTimers = make(map[string]*time.Timer)
	fw.debounceMu.Unlock()

	err := fw.watcher.Close()
	fw.loop.Wait()
	fw.callbacks.Wait()
	fw.ws.logger.Info("File watcher stopped")
	return err
}

func (fw *FileWatcher) eventLoop() {
	defer fw.loop.Done()
	for {
		select {
		case <-fw.ctx.Done():
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handleEvent(event)

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.ws.logger.Error("File watcher error", "error", err)
		}
	}
}

func (fw *FileWatcher) handleEvent(event fsnotify.Event) {
	path := event.Name
	if fw.shouldIgnore(path) {
		return
	}

	// A new directory may already hold sources (mkdir -p && cp).
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := fw.addTree(path, true); err != nil {
				fw.ws.logger.Warn("Failed to watch new directory", "path", path, "error", err)
			}
			return
		}
	}

	if !Matches(fw.ws.Root(), path, fw.ws.Options()) {
		return
	}

	fw.ws.logger.Debug("File event", "op", event.Op.String(), "file", path)

	switch {
	case event.Has(fsnotify.Write), event.Has(fsnotify.Create):
		fw.debounce(path, event.Op.String())

	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		fw.cancelPending(path)
		fw.ws.Remove(path)
		fw.emit(WatchEvent{FilePath: path, Op: event.Op.String(), Timestamp: time.Now()})
	}
}

// debounce schedules a re-analysis after the debounce delay. Events for the
// same file inside the window reset the timer.
func (fw *FileWatcher) debounce(path, op string) {
	fw.debounceMu.Lock()
	defer fw.debounceMu.Unlock()
	if fw.closed {
		return
	}

	if timer, exists := fw.debounceTimers[path]; exists {
		timer.Stop()
	}

	fw.debounceTimers[path] = time.AfterFunc(
		time.Duration(fw.options.DebounceMs)*time.Millisecond,
		func() {
			fw.debounceMu.Lock()
			if fw.closed {
				fw.debounceMu.Unlock()
				return
			}
			delete(fw.debounceTimers, path)
			// Add under debounceMu so it cannot race Stop's Wait.
			fw.callbacks.Add(1)
			fw.debounceMu.Unlock()
			defer fw.callbacks.Done()

			fw.reanalyze(path, op)
		},
	)
}

func (fw *FileWatcher) cancelPending(path string) {
	fw.debounceMu.Lock()
	defer fw.debounceMu.Unlock()
	if timer, exists := fw.debounceTimers[path]; exists {
		timer.Stop()
		delete(fw.debounceTimers, path)
	}
}

func (fw *FileWatcher) reanalyze(path, op string) {
	if fw.ctx.Err() != nil {
		return
	}

	start := time.Now()
	res, err := fw.ws.AnalyzeFile(fw.ctx, path)
	switch {
	case errors.Is(err, cache.ErrStaleGeneration):
		// A newer pass for this file is running and will report.
		return
	case err != nil:
		if fw.ctx.Err() != nil {
			return
		}
		fw.ws.logger.Warn("Failed to re-analyze file", "file", path, "error", err)
	default:
		fw.ws.logger.Debug("File re-analyzed",
			"file", path,
			"diagnostics", len(res.Diagnostics),
			"token_source", res.TokenSource,
			"ms", time.Since(start).Milliseconds())
	}

	fw.emit(WatchEvent{FilePath: path, Op: op, Result: res, Err: err, Timestamp: time.Now()})
}

func (fw *FileWatcher) emit(ev WatchEvent) {
	if fw.onEvent != nil {
		fw.onEvent(ev)
	}
}

// shouldIgnore matches path against the ignore patterns, both relative to
// the workspace root and by base name.
func (fw *FileWatcher) shouldIgnore(path string) bool {
	rel := relSlash(fw.ws.Root(), path)
	base := filepath.Base(path)
	for _, pattern := range fw.options.IgnorePatterns {
		if m, _ := doublestar.Match(pattern, rel); m {
			return true
		}
		if m, _ := doublestar.Match(pattern, base); m {
			return true
		}
	}
	return false
}

// GetStats returns file watcher statistics.
func (fw *FileWatcher) GetStats() FileWatcherStats {
	fw.debounceMu.Lock()
	pending := len(fw.debounceTimers)
	fw.debounceMu.Unlock()

	fw.mu.Lock()
	running := fw.started && !fw.stopped
	fw.mu.Unlock()

	return FileWatcherStats{
		PendingAnalyses: pending,
		IsRunning:       running,
	}
}

// FileWatcherStats contains file watcher statistics.
type FileWatcherStats struct {
	PendingAnalyses int
	IsRunning       bool
}
