package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gnana997/brgenlens/pkg/analysis"
	"github.com/gnana997/brgenlens/pkg/util"
)

// ProcessFunc analyzes one file. It is called concurrently from every
// worker.
type ProcessFunc func(ctx context.Context, path string) (*analysis.Result, error)

// FileJob represents a file to be processed by the worker pool.
type FileJob struct {
	FilePath string
	JobID    int
}

// FileResult contains the analysis result for a file.
type FileResult struct {
	FilePath string
	Result   *analysis.Result
	JobID    int
}

// WorkerPool manages a pool of goroutines for parallel file analysis.
//
// **Architecture:**
//   - Buffered channels for job distribution
//   - Separate result and error channels
//   - Cancellation through the parent context
//
// **Usage:**
//
//	pool := NewWorkerPool(ctx, numWorkers, process, logger)
//	pool.Start()
//	defer pool.Stop()
//
//	go collect(pool.Results(), pool.Errors())
//	for _, file := range files {
//	    pool.Submit(FileJob{FilePath: file})
//	}
//	pool.FinishSubmitting()
//	pool.Wait()
type WorkerPool struct {
	numWorkers int
	jobs       chan FileJob
	results    chan FileResult
	errors     chan FileError
	wg         sync.WaitGroup
	process    ProcessFunc
	logger     *slog.Logger

	// Lifecycle management
	ctx        context.Context
	cancel     context.CancelFunc
	started    atomic.Bool
	stopped    atomic.Bool
	jobsClosed atomic.Bool

	// Statistics
	jobsSubmitted atomic.Int64
	jobsProcessed atomic.Int64
	jobsFailed    atomic.Int64
}

// NewWorkerPool creates a new worker pool whose workers stop when parent is
// cancelled.
//
// Parameters:
//   - numWorkers: Number of worker goroutines (0 = util.GetOptimalPoolSize())
//   - process: Analysis function run for each job
//   - logger: Logger for worker messages (nil = slog.Default())
func NewWorkerPool(parent context.Context, numWorkers int, process ProcessFunc, logger *slog.Logger) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = util.GetOptimalPoolSize()
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(parent)

	return &WorkerPool{
		numWorkers: numWorkers,
		jobs:       make(chan FileJob, numWorkers*2),
		results:    make(chan FileResult, numWorkers),
		errors:     make(chan FileError, numWorkers),
		process:    process,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start spawns all worker goroutines.
//
// **IMPORTANT:** Must be called before submitting jobs.
func (wp *WorkerPool) Start() {
	if !wp.started.CompareAndSwap(false, true) {
		wp.logger.Warn("WorkerPool already started")
		return
	}

	wp.logger.Debug("Starting worker pool", "workers", wp.numWorkers)

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for {
		select {
		case <-wp.ctx.Done():
			wp.logger.Debug("Worker cancelled", "worker_id", id)
			return

		case job, ok := <-wp.jobs:
			if !ok {
				return
			}
			wp.processJob(id, job)
		}
	}
}

// processJob analyzes a single file and reports the outcome. Sends give up
// when the pool is cancelled so a departed consumer cannot wedge a worker.
func (wp *WorkerPool) processJob(workerID int, job FileJob) {
	result, err := wp.process(wp.ctx, job.FilePath)
	if err != nil {
		wp.logger.Debug("Analysis error", "worker_id", workerID, "file", job.FilePath, "error", err)
		wp.jobsFailed.Add(1)
		select {
		case wp.errors <- newFileError(job.FilePath, err):
		case <-wp.ctx.Done():
		}
		return
	}

	wp.jobsProcessed.Add(1)
	select {
	case wp.results <- FileResult{FilePath: job.FilePath, Result: result, JobID: job.JobID}:
	case <-wp.ctx.Done():
	}
}

// Submit enqueues a job for processing.
//
// **Blocking:** Will block if the jobs channel is full, until a worker
// frees a slot or the pool is cancelled.
func (wp *WorkerPool) Submit(job FileJob) error {
	if wp.stopped.Load() || wp.jobsClosed.Load() {
		return fmt.Errorf("worker pool is stopped")
	}

	select {
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool cancelled: %w", wp.ctx.Err())
	case wp.jobs <- job:
		wp.jobsSubmitted.Add(1)
		return nil
	}
}

// Results returns the results channel.
func (wp *WorkerPool) Results() <-chan FileResult {
	return wp.results
}

// Errors returns the errors channel.
func (wp *WorkerPool) Errors() <-chan FileError {
	return wp.errors
}

// FinishSubmitting closes the jobs channel to signal no more jobs will be
// submitted. Workers exit once the queue drains. Idempotent.
func (wp *WorkerPool) FinishSubmitting() {
	if wp.jobsClosed.CompareAndSwap(false, true) {
		close(wp.jobs)
		wp.logger.Debug("Jobs channel closed", "total_submitted", wp.jobsSubmitted.Load())
	}
}

// Wait blocks until all workers have finished.
//
// **Call this after** FinishSubmitting(), or after cancelling the parent
// context.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

// Stop shuts down the worker pool.
//
// **Steps:**
//  1. Closes jobs channel if not already closed (no new jobs accepted)
//  2. Waits for in-flight jobs to complete
//  3. Closes result and error channels
//
// Safe to call multiple times.
func (wp *WorkerPool) Stop() {
	if !wp.stopped.CompareAndSwap(false, true) {
		return
	}

	if wp.jobsClosed.CompareAndSwap(false, true) {
		close(wp.jobs)
	}

	wp.wg.Wait()

	close(wp.results)
	close(wp.errors)

	wp.cancel()

	wp.logger.Debug("Worker pool stopped",
		"jobs_submitted", wp.jobsSubmitted.Load(),
		"jobs_processed", wp.jobsProcessed.Load(),
		"jobs_failed", wp.jobsFailed.Load())
}

// GetStats returns current worker pool statistics.
func (wp *WorkerPool) GetStats() WorkerPoolStats {
	return WorkerPoolStats{
		NumWorkers:    wp.numWorkers,
		JobsSubmitted: wp.jobsSubmitted.Load(),
		JobsProcessed: wp.jobsProcessed.Load(),
		JobsFailed:    wp.jobsFailed.Load(),
		QueueLength:   len(wp.jobs),
		ResultsQueued: len(wp.results),
		ErrorsQueued:  len(wp.errors),
	}
}

// WorkerPoolStats contains statistics about the worker pool.
type WorkerPoolStats struct {
	NumWorkers    int
	JobsSubmitted int64
	JobsProcessed int64
	JobsFailed    int64
	QueueLength   int // Current jobs in queue
	ResultsQueued int // Results waiting to be consumed
	ErrorsQueued  int // Errors waiting to be consumed
}
