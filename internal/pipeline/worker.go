package pipeline

import (
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/anime-shed/live-text-overlay-go/internal/logger"
)

// WorkerStats reports job counters of a Worker
type WorkerStats struct {
	TotalJobs     int64 `json:"total_jobs"`
	CompletedJobs int64 `json:"completed_jobs"`
	PanickedJobs  int64 `json:"panicked_jobs"`
	ActiveWorkers int64 `json:"active_workers"`
}

// Worker runs submitted jobs one after another on a single dedicated goroutine
type Worker struct {
	jobQueue chan func()
	wg       sync.WaitGroup
	once     sync.Once

	mu     sync.RWMutex
	closed bool

	totalJobs     atomic.Int64
	completedJobs atomic.Int64
	panickedJobs  atomic.Int64
	activeWorkers atomic.Int64
}

// NewWorker creates a worker whose queue holds up to queueSize pending jobs
func NewWorker(queueSize int) *Worker {
	if queueSize <= 0 {
		queueSize = 1
	}
	return &Worker{jobQueue: make(chan func(), queueSize)}
}

// Start launches the worker goroutine; later calls have no effect
func (w *Worker) Start() {
	w.once.Do(func() {
		w.wg.Add(1)
		go w.run()
	})
}

func (w *Worker) run() {
	defer w.wg.Done()
	for job := range w.jobQueue {
		w.execute(job)
	}
}

func (w *Worker) execute(job func()) {
	w.activeWorkers.Add(1)
	defer func() {
		if r := recover(); r != nil {
			w.panickedJobs.Add(1)
			logger.WithFields(logrus.Fields{"panic": r}).Error("Worker job panicked")
		}
		w.activeWorkers.Add(-1)
		w.completedJobs.Add(1)
	}()
	job()
}

// Submit queues job without blocking. It returns false when the queue is full
// or the worker has been closed; the job will then never run.
func (w *Worker) Submit(job func()) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return false
	}

	select {
	case w.jobQueue <- job:
		w.totalJobs.Add(1)
		return true
	default:
		return false
	}
}

// Close stops accepting jobs, lets queued jobs finish and waits for the goroutine.
// Start must have been called for queued jobs to drain.
func (w *Worker) Close() {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.jobQueue)
	}
	w.mu.Unlock()
	w.wg.Wait()
}

// GetStats returns the current job counters
func (w *Worker) GetStats() WorkerStats {
	return WorkerStats{
		TotalJobs:     w.totalJobs.Load(),
		CompletedJobs: w.completedJobs.Load(),
		PanickedJobs:  w.panickedJobs.Load(),
		ActiveWorkers: w.activeWorkers.Load(),
	}
}
