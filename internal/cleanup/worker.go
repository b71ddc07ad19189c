package cleanup

import (
	"context"
	"sync"

	"lan-stream/internal/metrics"

	"go.uber.org/zap"
)

// Worker runs file cleanup jobs on a single background goroutine.
// Submit never blocks on the queue: it is unbounded and its depth is exported
// as a gauge. Once Run has returned, Submit runs jobs on the caller.
type Worker struct {
	mu      sync.Mutex
	queue   []func()
	stopped bool
	wake    chan struct{}
	metrics *metrics.Registry
	logger  *zap.Logger
}

// ------------------------------------------------------------------------------------------------------
func NewWorker(logger *zap.Logger, m *metrics.Registry) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		wake:    make(chan struct{}, 1),
		metrics: m,
		logger:  logger,
	}
}

// ------------------------------------------------------------------------------------------------------
// Submit enqueues job and returns immediately, or runs it inline when the
// worker has stopped.
func (w *Worker) Submit(job func()) {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		w.run(job)
		return
	}
	w.queue = append(w.queue, job)
	backlog := len(w.queue)
	w.mu.Unlock()

	w.metrics.SetCleanupBacklog(backlog)

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// ------------------------------------------------------------------------------------------------------
func (w *Worker) Backlog() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.queue)
}

// ------------------------------------------------------------------------------------------------------
// Run processes jobs until ctx is cancelled. Jobs still queued at that point
// are drained before Run returns.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("Cleanup worker started")
	for {
		w.drain()
		select {
		case <-ctx.Done():
			w.mu.Lock()
			w.stopped = true
			w.mu.Unlock()
			w.drain()
			w.logger.Info("Cleanup worker stopped")
			return nil
		case <-w.wake:
		}
	}
}

// ------------------------------------------------------------------------------------------------------
func (w *Worker) drain() {
	for {
		job, ok := w.next()
		if !ok {
			return
		}
		w.run(job)
	}
}

// ------------------------------------------------------------------------------------------------------
func (w *Worker) next() (func(), bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.queue) == 0 {
		return nil, false
	}
	job := w.queue[0]
	w.queue[0] = nil
	w.queue = w.queue[1:]
	if len(w.queue) == 0 {
		w.queue = nil
	}
	w.metrics.SetCleanupBacklog(len(w.queue))
	return job, true
}

// ------------------------------------------------------------------------------------------------------
func (w *Worker) run(job func()) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("Cleanup job panicked", zap.Any("panic", r))
		}
	}()
	job()
}
