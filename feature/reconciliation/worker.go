package reconciliation

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Worker is the explicit background executor for reconciliation runs.
// CreateAndRun hands it a run ID; a fixed pool of goroutines drains the
// queue and drives each run to a terminal state. Execution uses a
// background context: an in-flight match is not interruptible, only a
// still-pending run can be cancelled.
type Worker struct {
	service *Service
	queue   chan string
	workers int
	logger  *zap.Logger

	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewWorker creates a worker pool for the service and attaches itself
// as the service's run queue.
func NewWorker(service *Service, cfg Config, log *zap.Logger) *Worker {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	queueSize := cfg.QueueSize
	if queueSize < 1 {
		queueSize = 64
	}

	w := &Worker{
		service: service,
		queue:   make(chan string, queueSize),
		workers: workers,
		logger:  log,
	}
	service.AttachQueue(w)
	return w
}

// Start launches the executor goroutines.
func (w *Worker) Start() {
	for i := 0; i < w.workers; i++ {
		w.wg.Add(1)
		go w.loop()
	}
	w.logger.Info("reconciliation worker started",
		zap.Int("workers", w.workers),
		zap.Int("queue_size", cap(w.queue)),
	)
}

func (w *Worker) loop() {
	defer w.wg.Done()
	for runID := range w.queue {
		// Execute never lets a failure escape: errors and panics are
		// persisted on the run row.
		_ = w.service.Execute(context.Background(), runID)
	}
}

// Enqueue hands a run ID to the pool. Returns false when the queue is
// saturated; the caller persists that as a run failure.
func (w *Worker) Enqueue(runID string) bool {
	select {
	case w.queue <- runID:
		return true
	default:
		return false
	}
}

// Stop closes the queue and waits for in-flight runs to finish.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		close(w.queue)
	})
	w.wg.Wait()
}
