package queue

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"coinsort/internal/logging"
)

// EventKind labels a task lifecycle event.
type EventKind string

const (
	EventStart   EventKind = "start"
	EventSuccess EventKind = "success"
	EventError   EventKind = "error"
	EventTimeout EventKind = "timeout"
)

// Event describes one task lifecycle transition.
type Event struct {
	Kind    EventKind
	Task    string
	JobID   uuid.UUID
	Err     error
	Elapsed time.Duration
}

// Listener receives task lifecycle events. It is called from the worker
// goroutine and must not block.
type Listener func(Event)

// ErrShuttingDown is returned by Submit after Shutdown has begun.
var ErrShuttingDown = errors.New("queue is shutting down")

const (
	defaultTaskTimeout = 30 * time.Second
	defaultCapacity    = 128
)

// Queue is a concurrency-one task executor. Tasks run in submission order;
// at most one executes at any instant.
type Queue struct {
	logger   *slog.Logger
	timeout  time.Duration
	listener Listener

	ch    chan *Task
	wg    sync.WaitGroup
	depth atomic.Int64

	mu     sync.Mutex
	closed bool
}

// Option configures optional Queue behavior.
type Option func(*Queue)

// WithTaskTimeout overrides the per-task budget (defaults to 30s).
func WithTaskTimeout(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

// WithCapacity overrides how many tasks may wait for the worker.
func WithCapacity(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.ch = make(chan *Task, n)
		}
	}
}

// WithListener wires a lifecycle event listener.
func WithListener(fn Listener) Option {
	return func(q *Queue) {
		q.listener = fn
	}
}

// New constructs a queue and starts its worker immediately.
func New(logger *slog.Logger, opts ...Option) *Queue {
	q := &Queue{
		logger:  logging.NewComponentLogger(logger, "task-queue"),
		timeout: defaultTaskTimeout,
		ch:      make(chan *Task, defaultCapacity),
	}
	for _, opt := range opts {
		opt(q)
	}
	q.wg.Add(1)
	go q.work()
	return q
}

// Submit appends a task to the queue. Order of successful Submit calls is the
// order of execution. Submit blocks when the queue is at capacity.
func (q *Queue) Submit(t *Task) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrShuttingDown
	}
	q.depth.Add(1)
	// Holding the lock across the send keeps close(q.ch) safe and preserves
	// submission order under concurrent producers.
	q.ch <- t
	q.mu.Unlock()
	return nil
}

// Depth reports how many tasks are queued or executing.
func (q *Queue) Depth() int {
	return int(q.depth.Load())
}

// Shutdown stops accepting tasks and waits for the worker to drain, bounded
// by ctx.
func (q *Queue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		q.wg.Wait()
	}()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted before queue drained",
			logging.Int("remaining", q.Depth()),
		)
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}

func (q *Queue) work() {
	defer q.wg.Done()
	for task := range q.ch {
		q.runOne(task)
		q.depth.Add(-1)
	}
}

func (q *Queue) runOne(task *Task) {
	started := time.Now()
	q.emit(Event{Kind: EventStart, Task: task.Label, JobID: task.JobID})

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	result := make(chan error, 1)
	go func() {
		result <- task.Run(runCtx)
	}()

	timer := time.NewTimer(q.timeout)
	defer timer.Stop()

	select {
	case err := <-result:
		elapsed := time.Since(started)
		if err != nil {
			q.emit(Event{Kind: EventError, Task: task.Label, JobID: task.JobID, Err: err, Elapsed: elapsed})
			task.finish(Result{Err: err})
			return
		}
		q.emit(Event{Kind: EventSuccess, Task: task.Label, JobID: task.JobID, Elapsed: elapsed})
		task.finish(Result{})
	case <-timer.C:
		// Abandon the task: cancel its context and move on. The closure may
		// still finish later if it never checks the context.
		cancel()
		q.emit(Event{Kind: EventTimeout, Task: task.Label, JobID: task.JobID, Elapsed: time.Since(started)})
		task.finish(Result{TimedOut: true})
	}
}

func (q *Queue) emit(evt Event) {
	attrs := []logging.Attr{
		logging.String(logging.FieldTask, evt.Task),
		logging.String(logging.FieldJobID, evt.JobID.String()),
	}
	switch evt.Kind {
	case EventStart:
		q.logger.Info("task started", logging.Args(attrs...)...)
	case EventSuccess:
		attrs = append(attrs, logging.Duration("elapsed", evt.Elapsed))
		q.logger.Info("task completed", logging.Args(attrs...)...)
	case EventError:
		attrs = append(attrs,
			logging.Error(evt.Err),
			logging.Duration("elapsed", evt.Elapsed),
			logging.String(logging.FieldEventType, "task_failed"),
			logging.String(logging.FieldErrorHint, "job is left in its last state; inspect the log and re-trigger upstream if needed"),
		)
		q.logger.Error("task failed", logging.Args(attrs...)...)
	case EventTimeout:
		attrs = append(attrs,
			logging.Duration("elapsed", evt.Elapsed),
			logging.String(logging.FieldEventType, "task_timeout"),
			logging.String(logging.FieldErrorHint, "task exceeded its budget and was abandoned; it may still complete"),
		)
		q.logger.Warn("task timed out", logging.Args(attrs...)...)
	}
	if q.listener != nil {
		q.listener(evt)
	}
}
