// Package daemon ties the webhook transport, job registry, task queue, and
// classification workflow into a single-instance background service.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"coinsort/internal/config"
	"coinsort/internal/jobs"
	"coinsort/internal/logging"
	"coinsort/internal/queue"
	"coinsort/internal/workflow"
)

// Daemon coordinates the background services and enforces single-instance
// execution through a file lock.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	registry  *jobs.Registry
	hub       *jobs.Hub
	queue     *queue.Queue
	processor *workflow.Processor

	apiServer *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	Bind         string
	LockFilePath string
	QueueDepth   int
	Subscribers  int
	JobCounts    map[jobs.Status]int
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, logger *slog.Logger, registry *jobs.Registry, hub *jobs.Hub, q *queue.Queue, processor *workflow.Processor) (*Daemon, error) {
	if cfg == nil || logger == nil || registry == nil || hub == nil || q == nil || processor == nil {
		return nil, errors.New("daemon requires config, logger, registry, hub, queue, and processor")
	}

	lockPath := filepath.Join(cfg.Logging.Dir, "coinsortd.lock")
	d := &Daemon{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "daemon"),
		registry:  registry,
		hub:       hub,
		queue:     q,
		processor: processor,
		lockPath:  lockPath,
		lock:      flock.New(lockPath),
	}
	srv, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.apiServer = srv
	return d, nil
}

// Start acquires the daemon lock and brings up the HTTP surface.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another coinsort daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.apiServer.start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return err
	}

	d.running.Store(true)
	d.logger.Info("daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop drains the queue, shuts down the HTTP surface, and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	drainCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	d.queue.Shutdown(drainCtx)
	cancel()

	d.apiServer.stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	return nil
}

// Status reports current runtime information.
func (d *Daemon) Status() Status {
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		Bind:         d.cfg.Server.Bind,
		LockFilePath: d.lockPath,
		QueueDepth:   d.queue.Depth(),
		Subscribers:  d.hub.SubscriberCount(),
		JobCounts:    d.registry.Counts(),
	}
}
