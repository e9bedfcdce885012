package jobs

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"coinsort/internal/logging"
)

// Registry is the in-memory store of all jobs for the process lifetime. Jobs
// are never deleted. Ids are minted here and never supplied externally, so a
// mutation against an unknown id is a programming error: it is logged at
// error level and returned as an error rather than handled as a user-facing
// condition.
type Registry struct {
	mu     sync.Mutex
	byID   map[uuid.UUID]*Job
	order  []uuid.UUID
	hub    *Hub
	logger *slog.Logger
	now    func() time.Time
}

// NewRegistry constructs an empty registry publishing into hub.
func NewRegistry(hub *Hub, logger *slog.Logger) *Registry {
	return &Registry{
		byID:   make(map[uuid.UUID]*Job),
		hub:    hub,
		logger: logging.NewComponentLogger(logger, "job-registry"),
		now:    time.Now,
	}
}

// Create allocates a new job in status created and emits a job-created event.
// Safe to call while other jobs are mid-processing.
func (r *Registry) Create(data Data) Job {
	r.mu.Lock()
	now := r.now().UTC()
	job := &Job{
		ID:        uuid.New(),
		Status:    StatusCreated,
		Data:      data,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.byID[job.ID] = job
	r.order = append(r.order, job.ID)
	snapshot := *job
	r.mu.Unlock()

	r.logger.Info("job created",
		logging.String(logging.FieldJobID, snapshot.ID.String()),
		logging.String("destination", snapshot.Data.DestinationName),
	)
	r.publish(EventJobCreated, snapshot)
	return snapshot
}

// SetInProgress transitions a job from created to in_progress.
func (r *Registry) SetInProgress(id uuid.UUID) error {
	r.mu.Lock()
	job, ok := r.byID[id]
	if !ok {
		r.mu.Unlock()
		return r.unknown("set in progress", id)
	}
	if job.Status != StatusCreated {
		status := job.Status
		r.mu.Unlock()
		return fmt.Errorf("job %s: cannot transition %s to %s", id, status, StatusInProgress)
	}
	job.Status = StatusInProgress
	job.UpdatedAt = r.now().UTC()
	snapshot := *job
	r.mu.Unlock()

	r.publish(EventJobUpdated, snapshot)
	return nil
}

// UpdateData replaces a job's data wholesale while preserving its status. The
// previous snapshot remains valid for anyone holding it.
func (r *Registry) UpdateData(id uuid.UUID, data Data) error {
	r.mu.Lock()
	job, ok := r.byID[id]
	if !ok {
		r.mu.Unlock()
		return r.unknown("update data", id)
	}
	job.Data = data
	job.UpdatedAt = r.now().UTC()
	snapshot := *job
	r.mu.Unlock()

	r.publish(EventJobUpdated, snapshot)
	return nil
}

// SetFinished moves a job to its terminal state. Finishing an already
// finished job is a no-op so replayed completions do not emit spurious
// events.
func (r *Registry) SetFinished(id uuid.UUID) error {
	r.mu.Lock()
	job, ok := r.byID[id]
	if !ok {
		r.mu.Unlock()
		return r.unknown("set finished", id)
	}
	if job.Status == StatusFinished {
		r.mu.Unlock()
		return nil
	}
	job.Status = StatusFinished
	job.UpdatedAt = r.now().UTC()
	snapshot := *job
	r.mu.Unlock()

	r.publish(EventJobUpdated, snapshot)
	return nil
}

// Get returns a snapshot of one job.
func (r *Registry) Get(id uuid.UUID) (Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.byID[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// Jobs returns snapshots of all jobs in creation order.
func (r *Registry) Jobs() []Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Job, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.byID[id])
	}
	return out
}

// Counts reports how many jobs sit in each status.
func (r *Registry) Counts() map[Status]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[Status]int, len(allStatuses))
	for _, job := range r.byID {
		counts[job.Status]++
	}
	return counts
}

func (r *Registry) publish(kind EventKind, snapshot Job) {
	if r.hub == nil {
		return
	}
	r.hub.Publish(Event{Kind: kind, Job: snapshot})
}

func (r *Registry) unknown(op string, id uuid.UUID) error {
	err := fmt.Errorf("%s: unknown job id %s", op, id)
	r.logger.Error("registry misuse",
		logging.Error(err),
		logging.String(logging.FieldEventType, "unknown_job_id"),
		logging.String(logging.FieldErrorHint, "job ids are minted internally; this is a bug"),
	)
	return err
}
