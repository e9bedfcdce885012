package queue

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Result is the terminal outcome of one task as seen by the queue. A timed
// out task gets TimedOut=true and a nil Err even if the underlying work later
// fails or succeeds; the queue stopped watching.
type Result struct {
	Err      error
	TimedOut bool
}

// Task is one unit of queued work. The result channel lets a submitter await
// completion explicitly instead of relying on ambient events.
type Task struct {
	Label string
	JobID uuid.UUID
	Run   func(context.Context) error

	done     chan Result
	complete sync.Once
}

// NewTask wraps a closure for submission.
func NewTask(label string, jobID uuid.UUID, run func(context.Context) error) *Task {
	return &Task{
		Label: label,
		JobID: jobID,
		Run:   run,
		done:  make(chan Result, 1),
	}
}

// Done yields exactly one Result when the queue finishes or abandons the task.
func (t *Task) Done() <-chan Result {
	return t.done
}

func (t *Task) finish(res Result) {
	t.complete.Do(func() {
		t.done <- res
	})
}
