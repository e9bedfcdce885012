// Package queue runs submitted tasks strictly one at a time, in submission
// order, with a per-task time budget.
//
// The queue starts its single worker on construction; there is no separate
// start call. A task that exceeds the budget is abandoned: its context is
// cancelled and the worker moves on, but work that never checks the context
// may still complete later and mutate state. That race is accepted by design.
//
// Lifecycle events (start, success, error, timeout) go to the structured log
// and to an optional listener. They are diagnostic only and never feed back
// into the job registry; terminal job-state transitions belong to the
// workflow processor.
package queue
