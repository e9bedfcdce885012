// Package jobs owns the in-memory job lifecycle and its event fan-out.
//
// The Registry is the single source of truth for what work exists and where
// it stands. Jobs move strictly forward through created, in_progress, and
// finished; there is no failed terminal state, so a job whose processing
// errors out stays wherever it last was. Job data snapshots are replaced by
// value on every update, so readers holding an earlier snapshot never observe
// later mutation.
//
// Every mutation publishes a full job snapshot through the Hub, which relays
// it to all subscribed observers. The hub is transport-agnostic; the daemon's
// WebSocket layer is just one subscriber.
//
// Only the queue's single worker may call mutating methods once a job is
// enqueued; the registry mutex exists for the create path and for concurrent
// readers, not to arbitrate competing writers.
package jobs
