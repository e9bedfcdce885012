// Package api defines the wire types shared by the daemon's HTTP surface and
// the CLI client that consumes it.
package api

import "coinsort/internal/jobs"

// DaemonStatus is the payload returned by GET /api/status.
type DaemonStatus struct {
	Running      bool           `json:"running"`
	PID          int            `json:"pid"`
	Bind         string         `json:"bind"`
	LockFilePath string         `json:"lock_file_path"`
	QueueDepth   int            `json:"queue_depth"`
	Subscribers  int            `json:"subscribers"`
	JobCounts    map[string]int `json:"job_counts"`
}

// JobListResponse is the payload returned by GET /api/jobs.
type JobListResponse struct {
	Jobs []jobs.Job `json:"jobs"`
}
