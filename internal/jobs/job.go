package jobs

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle of a job.
type Status string

const (
	StatusCreated    Status = "created"
	StatusInProgress Status = "in_progress"
	StatusFinished   Status = "finished"
)

var allStatuses = []Status{
	StatusCreated,
	StatusInProgress,
	StatusFinished,
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case StatusCreated, StatusInProgress, StatusFinished:
		return normalized, true
	default:
		return "", false
	}
}

// Data is the evolving payload attached to a job. Destination name and
// description are set at creation and never change; the classification fields
// appear once the workflow populates them. Category stays empty when the
// classifier found no match.
type Data struct {
	DestinationName string `json:"destinationName"`
	Description     string `json:"description"`
	Category        string `json:"category,omitempty"`
	Prompt          string `json:"prompt,omitempty"`
	Response        string `json:"response,omitempty"`
}

// Job is one unit of classify-and-commit work derived from one accepted
// webhook. Data has value semantics: a Job copy is a stable snapshot.
type Job struct {
	ID        uuid.UUID `json:"id"`
	Status    Status    `json:"status"`
	Data      Data      `json:"data"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
