package jobs_test

import (
	"strings"
	"testing"
	"time"

	"coinsort/internal/jobs"
	"coinsort/internal/logging"
)

func newRegistry(t *testing.T) (*jobs.Registry, *jobs.Hub) {
	t.Helper()
	hub := jobs.NewHub(logging.NewNop())
	return jobs.NewRegistry(hub, logging.NewNop()), hub
}

func TestCreateStartsInCreatedStatus(t *testing.T) {
	registry, _ := newRegistry(t)
	job := registry.Create(jobs.Data{DestinationName: "Grocer", Description: "weekly shop"})

	if job.Status != jobs.StatusCreated {
		t.Errorf("status = %q, want %q", job.Status, jobs.StatusCreated)
	}
	if job.ID.String() == "" || strings.Count(job.ID.String(), "-") != 4 {
		t.Errorf("expected a uuid job id, got %q", job.ID)
	}
	if job.CreatedAt.IsZero() || !job.CreatedAt.Equal(job.UpdatedAt) {
		t.Errorf("timestamps: created=%v updated=%v", job.CreatedAt, job.UpdatedAt)
	}
}

func TestLifecycleTransitionsAreMonotonic(t *testing.T) {
	registry, _ := newRegistry(t)
	job := registry.Create(jobs.Data{DestinationName: "Grocer"})

	if err := registry.SetInProgress(job.ID); err != nil {
		t.Fatalf("set in progress: %v", err)
	}
	if got, _ := registry.Get(job.ID); got.Status != jobs.StatusInProgress {
		t.Fatalf("status = %q, want %q", got.Status, jobs.StatusInProgress)
	}

	// A second start attempt must be refused.
	if err := registry.SetInProgress(job.ID); err == nil {
		t.Fatal("expected error starting an in-progress job")
	}

	if err := registry.SetFinished(job.ID); err != nil {
		t.Fatalf("set finished: %v", err)
	}
	if got, _ := registry.Get(job.ID); got.Status != jobs.StatusFinished {
		t.Fatalf("status = %q, want %q", got.Status, jobs.StatusFinished)
	}
	if err := registry.SetInProgress(job.ID); err == nil {
		t.Fatal("expected error restarting a finished job")
	}
}

func TestSetFinishedIsIdempotent(t *testing.T) {
	registry, hub := newRegistry(t)
	job := registry.Create(jobs.Data{DestinationName: "Grocer"})
	if err := registry.SetInProgress(job.ID); err != nil {
		t.Fatalf("set in progress: %v", err)
	}

	sub := hub.Subscribe()
	defer sub.Close()

	if err := registry.SetFinished(job.ID); err != nil {
		t.Fatalf("first finish: %v", err)
	}
	if err := registry.SetFinished(job.ID); err != nil {
		t.Fatalf("second finish: %v", err)
	}

	// Exactly one update event should have been published for the two calls.
	select {
	case evt := <-sub.Events():
		if evt.Kind != jobs.EventJobUpdated {
			t.Fatalf("event kind = %q", evt.Kind)
		}
	case <-time.After(time.Second):
		t.Fatal("no event for first finish")
	}
	select {
	case evt := <-sub.Events():
		t.Fatalf("unexpected second event %q for idempotent finish", evt.Kind)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSnapshotsAreIsolatedFromLaterUpdates(t *testing.T) {
	registry, _ := newRegistry(t)
	job := registry.Create(jobs.Data{DestinationName: "Grocer", Description: "weekly shop"})
	before, _ := registry.Get(job.ID)

	data := before.Data
	data.Category = "Groceries"
	if err := registry.UpdateData(job.ID, data); err != nil {
		t.Fatalf("update data: %v", err)
	}

	if before.Data.Category != "" {
		t.Errorf("earlier snapshot mutated: category = %q", before.Data.Category)
	}
	after, _ := registry.Get(job.ID)
	if after.Data.Category != "Groceries" {
		t.Errorf("category = %q, want %q", after.Data.Category, "Groceries")
	}
	if !after.UpdatedAt.After(before.UpdatedAt) && !after.UpdatedAt.Equal(before.UpdatedAt) {
		t.Errorf("updated_at went backwards: %v -> %v", before.UpdatedAt, after.UpdatedAt)
	}
}

func TestJobsReturnsCreationOrder(t *testing.T) {
	registry, _ := newRegistry(t)
	first := registry.Create(jobs.Data{DestinationName: "A"})
	second := registry.Create(jobs.Data{DestinationName: "B"})
	third := registry.Create(jobs.Data{DestinationName: "C"})

	list := registry.Jobs()
	if len(list) != 3 {
		t.Fatalf("jobs = %d, want 3", len(list))
	}
	for i, want := range []string{first.ID.String(), second.ID.String(), third.ID.String()} {
		if list[i].ID.String() != want {
			t.Errorf("position %d = %s, want %s", i, list[i].ID, want)
		}
	}
}

func TestCountsGroupByStatus(t *testing.T) {
	registry, _ := newRegistry(t)
	a := registry.Create(jobs.Data{DestinationName: "A"})
	registry.Create(jobs.Data{DestinationName: "B"})
	if err := registry.SetInProgress(a.ID); err != nil {
		t.Fatalf("set in progress: %v", err)
	}

	counts := registry.Counts()
	if counts[jobs.StatusCreated] != 1 || counts[jobs.StatusInProgress] != 1 || counts[jobs.StatusFinished] != 0 {
		t.Errorf("counts = %v", counts)
	}
}

func TestMutatingUnknownJobFails(t *testing.T) {
	registry, _ := newRegistry(t)
	other, _ := newRegistry(t)
	foreign := other.Create(jobs.Data{DestinationName: "elsewhere"})

	if err := registry.SetInProgress(foreign.ID); err == nil {
		t.Error("expected error for unknown id on SetInProgress")
	}
	if err := registry.UpdateData(foreign.ID, jobs.Data{}); err == nil {
		t.Error("expected error for unknown id on UpdateData")
	}
	if err := registry.SetFinished(foreign.ID); err == nil {
		t.Error("expected error for unknown id on SetFinished")
	}
}

func TestParseStatus(t *testing.T) {
	if status, ok := jobs.ParseStatus(" In_Progress "); !ok || status != jobs.StatusInProgress {
		t.Errorf("ParseStatus = %q, %v", status, ok)
	}
	if _, ok := jobs.ParseStatus("failed"); ok {
		t.Error("there is no failed status")
	}
}
