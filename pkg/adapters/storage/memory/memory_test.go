package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aescanero/pitchgraph/internal/domain"
	"github.com/aescanero/pitchgraph/internal/ports"
)

func TestJobLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewJobStore()

	job := domain.NewJob("job-1", &domain.Payload{Target: "Acme", Transcript: "hi"})
	if err := store.Create(ctx, job); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.Create(ctx, job); err == nil {
		t.Fatalf("expected duplicate create to fail")
	}

	running, err := store.UpdateStatus(ctx, "job-1", domain.JobStatusRunning, "")
	if err != nil {
		t.Fatalf("UpdateStatus running: %v", err)
	}
	if running.StartedAt == nil {
		t.Fatalf("StartedAt not set")
	}

	if err := store.SaveResult(ctx, "job-1", &domain.Report{AudioSummary: "ok"}); err != nil {
		t.Fatalf("SaveResult: %v", err)
	}
	if _, err := store.UpdateStatus(ctx, "job-1", domain.JobStatusCompleted, ""); err != nil {
		t.Fatalf("UpdateStatus completed: %v", err)
	}

	got, err := store.Get(ctx, "job-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != domain.JobStatusCompleted || got.CompletedAt == nil {
		t.Fatalf("unexpected job: %+v", got)
	}
	report, err := store.GetResult(ctx, "job-1")
	if err != nil || report.AudioSummary != "ok" {
		t.Fatalf("GetResult = %+v, %v", report, err)
	}

	if _, err := store.UpdateStatus(ctx, "job-1", domain.JobStatusFailed, "late"); err == nil {
		t.Fatalf("terminal jobs must not transition")
	}
}

func TestGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewJobStore()
	_ = store.Create(ctx, domain.NewJob("job-1", nil))

	job, _ := store.Get(ctx, "job-1")
	job.Status = domain.JobStatusCompleted

	again, _ := store.Get(ctx, "job-1")
	if again.Status != domain.JobStatusPending {
		t.Fatalf("store mutated through returned job")
	}
}

func TestUnknownJob(t *testing.T) {
	ctx := context.Background()
	store := NewJobStore()

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ports.ErrJobNotFound) {
		t.Fatalf("Get: expected ErrJobNotFound, got %v", err)
	}
	if _, err := store.UpdateStatus(ctx, "missing", domain.JobStatusRunning, ""); !errors.Is(err, ports.ErrJobNotFound) {
		t.Fatalf("UpdateStatus: expected ErrJobNotFound, got %v", err)
	}
	if err := store.SaveResult(ctx, "missing", &domain.Report{}); !errors.Is(err, ports.ErrJobNotFound) {
		t.Fatalf("SaveResult: expected ErrJobNotFound, got %v", err)
	}
	if _, err := store.GetResult(ctx, "missing"); !errors.Is(err, ports.ErrJobNotFound) {
		t.Fatalf("GetResult: expected ErrJobNotFound, got %v", err)
	}
}

func TestListNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewJobStore()

	older := domain.NewJob("old", nil)
	older.CreatedAt = time.Now().Add(-time.Hour)
	_ = store.Create(ctx, older)
	_ = store.Create(ctx, domain.NewJob("new", nil))

	jobs, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(jobs) != 2 || jobs[0].ID != "new" || jobs[1].ID != "old" {
		t.Fatalf("unexpected order: %v, %v", jobs[0].ID, jobs[1].ID)
	}
}
