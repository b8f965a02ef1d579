package workers

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/aescanero/pitchgraph/internal/application/graph"
	"github.com/aescanero/pitchgraph/internal/application/workflow"
	"github.com/aescanero/pitchgraph/internal/domain"
	"github.com/aescanero/pitchgraph/internal/ports"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Workflow evaluates one payload.
type Workflow interface {
	ExecuteWithProgress(ctx context.Context, payload *domain.Payload, progress workflow.ProgressFunc) (*domain.Report, error)
}

// JobRunner drives a job through pending -> running -> completed|failed and
// persists the outcome. It implements Executor.
type JobRunner struct {
	workflow Workflow
	store    ports.JobStore
	eventBus ports.EventBus
	metrics  ports.MetricsCollector
	logger   *zap.Logger

	active atomic.Int64
}

// NewJobRunner creates a job runner
func NewJobRunner(
	wf Workflow,
	store ports.JobStore,
	eventBus ports.EventBus,
	metrics ports.MetricsCollector,
	logger *zap.Logger,
) *JobRunner {
	return &JobRunner{
		workflow: wf,
		store:    store,
		eventBus: eventBus,
		metrics:  metrics,
		logger:   logger,
	}
}

// Run executes the workflow for a pending job. Once the job is running it
// always settles in a terminal state, even when the workflow panics or ctx
// is cancelled; the returned error describes why it failed. A job whose ctx
// is already done when it leaves the queue fails without running.
func (r *JobRunner) Run(ctx context.Context, jobID string, payload *domain.Payload) error {
	// Persistence must outlive the job's own deadline.
	storeCtx := context.WithoutCancel(ctx)

	if ctx.Err() != nil {
		cause := context.Cause(ctx)
		r.fail(storeCtx, jobID, cause, 0)
		return fmt.Errorf("job %s not started: %w", jobID, cause)
	}

	if _, err := r.store.UpdateStatus(storeCtx, jobID, domain.JobStatusRunning, ""); err != nil {
		return fmt.Errorf("failed to mark job running: %w", err)
	}
	start := time.Now()
	r.metrics.SetActiveJobs(int(r.active.Add(1)))
	defer func() {
		r.metrics.SetActiveJobs(int(r.active.Add(-1)))
	}()
	r.publish(storeCtx, jobID, domain.EventTypeJobRunning, "", nil)

	r.logger.Info("job running", zap.String("job_id", jobID))

	report, err := r.execute(ctx, jobID, payload)
	if err != nil && ctx.Err() != nil {
		if cause := context.Cause(ctx); cause != nil && !errors.Is(err, cause) {
			err = fmt.Errorf("%w: %v", cause, err)
		}
	}

	if err != nil {
		r.fail(storeCtx, jobID, err, time.Since(start))
		return err
	}

	// The transition comes first so a job settled elsewhere (cancel,
	// shutdown) keeps its own error report.
	if _, err := r.store.UpdateStatus(storeCtx, jobID, domain.JobStatusCompleted, ""); err != nil {
		err = fmt.Errorf("failed to mark job completed: %w", err)
		r.fail(storeCtx, jobID, err, time.Since(start))
		return err
	}
	if err := r.store.SaveResult(storeCtx, jobID, report); err != nil {
		r.logger.Error("failed to save result",
			zap.String("job_id", jobID),
			zap.Error(err))
		return fmt.Errorf("failed to save result: %w", err)
	}

	duration := time.Since(start)
	r.metrics.RecordJobFinished(string(domain.JobStatusCompleted), duration)
	r.publish(storeCtx, jobID, domain.EventTypeJobCompleted, "", map[string]any{
		"score":    report.Combine.Summary.OverallScore,
		"warnings": len(report.Warnings) + len(report.CombineWarnings),
	})
	r.logger.Info("job completed",
		zap.String("job_id", jobID),
		zap.Int("score", report.Combine.Summary.OverallScore),
		zap.Duration("duration", duration))
	return nil
}

// execute runs the workflow and converts a panic into an error.
func (r *JobRunner) execute(ctx context.Context, jobID string, payload *domain.Payload) (report *domain.Report, err error) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("workflow panicked",
				zap.String("job_id", jobID),
				zap.Any("panic", p))
			report, err = nil, fmt.Errorf("workflow panicked: %v", p)
		}
	}()

	progress := func(ctx context.Context, agent string, res graph.NodeResult) {
		r.publish(context.WithoutCancel(ctx), jobID, domain.EventTypeNodeCompleted, agent, map[string]any{
			"warnings": len(res.Warnings),
		})
	}
	return r.workflow.ExecuteWithProgress(ctx, payload, progress)
}

// fail settles the job as failed. Jobs already settled elsewhere are left
// untouched, report included.
func (r *JobRunner) fail(ctx context.Context, jobID string, cause error, duration time.Duration) {
	msg := cause.Error()

	if _, err := r.store.UpdateStatus(ctx, jobID, domain.JobStatusFailed, msg); err != nil {
		r.logger.Warn("failed to mark job failed",
			zap.String("job_id", jobID),
			zap.String("cause", msg),
			zap.Error(err))
		return
	}
	r.logger.Error("job failed",
		zap.String("job_id", jobID),
		zap.Error(cause))

	if err := r.store.SaveResult(ctx, jobID, domain.ErrorReport(msg)); err != nil {
		r.logger.Error("failed to save error report",
			zap.String("job_id", jobID),
			zap.Error(err))
	}

	r.metrics.RecordJobFinished(string(domain.JobStatusFailed), duration)
	r.publish(ctx, jobID, domain.EventTypeJobFailed, "", map[string]any{"error": msg})
}

// publish publishes an event to the event bus
func (r *JobRunner) publish(ctx context.Context, jobID string, eventType domain.EventType, node string, data map[string]any) {
	event := domain.Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		JobID:     jobID,
		Node:      node,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}

	if err := r.eventBus.Publish(ctx, domain.TopicJobEvents, event); err != nil {
		r.logger.Error("failed to publish event",
			zap.String("job_id", jobID),
			zap.String("event_type", string(eventType)),
			zap.Error(err))
	}
}
