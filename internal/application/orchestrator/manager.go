package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aescanero/pitchgraph/internal/application/workers"
	"github.com/aescanero/pitchgraph/internal/domain"
	"github.com/aescanero/pitchgraph/internal/ports"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrInvalidPayload wraps payload validation failures.
	ErrInvalidPayload = errors.New("invalid payload")
	// ErrJobNotReady is returned by Result while the job is still pending or running.
	ErrJobNotReady = errors.New("job has not finished")
	// ErrJobFinished is returned by Cancel for jobs already in a terminal state.
	ErrJobFinished = errors.New("job already finished")
	// ErrShuttingDown is returned by Submit once Shutdown has started.
	ErrShuttingDown = errors.New("manager is shutting down")
)

// Queue accepts jobs for asynchronous execution.
type Queue interface {
	Enqueue(task workers.Task) error
}

// Manager accepts evaluation jobs and tracks them until they settle
type Manager struct {
	store     ports.JobStore
	eventBus  ports.EventBus
	queue     Queue
	metrics   ports.MetricsCollector
	validator *Validator
	logger    *zap.Logger

	// Track jobs owned by this process
	jobs sync.Map // map[string]*jobContext

	jobTimeout time.Duration

	mu      sync.RWMutex
	closing bool
}

// jobContext holds the cancellation handles of one queued or running job
type jobContext struct {
	cancel      context.CancelCauseFunc
	stopTimeout context.CancelFunc
}

// NewManager creates a new job manager. jobTimeout bounds a job from
// submission to completion, including time spent queued.
func NewManager(
	store ports.JobStore,
	eventBus ports.EventBus,
	queue Queue,
	metrics ports.MetricsCollector,
	validator *Validator,
	logger *zap.Logger,
	jobTimeout time.Duration,
) *Manager {
	return &Manager{
		store:      store,
		eventBus:   eventBus,
		queue:      queue,
		metrics:    metrics,
		validator:  validator,
		logger:     logger,
		jobTimeout: jobTimeout,
	}
}

// Submit validates payload and queues it as a new job.
func (m *Manager) Submit(ctx context.Context, payload *domain.Payload) (*domain.Job, error) {
	return m.SubmitWithID(ctx, uuid.NewString(), payload)
}

// SubmitWithID is Submit with a caller-chosen job ID, used when uploads are
// stored under the job ID before submission.
func (m *Manager) SubmitWithID(ctx context.Context, jobID string, payload *domain.Payload) (*domain.Job, error) {
	m.mu.RLock()
	closing := m.closing
	m.mu.RUnlock()
	if closing {
		return nil, ErrShuttingDown
	}

	if err := m.validator.Validate(payload); err != nil {
		m.logger.Warn("payload validation failed",
			zap.String("job_id", jobID),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	job := domain.NewJob(jobID, payload)
	if err := m.store.Create(ctx, job); err != nil {
		m.logger.Error("failed to create job",
			zap.String("job_id", jobID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	m.metrics.RecordJobSubmitted()
	m.publish(ctx, jobID, domain.EventTypeJobSubmitted, map[string]any{
		"target": job.Target,
	})

	base, cancel := context.WithCancelCause(context.Background())
	execCtx, stopTimeout := context.WithTimeoutCause(base, m.jobTimeout, domain.ErrJobTimeout)
	m.jobs.Store(jobID, &jobContext{cancel: cancel, stopTimeout: stopTimeout})

	task := workers.Task{
		Ctx:     execCtx,
		JobID:   jobID,
		Payload: payload,
		OnDone:  func() { m.release(jobID) },
	}
	if err := m.queue.Enqueue(task); err != nil {
		m.release(jobID)
		m.settleFailed(context.WithoutCancel(ctx), jobID, err.Error())
		m.logger.Warn("job rejected by queue",
			zap.String("job_id", jobID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to enqueue job: %w", err)
	}

	m.logger.Info("job submitted",
		zap.String("job_id", jobID),
		zap.String("target", job.Target),
		zap.Bool("media", payload.HasMedia()),
		zap.Bool("deck", payload.HasDeck()))

	return job, nil
}

// Status returns the current job record.
func (m *Manager) Status(ctx context.Context, jobID string) (*domain.Job, error) {
	job, err := m.store.Get(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

// Result returns the report of a finished job. Failed jobs return their
// error report; unfinished jobs return ErrJobNotReady.
func (m *Manager) Result(ctx context.Context, jobID string) (*domain.Job, *domain.Report, error) {
	job, err := m.Status(ctx, jobID)
	if err != nil {
		return nil, nil, err
	}
	if !job.Status.IsTerminal() {
		return job, nil, fmt.Errorf("%w: status is %s", ErrJobNotReady, job.Status)
	}

	report, err := m.store.GetResult(ctx, jobID)
	if err != nil {
		if errors.Is(err, ports.ErrJobNotFound) && job.Status == domain.JobStatusFailed {
			return job, domain.ErrorReport(job.Error), nil
		}
		return job, nil, fmt.Errorf("failed to get result: %w", err)
	}
	return job, report, nil
}

// List returns all known jobs, newest first.
func (m *Manager) List(ctx context.Context) ([]*domain.Job, error) {
	jobs, err := m.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return jobs, nil
}

// Cancel stops a queued or running job. A queued job fails immediately;
// a running job fails once its workflow observes the cancellation.
func (m *Manager) Cancel(ctx context.Context, jobID string) error {
	job, err := m.Status(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status.IsTerminal() {
		return fmt.Errorf("%w: status is %s", ErrJobFinished, job.Status)
	}

	tracked := false
	if val, ok := m.jobs.Load(jobID); ok {
		val.(*jobContext).cancel(domain.ErrJobCancelled)
		tracked = true
	}

	// Running jobs owned by this process are settled by their runner.
	if job.Status == domain.JobStatusPending || !tracked {
		m.settleFailed(ctx, jobID, domain.ErrJobCancelled.Error())
	}

	m.logger.Info("job cancelled",
		zap.String("job_id", jobID),
		zap.String("status", string(job.Status)))

	return nil
}

// settleFailed marks a job failed outside of the runner.
func (m *Manager) settleFailed(ctx context.Context, jobID, msg string) {
	if _, err := m.store.UpdateStatus(ctx, jobID, domain.JobStatusFailed, msg); err != nil {
		m.logger.Warn("failed to mark job failed",
			zap.String("job_id", jobID),
			zap.Error(err))
		return
	}
	if err := m.store.SaveResult(ctx, jobID, domain.ErrorReport(msg)); err != nil {
		m.logger.Error("failed to save error report",
			zap.String("job_id", jobID),
			zap.Error(err))
	}
	m.metrics.RecordJobFinished(string(domain.JobStatusFailed), 0)
	m.publish(ctx, jobID, domain.EventTypeJobFailed, map[string]any{"error": msg})
}

// release drops the job's cancellation handles
func (m *Manager) release(jobID string) {
	val, ok := m.jobs.LoadAndDelete(jobID)
	if !ok {
		return
	}
	jc := val.(*jobContext)
	jc.stopTimeout()
	jc.cancel(nil)
}

// Tracked returns the number of jobs this manager is still tracking.
func (m *Manager) Tracked() int {
	n := 0
	m.jobs.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// publish publishes an event to the event bus
func (m *Manager) publish(ctx context.Context, jobID string, eventType domain.EventType, data map[string]any) {
	event := domain.Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		JobID:     jobID,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}

	if err := m.eventBus.Publish(ctx, domain.TopicJobEvents, event); err != nil {
		m.logger.Error("failed to publish event",
			zap.String("job_id", jobID),
			zap.String("event_type", string(eventType)),
			zap.Error(err))
	}
}

// Shutdown stops accepting jobs and cancels every job still tracked.
// Running jobs are settled by their runners; jobs that never left the
// queue are failed here. Call it before draining the worker pool.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.logger.Info("shutting down job manager")

	m.mu.Lock()
	m.closing = true
	m.mu.Unlock()

	var queued []string
	cancelled := 0
	m.jobs.Range(func(key, value any) bool {
		value.(*jobContext).cancel(domain.ErrJobCancelled)
		cancelled++

		jobID := key.(string)
		if job, err := m.store.Get(ctx, jobID); err == nil && job.Status == domain.JobStatusPending {
			queued = append(queued, jobID)
		}
		return true
	})
	for _, jobID := range queued {
		m.settleFailed(ctx, jobID, domain.ErrJobCancelled.Error())
	}

	m.logger.Info("job manager shut down complete",
		zap.Int("cancelled_jobs", cancelled))
	return nil
}
