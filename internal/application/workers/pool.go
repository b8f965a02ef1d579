package workers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aescanero/pitchgraph/internal/domain"
	"github.com/aescanero/pitchgraph/internal/ports"
	"go.uber.org/zap"
)

var (
	// ErrQueueFull is returned by Enqueue when no queue slot is free.
	ErrQueueFull = errors.New("job queue is full")
	// ErrPoolStopped is returned by Enqueue after Shutdown.
	ErrPoolStopped = errors.New("worker pool is stopped")
)

// Executor runs one job to a terminal state.
type Executor interface {
	Run(ctx context.Context, jobID string, payload *domain.Payload) error
}

// Task is a queued job. Ctx carries the job's deadline and cancellation.
// OnDone, when set, is called after the executor returns.
type Task struct {
	Ctx     context.Context
	JobID   string
	Payload *domain.Payload
	OnDone  func()
}

// Pool manages a pool of worker goroutines consuming the job queue
type Pool struct {
	size     int
	queue    chan Task
	executor Executor
	metrics  ports.MetricsCollector
	logger   *zap.Logger
	health   *HealthMonitor

	workers []*worker
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc

	mu      sync.RWMutex
	stopped bool
}

// worker represents a single worker goroutine
type worker struct {
	id      string
	pool    *Pool
	status  WorkerStatus
	mu      sync.RWMutex
	lastJob time.Time
}

// WorkerStatus represents worker status
type WorkerStatus string

const (
	WorkerStatusIdle    WorkerStatus = "idle"
	WorkerStatusBusy    WorkerStatus = "busy"
	WorkerStatusStopped WorkerStatus = "stopped"
)

// NewPool creates a new worker pool
func NewPool(
	size, queueSize int,
	executor Executor,
	metrics ports.MetricsCollector,
	logger *zap.Logger,
	healthCheckInterval time.Duration,
) *Pool {
	ctx, cancel := context.WithCancel(context.Background())

	pool := &Pool{
		size:     size,
		queue:    make(chan Task, queueSize),
		executor: executor,
		metrics:  metrics,
		logger:   logger,
		workers:  make([]*worker, size),
		ctx:      ctx,
		cancel:   cancel,
	}

	pool.health = NewHealthMonitor(pool, healthCheckInterval, logger)

	return pool
}

// Health returns the pool's health monitor.
func (p *Pool) Health() *HealthMonitor {
	return p.health
}

// Start starts the worker pool
func (p *Pool) Start() error {
	p.logger.Info("starting worker pool",
		zap.Int("size", p.size),
		zap.Int("queue_size", cap(p.queue)))

	for i := 0; i < p.size; i++ {
		w := &worker{
			id:      fmt.Sprintf("worker-%d", i),
			pool:    p,
			status:  WorkerStatusIdle,
			lastJob: time.Now(),
		}
		p.workers[i] = w

		p.wg.Add(1)
		go w.run(p.ctx)
	}

	p.health.Start()

	p.logger.Info("worker pool started", zap.Int("workers", p.size))
	return nil
}

// Enqueue hands a job to the pool without blocking.
func (p *Pool) Enqueue(task Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return ErrPoolStopped
	}

	select {
	case p.queue <- task:
		p.metrics.SetQueueDepth(len(p.queue))
		return nil
	default:
		return ErrQueueFull
	}
}

// QueueDepth returns the number of jobs waiting for a worker.
func (p *Pool) QueueDepth() int {
	return len(p.queue)
}

// Shutdown stops accepting jobs and waits for running jobs to return.
// Queued jobs that were not started stay pending.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.logger.Info("shutting down worker pool")

	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()

	p.health.Stop()
	p.cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("worker pool shut down complete",
			zap.Int("abandoned_jobs", len(p.queue)))
		return nil
	case <-ctx.Done():
		return fmt.Errorf("shutdown timeout")
	}
}

// GetStatus returns the status of all workers
func (p *Pool) GetStatus() map[string]WorkerStatus {
	status := make(map[string]WorkerStatus)
	for _, w := range p.workers {
		if w == nil {
			continue
		}
		w.mu.RLock()
		status[w.id] = w.status
		w.mu.RUnlock()
	}
	return status
}

// run is the main worker loop
func (w *worker) run(ctx context.Context) {
	defer w.pool.wg.Done()

	w.pool.logger.Info("worker started", zap.String("worker_id", w.id))

	for {
		select {
		case <-ctx.Done():
			w.setStatus(WorkerStatusStopped)
			w.pool.logger.Info("worker stopped", zap.String("worker_id", w.id))
			return
		case task := <-w.pool.queue:
			w.pool.metrics.SetQueueDepth(len(w.pool.queue))
			w.handle(task)
		}
	}
}

// handle runs one job on this worker
func (w *worker) handle(task Task) {
	w.mu.Lock()
	w.status = WorkerStatusBusy
	w.lastJob = time.Now()
	w.mu.Unlock()
	defer w.setStatus(WorkerStatusIdle)

	if task.OnDone != nil {
		defer task.OnDone()
	}

	ctx := task.Ctx
	if ctx == nil {
		ctx = context.Background()
	}

	w.pool.logger.Info("executing job",
		zap.String("worker_id", w.id),
		zap.String("job_id", task.JobID))

	if err := w.pool.executor.Run(ctx, task.JobID, task.Payload); err != nil {
		w.pool.logger.Warn("job did not complete",
			zap.String("worker_id", w.id),
			zap.String("job_id", task.JobID),
			zap.Error(err))
	}
}

func (w *worker) setStatus(s WorkerStatus) {
	w.mu.Lock()
	w.status = s
	w.mu.Unlock()
}
