package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aescanero/pitchgraph/internal/domain"
	"github.com/aescanero/pitchgraph/internal/ports"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	jobKeyPrefix    = "pitchgraph:job:"
	resultKeyPrefix = "pitchgraph:result:"
	maxTxRetries    = 5
)

// getter is satisfied by both *redis.Client and *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// JobStore implements ports.JobStore using Redis
type JobStore struct {
	client *redis.Client
	logger *zap.Logger
	ttl    time.Duration
}

// NewJobStore creates a new Redis job store. Keys expire after ttl; zero
// keeps them forever.
func NewJobStore(client *redis.Client, ttl time.Duration, logger *zap.Logger) *JobStore {
	return &JobStore{
		client: client,
		logger: logger,
		ttl:    ttl,
	}
}

// Create stores a new job; it fails if the ID is taken
func (s *JobStore) Create(ctx context.Context, job *domain.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	ok, err := s.client.SetNX(ctx, getJobKey(job.ID), data, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}
	if !ok {
		return fmt.Errorf("job already exists: %s", job.ID)
	}

	s.logger.Debug("job created", zap.String("job_id", job.ID))
	return nil
}

// Get retrieves a job
func (s *JobStore) Get(ctx context.Context, jobID string) (*domain.Job, error) {
	return s.get(ctx, s.client, jobID)
}

// UpdateStatus applies the transition optimistically with WATCH/MULTI so
// concurrent updates of the same job cannot interleave.
func (s *JobStore) UpdateStatus(ctx context.Context, jobID string, status domain.JobStatus, errMsg string) (*domain.Job, error) {
	key := getJobKey(jobID)
	var updated *domain.Job

	txf := func(tx *redis.Tx) error {
		job, err := s.get(ctx, tx, jobID)
		if err != nil {
			return err
		}
		if err := job.Transition(status, errMsg, time.Now().UTC()); err != nil {
			return err
		}
		data, err := json.Marshal(job)
		if err != nil {
			return fmt.Errorf("failed to marshal job: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, redis.KeepTTL)
			return nil
		})
		if err == nil {
			updated = job
		}
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}

		s.logger.Debug("job status updated",
			zap.String("job_id", jobID),
			zap.String("status", string(status)))
		return updated, nil
	}
	return nil, fmt.Errorf("failed to update job %s: too much contention", jobID)
}

// SaveResult stores the report of a job
func (s *JobStore) SaveResult(ctx context.Context, jobID string, report *domain.Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := s.client.Set(ctx, getResultKey(jobID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

// GetResult retrieves the report of a job
func (s *JobStore) GetResult(ctx context.Context, jobID string) (*domain.Report, error) {
	data, err := s.client.Get(ctx, getResultKey(jobID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: no result for %s", ports.ErrJobNotFound, jobID)
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	var report domain.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	return &report, nil
}

// List returns all stored jobs, newest first
func (s *JobStore) List(ctx context.Context) ([]*domain.Job, error) {
	var cursor uint64
	var keys []string

	for {
		var batch []string
		var err error

		batch, cursor, err = s.client.Scan(ctx, cursor, jobKeyPrefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan keys: %w", err)
		}

		keys = append(keys, batch...)

		if cursor == 0 {
			break
		}
	}

	jobs := make([]*domain.Job, 0, len(keys))
	for _, key := range keys {
		data, err := s.client.Get(ctx, key).Bytes()
		if err != nil {
			continue
		}

		var job domain.Job
		if err := json.Unmarshal(data, &job); err != nil {
			s.logger.Warn("skipping unreadable job", zap.String("key", key), zap.Error(err))
			continue
		}
		jobs = append(jobs, &job)
	}

	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
	return jobs, nil
}

func (s *JobStore) get(ctx context.Context, c getter, jobID string) (*domain.Job, error) {
	data, err := c.Get(ctx, getJobKey(jobID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", ports.ErrJobNotFound, jobID)
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	var job domain.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	return &job, nil
}

func getJobKey(jobID string) string {
	return jobKeyPrefix + jobID
}

func getResultKey(jobID string) string {
	return resultKeyPrefix + jobID
}
