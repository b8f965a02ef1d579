package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aescanero/pitchgraph/internal/domain"
	"github.com/aescanero/pitchgraph/internal/ports"
)

// JobStore implements ports.JobStore using in-memory maps. It backs the
// single-process deployment and the tests.
type JobStore struct {
	jobs    map[string]*domain.Job
	results map[string]*domain.Report
	mu      sync.RWMutex
	now     func() time.Time
}

// NewJobStore creates a new in-memory job store
func NewJobStore() *JobStore {
	return &JobStore{
		jobs:    make(map[string]*domain.Job),
		results: make(map[string]*domain.Report),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a new job
func (s *JobStore) Create(ctx context.Context, job *domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.ID]; exists {
		return fmt.Errorf("job already exists: %s", job.ID)
	}
	jobCopy := *job
	s.jobs[job.ID] = &jobCopy
	return nil
}

// Get returns a copy of the job
func (s *JobStore) Get(ctx context.Context, jobID string) (*domain.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ports.ErrJobNotFound, jobID)
	}
	jobCopy := *job
	return &jobCopy, nil
}

// UpdateStatus transitions the job under the store lock
func (s *JobStore) UpdateStatus(ctx context.Context, jobID string, status domain.JobStatus, errMsg string) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ports.ErrJobNotFound, jobID)
	}
	if err := job.Transition(status, errMsg, s.now()); err != nil {
		return nil, err
	}
	jobCopy := *job
	return &jobCopy, nil
}

// SaveResult stores the report of a job
func (s *JobStore) SaveResult(ctx context.Context, jobID string, report *domain.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[jobID]; !ok {
		return fmt.Errorf("%w: %s", ports.ErrJobNotFound, jobID)
	}
	s.results[jobID] = report
	return nil
}

// GetResult returns the stored report, or ErrJobNotFound when none exists
func (s *JobStore) GetResult(ctx context.Context, jobID string) (*domain.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report, ok := s.results[jobID]
	if !ok {
		return nil, fmt.Errorf("%w: no result for %s", ports.ErrJobNotFound, jobID)
	}
	return report, nil
}

// List returns all jobs, newest first
func (s *JobStore) List(ctx context.Context) ([]*domain.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]*domain.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobCopy := *job
		jobs = append(jobs, &jobCopy)
	}
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
	return jobs, nil
}
