package domain

import (
	"errors"
	"fmt"
	"time"
)

// Causes recorded on jobs that did not run to completion.
var (
	ErrJobCancelled = errors.New("job cancelled")
	ErrJobTimeout   = errors.New("job timed out")
)

// JobStatus is the lifecycle state of an evaluation job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// IsTerminal reports whether no further transition is allowed.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// CanTransition reports whether from -> to is a legal job transition.
// pending -> running -> {completed, failed}; a pending job may also fail
// directly when it is cancelled before a worker picks it up.
func CanTransition(from, to JobStatus) bool {
	switch from {
	case JobStatusPending:
		return to == JobStatusRunning || to == JobStatusFailed
	case JobStatusRunning:
		return to == JobStatusCompleted || to == JobStatusFailed
	default:
		return false
	}
}

// Job is the persisted record of one evaluation request.
type Job struct {
	ID          string     `json:"id"`
	Target      string     `json:"target"`
	Status      JobStatus  `json:"status"`
	Input       *Payload   `json:"input,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// NewJob creates a pending job.
func NewJob(id string, payload *Payload) *Job {
	now := time.Now().UTC()
	job := &Job{
		ID:        id,
		Status:    JobStatusPending,
		Input:     payload,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if payload != nil {
		job.Target = payload.Target
	}
	return job
}

// Transition moves the job to status, stamping timestamps. errMsg is kept
// only for failed jobs.
func (j *Job) Transition(status JobStatus, errMsg string, at time.Time) error {
	if !CanTransition(j.Status, status) {
		return fmt.Errorf("invalid job transition %s -> %s", j.Status, status)
	}
	j.Status = status
	j.UpdatedAt = at
	switch status {
	case JobStatusRunning:
		j.StartedAt = &at
	case JobStatusCompleted:
		j.CompletedAt = &at
	case JobStatusFailed:
		j.CompletedAt = &at
		j.Error = errMsg
	}
	return nil
}
