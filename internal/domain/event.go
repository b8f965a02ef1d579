package domain

import "time"

// EventType identifies a job lifecycle event.
type EventType string

const (
	EventTypeJobSubmitted  EventType = "job.submitted"
	EventTypeJobRunning    EventType = "job.running"
	EventTypeJobCompleted  EventType = "job.completed"
	EventTypeJobFailed     EventType = "job.failed"
	EventTypeNodeCompleted EventType = "node.completed"
)

// TopicJobEvents is the event bus topic carrying every job event.
const TopicJobEvents = "job.events"

// Event is published on the event bus while a job runs.
type Event struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	JobID     string         `json:"job_id"`
	Node      string         `json:"node,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}
