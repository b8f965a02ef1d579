// Package orchestrator accepts evaluation jobs and manages their lifecycle.
//
// The Manager validates payloads, persists new jobs, queues them on the
// worker pool, and owns each job's cancellation and deadline. The Validator
// rejects payloads that cannot be evaluated before a job is created.
package orchestrator
