// Package workers runs evaluation jobs on a bounded pool of goroutines.
//
// The pool consumes a buffered job queue. Each worker hands a job to a
// JobRunner, which:
//   - moves the job to running and publishes job.running
//   - executes the agent workflow, publishing node.completed per agent
//   - stores the report (or an error report) and settles the job as
//     completed or failed
//
// The health monitor tracks worker status, records pool metrics, and
// notifies listeners when the pool flips between healthy and unhealthy.
package workers
