// Package domain holds the data types shared across pitchgraph: jobs and
// their payloads, agent output records, the combined report and the events
// published while a job runs.
package domain
