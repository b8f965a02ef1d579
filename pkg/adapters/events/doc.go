// Package events provides event bus implementations.
//
// Implementations:
//   - redis: Redis Streams, one independent reader per subscriber
//   - memory: In-process fan-out for single-process deployments and tests
package events
