// Package storage provides job store implementations.
//
// Implementations:
//   - redis: Redis with JSON serialization, TTL and optimistic transactions
//   - memory: In-memory for single-process deployments and tests
//   - files: local persistence of uploaded media and decks
package storage
