// Package http provides the HTTP REST API implementation.
//
// The HTTP server exposes endpoints for:
//   - Job submission, with a transcript or uploaded media and deck
//   - Job status, results and cancellation
//   - Health checks
//   - Prometheus metrics
package http
