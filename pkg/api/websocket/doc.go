// Package websocket provides real-time event streaming via WebSocket.
//
// Clients connect to /api/v1/jobs/:id/ws and receive the job's lifecycle
// and per-agent events until the job completes or fails.
package websocket
