// Package metrics provides metrics collector implementations.
//
// Implementations:
//   - prometheus: Prometheus counters, gauges and histograms
package metrics
