package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector implements MetricsCollector using Prometheus
type Collector struct {
	jobsSubmitted     prometheus.Counter
	jobsFinished      *prometheus.CounterVec
	jobDuration       prometheus.Histogram
	activeJobs        prometheus.Gauge
	nodesExecuted     *prometheus.CounterVec
	nodeDuration      *prometheus.HistogramVec
	warnings          *prometheus.CounterVec
	llmCalls          *prometheus.CounterVec
	llmLatency        *prometheus.HistogramVec
	llmRetries        *prometheus.CounterVec
	llmTokens         *prometheus.CounterVec
	queueDepth        prometheus.Gauge
	workerPoolIdle    prometheus.Gauge
	workerPoolBusy    prometheus.Gauge
	workerPoolStopped prometheus.Gauge
}

// NewCollector creates a new Prometheus metrics collector registered on reg.
// Pass prometheus.DefaultRegisterer to expose metrics on /metrics.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		jobsSubmitted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "pitchgraph_jobs_submitted_total",
				Help: "Total number of evaluation jobs submitted",
			},
		),
		jobsFinished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pitchgraph_jobs_finished_total",
				Help: "Total number of evaluation jobs that reached a terminal state",
			},
			[]string{"status"},
		),
		jobDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pitchgraph_job_duration_seconds",
				Help:    "Evaluation job duration in seconds",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
			},
		),
		activeJobs: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "pitchgraph_active_jobs",
				Help: "Number of currently running jobs",
			},
		),
		nodesExecuted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pitchgraph_nodes_executed_total",
				Help: "Total number of agent nodes executed",
			},
			[]string{"agent", "status"},
		),
		nodeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pitchgraph_node_duration_seconds",
				Help:    "Agent node execution duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"agent"},
		),
		warnings: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pitchgraph_warnings_total",
				Help: "Total number of recovered anomalies recorded as warnings",
			},
			[]string{"stage"},
		),
		llmCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pitchgraph_llm_calls_total",
				Help: "Total number of LLM API calls",
			},
			[]string{"model", "status"},
		),
		llmLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pitchgraph_llm_latency_seconds",
				Help:    "LLM API call latency in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 20, 60},
			},
			[]string{"model"},
		),
		llmRetries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pitchgraph_llm_retries_total",
				Help: "Total number of retried LLM API calls",
			},
			[]string{"model"},
		),
		llmTokens: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pitchgraph_llm_tokens_total",
				Help: "Total number of LLM tokens used",
			},
			[]string{"model", "type"},
		),
		queueDepth: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "pitchgraph_queue_depth",
				Help: "Number of jobs waiting for a worker",
			},
		),
		workerPoolIdle: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "pitchgraph_worker_pool_idle",
				Help: "Number of idle workers",
			},
		),
		workerPoolBusy: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "pitchgraph_worker_pool_busy",
				Help: "Number of busy workers",
			},
		),
		workerPoolStopped: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "pitchgraph_worker_pool_stopped",
				Help: "Number of stopped workers",
			},
		),
	}
}

// RecordJobSubmitted records a job submission
func (c *Collector) RecordJobSubmitted() {
	c.jobsSubmitted.Inc()
}

// RecordJobFinished records a job reaching a terminal state
func (c *Collector) RecordJobFinished(status string, duration time.Duration) {
	c.jobsFinished.WithLabelValues(status).Inc()
	c.jobDuration.Observe(duration.Seconds())
}

// SetActiveJobs sets the number of currently running jobs
func (c *Collector) SetActiveJobs(count int) {
	c.activeJobs.Set(float64(count))
}

// RecordNodeExecuted records an agent node execution
func (c *Collector) RecordNodeExecuted(agent, status string, duration time.Duration) {
	c.nodesExecuted.WithLabelValues(agent, status).Inc()
	c.nodeDuration.WithLabelValues(agent).Observe(duration.Seconds())
}

// RecordWarnings adds count warnings for a stage
func (c *Collector) RecordWarnings(stage string, count int) {
	if count <= 0 {
		return
	}
	c.warnings.WithLabelValues(stage).Add(float64(count))
}

// RecordLLMCall records an LLM API call and its latency
func (c *Collector) RecordLLMCall(model, status string, duration time.Duration) {
	c.llmCalls.WithLabelValues(model, status).Inc()
	c.llmLatency.WithLabelValues(model).Observe(duration.Seconds())
}

// RecordLLMRetry records a retried LLM API call
func (c *Collector) RecordLLMRetry(model string) {
	c.llmRetries.WithLabelValues(model).Inc()
}

// RecordLLMTokens adds count tokens of the given type (input/output)
func (c *Collector) RecordLLMTokens(model, tokenType string, count int) {
	c.llmTokens.WithLabelValues(model, tokenType).Add(float64(count))
}

// SetQueueDepth sets the number of queued jobs
func (c *Collector) SetQueueDepth(depth int) {
	c.queueDepth.Set(float64(depth))
}

// RecordWorkerPoolStatus records worker pool status
func (c *Collector) RecordWorkerPoolStatus(idle, busy, stopped int) {
	c.workerPoolIdle.Set(float64(idle))
	c.workerPoolBusy.Set(float64(busy))
	c.workerPoolStopped.Set(float64(stopped))
}
