package prometheus

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollectorRecordsJobAndNodeMetrics(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	c.RecordJobSubmitted()
	c.RecordJobSubmitted()
	c.RecordJobFinished("completed", 3*time.Second)
	c.RecordNodeExecuted("deck", "completed", time.Second)
	c.RecordWarnings("combine", 2)
	c.RecordWarnings("combine", 0)
	c.RecordLLMCall("claude", "error", time.Second)
	c.RecordLLMRetry("claude")
	c.RecordLLMTokens("claude", "input", 120)
	c.RecordWorkerPoolStatus(3, 1, 0)

	if got := testutil.ToFloat64(c.jobsSubmitted); got != 2 {
		t.Fatalf("jobs submitted = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.jobsFinished.WithLabelValues("completed")); got != 1 {
		t.Fatalf("jobs completed = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.nodesExecuted.WithLabelValues("deck", "completed")); got != 1 {
		t.Fatalf("deck nodes = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.warnings.WithLabelValues("combine")); got != 2 {
		t.Fatalf("combine warnings = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.llmTokens.WithLabelValues("claude", "input")); got != 120 {
		t.Fatalf("input tokens = %v, want 120", got)
	}
	if got := testutil.ToFloat64(c.workerPoolIdle); got != 3 {
		t.Fatalf("idle workers = %v, want 3", got)
	}
}

func TestCollectorsUseSeparateRegistries(t *testing.T) {
	// Two collectors on distinct registries must not collide.
	NewCollector(prometheus.NewRegistry())
	NewCollector(prometheus.NewRegistry())
}
