package ports

import (
	"context"
	"errors"
	"time"

	"github.com/aescanero/pitchgraph/internal/domain"
)

// ErrJobNotFound is returned by a JobStore for unknown job IDs.
var ErrJobNotFound = errors.New("job not found")

// Generator produces raw text from a prompt using the named model.
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, model, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, model, prompt string) (string, error) {
	return f(ctx, model, prompt)
}

// Transcriber converts a media file to text with per-word timings.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (*domain.Transcription, error)
}

// PDFExtractor extracts per-page text from a PDF file.
type PDFExtractor interface {
	Extract(ctx context.Context, path string) (*domain.Document, error)
}

// JobStore persists jobs and their results. Implementations must be safe for
// concurrent use.
type JobStore interface {
	Create(ctx context.Context, job *domain.Job) error
	Get(ctx context.Context, jobID string) (*domain.Job, error)
	// UpdateStatus applies a lifecycle transition; illegal transitions fail.
	UpdateStatus(ctx context.Context, jobID string, status domain.JobStatus, errMsg string) (*domain.Job, error)
	SaveResult(ctx context.Context, jobID string, report *domain.Report) error
	GetResult(ctx context.Context, jobID string) (*domain.Report, error)
	List(ctx context.Context) ([]*domain.Job, error)
}

// EventHandler handles one event from the bus.
type EventHandler func(ctx context.Context, event domain.Event) error

// EventBus publishes job events and fans them out to subscribers.
type EventBus interface {
	Publish(ctx context.Context, topic string, event domain.Event) error
	// Subscribe registers handler and returns; delivery continues in the
	// background until ctx is cancelled.
	Subscribe(ctx context.Context, topic string, handler EventHandler) error
	Close() error
}

// MetricsCollector records service metrics.
type MetricsCollector interface {
	RecordJobSubmitted()
	RecordJobFinished(status string, duration time.Duration)
	SetActiveJobs(count int)
	RecordNodeExecuted(agent, status string, duration time.Duration)
	RecordWarnings(stage string, count int)
	RecordLLMCall(model, status string, duration time.Duration)
	RecordLLMRetry(model string)
	RecordLLMTokens(model, tokenType string, count int)
	SetQueueDepth(depth int)
	RecordWorkerPoolStatus(idle, busy, stopped int)
}
