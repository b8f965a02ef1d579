package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aescanero/pitchgraph/internal/application/scoring"
	"github.com/aescanero/pitchgraph/internal/application/workflow"
	"github.com/aescanero/pitchgraph/internal/config"
	"github.com/aescanero/pitchgraph/internal/ports"
	eventsmemory "github.com/aescanero/pitchgraph/pkg/adapters/events/memory"
	eventsredis "github.com/aescanero/pitchgraph/pkg/adapters/events/redis"
	"github.com/aescanero/pitchgraph/pkg/adapters/llm"
	"github.com/aescanero/pitchgraph/pkg/adapters/pdf"
	storagememory "github.com/aescanero/pitchgraph/pkg/adapters/storage/memory"
	storageredis "github.com/aescanero/pitchgraph/pkg/adapters/storage/redis"
	"github.com/aescanero/pitchgraph/pkg/adapters/transcription/elevenlabs"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// backends bundles the job store and event bus along with the resources
// that must be released on shutdown.
type backends struct {
	store    ports.JobStore
	eventBus ports.EventBus
	close    func() error
}

func openBackends(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*backends, error) {
	if cfg.StoreBackend == config.StoreMemory {
		logger.Warn("using in-memory job store; jobs are lost on restart")
		bus := eventsmemory.NewInMemoryEventBus(logger)
		return &backends{
			store:    storagememory.NewJobStore(),
			eventBus: bus,
			close:    bus.Close,
		}, nil
	}

	redisClient := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		MaxRetries:   cfg.Redis.MaxRetries,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})

	if err := redisClient.Ping(ctx).Err(); err != nil {
		redisClient.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	logger.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr))

	bus := eventsredis.NewStreamsEventBus(redisClient, cfg.Redis.StreamMaxLength, logger)
	return &backends{
		store:    storageredis.NewJobStore(redisClient, cfg.Redis.JobTTL, logger),
		eventBus: bus,
		close: func() error {
			bus.Close()
			return redisClient.Close()
		},
	}, nil
}

// buildWorkflow assembles the evaluation graph and its adapters.
func buildWorkflow(cfg *config.Config, metrics ports.MetricsCollector, logger *zap.Logger) (*workflow.Orchestrator, error) {
	generator, err := llm.NewGenerator(&llm.Config{
		Provider:       cfg.LLM.Provider,
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		MaxTokens:      cfg.LLM.MaxTokens,
		Temperature:    cfg.LLM.Temperature,
		RequestTimeout: cfg.LLM.RequestTimeout,
		Retry: llm.RetryPolicy{
			MaxAttempts: cfg.LLM.MaxAttempts,
			MinWait:     cfg.LLM.RetryMinWait,
			MaxWait:     cfg.LLM.RetryMaxWait,
		},
		Metrics: metrics,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	strategy, err := scoring.New(cfg.Workflow.ScoringStrategy)
	if err != nil {
		return nil, err
	}

	opts := []workflow.Option{
		workflow.WithModels(cfg.LLM.Model, cfg.LLM.AudioModel),
		workflow.WithConcurrency(cfg.Workflow.NodeConcurrency),
		workflow.WithPDFExtractor(pdf.NewExtractor(logger)),
	}

	if cfg.Transcription.APIKey != "" {
		transcriber, err := elevenlabs.NewClient(elevenlabs.Config{
			APIKey:      cfg.Transcription.APIKey,
			BaseURL:     cfg.Transcription.BaseURL,
			Model:       cfg.Transcription.Model,
			Timeout:     cfg.Transcription.Timeout,
			MaxAttempts: cfg.LLM.MaxAttempts,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create transcription client: %w", err)
		}
		opts = append(opts, workflow.WithTranscriber(transcriber))
	} else {
		logger.Warn("ELEVENLABS_API_KEY not set; media uploads will fail")
	}

	if cfg.Workflow.PromptsFile != "" {
		data, err := os.ReadFile(cfg.Workflow.PromptsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read prompts file: %w", err)
		}
		prompts, err := workflow.LoadCatalogue(data)
		if err != nil {
			return nil, err
		}
		opts = append(opts, workflow.WithPrompts(prompts))
	}

	return workflow.NewOrchestrator(generator, strategy, metrics, logger, opts...)
}
