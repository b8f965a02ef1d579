package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aescanero/pitchgraph/internal/application/orchestrator"
	"github.com/aescanero/pitchgraph/internal/application/workers"
	"github.com/aescanero/pitchgraph/internal/config"
	"github.com/aescanero/pitchgraph/pkg/adapters/metrics/prometheus"
	"github.com/aescanero/pitchgraph/pkg/adapters/storage/files"
	"github.com/aescanero/pitchgraph/pkg/api/grpc"
	"github.com/aescanero/pitchgraph/pkg/api/http"
	"github.com/aescanero/pitchgraph/pkg/api/websocket"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP, WebSocket and gRPC servers with the worker pool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger := initLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("starting pitchgraph",
		zap.String("version", Version),
		zap.String("build_time", BuildTime))

	// Initialize adapters
	be, err := openBackends(ctx, cfg, logger)
	if err != nil {
		return err
	}

	metricsCollector := prometheus.NewCollector(promclient.DefaultRegisterer)

	wf, err := buildWorkflow(cfg, metricsCollector, logger)
	if err != nil {
		be.close()
		return err
	}

	uploads, err := files.NewUploadStore(cfg.DataDir, logger)
	if err != nil {
		be.close()
		return err
	}

	// Initialize application components
	runner := workers.NewJobRunner(wf, be.store, be.eventBus, metricsCollector, logger)

	workerPool := workers.NewPool(
		cfg.Workers.PoolSize,
		cfg.Workers.QueueSize,
		runner,
		metricsCollector,
		logger,
		cfg.Workers.HealthCheckInterval,
	)

	manager := orchestrator.NewManager(
		be.store,
		be.eventBus,
		workerPool,
		metricsCollector,
		orchestrator.NewValidator(0),
		logger,
		cfg.Timeouts.JobTimeout,
	)

	// Initialize API servers
	grpcServer, err := grpc.NewServer(&grpc.Config{
		Port:   cfg.GRPCPort,
		Logger: logger,
	})
	if err != nil {
		be.close()
		return fmt.Errorf("failed to create gRPC server: %w", err)
	}
	workerPool.Health().OnChange(grpcServer.SetServing)

	if err := workerPool.Start(); err != nil {
		be.close()
		return fmt.Errorf("failed to start worker pool: %w", err)
	}

	httpServer := http.NewServer(&http.Config{
		Port:           cfg.HTTPPort,
		Manager:        manager,
		Uploads:        uploads,
		Analyzer:       wf,
		Health:         workerPool.Health(),
		Gatherer:       promclient.DefaultGatherer,
		CORSOrigins:    cfg.CORSOrigins,
		MaxUploadBytes: cfg.MaxUploadBytes,
		Logger:         logger,
	})
	httpServer.SetupWebSocket(websocket.NewHandler(be.eventBus, manager, logger))

	errCh := make(chan error, 2)
	go func() {
		if err := httpServer.Start(); err != nil {
			errCh <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()
	go func() {
		if err := grpcServer.Start(); err != nil {
			errCh <- fmt.Errorf("gRPC server failed: %w", err)
		}
	}()

	logger.Info("pitchgraph started",
		zap.Int("http_port", cfg.HTTPPort),
		zap.Int("grpc_port", cfg.GRPCPort),
		zap.Int("worker_pool_size", cfg.Workers.PoolSize),
		zap.String("store_backend", cfg.StoreBackend),
		zap.String("scoring", cfg.Workflow.ScoringStrategy))

	// Wait for interrupt signal or a server failure
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var runErr error
	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case runErr = <-errCh:
		logger.Error("server failed", zap.Error(runErr))
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeouts.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	// Running jobs settle as failed before the workers drain.
	if err := manager.Shutdown(shutdownCtx); err != nil {
		logger.Error("job manager shutdown error", zap.Error(err))
	}

	if err := workerPool.Shutdown(shutdownCtx); err != nil {
		logger.Error("worker pool shutdown error", zap.Error(err))
	}

	if err := grpcServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("gRPC server shutdown error", zap.Error(err))
	}

	if err := be.close(); err != nil {
		logger.Error("backend close error", zap.Error(err))
	}

	logger.Info("pitchgraph shut down complete")
	return runErr
}
