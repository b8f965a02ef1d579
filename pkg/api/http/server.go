package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aescanero/pitchgraph/internal/application/orchestrator"
	"github.com/aescanero/pitchgraph/internal/application/workers"
	"github.com/aescanero/pitchgraph/pkg/adapters/storage/files"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server represents the HTTP API server
type Server struct {
	router         *gin.Engine
	server         *http.Server
	manager        *orchestrator.Manager
	uploads        *files.UploadStore
	analyzer       Analyzer
	health         *workers.HealthMonitor
	maxUploadBytes int64
	logger         *zap.Logger
}

// Config holds HTTP server configuration
type Config struct {
	Port    int
	Manager *orchestrator.Manager
	Uploads *files.UploadStore
	// Analyzer is optional; without it the analyze routes answer 503.
	Analyzer Analyzer
	// Health is optional; without it /health always reports healthy.
	Health *workers.HealthMonitor
	// Gatherer backs /metrics; nil uses the default registry.
	Gatherer       prometheus.Gatherer
	CORSOrigins    []string
	MaxUploadBytes int64
	Logger         *zap.Logger
}

// NewServer creates a new HTTP server
func NewServer(cfg *Config) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(cfg.Logger))
	router.Use(corsMiddleware(cfg.CORSOrigins))

	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	maxUpload := cfg.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = 200 << 20
	}

	s := &Server{
		router:         router,
		manager:        cfg.Manager,
		uploads:        cfg.Uploads,
		analyzer:       cfg.Analyzer,
		health:         cfg.Health,
		maxUploadBytes: maxUpload,
		logger:         cfg.Logger,
	}

	s.setupRoutes(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// setupRoutes configures API routes
func (s *Server) setupRoutes(metrics http.Handler) {
	// Health check
	s.router.GET("/health", s.handleHealth)

	// Metrics
	s.router.GET("/metrics", gin.WrapH(metrics))

	// API v1
	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/jobs", s.handleSubmitJob)
		v1.POST("/jobs/upload", s.handleUploadJob)
		v1.GET("/jobs", s.handleListJobs)
		v1.GET("/jobs/:id", s.handleGetJob)
		v1.GET("/jobs/:id/result", s.handleGetResult)
		v1.POST("/jobs/:id/cancel", s.handleCancelJob)
		v1.POST("/analyze", s.handleAnalyzeSpeech)
		v1.POST("/analyze-pdf", s.handleAnalyzeDeck)
	}
}

// SetupWebSocket adds the job event stream handler to the server
func (s *Server) SetupWebSocket(handler interface {
	HandleJobStream(*gin.Context)
}) {
	s.router.GET("/api/v1/jobs/:id/ws", handler.HandleJobStream)
}

// Handler returns the HTTP handler serving the API.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	s.logger.Info("HTTP server shut down complete")
	return nil
}

// requestLogger is a middleware for request logging
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		duration := time.Since(start)

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", duration),
			zap.String("client_ip", c.ClientIP()))
	}
}
