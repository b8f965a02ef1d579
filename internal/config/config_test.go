package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LLM_API_KEY", "test-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPPort != 8080 || cfg.GRPCPort != 9090 || cfg.StoreBackend != StoreRedis {
		t.Fatalf("unexpected server defaults: %+v", cfg)
	}
	if cfg.LLM.MaxAttempts != 5 || cfg.LLM.RetryMinWait != time.Second || cfg.LLM.RetryMaxWait != 5*time.Second {
		t.Fatalf("unexpected retry defaults: %+v", cfg.LLM)
	}
	if cfg.Workflow.ScoringStrategy != "penalty" || cfg.Transcription.Model != "scribe_v1" {
		t.Fatalf("unexpected workflow defaults: %+v %+v", cfg.Workflow, cfg.Transcription)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Fatalf("CORS origins = %v", cfg.CORSOrigins)
	}
	if cfg.GetHTTPAddr() != ":8080" || cfg.GetGRPCAddr() != ":9090" {
		t.Fatalf("unexpected addresses %s %s", cfg.GetHTTPAddr(), cfg.GetGRPCAddr())
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LLM_API_KEY", "test-key")
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("SCORING_STRATEGY", "weighted")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test,http://b.test")
	t.Setenv("WORKER_POOL_SIZE", "2")
	t.Setenv("TIMEOUT_JOB", "90s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.StoreBackend != StoreMemory || cfg.Workflow.ScoringStrategy != "weighted" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://b.test" {
		t.Fatalf("CORS origins = %v", cfg.CORSOrigins)
	}
	if cfg.Workers.PoolSize != 2 || cfg.Timeouts.JobTimeout != 90*time.Second {
		t.Fatalf("unexpected values: %+v %+v", cfg.Workers, cfg.Timeouts)
	}
}

func TestLoadRequiresAPIKey(t *testing.T) {
	t.Setenv("LLM_API_KEY", "")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "API key") {
		t.Fatalf("expected missing API key error, got %v", err)
	}
}

func validConfig() *Config {
	return &Config{
		HTTPPort:     8080,
		GRPCPort:     9090,
		LogLevel:     "info",
		DataDir:      "./data",
		StoreBackend: StoreMemory,
		LLM: LLMConfig{
			Provider:     "anthropic",
			APIKey:       "k",
			RetryMinWait: time.Second,
			RetryMaxWait: 5 * time.Second,
		},
		Workflow: WorkflowConfig{ScoringStrategy: "penalty"},
		Workers:  WorkerConfig{PoolSize: 1, QueueSize: 1},
		Timeouts: TimeoutConfig{JobTimeout: time.Minute},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"bad port", func(c *Config) { c.HTTPPort = 0 }, "invalid HTTP port"},
		{"unknown backend", func(c *Config) { c.StoreBackend = "etcd" }, "unsupported store backend"},
		{"redis without addr", func(c *Config) { c.StoreBackend = StoreRedis }, "redis address"},
		{"unknown provider", func(c *Config) { c.LLM.Provider = "other" }, "unsupported LLM provider"},
		{"retry range", func(c *Config) { c.LLM.RetryMaxWait = 500 * time.Millisecond }, "retry wait range"},
		{"scoring", func(c *Config) { c.Workflow.ScoringStrategy = "median" }, "invalid scoring strategy"},
		{"empty queue", func(c *Config) { c.Workers.QueueSize = 0 }, "queue size"},
		{"log level", func(c *Config) { c.LogLevel = "trace" }, "invalid log level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}
