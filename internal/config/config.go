package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Store backends
const (
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// Config holds all configuration for the pitch evaluation service
type Config struct {
	// Server configuration
	HTTPPort int    `env:"PITCHGRAPH_HTTP_PORT" envDefault:"8080"`
	GRPCPort int    `env:"PITCHGRAPH_GRPC_PORT" envDefault:"9090"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Uploaded media and decks live under DataDir/uploads
	DataDir        string   `env:"PITCHGRAPH_DATA_DIR" envDefault:"./data"`
	MaxUploadBytes int64    `env:"PITCHGRAPH_MAX_UPLOAD_BYTES" envDefault:"209715200"`
	CORSOrigins    []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	// Job store and event bus backend: redis or memory
	StoreBackend string `env:"STORE_BACKEND" envDefault:"redis"`

	Redis         RedisConfig
	LLM           LLMConfig
	Transcription TranscriptionConfig
	Workflow      WorkflowConfig
	Workers       WorkerConfig
	Timeouts      TimeoutConfig
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASS"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`

	// Connection pool settings
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	MaxRetries   int           `env:"REDIS_MAX_RETRIES" envDefault:"3"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`

	// Retention
	JobTTL          time.Duration `env:"REDIS_JOB_TTL" envDefault:"168h"`
	StreamMaxLength int64         `env:"REDIS_STREAM_MAX_LEN" envDefault:"10000"`
}

// LLMConfig holds LLM provider configuration
type LLMConfig struct {
	Provider string `env:"LLM_PROVIDER" envDefault:"anthropic"`
	APIKey   string `env:"LLM_API_KEY"`
	BaseURL  string `env:"LLM_BASE_URL"`

	Model          string        `env:"LLM_MODEL" envDefault:"claude-3-5-sonnet-20241022"`
	AudioModel     string        `env:"LLM_AUDIO_MODEL" envDefault:"claude-3-5-haiku-20241022"`
	MaxTokens      int           `env:"LLM_MAX_TOKENS" envDefault:"4096"`
	Temperature    float64       `env:"LLM_TEMPERATURE" envDefault:"0.2"`
	RequestTimeout time.Duration `env:"LLM_REQUEST_TIMEOUT" envDefault:"120s"`

	// Retry policy shared by every generator call; attempts include the first
	MaxAttempts  int           `env:"LLM_MAX_ATTEMPTS" envDefault:"5"`
	RetryMinWait time.Duration `env:"LLM_RETRY_MIN_WAIT" envDefault:"1s"`
	RetryMaxWait time.Duration `env:"LLM_RETRY_MAX_WAIT" envDefault:"5s"`
}

// TranscriptionConfig holds speech-to-text provider configuration
type TranscriptionConfig struct {
	APIKey  string        `env:"ELEVENLABS_API_KEY"`
	BaseURL string        `env:"ELEVENLABS_BASE_URL" envDefault:"https://api.elevenlabs.io"`
	Model   string        `env:"ELEVENLABS_MODEL" envDefault:"scribe_v1"`
	Timeout time.Duration `env:"ELEVENLABS_TIMEOUT" envDefault:"300s"`
}

// WorkflowConfig holds evaluation graph settings
type WorkflowConfig struct {
	ScoringStrategy string `env:"SCORING_STRATEGY" envDefault:"penalty"`
	// Parallel agent nodes per job; zero or negative is unbounded
	NodeConcurrency int    `env:"WORKFLOW_NODE_CONCURRENCY" envDefault:"0"`
	PromptsFile     string `env:"WORKFLOW_PROMPTS_FILE"`
}

// WorkerConfig holds worker pool configuration
type WorkerConfig struct {
	PoolSize            int           `env:"WORKER_POOL_SIZE" envDefault:"5"`
	QueueSize           int           `env:"WORKER_QUEUE_SIZE" envDefault:"100"`
	HealthCheckInterval time.Duration `env:"WORKER_HEALTH_CHECK_INTERVAL" envDefault:"30s"`
}

// TimeoutConfig holds various timeout configurations
type TimeoutConfig struct {
	JobTimeout      time.Duration `env:"TIMEOUT_JOB" envDefault:"1800s"`
	ShutdownTimeout time.Duration `env:"TIMEOUT_SHUTDOWN" envDefault:"30s"`
}

// Load reads configuration from environment variables. A .env file in the
// working directory is applied first; variables already set win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server ports
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.GRPCPort < 1 || c.GRPCPort > 65535 {
		return fmt.Errorf("invalid gRPC port: %d", c.GRPCPort)
	}

	// Validate store config
	switch c.StoreBackend {
	case StoreRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis address is required")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unsupported store backend: %s (must be redis or memory)", c.StoreBackend)
	}
	if c.DataDir == "" {
		return fmt.Errorf("data directory is required")
	}

	// Validate LLM config
	if c.LLM.APIKey == "" {
		return fmt.Errorf("LLM API key is required")
	}
	if c.LLM.Provider != "anthropic" {
		return fmt.Errorf("unsupported LLM provider: %s (only 'anthropic' is supported)", c.LLM.Provider)
	}
	if c.LLM.MaxAttempts < 1 {
		return fmt.Errorf("LLM max attempts must be at least 1")
	}
	if c.LLM.RetryMinWait <= 0 || c.LLM.RetryMaxWait < c.LLM.RetryMinWait {
		return fmt.Errorf("invalid LLM retry wait range: %s..%s", c.LLM.RetryMinWait, c.LLM.RetryMaxWait)
	}

	// Validate workflow config
	switch c.Workflow.ScoringStrategy {
	case "penalty", "weighted":
	default:
		return fmt.Errorf("invalid scoring strategy: %s (must be penalty or weighted)", c.Workflow.ScoringStrategy)
	}

	// Validate worker config
	if c.Workers.PoolSize < 1 {
		return fmt.Errorf("worker pool size must be at least 1")
	}
	if c.Workers.QueueSize < 1 {
		return fmt.Errorf("worker queue size must be at least 1")
	}
	if c.Timeouts.JobTimeout <= 0 {
		return fmt.Errorf("job timeout must be positive")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// GetGRPCAddr returns the gRPC server address
func (c *Config) GetGRPCAddr() string {
	return fmt.Sprintf(":%d", c.GRPCPort)
}
