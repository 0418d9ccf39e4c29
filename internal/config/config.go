package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds the environment driven configuration for the docbot service.
type Config struct {
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"docbot"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort        int           `env:"HTTP_PORT" envDefault:"8090"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	EnableTracing   bool          `env:"ENABLE_TRACING" envDefault:"false"`
	OTLPEndpoint    string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Remote assistant service.
	AssistantBaseURL   string `env:"ASSISTANT_BASE_URL"`
	AssistantID        string `env:"ASSISTANT_ID"`
	AssistantAPIKey    string `env:"ASSISTANT_API_KEY"`
	AssistantAPIVer    string `env:"ASSISTANT_API_VERSION" envDefault:"2024-05-01-preview"`
	UseManagedIdentity bool   `env:"USE_MANAGED_IDENTITY" envDefault:"false"`
	TokenFile          string `env:"ASSISTANT_TOKEN_FILE" envDefault:"/var/run/secrets/assistant/token"`
	VectorStoreID      string `env:"VECTOR_STORE_ID"`

	// Documentation search backend.
	DocsAPIURL string `env:"DOCS_API_URL" envDefault:"http://localhost:8091"`
	DocsAPIKey string `env:"DOCS_API_KEY"`

	// Optional transcript persistence. Empty URL disables the store.
	DatabaseURL    string        `env:"DATABASE_URL" envDefault:""`
	DBMaxIdleConns int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBMaxOpenConns int           `env:"DB_MAX_OPEN_CONNS" envDefault:"15"`
	DBConnLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`

	// Run protocol tuning.
	PollInitialDelay time.Duration `env:"RUN_POLL_INITIAL_DELAY" envDefault:"1s"`
	PollMaxDelay     time.Duration `env:"RUN_POLL_MAX_DELAY" envDefault:"5s"`
	PollMaxAttempts  int           `env:"RUN_POLL_MAX_ATTEMPTS" envDefault:"100"`
	ToolTimeout      time.Duration `env:"TOOL_EXECUTION_TIMEOUT" envDefault:"45s"`

	// Chat event processing.
	ChatWorkerCount  int           `env:"CHAT_WORKER_COUNT" envDefault:"4"`
	ChatQueueSize    int           `env:"CHAT_QUEUE_SIZE" envDefault:"256"`
	ChatEventTimeout time.Duration `env:"CHAT_EVENT_TIMEOUT" envDefault:"10m"`
	ChatMessageLimit int           `env:"CHAT_MESSAGE_LIMIT" envDefault:"3800"`
	ChatWebhookURL   string        `env:"CHAT_WEBHOOK_URL" envDefault:""`
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	if strings.TrimSpace(cfg.AssistantBaseURL) == "" {
		return nil, fmt.Errorf("ASSISTANT_BASE_URL is required")
	}
	if strings.TrimSpace(cfg.AssistantID) == "" {
		return nil, fmt.Errorf("ASSISTANT_ID is required")
	}
	if !cfg.UseManagedIdentity && strings.TrimSpace(cfg.AssistantAPIKey) == "" {
		return nil, fmt.Errorf("ASSISTANT_API_KEY is required when USE_MANAGED_IDENTITY is false")
	}

	if cfg.PollInitialDelay <= 0 {
		cfg.PollInitialDelay = time.Second
	}
	if cfg.PollMaxDelay < cfg.PollInitialDelay {
		cfg.PollMaxDelay = cfg.PollInitialDelay
	}
	if cfg.PollMaxAttempts <= 0 {
		cfg.PollMaxAttempts = 100
	}
	if cfg.ToolTimeout <= 0 {
		cfg.ToolTimeout = 45 * time.Second
	}
	if cfg.ChatWorkerCount <= 0 {
		cfg.ChatWorkerCount = 4
	}
	if cfg.ChatQueueSize <= 0 {
		cfg.ChatQueueSize = 256
	}
	if cfg.ChatMessageLimit <= 0 {
		cfg.ChatMessageLimit = 3800
	}

	return cfg, nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
