// Package config loads service configuration from the environment, with a
// .env file as local development convenience.
package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Checkpoint backend selectors.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

// Config is the process configuration, populated from environment
// variables.
type Config struct {
	// Host and Port the HTTP server binds to.
	Host string `envconfig:"HOST" default:"0.0.0.0"`
	Port int    `envconfig:"PORT" default:"8080"`

	// AuthSecret enables bearer auth when non-empty.
	AuthSecret string `envconfig:"AUTH_SECRET"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// OpenAIAPIKey authenticates against the completion provider.
	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`
	// OpenAIBaseURL points at an OpenAI-compatible endpoint when set.
	OpenAIBaseURL string `envconfig:"OPENAI_BASE_URL"`

	// DefaultModel answers runs that do not select a model.
	DefaultModel string `envconfig:"DEFAULT_MODEL" default:"gpt-4o-mini"`
	// AvailableModels lists the model names clients may select.
	AvailableModels []string `envconfig:"AVAILABLE_MODELS" default:"gpt-4o-mini,gpt-4o"`
	// GuardModel moderates research assistant turns; empty disables the
	// content guard.
	GuardModel string `envconfig:"GUARD_MODEL"`

	// CheckpointStore selects the checkpoint backend: memory, sqlite or
	// redis.
	CheckpointStore string `envconfig:"CHECKPOINT_STORE" default:"memory"`
	// SQLiteDBPath is the database file for the sqlite backend.
	SQLiteDBPath string `envconfig:"SQLITE_DB_PATH" default:"checkpoints.db"`
	// RedisURL is the connection URL for the redis backend.
	RedisURL string `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`

	// FeedbackWebhookURL receives feedback payloads when set.
	FeedbackWebhookURL string `envconfig:"FEEDBACK_WEBHOOK_URL"`

	// TracingEnabled installs the OpenTelemetry SDK trace provider.
	TracingEnabled bool `envconfig:"TRACING_ENABLED" default:"false"`
}

// Load reads configuration from a .env file (when present) and the
// environment.
func Load() (*Config, error) {
	// A missing .env file is not an error; the environment wins anyway.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.CheckpointStore {
	case StoreMemory, StoreSQLite, StoreRedis:
	default:
		return fmt.Errorf("unsupported checkpoint store %q", c.CheckpointStore)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
