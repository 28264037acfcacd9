// Package config provides application configuration management with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override, MAYA_ prefix)
//  2. Config file (~/.maya-sawa/config.yaml)
//  3. Default values (sensible defaults for quick start)
//
// Main configuration categories:
//   - Postgres: article store connection (see storage.go)
//   - Paprika: remote article API endpoint, cache TTL, rate limit
//   - Embedding: provider selection, model, backfill limits
//   - Log: level and format
//
// Security: sensitive data (passwords, API keys) is never logged.
// Validation: range checks in validation.go with sentinel errors for errors.Is().
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var (
	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresSSLMode indicates the PostgreSQL SSL mode is invalid.
	ErrInvalidPostgresSSLMode = errors.New("invalid PostgreSQL SSL mode")

	// ErrInvalidPaprikaURL indicates the article API URL is malformed.
	ErrInvalidPaprikaURL = errors.New("invalid paprika API URL")

	// ErrInvalidCacheTTL indicates the article cache TTL is out of range.
	ErrInvalidCacheTTL = errors.New("invalid article cache TTL")

	// ErrInvalidProvider indicates the embedding provider is not supported.
	ErrInvalidProvider = errors.New("invalid embedding provider")

	// ErrInvalidBackfillLimit indicates the embedding backfill limit is out of range.
	ErrInvalidBackfillLimit = errors.New("invalid embedding backfill limit")
)

const (
	// DefaultPaprikaAPIURL is the article API read endpoint.
	DefaultPaprikaAPIURL = "https://peoplesystem.tatdvsonorth.com/paprika/articles"

	// DefaultWorkBaseURL is the base URL used to build article citation links.
	DefaultWorkBaseURL = "https://peoplesystem.tatdvsonorth.com/work/"

	// DefaultEmbeddingModel is the OpenAI embedding model used for articles.
	DefaultEmbeddingModel = "text-embedding-3-small"

	// DefaultCacheTTL is how long fetched articles are kept in process.
	DefaultCacheTTL = time.Hour

	// DefaultBackfillLimit bounds one opportunistic embedding backfill pass.
	DefaultBackfillLimit = 200

	// DefaultBackfillBatch is the embedding API batch size during backfill.
	DefaultBackfillBatch = 50
)

// Config holds all application configuration.
type Config struct {
	// Log
	LogLevel string `mapstructure:"log_level"`
	LogJSON  bool   `mapstructure:"log_json"`

	// Postgres article store (optional; empty host disables the store)
	PostgresHost     string `mapstructure:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password"`
	PostgresDBName   string `mapstructure:"postgres_dbname"`
	PostgresSSLMode  string `mapstructure:"postgres_sslmode"`

	// Paprika article API
	PaprikaAPIURL   string        `mapstructure:"paprika_api_url"`
	PaprikaTimeout  time.Duration `mapstructure:"paprika_timeout"`
	PaprikaCacheTTL time.Duration `mapstructure:"paprika_cache_ttl"`
	PaprikaRate     float64       `mapstructure:"paprika_rate"`
	WorkBaseURL     string        `mapstructure:"work_base_url"`

	// Embedding provider
	EmbeddingProvider  string `mapstructure:"embedding_provider"`
	EmbeddingModel     string `mapstructure:"embedding_model"`
	EmbeddingsEnabled  bool   `mapstructure:"embeddings_enabled"`
	OpenAIAPIKey       string `mapstructure:"openai_api_key"`
	EmbedBackfillLimit int    `mapstructure:"embed_backfill_limit"`
	EmbedBackfillBatch int    `mapstructure:"embed_backfill_batch"`
}

// Load reads configuration from defaults, an optional config file and
// environment variables, then validates the result.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Optional config file: ~/.maya-sawa/config.yaml
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".maya-sawa"))
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Missing config file is fine; defaults + env apply.
	}

	// Environment overrides: MAYA_POSTGRES_HOST, MAYA_LOG_LEVEL, ...
	v.SetEnvPrefix("MAYA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Widely used un-prefixed variables take precedence when set.
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		cfg.OpenAIAPIKey = key
	}
	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)

	v.SetDefault("postgres_host", "")
	v.SetDefault("postgres_port", 5432)
	v.SetDefault("postgres_user", "maya")
	v.SetDefault("postgres_dbname", "maya_sawa")
	v.SetDefault("postgres_sslmode", "disable")

	v.SetDefault("paprika_api_url", DefaultPaprikaAPIURL)
	v.SetDefault("paprika_timeout", 30*time.Second)
	v.SetDefault("paprika_cache_ttl", DefaultCacheTTL)
	v.SetDefault("paprika_rate", 1.0)
	v.SetDefault("work_base_url", DefaultWorkBaseURL)

	v.SetDefault("embedding_provider", "openai")
	v.SetDefault("embedding_model", DefaultEmbeddingModel)
	v.SetDefault("embeddings_enabled", true)
	v.SetDefault("embed_backfill_limit", DefaultBackfillLimit)
	v.SetDefault("embed_backfill_batch", DefaultBackfillBatch)
}

// HasPostgres reports whether an article store connection is configured.
func (c *Config) HasPostgres() bool {
	return c.PostgresHost != "" && c.PostgresDBName != ""
}
