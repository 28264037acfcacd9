package config

import (
	"fmt"
	"net/url"
)

// validSSLModes are the SSL modes accepted by PostgreSQL.
var validSSLModes = map[string]struct{}{
	"disable":     {},
	"allow":       {},
	"prefer":      {},
	"require":     {},
	"verify-ca":   {},
	"verify-full": {},
}

// validProviders are the embedding provider names the factory understands.
var validProviders = map[string]struct{}{
	"openai": {},
	"mock":   {},
}

// Validate checks all configuration values and returns the first violation.
// Errors wrap package sentinels so callers can use errors.Is().
func (c *Config) Validate() error {
	if c.HasPostgres() {
		if c.PostgresPort < 1 || c.PostgresPort > 65535 {
			return fmt.Errorf("%w: %d (must be 1-65535)", ErrInvalidPostgresPort, c.PostgresPort)
		}
		if _, ok := validSSLModes[c.PostgresSSLMode]; !ok {
			return fmt.Errorf("%w: %q", ErrInvalidPostgresSSLMode, c.PostgresSSLMode)
		}
	}

	if c.PaprikaAPIURL != "" {
		parsed, err := url.Parse(c.PaprikaAPIURL)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("%w: %q", ErrInvalidPaprikaURL, c.PaprikaAPIURL)
		}
	}

	if c.PaprikaCacheTTL <= 0 {
		return fmt.Errorf("%w: %v (must be positive)", ErrInvalidCacheTTL, c.PaprikaCacheTTL)
	}

	if _, ok := validProviders[c.EmbeddingProvider]; !ok {
		return fmt.Errorf("%w: %q (supported: openai, mock)", ErrInvalidProvider, c.EmbeddingProvider)
	}

	if c.EmbedBackfillLimit < 0 || c.EmbedBackfillLimit > 10000 {
		return fmt.Errorf("%w: limit %d (must be 0-10000)", ErrInvalidBackfillLimit, c.EmbedBackfillLimit)
	}
	if c.EmbedBackfillBatch < 1 || c.EmbedBackfillBatch > 2048 {
		return fmt.Errorf("%w: batch %d (must be 1-2048)", ErrInvalidBackfillLimit, c.EmbedBackfillBatch)
	}

	return nil
}
