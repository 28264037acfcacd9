// Package embedding turns article text into vectors for semantic search.
//
// A Provider is selected by name from configuration. When embeddings are
// disabled or no credentials are present, New returns a nil Provider and
// callers fall back to text-only search.
package embedding

import (
	"context"
	"fmt"

	"github.com/sonorth/maya-sawa/internal/config"
)

// Provider computes embedding vectors for batches of text.
type Provider interface {
	// Name identifies the provider ("openai", "mock").
	Name() string

	// Embed returns one vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// New builds the configured embedding provider.
//
// Returns (nil, nil) when embeddings are disabled or the OpenAI provider
// is selected without an API key; the caller treats a nil provider as
// "text search only".
func New(cfg *config.Config) (Provider, error) {
	if !cfg.EmbeddingsEnabled {
		return nil, nil
	}

	switch cfg.EmbeddingProvider {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, nil
		}
		return newOpenAI(cfg.OpenAIAPIKey, cfg.EmbeddingModel), nil
	case "mock":
		return NewMock(mockDimensions), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.EmbeddingProvider)
	}
}
