// Package paprika provides a client for the Paprika article API, the remote
// provider of programming knowledge-base content, plus an in-process TTL
// cache so retrieval does not hit the network on every query.
package paprika

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/sonorth/maya-sawa/internal/log"
)

// Article is one record from the article read endpoint.
type Article struct {
	ID       int64  `json:"id"`
	FilePath string `json:"file_path"`
	Content  string `json:"content"`
	FileDate string `json:"file_date"`
}

// envelope is the API response wrapper.
type envelope struct {
	Success bool      `json:"success"`
	Data    []Article `json:"data"`
}

// Config tunes the client.
type Config struct {
	// URL is the article read endpoint.
	URL string

	// Timeout bounds one HTTP exchange. Default 30s.
	Timeout time.Duration

	// RatePerSecond throttles calls to the remote API. Default 1.
	RatePerSecond float64
}

// Client fetches articles from the Paprika API.
//
// The API is treated as best-effort: an error response means "zero articles
// for this call", reported as an error so callers can decide how loudly to
// log, but never as a fatal condition.
type Client struct {
	http    *resty.Client
	url     string
	limiter *rate.Limiter
	logger  log.Logger
}

// NewClient creates a Paprika API client.
func NewClient(cfg Config, logger log.Logger) *Client {
	if logger == nil {
		logger = log.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	perSec := cfg.RatePerSecond
	if perSec <= 0 {
		perSec = 1
	}

	return &Client{
		http:    resty.New().SetTimeout(timeout),
		url:     cfg.URL,
		limiter: rate.NewLimiter(rate.Limit(perSec), 1),
		logger:  logger,
	}
}

// FetchArticles retrieves the full article list from the API.
// Non-2xx responses and a false success flag are reported as errors with an
// empty list; the caller degrades rather than aborts.
func (c *Client) FetchArticles(ctx context.Context) ([]Article, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	var body envelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&body).
		Get(c.url)
	if err != nil {
		return nil, fmt.Errorf("fetch articles: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("article API returned status %d", resp.StatusCode())
	}
	if !body.Success {
		return nil, fmt.Errorf("article API reported failure")
	}

	c.logger.Info("fetched articles from paprika API", "count", len(body.Data))
	return body.Data, nil
}
