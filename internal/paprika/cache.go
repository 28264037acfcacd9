package paprika

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/sonorth/maya-sawa/internal/log"
)

// fetchTimeout caps one cache refresh so a hung article API cannot stall the
// request pipeline. The client's own HTTP timeout is typically longer; this
// is the per-request ceiling the retrieval path is willing to wait.
const fetchTimeout = 10 * time.Second

// cacheKey is the single entry the article list lives under.
const cacheKey = "articles"

// Fetcher is the article supplier the cache refreshes from.
// *Client satisfies it.
type Fetcher interface {
	FetchArticles(ctx context.Context) ([]Article, error)
}

// Cache is a time-bounded in-process cache of the remote article list.
//
// Expiry is handled by the underlying expirable LRU. Concurrent refresh of a
// stale entry is tolerated (both callers fetch, last write wins); that
// dogpile is acceptable for a single upstream list endpoint.
type Cache struct {
	fetcher Fetcher
	entries *expirable.LRU[string, []Article]
	logger  log.Logger
}

// NewCache creates a TTL cache over the given fetcher.
func NewCache(fetcher Fetcher, ttl time.Duration, logger log.Logger) *Cache {
	if logger == nil {
		logger = log.NewNop()
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Cache{
		fetcher: fetcher,
		entries: expirable.NewLRU[string, []Article](1, nil, ttl),
		logger:  logger,
	}
}

// Articles returns the cached article list, refreshing from the API when the
// entry is missing or expired. A failed refresh yields an empty list and a
// log line, never an error: the caller's fallback tiers take over.
func (c *Cache) Articles(ctx context.Context) []Article {
	if articles, ok := c.entries.Get(cacheKey); ok {
		return articles
	}

	fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	articles, err := c.fetcher.FetchArticles(fetchCtx)
	if err != nil {
		c.logger.Warn("article cache refresh failed", "error", err)
		return nil
	}

	c.entries.Add(cacheKey, articles)
	return articles
}

// Invalidate drops the cached list, forcing the next Articles call to fetch.
func (c *Cache) Invalidate() {
	c.entries.Remove(cacheKey)
}
