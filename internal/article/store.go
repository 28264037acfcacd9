package article

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/sonorth/maya-sawa/internal/log"
)

// Querier is the database surface the store needs. *pgxpool.Pool satisfies
// it; tests provide a mock.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Begin(ctx context.Context) (pgx.Tx, error)
}

// queryTimeout bounds every store query so a slow database cannot stall the
// retrieval pipeline.
const queryTimeout = 10 * time.Second

// Test fixtures are excluded directly in SQL; the knowledge source applies
// the same rule to API-fetched articles client-side.
const testPathExclusion = `
  AND file_path NOT LIKE 'test/%'
  AND file_path NOT LIKE '%test%'`

// Store reads and updates articles. Connections are acquired from the pool
// per call and released before returning; the store holds no long-lived
// connection of its own.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	db     Querier
	logger log.Logger
}

// New creates an article store over the given querier.
func New(db Querier, logger log.Logger) *Store {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Store{db: db, logger: logger}
}

// SearchByEmbedding ranks articles by cosine similarity to the query vector,
// returning up to k rows above the similarity threshold.
func (s *Store) SearchByEmbedding(ctx context.Context, queryVec []float32, k int, threshold float64) ([]Match, error) {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	vec := pgvector.NewVector(queryVec)
	rows, err := s.db.Query(queryCtx, `
SELECT id, file_path, content, file_date,
       1 - (embedding <=> $1) AS similarity
FROM articles
WHERE embedding IS NOT NULL
  AND 1 - (embedding <=> $1) > $2`+testPathExclusion+`
ORDER BY embedding <=> $1
LIMIT $3`, vec, threshold, k)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	defer rows.Close()

	return scanMatches(rows)
}

// SearchByTrigram ranks articles by pg_trgm similarity against content,
// returning up to k rows with similarity of at least minSim.
//
// set_limit() configures the % operator per connection, so the whole
// exchange runs inside one transaction to stay on a single connection.
func (s *Store) SearchByTrigram(ctx context.Context, queryText string, k int, minSim float64) ([]Match, error) {
	if queryText == "" {
		return nil, nil
	}

	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := s.db.Begin(queryCtx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(queryCtx) }()

	if _, err := tx.Exec(queryCtx, `SELECT set_limit($1::real)`, minSim); err != nil {
		s.logger.Warn("set_limit failed, using server default", "error", err)
	}

	rows, err := tx.Query(queryCtx, `
SELECT id, file_path, content, file_date,
       similarity(content, $1) AS sim
FROM articles
WHERE content % $1`+testPathExclusion+`
ORDER BY sim DESC
LIMIT $2`, queryText, k)
	if err != nil {
		return nil, fmt.Errorf("trigram search failed: %w", err)
	}

	matches, err := scanMatches(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(queryCtx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	// The server-side limit may lag behind when set_limit failed.
	filtered := matches[:0]
	for _, m := range matches {
		if m.Similarity >= minSim {
			filtered = append(filtered, m)
		}
	}
	return filtered, nil
}

// ListMissingEmbeddings returns up to limit articles with content but no
// embedding, newest first. Used by the opportunistic backfill pass.
func (s *Store) ListMissingEmbeddings(ctx context.Context, limit int) ([]Article, error) {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.db.Query(queryCtx, `
SELECT id, file_path, content, file_date
FROM articles
WHERE embedding IS NULL
  AND content IS NOT NULL AND length(content) > 0
ORDER BY file_date DESC
LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list missing embeddings: %w", err)
	}
	defer rows.Close()

	var articles []Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

// UpdateEmbeddings writes computed vectors back in one batched round trip.
func (s *Store) UpdateEmbeddings(ctx context.Context, updates []EmbeddingUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	batch := &pgx.Batch{}
	for _, u := range updates {
		batch.Queue(
			`UPDATE articles SET embedding = $1, updated_at = now() WHERE id = $2`,
			pgvector.NewVector(u.Embedding), u.ID)
	}

	results := s.db.SendBatch(queryCtx, batch)
	defer results.Close()

	for range updates {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("update embedding: %w", err)
		}
	}

	s.logger.Info("updated article embeddings", "count", len(updates))
	return nil
}

func scanMatches(rows pgx.Rows) ([]Match, error) {
	var matches []Match
	for rows.Next() {
		var (
			m        Match
			fileDate *time.Time
		)
		if err := rows.Scan(&m.ID, &m.FilePath, &m.Content, &fileDate, &m.Similarity); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		if fileDate != nil {
			m.FileDate = *fileDate
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func scanArticle(rows pgx.Rows) (Article, error) {
	var (
		a        Article
		fileDate *time.Time
	)
	if err := rows.Scan(&a.ID, &a.FilePath, &a.Content, &fileDate); err != nil {
		return Article{}, fmt.Errorf("scan article: %w", err)
	}
	if fileDate != nil {
		a.FileDate = *fileDate
	}
	return a, nil
}
