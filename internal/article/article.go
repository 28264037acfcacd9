// Package article provides the relational article store backing the
// programming knowledge source. It wraps PostgreSQL with pgvector for
// embedding similarity and pg_trgm for fuzzy full-text ranking.
package article

import "time"

// Article is one row of the articles table.
type Article struct {
	ID       int64
	FilePath string
	Content  string
	FileDate time.Time
}

// Match is an article with the similarity score that surfaced it.
type Match struct {
	Article
	Similarity float64
}

// EmbeddingUpdate writes one computed vector back during backfill.
type EmbeddingUpdate struct {
	ID        int64
	Embedding []float32
}
