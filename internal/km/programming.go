package km

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/sonorth/maya-sawa/internal/article"
	"github.com/sonorth/maya-sawa/internal/chain"
	"github.com/sonorth/maya-sawa/internal/embedding"
	"github.com/sonorth/maya-sawa/internal/log"
	"github.com/sonorth/maya-sawa/internal/paprika"
)

// ArticleStore is the article persistence surface the programming source
// needs. *article.Store satisfies it.
type ArticleStore interface {
	SearchByEmbedding(ctx context.Context, queryVec []float32, k int, threshold float64) ([]article.Match, error)
	SearchByTrigram(ctx context.Context, queryText string, k int, minSim float64) ([]article.Match, error)
	ListMissingEmbeddings(ctx context.Context, limit int) ([]article.Article, error)
	UpdateEmbeddings(ctx context.Context, updates []article.EmbeddingUpdate) error
}

// ArticleCache serves the remote article list. *paprika.Cache satisfies it.
type ArticleCache interface {
	Articles(ctx context.Context) []paprika.Article
}

const (
	vectorTopK    = 8
	trigramTopK   = 12
	trigramMinSim = 0.1

	// minCandidates is the database hit count below which the remote
	// article cache is pulled in as an extra candidate pool.
	minCandidates = 3

	maxResults      = 5
	fallbackResults = 3

	textWeight  = 0.6
	embedWeight = 0.4

	matchConfidence    = 0.8
	fallbackConfidence = 0.4
)

// ProgrammingConfig tunes the programming knowledge source.
type ProgrammingConfig struct {
	// WorkBaseURL prefixes article file paths to build citation links.
	WorkBaseURL string

	// EmbeddingModel is recorded in result metadata when vector search ran.
	EmbeddingModel string

	// BackfillLimit bounds one opportunistic embedding backfill pass.
	BackfillLimit int

	// BackfillBatch is the embedding API batch size during backfill.
	BackfillBatch int
}

// ProgrammingSource retrieves programming documentation. It combines
// trigram and vector search over the article store with the remote
// article API as a fallback pool; every stage degrades gracefully, so
// Search never returns an error.
type ProgrammingSource struct {
	store    ArticleStore       // nil when no database is configured
	cache    ArticleCache       // nil when the article API is disabled
	provider embedding.Provider // nil when embeddings are disabled
	cfg      ProgrammingConfig
	logger   log.Logger
}

// NewProgrammingSource wires the programming source. Any of store, cache
// and provider may be nil; the pipeline skips the stages it cannot run.
func NewProgrammingSource(store ArticleStore, cache ArticleCache, provider embedding.Provider, cfg ProgrammingConfig, logger log.Logger) *ProgrammingSource {
	return &ProgrammingSource{
		store:    store,
		cache:    cache,
		provider: provider,
		cfg:      cfg,
		logger:   logger,
	}
}

func (s *ProgrammingSource) Name() string     { return "programming" }
func (s *ProgrammingSource) Type() SourceType { return SourceTypeProgramming }
func (s *ProgrammingSource) Priority() int    { return 10 }

// SuitableFor accepts queries the classifier routed to programming
// knowledge, either by detected domain or by routing hint.
func (s *ProgrammingSource) SuitableFor(q Query) bool {
	if q.Domain == "programming" {
		return true
	}
	return q.Metadata[chain.MetaKMSource] == chain.KMSourceProgramming
}

// candidate is one article under consideration, keyed by file path.
type candidate struct {
	id        int64
	filePath  string
	content   string
	fileDate  string
	embScore  float64
	textScore float64
	score     float64
	matched   []string
}

func (s *ProgrammingSource) Search(ctx context.Context, q Query) ([]Result, error) {
	s.backfillEmbeddings(ctx)

	queryVec := s.embedQuery(ctx, q.Query)

	candidates := make(map[string]*candidate)
	s.collectStoreMatches(ctx, q.Query, queryVec, candidates)

	// Too few database hits: widen the pool with the remote article list.
	var cached []paprika.Article
	if len(candidates) < minCandidates && s.cache != nil {
		cached = excludeTestFixtures(s.cache.Articles(ctx))
		for i := range cached {
			a := cached[i]
			if _, seen := candidates[a.FilePath]; seen {
				continue
			}
			candidates[a.FilePath] = &candidate{
				id:       a.ID,
				filePath: a.FilePath,
				content:  a.Content,
				fileDate: a.FileDate,
			}
		}
	}

	terms := queryTerms(q.Query)
	ranked := rankCandidates(candidates, terms)

	var positive []*candidate
	for _, c := range ranked {
		if c.score > 0 {
			positive = append(positive, c)
		}
	}

	switch {
	case len(positive) > 0:
		if len(positive) > maxResults {
			positive = positive[:maxResults]
		}
		results := make([]Result, len(positive))
		for i, c := range positive {
			results[i] = s.buildResult(c, queryVec != nil && c.embScore > 0, false)
		}
		s.logger.Debug("程式知識查詢完成", "query", q.Query, "results", len(results))
		return results, nil

	case len(cached) > 0:
		// Nothing matched; surface the freshest cached articles so the
		// caller still gets something to work with.
		n := len(cached)
		if n > fallbackResults {
			n = fallbackResults
		}
		results := make([]Result, 0, n)
		for i := 0; i < n; i++ {
			a := cached[i]
			c := &candidate{id: a.ID, filePath: a.FilePath, content: a.Content, fileDate: a.FileDate}
			results = append(results, s.buildResult(c, false, true))
		}
		s.logger.Debug("程式知識查詢無匹配，回傳快取備援", "query", q.Query, "results", len(results))
		return results, nil

	default:
		return nil, nil
	}
}

// collectStoreMatches runs vector and trigram search against the article
// store, merging hits into candidates by file path. Store errors are
// logged and treated as empty results.
func (s *ProgrammingSource) collectStoreMatches(ctx context.Context, queryText string, queryVec []float32, candidates map[string]*candidate) {
	if s.store == nil {
		return
	}

	if queryVec != nil {
		matches, err := s.store.SearchByEmbedding(ctx, queryVec, vectorTopK, 0)
		if err != nil {
			s.logger.Warn("向量搜尋失敗，改用文字搜尋", "error", err)
		} else {
			for _, m := range matches {
				mergeCandidate(candidates, m, true)
			}
		}
	}

	matches, err := s.store.SearchByTrigram(ctx, queryText, trigramTopK, trigramMinSim)
	if err != nil {
		s.logger.Warn("文字搜尋失敗", "error", err)
		return
	}
	for _, m := range matches {
		mergeCandidate(candidates, m, false)
	}
}

func mergeCandidate(candidates map[string]*candidate, m article.Match, fromVector bool) {
	c, ok := candidates[m.FilePath]
	if !ok {
		c = &candidate{
			id:       m.ID,
			filePath: m.FilePath,
			content:  m.Content,
		}
		if !m.FileDate.IsZero() {
			c.fileDate = m.FileDate.Format("2006-01-02")
		}
		candidates[m.FilePath] = c
	}
	if fromVector {
		if m.Similarity > c.embScore {
			c.embScore = m.Similarity
		}
	} else {
		if m.Similarity > c.textScore {
			c.textScore = m.Similarity
		}
	}
}

// rankCandidates scores every candidate and returns them best first.
// Database hits are scored by the hybrid text/vector similarity; cache-only
// candidates fall back to the raw count of query terms found in the article,
// so a term-matched article outranks template answers in cross-source merges.
func rankCandidates(candidates map[string]*candidate, terms []string) []*candidate {
	ranked := make([]*candidate, 0, len(candidates))
	for _, c := range candidates {
		c.matched = matchTerms(terms, c.content, c.filePath)
		if c.embScore > 0 || c.textScore > 0 {
			c.score = textWeight*c.textScore + embedWeight*c.embScore
		} else {
			c.score = float64(len(c.matched))
		}
		ranked = append(ranked, c)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})
	return ranked
}

func (s *ProgrammingSource) buildResult(c *candidate, usedVector, fallback bool) Result {
	conf := matchConfidence
	rel := c.score
	if fallback {
		conf = fallbackConfidence
		rel = 0
	}

	meta := map[string]any{
		"article_id":    c.id,
		"file_path":     c.filePath,
		"file_date":     c.fileDate,
		"source_type":   "paprika_api",
		"title":         articleTitle(c.content),
		"source_url":    s.cfg.WorkBaseURL + c.filePath,
		"provider":      "Paprika",
		"matched_terms": c.matched,
		"fallback_used": fallback,
		"similarity":    c.score,
	}
	if usedVector {
		meta["embedding_model"] = s.cfg.EmbeddingModel
	}

	return Result{
		Content:        c.content,
		Source:         fmt.Sprintf("paprika_%d", c.id),
		Confidence:     conf,
		RelevanceScore: rel,
		Metadata:       meta,
	}
}

// backfillEmbeddings opportunistically embeds articles that are still
// missing vectors. Best effort: any failure is logged and the search
// proceeds without the missing vectors.
func (s *ProgrammingSource) backfillEmbeddings(ctx context.Context) {
	if s.store == nil || s.provider == nil {
		return
	}

	missing, err := s.store.ListMissingEmbeddings(ctx, s.cfg.BackfillLimit)
	if err != nil {
		s.logger.Warn("查詢缺漏向量失敗", "error", err)
		return
	}
	if len(missing) == 0 {
		return
	}

	batch := s.cfg.BackfillBatch
	if batch <= 0 {
		batch = len(missing)
	}
	var done int
	for start := 0; start < len(missing); start += batch {
		end := start + batch
		if end > len(missing) {
			end = len(missing)
		}
		part := missing[start:end]

		texts := make([]string, len(part))
		for i, a := range part {
			texts[i] = a.Content
		}
		vectors, err := s.provider.Embed(ctx, texts)
		if err != nil {
			s.logger.Warn("向量補齊失敗", "error", err, "done", done)
			return
		}

		updates := make([]article.EmbeddingUpdate, len(part))
		for i, a := range part {
			updates[i] = article.EmbeddingUpdate{ID: a.ID, Embedding: vectors[i]}
		}
		if err := s.store.UpdateEmbeddings(ctx, updates); err != nil {
			s.logger.Warn("向量寫回失敗", "error", err, "done", done)
			return
		}
		done += len(part)
	}

	s.logger.Info("向量補齊完成", "articles", done)
}

// embedQuery returns the query vector, or nil when embeddings are
// unavailable or the provider fails.
func (s *ProgrammingSource) embedQuery(ctx context.Context, query string) []float32 {
	if s.provider == nil {
		return nil
	}
	vectors, err := s.provider.Embed(ctx, []string{query})
	if err != nil || len(vectors) == 0 {
		s.logger.Warn("查詢向量化失敗，僅使用文字搜尋", "error", err)
		return nil
	}
	return vectors[0]
}

// termPattern extracts latin identifiers from a query, keeping characters
// common in technology names (c++, c#, .net, vue.js).
var termPattern = regexp.MustCompile(`[a-z0-9+#.\-]+`)

// queryTerms tokenizes a query for term matching: regex-extracted latin
// tokens plus whitespace-separated words, lowercased, deduplicated, and
// single characters dropped.
func queryTerms(query string) []string {
	lower := strings.ToLower(query)

	seen := make(map[string]struct{})
	var terms []string
	add := func(tok string) {
		tok = strings.Trim(tok, ".")
		if len(tok) < 2 {
			return
		}
		if _, ok := seen[tok]; ok {
			return
		}
		seen[tok] = struct{}{}
		terms = append(terms, tok)
	}

	for _, tok := range termPattern.FindAllString(lower, -1) {
		add(tok)
	}
	for _, tok := range strings.Fields(lower) {
		add(tok)
	}
	return terms
}

// matchTerms returns the query terms that appear in the article content
// or its file path.
func matchTerms(terms []string, content, filePath string) []string {
	lowerContent := strings.ToLower(content)
	lowerPath := strings.ToLower(filePath)

	var matched []string
	for _, term := range terms {
		if strings.Contains(lowerContent, term) || strings.Contains(lowerPath, term) {
			matched = append(matched, term)
		}
	}
	return matched
}

// excludeTestFixtures drops fixture articles, mirroring the store-side
// SQL exclusion, and deduplicates by file path.
func excludeTestFixtures(articles []paprika.Article) []paprika.Article {
	seen := make(map[string]struct{}, len(articles))
	kept := articles[:0:0]
	for _, a := range articles {
		if strings.Contains(strings.ToLower(a.FilePath), "test") {
			continue
		}
		if _, dup := seen[a.FilePath]; dup {
			continue
		}
		seen[a.FilePath] = struct{}{}
		kept = append(kept, a)
	}
	return kept
}

// articleTitle extracts a display title: the first non-empty of the first
// five lines, markdown heading markers stripped. Long or missing titles
// fall back to a generic label.
func articleTitle(content string) string {
	lines := strings.SplitN(content, "\n", 6)
	for i, line := range lines {
		if i == 5 {
			break
		}
		title := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "#"))
		if title == "" {
			continue
		}
		if len(title) < 100 {
			return title
		}
		break
	}
	return "程式設計文檔"
}
