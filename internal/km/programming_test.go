package km

import (
	"context"
	"errors"
	"testing"

	"github.com/sonorth/maya-sawa/internal/article"
	"github.com/sonorth/maya-sawa/internal/chain"
	"github.com/sonorth/maya-sawa/internal/embedding"
	"github.com/sonorth/maya-sawa/internal/log"
	"github.com/sonorth/maya-sawa/internal/paprika"
)

// fakeStore is an instrumented in-memory article store.
type fakeStore struct {
	embMatches []article.Match
	embErr     error
	triMatches []article.Match
	triErr     error
	missing    []article.Article
	missingErr error

	embedCalls  int
	updates     [][]article.EmbeddingUpdate
	updateErr   error
	updateCalls int
}

func (f *fakeStore) SearchByEmbedding(context.Context, []float32, int, float64) ([]article.Match, error) {
	f.embedCalls++
	return f.embMatches, f.embErr
}

func (f *fakeStore) SearchByTrigram(context.Context, string, int, float64) ([]article.Match, error) {
	return f.triMatches, f.triErr
}

func (f *fakeStore) ListMissingEmbeddings(context.Context, int) ([]article.Article, error) {
	return f.missing, f.missingErr
}

func (f *fakeStore) UpdateEmbeddings(_ context.Context, updates []article.EmbeddingUpdate) error {
	f.updateCalls++
	f.updates = append(f.updates, updates)
	return f.updateErr
}

type fakeCache struct {
	articles []paprika.Article
}

func (f *fakeCache) Articles(context.Context) []paprika.Article { return f.articles }

type failingProvider struct{}

func (failingProvider) Name() string { return "failing" }

func (failingProvider) Embed(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("quota exceeded")
}

func testConfig() ProgrammingConfig {
	return ProgrammingConfig{
		WorkBaseURL:    "https://example.com/work/",
		EmbeddingModel: "text-embedding-3-small",
		BackfillLimit:  200,
		BackfillBatch:  50,
	}
}

func TestProgrammingSource_SuitableFor(t *testing.T) {
	src := NewProgrammingSource(nil, nil, nil, testConfig(), log.NewNop())

	tests := []struct {
		name string
		q    Query
		want bool
	}{
		{"programming domain", Query{Domain: "programming"}, true},
		{
			"routing hint",
			Query{Metadata: map[string]any{chain.MetaKMSource: chain.KMSourceProgramming}},
			true,
		},
		{
			"other hint",
			Query{Metadata: map[string]any{chain.MetaKMSource: chain.KMSourceGeneral}},
			false,
		},
		{"no signal", Query{Query: "hello"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := src.SuitableFor(tt.q); got != tt.want {
				t.Errorf("SuitableFor() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProgrammingSource_NoBackendsYieldsEmpty(t *testing.T) {
	src := NewProgrammingSource(nil, nil, nil, testConfig(), log.NewNop())

	results, err := src.Search(context.Background(), Query{Query: "docker compose"})
	if err != nil {
		t.Fatalf("Search() must not error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results, want 0", len(results))
	}
}

func TestProgrammingSource_AllBackendsFailingYieldsEmpty(t *testing.T) {
	store := &fakeStore{
		embErr:     errors.New("db down"),
		triErr:     errors.New("db down"),
		missingErr: errors.New("db down"),
	}
	src := NewProgrammingSource(store, &fakeCache{}, failingProvider{}, testConfig(), log.NewNop())

	results, err := src.Search(context.Background(), Query{Query: "docker compose"})
	if err != nil {
		t.Fatalf("Search() must not error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results, want 0", len(results))
	}
}

func TestProgrammingSource_HybridScoringPrefersDualHits(t *testing.T) {
	store := &fakeStore{
		embMatches: []article.Match{
			{Article: article.Article{ID: 1, FilePath: "java/spring.md", Content: "Spring Boot guide"}, Similarity: 0.9},
		},
		triMatches: []article.Match{
			{Article: article.Article{ID: 1, FilePath: "java/spring.md", Content: "Spring Boot guide"}, Similarity: 0.5},
			{Article: article.Article{ID: 2, FilePath: "java/jdbc.md", Content: "JDBC connections"}, Similarity: 0.6},
			{Article: article.Article{ID: 3, FilePath: "go/http.md", Content: "net/http handlers"}, Similarity: 0.4},
		},
	}
	src := NewProgrammingSource(store, nil, embedding.NewMock(8), testConfig(), log.NewNop())

	results, err := src.Search(context.Background(), Query{Query: "spring database"})
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}

	// 0.6*0.5 + 0.4*0.9 = 0.66 beats the text-only 0.36 and 0.24.
	if results[0].Source != "paprika_1" {
		t.Errorf("top result = %s, want paprika_1", results[0].Source)
	}
	if results[0].Confidence != matchConfidence {
		t.Errorf("Confidence = %v, want %v", results[0].Confidence, matchConfidence)
	}
	if results[0].Metadata["embedding_model"] != "text-embedding-3-small" {
		t.Errorf("vector-backed result missing embedding_model: %v", results[0].Metadata)
	}
	if results[1].Metadata["embedding_model"] != nil {
		t.Errorf("text-only result must not carry embedding_model")
	}
	if store.embedCalls != 1 {
		t.Errorf("expected one vector search, got %d", store.embedCalls)
	}
}

func TestProgrammingSource_CacheTermMatching(t *testing.T) {
	cache := &fakeCache{articles: []paprika.Article{
		{ID: 10, FilePath: "devops/docker.md", Content: "Docker Compose 部署教學", FileDate: "2025-03-01"},
		{ID: 11, FilePath: "frontend/react.md", Content: "React hooks overview", FileDate: "2025-03-02"},
	}}
	src := NewProgrammingSource(nil, cache, nil, testConfig(), log.NewNop())

	results, err := src.Search(context.Background(), Query{Query: "docker compose 如何設定"})
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1 term-matched article", len(results))
	}

	r := results[0]
	if r.Source != "paprika_10" {
		t.Errorf("Source = %s, want paprika_10", r.Source)
	}
	if r.Confidence != matchConfidence {
		t.Errorf("Confidence = %v, want %v", r.Confidence, matchConfidence)
	}
	if r.Metadata["fallback_used"] != false {
		t.Error("term-matched result must not be marked as fallback")
	}
	if r.Metadata["source_url"] != "https://example.com/work/devops/docker.md" {
		t.Errorf("source_url = %v", r.Metadata["source_url"])
	}
	matched, _ := r.Metadata["matched_terms"].([]string)
	if len(matched) < 2 {
		t.Errorf("matched_terms = %v, want docker and compose", matched)
	}
	if r.RelevanceScore < 1 {
		t.Errorf("RelevanceScore = %v, want the raw matched-term count (>= 1)", r.RelevanceScore)
	}
}

// In a cross-source merge, a term-matched article must rank above the
// general source's template answer.
func TestProgrammingSource_TermMatchOutranksGeneralTemplate(t *testing.T) {
	cache := &fakeCache{articles: []paprika.Article{
		{ID: 10, FilePath: "devops/docker.md", Content: "Docker Compose 部署設定"},
	}}
	programming := NewProgrammingSource(nil, cache, nil, testConfig(), log.NewNop())

	m := NewManager(log.NewNop())
	m.Register(programming)
	m.Register(NewGeneralSource())

	q := Query{Query: "docker 部署 設定", Domain: "programming"}
	results := m.SearchAllSuitable(context.Background(), q)
	if len(results) < 2 {
		t.Fatalf("expected article plus template, got %d results", len(results))
	}
	if results[0].Source != "paprika_10" {
		t.Fatalf("top result = %s (relevance %v), want paprika_10",
			results[0].Source, results[0].RelevanceScore)
	}
	if results[0].RelevanceScore <= results[1].RelevanceScore {
		t.Errorf("article relevance %v must exceed template relevance %v",
			results[0].RelevanceScore, results[1].RelevanceScore)
	}
}

func TestProgrammingSource_FallbackToCachedArticles(t *testing.T) {
	cache := &fakeCache{articles: []paprika.Article{
		{ID: 1, FilePath: "a.md", Content: "alpha"},
		{ID: 2, FilePath: "b.md", Content: "beta"},
		{ID: 3, FilePath: "c.md", Content: "gamma"},
		{ID: 4, FilePath: "d.md", Content: "delta"},
	}}
	src := NewProgrammingSource(nil, cache, nil, testConfig(), log.NewNop())

	results, err := src.Search(context.Background(), Query{Query: "量子 糾纏"})
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(results) != fallbackResults {
		t.Fatalf("got %d results, want %d fallback articles", len(results), fallbackResults)
	}
	for _, r := range results {
		if r.Confidence != fallbackConfidence {
			t.Errorf("Confidence = %v, want %v", r.Confidence, fallbackConfidence)
		}
		if r.RelevanceScore != 0 {
			t.Errorf("RelevanceScore = %v, want 0 for an unmatched fallback", r.RelevanceScore)
		}
		if r.Metadata["fallback_used"] != true {
			t.Error("fallback result must be marked")
		}
	}
}

func TestProgrammingSource_ExcludesTestFixtures(t *testing.T) {
	cache := &fakeCache{articles: []paprika.Article{
		{ID: 1, FilePath: "test/setup.md", Content: "docker fixture"},
		{ID: 2, FilePath: "devops/docker-test.md", Content: "docker fixture"},
		{ID: 3, FilePath: "devops/docker.md", Content: "Docker deployment"},
		{ID: 4, FilePath: "devops/docker.md", Content: "duplicate path"},
	}}
	src := NewProgrammingSource(nil, cache, nil, testConfig(), log.NewNop())

	results, err := src.Search(context.Background(), Query{Query: "docker"})
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1 after fixture and duplicate filtering", len(results))
	}
	if results[0].Source != "paprika_3" {
		t.Errorf("Source = %s, want paprika_3", results[0].Source)
	}
}

func TestProgrammingSource_BackfillBatches(t *testing.T) {
	missing := make([]article.Article, 5)
	for i := range missing {
		missing[i] = article.Article{ID: int64(i + 1), Content: "content"}
	}
	store := &fakeStore{missing: missing}

	cfg := testConfig()
	cfg.BackfillBatch = 2
	src := NewProgrammingSource(store, nil, embedding.NewMock(8), cfg, log.NewNop())

	if _, err := src.Search(context.Background(), Query{Query: "go"}); err != nil {
		t.Fatalf("Search() error: %v", err)
	}

	if store.updateCalls != 3 {
		t.Fatalf("expected 3 update batches for 5 articles at batch size 2, got %d", store.updateCalls)
	}
	var total int
	for _, batch := range store.updates {
		total += len(batch)
	}
	if total != 5 {
		t.Errorf("backfilled %d articles, want 5", total)
	}
}

func TestProgrammingSource_BackfillFailureDoesNotBreakSearch(t *testing.T) {
	store := &fakeStore{
		missing: []article.Article{{ID: 1, Content: "content"}},
		triMatches: []article.Match{
			{Article: article.Article{ID: 2, FilePath: "go/http.md", Content: "handlers"}, Similarity: 0.5},
		},
	}
	src := NewProgrammingSource(store, nil, failingProvider{}, testConfig(), log.NewNop())

	results, err := src.Search(context.Background(), Query{Query: "http handlers"})
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1 from trigram search", len(results))
	}
	if store.updateCalls != 0 {
		t.Error("no updates expected when embedding fails")
	}
}

func TestQueryTerms(t *testing.T) {
	terms := queryTerms("Java Spring Boot 如何配置 C# 與 x")

	want := map[string]bool{"java": false, "spring": false, "boot": false, "c#": false}
	for _, term := range terms {
		if _, ok := want[term]; ok {
			want[term] = true
		}
		if term == "x" {
			t.Error("single-character terms must be dropped")
		}
	}
	for term, found := range want {
		if !found {
			t.Errorf("missing term %q in %v", term, terms)
		}
	}
}

func TestArticleTitle(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"markdown heading", "# Spring Boot 入門\n\ncontent", "Spring Boot 入門"},
		{"plain first line", "Docker 部署指南\nmore", "Docker 部署指南"},
		{"leading blank lines", "\n\n## 標題\nbody", "標題"},
		{"empty content", "", "程式設計文檔"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := articleTitle(tt.content); got != tt.want {
				t.Errorf("articleTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}
