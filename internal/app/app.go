// Package app wires configuration, storage, knowledge sources and the
// classification chain into one runnable application.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/sonorth/maya-sawa/internal/article"
	"github.com/sonorth/maya-sawa/internal/chain"
	"github.com/sonorth/maya-sawa/internal/config"
	"github.com/sonorth/maya-sawa/internal/embedding"
	"github.com/sonorth/maya-sawa/internal/km"
	"github.com/sonorth/maya-sawa/internal/log"
	"github.com/sonorth/maya-sawa/internal/paprika"
)

// App holds the composed application. Build it with New and release
// resources with Close.
type App struct {
	Config *config.Config
	Logger log.Logger

	// Pool and Store are nil when no database is configured; the
	// programming source then runs on the article API alone.
	Pool  *pgxpool.Pool
	Store *article.Store

	Cache      *paprika.Cache
	Provider   embedding.Provider
	Sources    *km.Manager
	Classifier *chain.Service
	Connector  *km.Connector
}

// New loads configuration and composes the application.
func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return NewWithConfig(ctx, cfg)
}

// NewWithConfig composes the application from an already validated
// configuration.
func NewWithConfig(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := log.New(log.Config{
		Level: log.ParseLevel(cfg.LogLevel),
		JSON:  cfg.LogJSON,
	})

	provider, err := embedding.New(cfg)
	if err != nil {
		return nil, err
	}
	if provider == nil {
		logger.Info("向量功能未啟用，僅使用文字搜尋")
	}

	a := &App{
		Config:   cfg,
		Logger:   logger,
		Provider: provider,
	}

	if cfg.HasPostgres() {
		pool, err := newPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		a.Pool = pool
		a.Store = article.New(pool, logger)
		logger.Info("文章資料庫已連線", "host", cfg.PostgresHost, "database", cfg.PostgresDBName)
	} else {
		logger.Info("未設定資料庫，改用遠端文章 API")
	}

	client := paprika.NewClient(paprika.Config{
		URL:           cfg.PaprikaAPIURL,
		Timeout:       cfg.PaprikaTimeout,
		RatePerSecond: cfg.PaprikaRate,
	}, logger)
	a.Cache = paprika.NewCache(client, cfg.PaprikaCacheTTL, logger)

	a.Sources = km.NewManager(logger)
	a.Sources.Register(km.NewProgrammingSource(
		storeOrNil(a.Store), a.Cache, provider,
		km.ProgrammingConfig{
			WorkBaseURL:    cfg.WorkBaseURL,
			EmbeddingModel: cfg.EmbeddingModel,
			BackfillLimit:  cfg.EmbedBackfillLimit,
			BackfillBatch:  cfg.EmbedBackfillBatch,
		}, logger))
	a.Sources.Register(km.NewGeneralSource())

	a.Classifier = chain.NewService(logger)
	a.Connector = km.NewConnector(a.Sources, logger)

	return a, nil
}

// newPool opens a pgx pool with pgvector types registered on every
// connection.
func newPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresURL())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return pool, nil
}

// storeOrNil avoids handing a typed nil *article.Store to an interface
// parameter.
func storeOrNil(s *article.Store) km.ArticleStore {
	if s == nil {
		return nil
	}
	return s
}

// Close releases held resources.
func (a *App) Close() {
	if a.Pool != nil {
		a.Pool.Close()
	}
}
