package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sonorth/maya-sawa/internal/app"
	"github.com/sonorth/maya-sawa/internal/article"
)

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "補齊文章缺漏的向量",
	Long: `backfill 掃描資料庫中尚未建立向量的文章，批次呼叫向量
服務產生 embedding 並寫回。需要資料庫連線與向量服務金鑰。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.New(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if a.Store == nil {
			return errors.New("backfill requires a configured database")
		}
		if a.Provider == nil {
			return errors.New("backfill requires an embedding provider (set OPENAI_API_KEY or embeddings_enabled)")
		}

		ctx := cmd.Context()
		cfg := a.Config
		var total int
		for {
			missing, err := a.Store.ListMissingEmbeddings(ctx, cfg.EmbedBackfillLimit)
			if err != nil {
				return err
			}
			if len(missing) == 0 {
				break
			}

			for start := 0; start < len(missing); start += cfg.EmbedBackfillBatch {
				end := start + cfg.EmbedBackfillBatch
				if end > len(missing) {
					end = len(missing)
				}
				part := missing[start:end]

				texts := make([]string, len(part))
				for i, art := range part {
					texts[i] = art.Content
				}
				vectors, err := a.Provider.Embed(ctx, texts)
				if err != nil {
					return fmt.Errorf("embedding failed after %d articles: %w", total, err)
				}

				updates := make([]article.EmbeddingUpdate, len(part))
				for i, art := range part {
					updates[i] = article.EmbeddingUpdate{ID: art.ID, Embedding: vectors[i]}
				}
				if err := a.Store.UpdateEmbeddings(ctx, updates); err != nil {
					return fmt.Errorf("write back failed after %d articles: %w", total, err)
				}
				total += len(part)
				a.Logger.Info("向量補齊進度", "done", total)
			}

			if len(missing) < cfg.EmbedBackfillLimit {
				break
			}
		}

		fmt.Printf("已補齊 %d 篇文章的向量\n", total)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(backfillCmd)
}
