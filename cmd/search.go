package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sonorth/maya-sawa/internal/app"
	"github.com/sonorth/maya-sawa/internal/km"
)

var searchFlags struct {
	sourceType string
	userID     int64
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "直接查詢知識來源",
	Long: `search 跳過意圖分類，直接對知識來源發出查詢。

未指定 --source-type 時查詢所有合適的來源；
指定時只查詢該類型的來源（programming、general ...）。`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.New(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		q := km.Query{Query: args[0], UserID: searchFlags.userID}

		var results []km.Result
		if searchFlags.sourceType != "" {
			results = a.Sources.SearchBySourceType(cmd.Context(), km.SourceType(searchFlags.sourceType), q)
		} else {
			results = a.Sources.SearchAllSuitable(cmd.Context(), q)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return fmt.Errorf("failed to encode output: %w", err)
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().StringVar(&searchFlags.sourceType, "source-type", "", "限定查詢的知識來源類型")
	searchCmd.Flags().Int64Var(&searchFlags.userID, "user-id", 0, "使用者 ID")
	rootCmd.AddCommand(searchCmd)
}
