package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sonorth/maya-sawa/internal/app"
)

var classifyFlags struct {
	userID         int64
	conversationID string
	currentType    string
	retrieve       bool
}

var classifyCmd = &cobra.Command{
	Use:   "classify <message>",
	Short: "分類一則訊息的對話意圖",
	Long: `classify 將訊息送入過濾鏈並輸出分類決策。

加上 --retrieve 會依決策結果繼續執行知識檢索，
輸出包含檢索到的知識項目。`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.New(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		message := args[0]
		decision := a.Classifier.Classify(
			message,
			classifyFlags.userID,
			classifyFlags.conversationID,
			classifyFlags.currentType,
		)

		output := map[string]any{"decision": decision}
		if classifyFlags.retrieve {
			results := a.Connector.Dispatch(
				cmd.Context(), message,
				classifyFlags.userID, classifyFlags.conversationID,
				decision,
			)
			output["knowledge"] = results
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(output); err != nil {
			return fmt.Errorf("failed to encode output: %w", err)
		}
		return nil
	},
}

func init() {
	classifyCmd.Flags().Int64Var(&classifyFlags.userID, "user-id", 0, "使用者 ID")
	classifyCmd.Flags().StringVar(&classifyFlags.conversationID, "conversation-id", "", "對話 ID")
	classifyCmd.Flags().StringVar(&classifyFlags.currentType, "current-type", "", "目前的對話類型")
	classifyCmd.Flags().BoolVar(&classifyFlags.retrieve, "retrieve", false, "依分類結果執行知識檢索")
	rootCmd.AddCommand(classifyCmd)
}
