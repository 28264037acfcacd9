// Package cmd defines the command line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "maya-sawa",
	Short: "對話意圖分類與知識檢索",
	Long: `Maya Sawa 透過優先權排序的過濾鏈判斷對話意圖，
並依分類結果從多個知識來源檢索相關內容。

設定檔位於 ~/.maya-sawa/config.yaml，環境變數使用 MAYA_ 前綴覆寫。`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
