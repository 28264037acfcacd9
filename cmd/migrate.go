package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sonorth/maya-sawa/db"
	"github.com/sonorth/maya-sawa/internal/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "管理資料庫結構",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "套用所有待執行的遷移",
	RunE: func(cmd *cobra.Command, args []string) error {
		url, err := migrateURL()
		if err != nil {
			return err
		}
		if err := db.Migrate(url); err != nil {
			return err
		}
		fmt.Println("資料庫結構已更新")
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "回退最近一次遷移",
	RunE: func(cmd *cobra.Command, args []string) error {
		url, err := migrateURL()
		if err != nil {
			return err
		}
		if err := db.Rollback(url); err != nil {
			return err
		}
		fmt.Println("已回退最近一次遷移")
		return nil
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "顯示目前的結構版本",
	RunE: func(cmd *cobra.Command, args []string) error {
		url, err := migrateURL()
		if err != nil {
			return err
		}
		version, dirty, err := db.Version(url)
		if err != nil {
			return err
		}
		if version == 0 {
			fmt.Println("尚未套用任何遷移")
			return nil
		}
		fmt.Printf("version %d, dirty=%v\n", version, dirty)
		return nil
	},
}

func migrateURL() (string, error) {
	cfg, err := config.Load()
	if err != nil {
		return "", err
	}
	if !cfg.HasPostgres() {
		return "", errors.New("migrate requires a configured database (set MAYA_POSTGRES_HOST or DATABASE_URL)")
	}
	return cfg.MigrateURL(), nil
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateVersionCmd)
	rootCmd.AddCommand(migrateCmd)
}
