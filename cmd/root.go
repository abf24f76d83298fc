package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/proffdata/import-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "import-cli",
	Short: "Bulk company import pipeline",
	Long:  "Imports uploaded company files (JSON and CSV), canonicalizes records across upload dialects, commits them in chunks and serves import status over HTTP.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
