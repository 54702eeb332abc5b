package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lankadata/csepipe/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "csepipe",
	Short: "CSE quarterly report pipeline",
	Long:  "Scrapes quarterly report PDFs from the Colombo Stock Exchange, extracts financial metrics via Claude, and serves the canonical records over a read API.",
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
