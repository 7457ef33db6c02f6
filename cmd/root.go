package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vpearl/leadsync/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "leadsync",
	Short: "Spreadsheet lead import into Zoho CRM",
	Long:  "Reads permit lead spreadsheets, assigns salespeople by area, and pushes the records to Zoho CRM in batches.",
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
