package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var importFilePath string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import leads from a spreadsheet into Zoho CRM",
	RunE: func(cmd *cobra.Command, _ []string) error {
		pl, err := newPipeline(cfg)
		if err != nil {
			return err
		}

		result := pl.Run(cmd.Context(), importFilePath)

		log := zap.L().With(zap.String("file", importFilePath))
		if result.Outcome != nil {
			log = log.With(
				zap.Int("total", result.Outcome.Total),
				zap.Int("succeeded", result.Outcome.Succeeded),
				zap.Int("failed", result.Outcome.Failed),
			)
			for _, f := range result.Outcome.Failures {
				zap.L().Warn("record rejected",
					zap.Int("record_index", f.Index),
					zap.String("reason", f.Reason),
				)
			}
		}

		if !result.Status {
			log.Error("import failed", zap.String("message", result.Message))
			return eris.New(result.Message)
		}

		log.Info("import complete", zap.String("message", result.Message))
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importFilePath, "file", "", "path to xlsx file (required)")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}
