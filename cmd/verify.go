package main

import (
	"fmt"
	"slices"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check CRM connectivity and the target module's field metadata",
	RunE: func(cmd *cobra.Command, _ []string) error {
		crm := newCRMClient(cfg, newSession(cfg))

		modules, err := crm.Modules(cmd.Context())
		if err != nil {
			return eris.Wrap(err, "verify: list modules")
		}
		zap.L().Info("modules fetched", zap.Int("count", len(modules)))

		if !slices.Contains(modules, cfg.Zoho.Module) {
			return eris.Errorf("verify: module %q not available", cfg.Zoho.Module)
		}

		fields, err := crm.Fields(cmd.Context(), cfg.Zoho.Module)
		if err != nil {
			return eris.Wrap(err, "verify: list fields")
		}

		fmt.Printf("Module %s: %d fields\n", cfg.Zoho.Module, len(fields))
		for _, f := range fields {
			required := ""
			if f.Required {
				required = " (required)"
			}
			fmt.Printf("  %-40s %-30s %s%s\n", f.APIName, f.FieldLabel, f.DataType, required)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}
