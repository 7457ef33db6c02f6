package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Run the interactive Zoho login and store a fresh token",
	Long:  "Forces a full browser sign-in even when a stored token is still valid. Use after changing scopes or revoking grants.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if cfg.Zoho.ClientID == "" || cfg.Zoho.ClientSecret == "" {
			return eris.New("zoho client credentials are required (LEADSYNC_ZOHO_CLIENT_ID / LEADSYNC_ZOHO_CLIENT_SECRET)")
		}

		session := newSession(cfg)
		if err := session.Reauthorize(cmd.Context()); err != nil {
			return eris.Wrap(err, "auth: interactive login")
		}

		zap.L().Info("authorization complete", zap.String("token_file", cfg.Zoho.TokenFile))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
}
