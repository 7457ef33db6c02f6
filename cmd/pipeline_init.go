package main

import (
	"time"

	"github.com/rotisserie/eris"

	"github.com/vpearl/leadsync/internal/assign"
	"github.com/vpearl/leadsync/internal/config"
	"github.com/vpearl/leadsync/internal/ingest"
	"github.com/vpearl/leadsync/internal/model"
	"github.com/vpearl/leadsync/internal/notify"
	"github.com/vpearl/leadsync/internal/pipeline"
	"github.com/vpearl/leadsync/pkg/zoho"
)

// newSession wires the token store, browser login and OAuth session from
// configuration.
func newSession(cfg *config.Config) *zoho.Session {
	store := zoho.NewFileTokenStore(cfg.Zoho.TokenFile)
	login := zoho.NewBrowserLogin(zoho.LoginConfig{
		AuthURL:     cfg.Zoho.AuthURL,
		ClientID:    cfg.Zoho.ClientID,
		RedirectURL: cfg.Zoho.RedirectURL,
		Email:       cfg.Zoho.Email,
		Password:    cfg.Zoho.Password,
		Headless:    cfg.Zoho.Headless,
		Timeout:     time.Duration(cfg.Zoho.LoginTimeoutSecs) * time.Second,
	})
	return zoho.NewSession(zoho.Credentials{
		ClientID:     cfg.Zoho.ClientID,
		ClientSecret: cfg.Zoho.ClientSecret,
		RedirectURL:  cfg.Zoho.RedirectURL,
		AuthURL:      cfg.Zoho.AuthURL,
		TokenURL:     cfg.Zoho.TokenURL,
	}, store, login)
}

// newCRMClient builds the rate-limited CRM client over a session.
func newCRMClient(cfg *config.Config, session *zoho.Session) zoho.Client {
	return zoho.NewClient(cfg.Zoho.APIBaseURL, session,
		zoho.WithRateLimit(cfg.Zoho.BatchRPS),
	)
}

// newPipeline assembles the full import pipeline.
func newPipeline(cfg *config.Config) (*pipeline.Pipeline, error) {
	if cfg.Zoho.ClientID == "" || cfg.Zoho.ClientSecret == "" {
		return nil, eris.New("zoho client credentials are required (LEADSYNC_ZOHO_CLIENT_ID / LEADSYNC_ZOHO_CLIENT_SECRET)")
	}

	table, err := assign.LoadTable(cfg.Assign.TablePath)
	if err != nil {
		return nil, err
	}
	resolver := assign.New(table, assign.WithFuzzyThreshold(cfg.Assign.FuzzyThreshold))

	crm := newCRMClient(cfg, newSession(cfg))

	opts := []pipeline.Option{
		pipeline.WithBatchSize(cfg.Zoho.BatchSize),
		pipeline.WithKeywords(cfg.Ingest.Keywords),
		pipeline.WithParser(func(path string) ([]model.RawRecord, error) {
			return ingest.Parse(path, ingest.Options{SheetName: cfg.Ingest.SheetName})
		}),
	}
	if cfg.Notify.Enabled {
		opts = append(opts, pipeline.WithNotifier(notify.NewSMTPMailer(cfg.Notify)))
	}

	return pipeline.New(crm, resolver, cfg.Zoho.Module, opts...), nil
}
