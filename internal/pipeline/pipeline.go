// Package pipeline orchestrates one lead import run: verify connectivity,
// resolve areas, format records and submit them in batches.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/vpearl/leadsync/internal/assign"
	"github.com/vpearl/leadsync/internal/format"
	"github.com/vpearl/leadsync/internal/ingest"
	"github.com/vpearl/leadsync/internal/model"
	"github.com/vpearl/leadsync/internal/notify"
	"github.com/vpearl/leadsync/pkg/zoho"
)

// Parser reads raw lead rows from a spreadsheet file.
type Parser func(path string) ([]model.RawRecord, error)

// Pipeline wires the import stages together.
type Pipeline struct {
	crm       zoho.Client
	resolver  *assign.Resolver
	notifier  notify.Mailer
	parse     Parser
	module    string
	batchSize int
	keywords  []string
	now       func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithParser overrides the spreadsheet parser.
func WithParser(p Parser) Option {
	return func(pl *Pipeline) { pl.parse = p }
}

// WithNotifier enables the unmatched-areas alert.
func WithNotifier(n notify.Mailer) Option {
	return func(pl *Pipeline) { pl.notifier = n }
}

// WithBatchSize sets the submission chunk size (default 100).
func WithBatchSize(n int) Option {
	return func(pl *Pipeline) {
		if n > 0 {
			pl.batchSize = n
		}
	}
}

// WithKeywords sets the nature-of-development keywords that qualify a row
// for import.
func WithKeywords(keywords []string) Option {
	return func(pl *Pipeline) { pl.keywords = keywords }
}

// WithPipelineClock overrides the time source (for testing).
func WithPipelineClock(now func() time.Time) Option {
	return func(pl *Pipeline) { pl.now = now }
}

// New creates a Pipeline targeting the given CRM module.
func New(crm zoho.Client, resolver *assign.Resolver, module string, opts ...Option) *Pipeline {
	pl := &Pipeline{
		crm:       crm,
		resolver:  resolver,
		module:    module,
		batchSize: 100,
		now:       time.Now,
		parse: func(path string) ([]model.RawRecord, error) {
			return ingest.Parse(path, ingest.Options{})
		},
	}
	for _, opt := range opts {
		opt(pl)
	}
	return pl
}

// Run executes one import over the given spreadsheet. It always returns a
// structured result; unexpected internal failures are recovered at this
// boundary rather than propagating as panics.
func (p *Pipeline) Run(ctx context.Context, filePath string) (res *model.Result) {
	log := zap.L().With(zap.String("component", "pipeline"), zap.String("file", filePath))

	defer func() {
		if r := recover(); r != nil {
			log.Error("pipeline panicked", zap.Any("panic", r))
			res = &model.Result{
				Message:    fmt.Sprintf("internal error: %v", r),
				StatusCode: 500,
			}
		}
	}()

	if err := p.verify(ctx); err != nil {
		log.Error("CRM connectivity check failed", zap.Error(err))
		return &model.Result{Message: "API connection failed!", StatusCode: 400}
	}

	records, err := p.parse(filePath)
	if err != nil {
		log.Warn("spreadsheet parse failed", zap.Error(err))
		records = nil
	}
	if len(records) == 0 {
		return &model.Result{Message: "No records found in file", StatusCode: 400}
	}

	qualified, skipped := ingest.Separate(records, p.keywords)
	if len(skipped) > 0 {
		log.Info("rows excluded by relevance filter", zap.Int("skipped", len(skipped)))
	}
	if len(qualified) == 0 {
		return &model.Result{Message: "No qualifying records in file", StatusCode: 400}
	}

	// Area resolution completes, including unresolved handling, before any
	// formatting or submission begins: owner assignment feeds formatting.
	resolution := p.resolver.Assign(qualified)
	log.Info("area resolution complete",
		zap.Int("matched", len(resolution.Matched)),
		zap.Int("unmatched", len(resolution.Unmatched)),
	)

	if len(resolution.Unmatched) > 0 && p.notifier != nil {
		if err := p.notifier.NotifyUnresolved(ctx, resolution.Unmatched, filepath.Base(filePath)); err != nil {
			log.Warn("unmatched-areas alert failed", zap.Error(err))
		}
	}

	if len(resolution.Matched) == 0 {
		return &model.Result{Message: "No records matched to a salesperson", StatusCode: 400}
	}

	leads := make([]zoho.Lead, len(resolution.Matched))
	for i, a := range resolution.Matched {
		leads[i] = format.Lead(a.Record, a.Owner, p.now())
	}

	outcome, err := p.submit(ctx, leads)
	if err != nil {
		log.Error("submission aborted", zap.Error(err))
		return &model.Result{Message: "Failed to push records", StatusCode: 400, Outcome: outcome}
	}

	log.Info("submission complete",
		zap.Int("total", outcome.Total),
		zap.Int("succeeded", outcome.Succeeded),
		zap.Int("failed", outcome.Failed),
	)

	if outcome.Succeeded > 0 {
		return &model.Result{
			Message:    "Records pushed successfully!",
			StatusCode: 200,
			Status:     true,
			Outcome:    outcome,
		}
	}
	return &model.Result{
		Message:    "Failed to push some or all records",
		StatusCode: 400,
		Outcome:    outcome,
	}
}

// verify checks that the target module exists and logs its field metadata
// for diagnostics.
func (p *Pipeline) verify(ctx context.Context) error {
	log := zap.L().With(zap.String("component", "pipeline"))

	modules, err := p.crm.Modules(ctx)
	if err != nil {
		return err
	}
	if !slices.Contains(modules, p.module) {
		return fmt.Errorf("module %q not found in available modules", p.module)
	}

	fields, err := p.crm.Fields(ctx, p.module)
	if err != nil {
		// Field metadata is diagnostics only.
		log.Warn("field metadata unavailable", zap.Error(err))
		return nil
	}
	for _, f := range fields {
		log.Debug("module field",
			zap.String("api_name", f.APIName),
			zap.String("label", f.FieldLabel),
			zap.String("type", f.DataType),
			zap.Bool("required", f.Required),
		)
	}
	log.Info("module verified", zap.String("module", p.module), zap.Int("fields", len(fields)))
	return nil
}
