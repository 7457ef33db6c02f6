package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/vpearl/leadsync/internal/model"
	"github.com/vpearl/leadsync/pkg/zoho"
)

// submit pushes leads in bounded, order-preserving chunks and tallies
// per-record outcomes. A chunk-level HTTP failure marks every record in
// that chunk failed and the run continues; there is deliberately no
// automatic retry. Failure to obtain a token aborts the whole submission.
func (p *Pipeline) submit(ctx context.Context, leads []zoho.Lead) (*model.SubmissionOutcome, error) {
	log := zap.L().With(zap.String("component", "pipeline.submit"))

	outcome := &model.SubmissionOutcome{Total: len(leads)}
	if len(leads) == 0 {
		return outcome, nil
	}

	size := p.batchSize
	if size <= 0 {
		size = 100
	}

	for start := 0; start < len(leads); start += size {
		end := min(start+size, len(leads))
		chunk := leads[start:end]

		statuses, err := p.crm.Insert(ctx, p.module, chunk)
		if err != nil {
			if zoho.IsAuthError(err) {
				// No valid token by any fallback: nothing further can
				// succeed, so stop instead of failing chunk by chunk.
				return outcome, err
			}
			log.Warn("chunk failed",
				zap.Int("start", start),
				zap.Int("size", len(chunk)),
				zap.Error(err),
			)
			for i := range chunk {
				outcome.Failed++
				outcome.Failures = append(outcome.Failures, model.RecordFailure{
					Index:  start + i,
					Reason: err.Error(),
				})
			}
			continue
		}

		// A 2xx batch response still carries per-record statuses.
		for i := range chunk {
			if i < len(statuses) && statuses[i].Success() {
				outcome.Succeeded++
				continue
			}
			reason := "no status returned for record"
			if i < len(statuses) {
				reason = statuses[i].Message
			}
			outcome.Failed++
			outcome.Failures = append(outcome.Failures, model.RecordFailure{
				Index:  start + i,
				Reason: reason,
			})
		}

		log.Info("chunk submitted",
			zap.Int("start", start),
			zap.Int("size", len(chunk)),
			zap.Int("succeeded", outcome.Succeeded),
			zap.Int("failed", outcome.Failed),
		)
	}

	return outcome, nil
}
