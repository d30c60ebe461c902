// Package worker persists ingested batches to the Postgres ledger and the S3
// manifest bucket. It backs both the asynq consumer and the in-process pool.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/dharsanguruparan/VaultIntake/internal/model"
	"github.com/dharsanguruparan/VaultIntake/internal/queue"
)

// BatchWriter stores the records of one batch.
type BatchWriter interface {
	SaveBatch(ctx context.Context, batchID string, records []model.ResultRecord) error
}

// ManifestWriter stores a serialized batch manifest.
type ManifestWriter interface {
	PutManifest(ctx context.Context, batchID string, data []byte) error
}

// Persister fans a batch out to whichever sinks are configured. Either sink
// may be nil.
type Persister struct {
	ledger    BatchWriter
	manifests ManifestWriter
	logger    *slog.Logger
}

// NewPersister constructs a Persister.
func NewPersister(ledger BatchWriter, manifests ManifestWriter, logger *slog.Logger) *Persister {
	if logger == nil {
		logger = slog.Default()
	}
	return &Persister{ledger: ledger, manifests: manifests, logger: logger}
}

// Enabled reports whether at least one sink is configured.
func (p *Persister) Enabled() bool {
	return p.ledger != nil || p.manifests != nil
}

// Persist writes payload to every sink. Both sinks are attempted even when the
// first fails; the errors are joined.
func (p *Persister) Persist(ctx context.Context, payload queue.BatchPayload) error {
	var errs []error
	if p.ledger != nil {
		if err := p.ledger.SaveBatch(ctx, payload.BatchID, payload.Records); err != nil {
			errs = append(errs, fmt.Errorf("ledger: %w", err))
		}
	}
	if p.manifests != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			errs = append(errs, fmt.Errorf("marshal manifest: %w", err))
		} else if err := p.manifests.PutManifest(ctx, payload.BatchID, data); err != nil {
			errs = append(errs, fmt.Errorf("manifest: %w", err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	p.logger.Info("batch persisted", "batch_id", payload.BatchID, "records", len(payload.Records))
	return nil
}

// Handler registers the persist task handler.
func (p *Persister) Handler() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.PersistBatchTask, p.handlePersist)
	return mux
}

func (p *Persister) handlePersist(ctx context.Context, task *asynq.Task) error {
	payload, err := queue.DecodePayload(task)
	if err != nil {
		// A payload that cannot be decoded will never succeed on retry.
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	if err := p.Persist(ctx, payload); err != nil {
		p.logger.Error("persist failed", "batch_id", payload.BatchID, "error", err)
		return err
	}
	return nil
}
