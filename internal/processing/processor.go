// Package processing persists batches in-process when no Redis queue is
// configured. Goroutines and a buffered channel stand in for the asynq worker.
package processing

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/dharsanguruparan/VaultIntake/internal/queue"
)

// ErrQueueFull is returned by Publish when the buffer has no room; the batch
// is dropped rather than blocking the upload response.
var ErrQueueFull = errors.New("processing queue full")

// Sink stores one batch.
type Sink interface {
	Persist(ctx context.Context, payload queue.BatchPayload) error
}

// Processor consumes batches with a fixed number of goroutines.
type Processor struct {
	sink    Sink
	jobs    chan queue.BatchPayload
	workers int
	logger  *slog.Logger
	wg      sync.WaitGroup
}

// New builds a Processor with queue capacity tied to worker count.
func New(sink Sink, workers int, logger *slog.Logger) *Processor {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		sink:    sink,
		jobs:    make(chan queue.BatchPayload, workers*4),
		workers: workers,
		logger:  logger,
	}
}

// Start launches worker goroutines that run until ctx is cancelled.
func (p *Processor) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
}

// Wait blocks until every worker has exited.
func (p *Processor) Wait() {
	p.wg.Wait()
}

// Publish queues payload without blocking.
func (p *Processor) Publish(_ context.Context, payload queue.BatchPayload) error {
	select {
	case p.jobs <- payload:
		return nil
	default:
		p.logger.Warn("processing queue full, dropping batch", "batch_id", payload.BatchID)
		return ErrQueueFull
	}
}

func (p *Processor) worker(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case payload := <-p.jobs:
			// The request that produced the batch is gone; persistence runs
			// on the worker's own context.
			if err := p.sink.Persist(ctx, payload); err != nil {
				p.logger.Error("persist batch failed", "batch_id", payload.BatchID, "error", err)
			}
		}
	}
}
