// Package queue defines the asynq task used to hand finished batches to the
// persistence worker. Only result records travel through Redis, never file
// content.
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/dharsanguruparan/VaultIntake/internal/model"
)

const (
	// PersistBatchTask is scheduled once per ingested batch.
	PersistBatchTask = "batch:persist"
)

// BatchPayload is the unit of persistence: one ingestion call and its records
// in output order.
type BatchPayload struct {
	BatchID string               `json:"batch_id"`
	Records []model.ResultRecord `json:"records"`
}

// NewPersistTask serializes payload into an asynq task.
func NewPersistTask(payload BatchPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return asynq.NewTask(PersistBatchTask, data, asynq.MaxRetry(5)), nil
}

// DecodePayload is the inverse of NewPersistTask.
func DecodePayload(task *asynq.Task) (BatchPayload, error) {
	var payload BatchPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return BatchPayload{}, fmt.Errorf("decode payload: %w", err)
	}
	return payload, nil
}

// Publisher enqueues batches on Redis through an asynq client.
type Publisher struct {
	client *asynq.Client
}

// NewPublisher wraps client.
func NewPublisher(client *asynq.Client) *Publisher {
	return &Publisher{client: client}
}

// Publish enqueues a persist task for payload.
func (p *Publisher) Publish(ctx context.Context, payload BatchPayload) error {
	task, err := NewPersistTask(payload)
	if err != nil {
		return err
	}
	if _, err := p.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("enqueue persist task: %w", err)
	}
	return nil
}
