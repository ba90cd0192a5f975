package storage

import (
	"context"

	"driftsim/internal/model"
)

// Store defines transaction-like persistence operations for drift batches.
type Store interface {
	Init(ctx context.Context) error
	SaveBatch(ctx context.Context, batch model.Batch) error
	GetBatch(ctx context.Context, id string) (model.Batch, bool, error)
	// ListBatches returns batches newest first. A limit <= 0 returns all.
	ListBatches(ctx context.Context, limit int) ([]model.Batch, error)
	SaveReplicates(ctx context.Context, batchID string, replicates []model.Replicate) error
	GetReplicates(ctx context.Context, batchID string) ([]model.Replicate, bool, error)
	SaveSummary(ctx context.Context, summary model.Summary) error
	GetSummary(ctx context.Context, batchID string) (model.Summary, bool, error)
}
