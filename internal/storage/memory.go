package storage

import (
	"context"
	"errors"
	"sort"
	"sync"

	"driftsim/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	batches     map[string]model.Batch
	replicates  map[string][]model.Replicate
	summaries   map[string]model.Summary
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}
	s.initialized = true
	s.batches = make(map[string]model.Batch)
	s.replicates = make(map[string][]model.Replicate)
	s.summaries = make(map[string]model.Summary)
	return nil
}

func (s *MemoryStore) SaveBatch(_ context.Context, batch model.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(); err != nil {
		return err
	}
	s.batches[batch.ID] = batch
	return nil
}

func (s *MemoryStore) GetBatch(_ context.Context, id string) (model.Batch, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.ready(); err != nil {
		return model.Batch{}, false, err
	}
	batch, ok := s.batches[id]
	return batch, ok, nil
}

func (s *MemoryStore) ListBatches(_ context.Context, limit int) ([]model.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.ready(); err != nil {
		return nil, err
	}
	out := make([]model.Batch, 0, len(s.batches))
	for _, batch := range s.batches {
		out = append(out, batch)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) SaveReplicates(_ context.Context, batchID string, replicates []model.Replicate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(); err != nil {
		return err
	}
	s.replicates[batchID] = append([]model.Replicate(nil), replicates...)
	return nil
}

func (s *MemoryStore) GetReplicates(_ context.Context, batchID string) ([]model.Replicate, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.ready(); err != nil {
		return nil, false, err
	}
	replicates, ok := s.replicates[batchID]
	if !ok {
		return nil, false, nil
	}
	return append([]model.Replicate(nil), replicates...), true, nil
}

func (s *MemoryStore) SaveSummary(_ context.Context, summary model.Summary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(); err != nil {
		return err
	}
	s.summaries[summary.BatchID] = summary
	return nil
}

func (s *MemoryStore) GetSummary(_ context.Context, batchID string) (model.Summary, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.ready(); err != nil {
		return model.Summary{}, false, err
	}
	summary, ok := s.summaries[batchID]
	return summary, ok, nil
}

func (s *MemoryStore) ready() error {
	if !s.initialized {
		return errors.New("store is not initialized")
	}
	return nil
}
