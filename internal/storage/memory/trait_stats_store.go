package memory

import (
	"context"
	"sort"
	"sync"

	"nft-token-indexer/internal/domain"
	"nft-token-indexer/internal/storage"
)

// TraitStatsStore is an in-memory implementation of storage.TraitStatsStore.
type TraitStatsStore struct {
	mu   sync.RWMutex
	data map[string]*domain.TraitStat // keyed by trait key
}

// NewTraitStatsStore creates a new in-memory trait stats store.
func NewTraitStatsStore() *TraitStatsStore {
	return &TraitStatsStore{
		data: make(map[string]*domain.TraitStat),
	}
}

// Get retrieves a trait counter by key. Returns ErrNotFound if not exists.
func (s *TraitStatsStore) Get(_ context.Context, key string) (*domain.TraitStat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, exists := s.data[key]
	if !exists {
		return nil, storage.ErrNotFound
	}

	statCopy := *st
	return &statCopy, nil
}

// Save upserts a trait counter.
func (s *TraitStatsStore) Save(_ context.Context, st *domain.TraitStat) error {
	if st == nil || st.Key == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	statCopy := *st
	s.data[st.Key] = &statCopy
	return nil
}

// GetByContract retrieves all trait counters of a contract, ordered by category, value.
func (s *TraitStatsStore) GetByContract(_ context.Context, contractID string) ([]*domain.TraitStat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TraitStat
	for _, st := range s.data {
		if st.ContractID == contractID {
			statCopy := *st
			result = append(result, &statCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Category != result[j].Category {
			return result[i].Category < result[j].Category
		}
		return result[i].Value < result[j].Value
	})

	return result, nil
}

var _ storage.TraitStatsStore = (*TraitStatsStore)(nil)
