package memory

import (
	"context"
	"sync"

	"nft-token-indexer/internal/domain"
	"nft-token-indexer/internal/storage"
)

// AccountStatsStore is an in-memory implementation of storage.AccountStatsStore.
type AccountStatsStore struct {
	mu    sync.RWMutex
	data  map[string]*domain.AccountStats // keyed by account_id
	saves int
}

// NewAccountStatsStore creates a new in-memory account stats store.
func NewAccountStatsStore() *AccountStatsStore {
	return &AccountStatsStore{
		data: make(map[string]*domain.AccountStats),
	}
}

// Get retrieves stats for an account. Returns ErrNotFound if not exists.
func (s *AccountStatsStore) Get(_ context.Context, accountID string) (*domain.AccountStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, exists := s.data[accountID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	statsCopy := *st
	return &statsCopy, nil
}

// Save upserts stats for an account.
func (s *AccountStatsStore) Save(_ context.Context, st *domain.AccountStats) error {
	if st == nil || st.AccountID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	statsCopy := *st
	s.data[st.AccountID] = &statsCopy
	s.saves++
	return nil
}

// Saves returns how many times Save succeeded.
func (s *AccountStatsStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

var _ storage.AccountStatsStore = (*AccountStatsStore)(nil)

// ContractStatsStore is an in-memory implementation of storage.ContractStatsStore.
type ContractStatsStore struct {
	mu    sync.RWMutex
	data  map[string]*domain.ContractStats // keyed by contract_id
	saves int
}

// NewContractStatsStore creates a new in-memory contract stats store.
func NewContractStatsStore() *ContractStatsStore {
	return &ContractStatsStore{
		data: make(map[string]*domain.ContractStats),
	}
}

// Get retrieves stats for a contract. Returns ErrNotFound if not exists.
func (s *ContractStatsStore) Get(_ context.Context, contractID string) (*domain.ContractStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, exists := s.data[contractID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	statsCopy := *st
	return &statsCopy, nil
}

// Save upserts stats for a contract.
func (s *ContractStatsStore) Save(_ context.Context, st *domain.ContractStats) error {
	if st == nil || st.ContractID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	statsCopy := *st
	s.data[st.ContractID] = &statsCopy
	s.saves++
	return nil
}

// Saves returns how many times Save succeeded.
func (s *ContractStatsStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

var _ storage.ContractStatsStore = (*ContractStatsStore)(nil)
