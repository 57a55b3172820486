package memory

import (
	"context"
	"sync"

	"nft-token-indexer/internal/domain"
	"nft-token-indexer/internal/storage"
)

// ContractStore is an in-memory implementation of storage.ContractStore.
type ContractStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Contract // keyed by contract_id
}

// NewContractStore creates a new in-memory contract store.
func NewContractStore() *ContractStore {
	return &ContractStore{
		data: make(map[string]*domain.Contract),
	}
}

// Get retrieves a contract. Returns ErrNotFound if not exists.
func (s *ContractStore) Get(_ context.Context, contractID string) (*domain.Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, exists := s.data[contractID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	contractCopy := *c
	return &contractCopy, nil
}

// Save upserts a contract.
func (s *ContractStore) Save(_ context.Context, c *domain.Contract) error {
	if c == nil || c.ContractID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	contractCopy := *c
	s.data[c.ContractID] = &contractCopy
	return nil
}

var _ storage.ContractStore = (*ContractStore)(nil)
