package memory

import (
	"context"
	"sync"

	"nft-token-indexer/internal/domain"
	"nft-token-indexer/internal/storage"
)

// RoyaltyStore is an in-memory implementation of storage.RoyaltyStore.
type RoyaltyStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Royalty // keyed by token key
}

// NewRoyaltyStore creates a new in-memory royalty store.
func NewRoyaltyStore() *RoyaltyStore {
	return &RoyaltyStore{
		data: make(map[string]*domain.Royalty),
	}
}

// Record upserts the royalty split of a token.
func (s *RoyaltyStore) Record(_ context.Context, r *domain.Royalty) error {
	if r == nil || r.TokenKey == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[r.TokenKey] = cloneRoyalty(r)
	return nil
}

// Get retrieves the royalty split of a token. Returns ErrNotFound if not exists.
func (s *RoyaltyStore) Get(_ context.Context, tokenKey string) (*domain.Royalty, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[tokenKey]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return cloneRoyalty(r), nil
}

// Remove deletes the royalty split of a token.
func (s *RoyaltyStore) Remove(_ context.Context, tokenKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, tokenKey)
	return nil
}

func cloneRoyalty(r *domain.Royalty) *domain.Royalty {
	c := *r
	c.Shares = make(map[string]uint32, len(r.Shares))
	for k, v := range r.Shares {
		c.Shares[k] = v
	}
	return &c
}

var _ storage.RoyaltyStore = (*RoyaltyStore)(nil)
