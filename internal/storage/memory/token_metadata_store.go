package memory

import (
	"context"
	"sync"

	"nft-token-indexer/internal/domain"
	"nft-token-indexer/internal/storage"
)

// TokenMetadataStore is an in-memory implementation of storage.TokenMetadataStore.
type TokenMetadataStore struct {
	mu   sync.RWMutex
	data map[string]*domain.TokenMetadata // keyed by token key
}

// NewTokenMetadataStore creates a new in-memory token metadata store.
func NewTokenMetadataStore() *TokenMetadataStore {
	return &TokenMetadataStore{
		data: make(map[string]*domain.TokenMetadata),
	}
}

// Get retrieves metadata by token key. Returns ErrNotFound if not exists.
func (s *TokenMetadataStore) Get(_ context.Context, key string) (*domain.TokenMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, exists := s.data[key]
	if !exists {
		return nil, storage.ErrNotFound
	}

	return cloneMetadata(m), nil
}

// Save upserts metadata.
func (s *TokenMetadataStore) Save(_ context.Context, m *domain.TokenMetadata) error {
	if m == nil || m.Key == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[m.Key] = cloneMetadata(m)
	return nil
}

// Remove deletes metadata. Absent keys are ignored.
func (s *TokenMetadataStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)
	return nil
}

// Len returns the number of stored metadata records.
func (s *TokenMetadataStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// cloneMetadata copies m including its optional fields so callers never share them.
func cloneMetadata(m *domain.TokenMetadata) *domain.TokenMetadata {
	c := *m
	c.Title = cloneString(m.Title)
	c.Description = cloneString(m.Description)
	c.Media = cloneString(m.Media)
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

var _ storage.TokenMetadataStore = (*TokenMetadataStore)(nil)
