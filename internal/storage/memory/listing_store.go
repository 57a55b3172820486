package memory

import (
	"context"
	"sync"

	"nft-token-indexer/internal/domain"
	"nft-token-indexer/internal/storage"
)

// ListingStore is an in-memory implementation of storage.ListingStore.
// One instance holds one listing kind.
type ListingStore struct {
	mu      sync.RWMutex
	kind    domain.ListingKind
	data    map[string]*domain.Listing // keyed by listing key
	removes int
}

// NewListingStore creates a new in-memory listing store for the given kind.
func NewListingStore(kind domain.ListingKind) *ListingStore {
	return &ListingStore{
		kind: kind,
		data: make(map[string]*domain.Listing),
	}
}

// Get retrieves a listing by key. Returns ErrNotFound if not exists.
func (s *ListingStore) Get(_ context.Context, key string) (*domain.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, exists := s.data[key]
	if !exists {
		return nil, storage.ErrNotFound
	}

	listingCopy := *l
	return &listingCopy, nil
}

// Save upserts a listing. The listing kind must match the store.
func (s *ListingStore) Save(_ context.Context, l *domain.Listing) error {
	if l == nil || l.Key == "" || l.Kind != s.kind {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	listingCopy := *l
	s.data[l.Key] = &listingCopy
	return nil
}

// Remove deletes a listing. Absent keys are ignored.
func (s *ListingStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)
	s.removes++
	return nil
}

// Removes returns how many remove calls were issued, including no-ops.
func (s *ListingStore) Removes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.removes
}

var _ storage.ListingStore = (*ListingStore)(nil)
