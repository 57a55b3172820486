package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"nft-token-indexer/internal/domain"
	"nft-token-indexer/internal/storage"
)

// Hash fields of a listing.
const (
	fieldContractID = "contract_id"
	fieldTokenKey   = "token_key"
	fieldOwnerID    = "owner_id"
	fieldPrice      = "price"
	fieldCreatedAt  = "created_at"
)

// ListingStore implements storage.ListingStore with one Redis hash per listing.
// The hash is stored under the listing key itself, shared with the marketplace writers.
type ListingStore struct {
	client redis.UniversalClient
	kind   domain.ListingKind
}

// NewListingStore creates a ListingStore for one listing kind.
func NewListingStore(client redis.UniversalClient, kind domain.ListingKind) *ListingStore {
	return &ListingStore{client: client, kind: kind}
}

// Compile-time interface check.
var _ storage.ListingStore = (*ListingStore)(nil)

// Get retrieves a listing by key. Returns ErrNotFound if not exists.
func (s *ListingStore) Get(ctx context.Context, key string) (*domain.Listing, error) {
	fields, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("get %s listing: %w", s.kind, err)
	}
	if len(fields) == 0 {
		return nil, storage.ErrNotFound
	}

	createdAt, err := strconv.ParseInt(fields[fieldCreatedAt], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse %s listing created_at: %w", s.kind, err)
	}

	return &domain.Listing{
		Key:        key,
		Kind:       s.kind,
		ContractID: fields[fieldContractID],
		TokenKey:   fields[fieldTokenKey],
		OwnerID:    fields[fieldOwnerID],
		Price:      fields[fieldPrice],
		CreatedAt:  createdAt,
	}, nil
}

// Save upserts a listing. The listing kind must match the store.
func (s *ListingStore) Save(ctx context.Context, l *domain.Listing) error {
	if l == nil || l.Key == "" || l.Kind != s.kind {
		return storage.ErrInvalidInput
	}

	err := s.client.HSet(ctx, l.Key,
		fieldContractID, l.ContractID,
		fieldTokenKey, l.TokenKey,
		fieldOwnerID, l.OwnerID,
		fieldPrice, l.Price,
		fieldCreatedAt, strconv.FormatInt(l.CreatedAt, 10),
	).Err()
	if err != nil {
		return fmt.Errorf("save %s listing: %w", s.kind, err)
	}
	return nil
}

// Remove deletes a listing. Absent keys are ignored.
func (s *ListingStore) Remove(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("remove %s listing: %w", s.kind, err)
	}
	return nil
}
