package postgres

import (
	"context"
	"fmt"

	"nft-token-indexer/internal/domain"
	"nft-token-indexer/internal/storage"
)

// ListingStore implements storage.ListingStore using PostgreSQL.
// Sales and rents live in separate tables with identical layout.
type ListingStore struct {
	pool  *Pool
	kind  domain.ListingKind
	table string
}

// NewSaleStore creates a ListingStore over the sales table.
func NewSaleStore(pool *Pool) *ListingStore {
	return &ListingStore{pool: pool, kind: domain.ListingSale, table: "sales"}
}

// NewRentStore creates a ListingStore over the rents table.
func NewRentStore(pool *Pool) *ListingStore {
	return &ListingStore{pool: pool, kind: domain.ListingRent, table: "rents"}
}

// Compile-time interface check.
var _ storage.ListingStore = (*ListingStore)(nil)

// Get retrieves a listing by key. Returns ErrNotFound if not exists.
func (s *ListingStore) Get(ctx context.Context, key string) (*domain.Listing, error) {
	query := `
		SELECT key, contract_id, token_key, owner_id, price::text, created_at
		FROM ` + s.table + `
		WHERE key = $1
	`

	l := domain.Listing{Kind: s.kind}
	err := s.pool.QueryRow(ctx, query, key).Scan(
		&l.Key,
		&l.ContractID,
		&l.TokenKey,
		&l.OwnerID,
		&l.Price,
		&l.CreatedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get %s listing: %w", s.kind, err)
	}
	return &l, nil
}

// Save upserts a listing. The listing kind must match the store.
func (s *ListingStore) Save(ctx context.Context, l *domain.Listing) error {
	if l == nil || l.Key == "" || l.Kind != s.kind {
		return storage.ErrInvalidInput
	}

	price := l.Price
	if price == "" {
		price = "0"
	}

	query := `
		INSERT INTO ` + s.table + ` (key, contract_id, token_key, owner_id, price, created_at)
		VALUES ($1, $2, $3, $4, $5::numeric, $6)
		ON CONFLICT (key) DO UPDATE SET
			contract_id = EXCLUDED.contract_id,
			token_key = EXCLUDED.token_key,
			owner_id = EXCLUDED.owner_id,
			price = EXCLUDED.price,
			created_at = EXCLUDED.created_at
	`

	_, err := s.pool.Exec(ctx, query, l.Key, l.ContractID, l.TokenKey, l.OwnerID, price, l.CreatedAt)
	if err != nil {
		return writeError(fmt.Sprintf("save %s listing", s.kind), err)
	}
	return nil
}

// Remove deletes a listing. Absent keys are ignored.
func (s *ListingStore) Remove(ctx context.Context, key string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM `+s.table+` WHERE key = $1`, key); err != nil {
		return fmt.Errorf("remove %s listing: %w", s.kind, err)
	}
	return nil
}
