package postgres

import (
	"context"
	"fmt"

	"nft-token-indexer/internal/domain"
	"nft-token-indexer/internal/storage"
)

// RoyaltyStore implements storage.RoyaltyStore using PostgreSQL.
type RoyaltyStore struct {
	pool *Pool
}

// NewRoyaltyStore creates a new RoyaltyStore.
func NewRoyaltyStore(pool *Pool) *RoyaltyStore {
	return &RoyaltyStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RoyaltyStore = (*RoyaltyStore)(nil)

// Record upserts the royalty split of a token.
func (s *RoyaltyStore) Record(ctx context.Context, r *domain.Royalty) error {
	if r == nil || r.TokenKey == "" {
		return storage.ErrInvalidInput
	}

	shares, err := encodeShares(r.Shares)
	if err != nil {
		return fmt.Errorf("encode royalty shares: %w", err)
	}
	if shares == nil {
		shares = []byte("{}")
	}

	query := `
		INSERT INTO royalties (token_key, contract_id, shares, recorded_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (token_key) DO UPDATE SET
			contract_id = EXCLUDED.contract_id,
			shares = EXCLUDED.shares,
			recorded_at = EXCLUDED.recorded_at
	`

	if _, err := s.pool.Exec(ctx, query, r.TokenKey, r.ContractID, shares, r.RecordedAt); err != nil {
		return writeError("record royalty", err)
	}
	return nil
}

// Get retrieves the royalty split of a token. Returns ErrNotFound if not exists.
func (s *RoyaltyStore) Get(ctx context.Context, tokenKey string) (*domain.Royalty, error) {
	query := `
		SELECT token_key, contract_id, shares, recorded_at
		FROM royalties
		WHERE token_key = $1
	`

	var (
		r      domain.Royalty
		shares []byte
	)
	err := s.pool.QueryRow(ctx, query, tokenKey).Scan(&r.TokenKey, &r.ContractID, &shares, &r.RecordedAt)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get royalty: %w", err)
	}

	if r.Shares, err = decodeShares(shares); err != nil {
		return nil, fmt.Errorf("decode royalty shares: %w", err)
	}
	if r.Shares == nil {
		r.Shares = map[string]uint32{}
	}
	return &r, nil
}

// Remove deletes the royalty split of a token.
func (s *RoyaltyStore) Remove(ctx context.Context, tokenKey string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM royalties WHERE token_key = $1`, tokenKey); err != nil {
		return fmt.Errorf("remove royalty: %w", err)
	}
	return nil
}
