package postgres

import (
	"context"
	"fmt"

	"nft-token-indexer/internal/domain"
	"nft-token-indexer/internal/storage"
)

// AccountStatsStore implements storage.AccountStatsStore using PostgreSQL.
type AccountStatsStore struct {
	pool *Pool
}

// NewAccountStatsStore creates a new AccountStatsStore.
func NewAccountStatsStore(pool *Pool) *AccountStatsStore {
	return &AccountStatsStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AccountStatsStore = (*AccountStatsStore)(nil)

// Get retrieves stats for an account. Returns ErrNotFound if not exists.
func (s *AccountStatsStore) Get(ctx context.Context, accountID string) (*domain.AccountStats, error) {
	query := `
		SELECT account_id, nft_sent, nft_received, nft_bought, nft_sold, nft_minted, nft_burned, updated_at
		FROM account_stats
		WHERE account_id = $1
	`

	var st domain.AccountStats
	err := s.pool.QueryRow(ctx, query, accountID).Scan(
		&st.AccountID,
		&st.NFTSent,
		&st.NFTReceived,
		&st.NFTBought,
		&st.NFTSold,
		&st.NFTMinted,
		&st.NFTBurned,
		&st.UpdatedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get account stats: %w", err)
	}
	return &st, nil
}

// Save upserts stats for an account.
func (s *AccountStatsStore) Save(ctx context.Context, st *domain.AccountStats) error {
	if st == nil || st.AccountID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO account_stats (
			account_id, nft_sent, nft_received, nft_bought, nft_sold, nft_minted, nft_burned, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (account_id) DO UPDATE SET
			nft_sent = EXCLUDED.nft_sent,
			nft_received = EXCLUDED.nft_received,
			nft_bought = EXCLUDED.nft_bought,
			nft_sold = EXCLUDED.nft_sold,
			nft_minted = EXCLUDED.nft_minted,
			nft_burned = EXCLUDED.nft_burned,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.pool.Exec(ctx, query,
		st.AccountID,
		st.NFTSent,
		st.NFTReceived,
		st.NFTBought,
		st.NFTSold,
		st.NFTMinted,
		st.NFTBurned,
		st.UpdatedAt,
	)
	if err != nil {
		return writeError("save account stats", err)
	}
	return nil
}
