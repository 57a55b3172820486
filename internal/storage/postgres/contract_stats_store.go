package postgres

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"nft-token-indexer/internal/domain"
	"nft-token-indexer/internal/storage"
)

// ContractStatsStore implements storage.ContractStatsStore using PostgreSQL.
type ContractStatsStore struct {
	pool *Pool
}

// NewContractStatsStore creates a new ContractStatsStore.
func NewContractStatsStore(pool *Pool) *ContractStatsStore {
	return &ContractStatsStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ContractStatsStore = (*ContractStatsStore)(nil)

// Get retrieves stats for a contract. Returns ErrNotFound if not exists.
func (s *ContractStatsStore) Get(ctx context.Context, contractID string) (*domain.ContractStats, error) {
	// payout_volume is read as text to keep full NUMERIC precision
	query := `
		SELECT contract_id, transfers, mints, burns, payout_transfers, payout_volume::text,
			last_block_height, updated_at
		FROM contract_stats
		WHERE contract_id = $1
	`

	var (
		st     domain.ContractStats
		volume string
	)
	err := s.pool.QueryRow(ctx, query, contractID).Scan(
		&st.ContractID,
		&st.Transfers,
		&st.Mints,
		&st.Burns,
		&st.PayoutTransfers,
		&volume,
		&st.LastBlockHeight,
		&st.UpdatedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get contract stats: %w", err)
	}

	if st.PayoutVolume, err = decimal.NewFromString(volume); err != nil {
		return nil, fmt.Errorf("parse payout volume %q: %w", volume, err)
	}
	return &st, nil
}

// Save upserts stats for a contract.
func (s *ContractStatsStore) Save(ctx context.Context, st *domain.ContractStats) error {
	if st == nil || st.ContractID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO contract_stats (
			contract_id, transfers, mints, burns, payout_transfers, payout_volume,
			last_block_height, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6::numeric, $7, $8)
		ON CONFLICT (contract_id) DO UPDATE SET
			transfers = EXCLUDED.transfers,
			mints = EXCLUDED.mints,
			burns = EXCLUDED.burns,
			payout_transfers = EXCLUDED.payout_transfers,
			payout_volume = EXCLUDED.payout_volume,
			last_block_height = EXCLUDED.last_block_height,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.pool.Exec(ctx, query,
		st.ContractID,
		st.Transfers,
		st.Mints,
		st.Burns,
		st.PayoutTransfers,
		st.PayoutVolume.String(),
		st.LastBlockHeight,
		st.UpdatedAt,
	)
	if err != nil {
		return writeError("save contract stats", err)
	}
	return nil
}
