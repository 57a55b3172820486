package clickhouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"nft-token-indexer/internal/domain"
	"nft-token-indexer/internal/storage"
)

// ContractStatsStore implements storage.ContractStatsStore using ClickHouse.
// Every Save appends a full row; ReplacingMergeTree keeps the one with the highest updated_at.
type ContractStatsStore struct {
	conn *Conn
}

// NewContractStatsStore creates a new ContractStatsStore.
func NewContractStatsStore(conn *Conn) *ContractStatsStore {
	return &ContractStatsStore{conn: conn}
}

// Compile-time interface check.
var _ storage.ContractStatsStore = (*ContractStatsStore)(nil)

// Get retrieves stats for a contract. Returns ErrNotFound if not exists.
func (s *ContractStatsStore) Get(ctx context.Context, contractID string) (*domain.ContractStats, error) {
	query := `
		SELECT
			contract_id, transfers, mints, burns, payout_transfers, payout_volume,
			last_block_height, updated_at
		FROM contract_stats FINAL
		WHERE contract_id = ?
		LIMIT 1
	`

	var (
		st        domain.ContractStats
		volume    string
		updatedAt uint64
	)
	err := s.conn.QueryRow(ctx, query, contractID).Scan(
		&st.ContractID,
		&st.Transfers,
		&st.Mints,
		&st.Burns,
		&st.PayoutTransfers,
		&volume,
		&st.LastBlockHeight,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get contract stats: %w", err)
	}

	st.UpdatedAt = int64(updatedAt)
	if st.PayoutVolume, err = decimal.NewFromString(volume); err != nil {
		return nil, fmt.Errorf("parse payout volume %q: %w", volume, err)
	}
	return &st, nil
}

// Save appends a new version of the contract stats.
func (s *ContractStatsStore) Save(ctx context.Context, st *domain.ContractStats) error {
	if st == nil || st.ContractID == "" || st.UpdatedAt < 0 {
		return storage.ErrInvalidInput
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO contract_stats (
			contract_id, transfers, mints, burns, payout_transfers, payout_volume,
			last_block_height, updated_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	err = batch.Append(
		st.ContractID,
		st.Transfers,
		st.Mints,
		st.Burns,
		st.PayoutTransfers,
		st.PayoutVolume.String(),
		st.LastBlockHeight,
		uint64(st.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("append to batch: %w", err)
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}
