package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"nft-token-indexer/internal/domain"
	"nft-token-indexer/internal/storage"
)

// TraitStatsStore implements storage.TraitStatsStore using PostgreSQL.
type TraitStatsStore struct {
	pool *Pool
}

// NewTraitStatsStore creates a new TraitStatsStore.
func NewTraitStatsStore(pool *Pool) *TraitStatsStore {
	return &TraitStatsStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TraitStatsStore = (*TraitStatsStore)(nil)

// Get retrieves a trait counter by key. Returns ErrNotFound if not exists.
func (s *TraitStatsStore) Get(ctx context.Context, key string) (*domain.TraitStat, error) {
	query := `
		SELECT key, contract_id, category, value, schema, token_count, updated_at
		FROM trait_stats
		WHERE key = $1
	`

	st, err := scanTraitStat(s.pool.QueryRow(ctx, query, key))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get trait stat: %w", err)
	}
	return st, nil
}

// Save upserts a trait counter.
func (s *TraitStatsStore) Save(ctx context.Context, st *domain.TraitStat) error {
	if st == nil || st.Key == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO trait_stats (key, contract_id, category, value, schema, token_count, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (key) DO UPDATE SET
			schema = EXCLUDED.schema,
			token_count = EXCLUDED.token_count,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.pool.Exec(ctx, query,
		st.Key,
		st.ContractID,
		st.Category,
		st.Value,
		string(st.Schema),
		st.TokenCount,
		st.UpdatedAt,
	)
	if err != nil {
		return writeError("save trait stat", err)
	}
	return nil
}

// GetByContract retrieves all trait counters of a contract, ordered by category, value.
func (s *TraitStatsStore) GetByContract(ctx context.Context, contractID string) ([]*domain.TraitStat, error) {
	query := `
		SELECT key, contract_id, category, value, schema, token_count, updated_at
		FROM trait_stats
		WHERE contract_id = $1
		ORDER BY category ASC, value ASC
	`

	rows, err := s.pool.Query(ctx, query, contractID)
	if err != nil {
		return nil, fmt.Errorf("query trait stats by contract: %w", err)
	}
	defer rows.Close()

	var result []*domain.TraitStat
	for rows.Next() {
		st, err := scanTraitStat(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trait stat: %w", err)
		}
		result = append(result, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trait stats: %w", err)
	}

	return result, nil
}

// scanTraitStat scans a single row into TraitStat.
func scanTraitStat(row pgx.Row) (*domain.TraitStat, error) {
	var (
		st     domain.TraitStat
		schema string
	)

	err := row.Scan(
		&st.Key,
		&st.ContractID,
		&st.Category,
		&st.Value,
		&schema,
		&st.TokenCount,
		&st.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	st.Schema = domain.ClassificationSchema(schema)
	return &st, nil
}
