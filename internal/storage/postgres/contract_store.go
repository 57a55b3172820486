package postgres

import (
	"context"
	"fmt"

	"nft-token-indexer/internal/domain"
	"nft-token-indexer/internal/storage"
)

// ContractStore implements storage.ContractStore using PostgreSQL.
type ContractStore struct {
	pool *Pool
}

// NewContractStore creates a new ContractStore.
func NewContractStore(pool *Pool) *ContractStore {
	return &ContractStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ContractStore = (*ContractStore)(nil)

// Get retrieves a contract. Returns ErrNotFound if not exists.
func (s *ContractStore) Get(ctx context.Context, contractID string) (*domain.Contract, error) {
	query := `
		SELECT contract_id, first_seen_block, created_at
		FROM contracts
		WHERE contract_id = $1
	`

	var c domain.Contract
	err := s.pool.QueryRow(ctx, query, contractID).Scan(&c.ContractID, &c.FirstSeenBlock, &c.CreatedAt)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get contract: %w", err)
	}
	return &c, nil
}

// Save upserts a contract.
func (s *ContractStore) Save(ctx context.Context, c *domain.Contract) error {
	if c == nil || c.ContractID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO contracts (contract_id, first_seen_block, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (contract_id) DO UPDATE SET
			first_seen_block = EXCLUDED.first_seen_block,
			created_at = EXCLUDED.created_at
	`

	if _, err := s.pool.Exec(ctx, query, c.ContractID, c.FirstSeenBlock, c.CreatedAt); err != nil {
		return writeError("save contract", err)
	}
	return nil
}
