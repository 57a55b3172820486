package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"nft-token-indexer/internal/domain"
	"nft-token-indexer/internal/storage"
)

// TokenMetadataStore implements storage.TokenMetadataStore using PostgreSQL.
type TokenMetadataStore struct {
	pool *Pool
}

// NewTokenMetadataStore creates a new TokenMetadataStore.
func NewTokenMetadataStore(pool *Pool) *TokenMetadataStore {
	return &TokenMetadataStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TokenMetadataStore = (*TokenMetadataStore)(nil)

// Get retrieves metadata by token key. Returns ErrNotFound if not exists.
func (s *TokenMetadataStore) Get(ctx context.Context, key string) (*domain.TokenMetadata, error) {
	query := `
		SELECT key, contract_id, token_id, title, description, media, created_at
		FROM token_metadata
		WHERE key = $1
	`

	row := s.pool.QueryRow(ctx, query, key)
	m, err := scanTokenMetadata(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get token metadata: %w", err)
	}
	return m, nil
}

// Save upserts metadata.
func (s *TokenMetadataStore) Save(ctx context.Context, m *domain.TokenMetadata) error {
	if m == nil || m.Key == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO token_metadata (
			key, contract_id, token_id, title, description, media, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (key) DO UPDATE SET
			contract_id = EXCLUDED.contract_id,
			token_id = EXCLUDED.token_id,
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			media = EXCLUDED.media,
			created_at = EXCLUDED.created_at
	`

	_, err := s.pool.Exec(ctx, query,
		m.Key,
		m.ContractID,
		m.TokenID,
		m.Title,
		m.Description,
		m.Media,
		m.CreatedAt,
	)
	if err != nil {
		return writeError("save token metadata", err)
	}
	return nil
}

// Remove deletes metadata. Absent keys are ignored.
func (s *TokenMetadataStore) Remove(ctx context.Context, key string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM token_metadata WHERE key = $1`, key); err != nil {
		return fmt.Errorf("remove token metadata: %w", err)
	}
	return nil
}

// scanTokenMetadata scans a single row into TokenMetadata.
func scanTokenMetadata(row pgx.Row) (*domain.TokenMetadata, error) {
	var m domain.TokenMetadata

	err := row.Scan(
		&m.Key,
		&m.ContractID,
		&m.TokenID,
		&m.Title,
		&m.Description,
		&m.Media,
		&m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &m, nil
}
