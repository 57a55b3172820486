package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"nft-token-indexer/internal/domain"
	"nft-token-indexer/internal/storage"
)

// TokenStore implements storage.TokenStore using PostgreSQL.
type TokenStore struct {
	pool *Pool
}

// NewTokenStore creates a new TokenStore.
func NewTokenStore(pool *Pool) *TokenStore {
	return &TokenStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TokenStore = (*TokenStore)(nil)

const selectTokenColumns = `
	key, contract_id, token_id, owner, created_at, reveal_time, rarity,
	royalty, bind_to_owner, metadata_id, updated_at
`

// Get retrieves a token by key. Returns ErrNotFound if not exists.
func (s *TokenStore) Get(ctx context.Context, key string) (*domain.Token, error) {
	query := `SELECT ` + selectTokenColumns + ` FROM tokens WHERE key = $1`

	row := s.pool.QueryRow(ctx, query, key)
	t, err := scanToken(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get token: %w", err)
	}
	return t, nil
}

// Save upserts a token. owner and owner_id are always written from the same value.
func (s *TokenStore) Save(ctx context.Context, t *domain.Token) error {
	if t == nil || t.Key == "" {
		return storage.ErrInvalidInput
	}

	royalty, err := encodeShares(t.Royalty)
	if err != nil {
		return fmt.Errorf("encode royalty: %w", err)
	}

	var rarity *int32
	if t.Rarity != nil {
		v := int32(*t.Rarity)
		rarity = &v
	}

	query := `
		INSERT INTO tokens (
			key, contract_id, token_id, owner, owner_id, created_at, reveal_time,
			rarity, royalty, bind_to_owner, metadata_id, updated_at
		) VALUES ($1, $2, $3, $4, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (key) DO UPDATE SET
			contract_id = EXCLUDED.contract_id,
			token_id = EXCLUDED.token_id,
			owner = EXCLUDED.owner,
			owner_id = EXCLUDED.owner_id,
			created_at = EXCLUDED.created_at,
			reveal_time = EXCLUDED.reveal_time,
			rarity = EXCLUDED.rarity,
			royalty = EXCLUDED.royalty,
			bind_to_owner = EXCLUDED.bind_to_owner,
			metadata_id = EXCLUDED.metadata_id,
			updated_at = EXCLUDED.updated_at
	`

	_, err = s.pool.Exec(ctx, query,
		t.Key,
		t.ContractID,
		t.TokenID,
		t.Owner,
		t.CreatedAt,
		t.RevealTime,
		rarity,
		royalty,
		t.BindToOwner,
		t.MetadataID,
		t.UpdatedAt,
	)
	if err != nil {
		return writeError("save token", err)
	}
	return nil
}

// Remove deletes a token. Absent keys are ignored.
func (s *TokenStore) Remove(ctx context.Context, key string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM tokens WHERE key = $1`, key); err != nil {
		return fmt.Errorf("remove token: %w", err)
	}
	return nil
}

// scanToken scans a single row into Token.
func scanToken(row pgx.Row) (*domain.Token, error) {
	var (
		t       domain.Token
		rarity  *int32
		royalty []byte
	)

	err := row.Scan(
		&t.Key,
		&t.ContractID,
		&t.TokenID,
		&t.Owner,
		&t.CreatedAt,
		&t.RevealTime,
		&rarity,
		&royalty,
		&t.BindToOwner,
		&t.MetadataID,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if rarity != nil {
		r := domain.Rarity(*rarity)
		t.Rarity = &r
	}
	if t.Royalty, err = decodeShares(royalty); err != nil {
		return nil, fmt.Errorf("decode royalty: %w", err)
	}

	return &t, nil
}

// encodeShares returns nil for an empty split so the column stays NULL.
func encodeShares(shares map[string]uint32) ([]byte, error) {
	if len(shares) == 0 {
		return nil, nil
	}
	return json.Marshal(shares)
}

func decodeShares(data []byte) (map[string]uint32, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var shares map[string]uint32
	if err := json.Unmarshal(data, &shares); err != nil {
		return nil, err
	}
	return shares, nil
}
