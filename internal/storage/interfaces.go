// Package storage defines the stores the processor writes through.
// Backends live in subpackages: memory, postgres, clickhouse, redis.
package storage

import (
	"context"
	"errors"

	"nft-token-indexer/internal/domain"
)

var (
	// ErrNotFound is returned by Get when the key has no record.
	// The processor treats it as a skippable lookup failure.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned when a record is rejected before or by the backend.
	ErrInvalidInput = errors.New("invalid input")
)

// TokenStore provides access to tokens storage.
type TokenStore interface {
	// Get retrieves a token by composite key. Returns ErrNotFound if not exists.
	Get(ctx context.Context, key string) (*domain.Token, error)

	// Save upserts a token (last write wins on the key).
	Save(ctx context.Context, t *domain.Token) error

	// Remove deletes a token. Removing an absent key is a no-op.
	Remove(ctx context.Context, key string) error
}

// TokenMetadataStore provides access to token_metadata storage.
type TokenMetadataStore interface {
	// Get retrieves metadata by token key. Returns ErrNotFound if not exists.
	Get(ctx context.Context, key string) (*domain.TokenMetadata, error)

	// Save upserts metadata.
	Save(ctx context.Context, m *domain.TokenMetadata) error

	// Remove deletes metadata. Removing an absent key is a no-op.
	Remove(ctx context.Context, key string) error
}

// AccountStatsStore provides access to account_stats storage.
type AccountStatsStore interface {
	// Get retrieves stats for an account. Returns ErrNotFound if not exists.
	Get(ctx context.Context, accountID string) (*domain.AccountStats, error)

	// Save upserts stats for an account.
	Save(ctx context.Context, s *domain.AccountStats) error
}

// ContractStatsStore provides access to contract_stats storage.
type ContractStatsStore interface {
	// Get retrieves stats for a contract. Returns ErrNotFound if not exists.
	Get(ctx context.Context, contractID string) (*domain.ContractStats, error)

	// Save upserts stats for a contract.
	Save(ctx context.Context, s *domain.ContractStats) error
}

// ContractStore provides access to contracts storage.
type ContractStore interface {
	// Get retrieves a contract. Returns ErrNotFound if not exists.
	Get(ctx context.Context, contractID string) (*domain.Contract, error)

	// Save upserts a contract.
	Save(ctx context.Context, c *domain.Contract) error
}

// ListingStore provides access to one kind of marketplace listing (sales or rents).
// Listings are owned by the marketplace subsystems; the indexer only removes them.
type ListingStore interface {
	// Get retrieves a listing by key. Returns ErrNotFound if not exists.
	Get(ctx context.Context, key string) (*domain.Listing, error)

	// Save upserts a listing.
	Save(ctx context.Context, l *domain.Listing) error

	// Remove deletes a listing. Removing an absent key is a no-op.
	Remove(ctx context.Context, key string) error
}

// RoyaltyStore records royalty splits per token.
type RoyaltyStore interface {
	// Record upserts the royalty split of a token.
	Record(ctx context.Context, r *domain.Royalty) error

	// Get retrieves the royalty split of a token. Returns ErrNotFound if not exists.
	Get(ctx context.Context, tokenKey string) (*domain.Royalty, error)

	// Remove deletes the royalty split of a token. Removing an absent key is a no-op.
	Remove(ctx context.Context, tokenKey string) error
}

// TraitStatsStore provides access to trait_stats storage.
type TraitStatsStore interface {
	// Get retrieves a trait counter by key. Returns ErrNotFound if not exists.
	Get(ctx context.Context, key string) (*domain.TraitStat, error)

	// Save upserts a trait counter.
	Save(ctx context.Context, s *domain.TraitStat) error

	// GetByContract retrieves all trait counters of a contract, ordered by category, value.
	GetByContract(ctx context.Context, contractID string) ([]*domain.TraitStat, error)
}

// Stores bundles every collaborator the processor writes to.
type Stores struct {
	Tokens        TokenStore
	Metadata      TokenMetadataStore
	AccountStats  AccountStatsStore
	ContractStats ContractStatsStore
	Contracts     ContractStore
	Sales         ListingStore
	Rents         ListingStore
	Royalties     RoyaltyStore
	TraitStats    TraitStatsStore
}
