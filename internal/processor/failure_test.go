package processor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nft-token-indexer/internal/domain"
	"nft-token-indexer/internal/event"
	"nft-token-indexer/internal/idhash"
	"nft-token-indexer/internal/storage"
	"nft-token-indexer/internal/storage/memory"
)

var errDisk = errors.New("disk full")

// failingTokenStore wraps a memory store and fails Save once armed.
type failingTokenStore struct {
	*memory.TokenStore
	failSave bool
}

func (s *failingTokenStore) Save(ctx context.Context, t *domain.Token) error {
	if s.failSave {
		return errDisk
	}
	return s.TokenStore.Save(ctx, t)
}

// failingListingStore fails every Remove.
type failingListingStore struct {
	*memory.ListingStore
}

func (failingListingStore) Remove(context.Context, string) error {
	return errDisk
}

// failingRoyaltyStore fails every Remove.
type failingRoyaltyStore struct {
	*memory.RoyaltyStore
}

func (failingRoyaltyStore) Remove(context.Context, string) error {
	return errDisk
}

var (
	_ storage.TokenStore   = (*failingTokenStore)(nil)
	_ storage.ListingStore = failingListingStore{}
	_ storage.RoyaltyStore = failingRoyaltyStore{}
)

func TestSession_StorageFailureIsFatal(t *testing.T) {
	h := newHarness(t)
	tokens := &failingTokenStore{TokenStore: memory.NewTokenStore()}
	h.opts.Stores.Tokens = tokens
	h.stores.Tokens = tokens
	ctx := context.Background()
	s := h.open(t)

	require.NoError(t, s.Create(ctx, event.Payload{"token_id": "1", "owner_id": "alice"}))

	tokens.failSave = true
	err := s.Transfer(ctx, event.Payload{"old_owner_id": "alice", "new_owner_id": "bob", "token_ids": []any{"1"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, errDisk)
	assert.NotErrorIs(t, err, ErrSkipped)

	// Owner unchanged and no stats recorded for the failed transfer
	tok, err := tokens.Get(ctx, idhash.TokenKey(testContract, "1"))
	require.NoError(t, err)
	assert.Equal(t, "alice", tok.Owner)
	assert.Equal(t, int64(0), accountStats(t, h, "alice").NFTSent)
	assert.Equal(t, 1, h.logs.FilterMessage("event failed").Len())
}

func TestSession_CascadeFailureIsFatal(t *testing.T) {
	h := newHarness(t)
	h.opts.Stores.Rents = failingListingStore{ListingStore: memory.NewListingStore(domain.ListingRent)}
	ctx := context.Background()
	s := h.open(t)

	require.NoError(t, s.Create(ctx, event.Payload{"token_id": "1", "owner_id": "alice"}))

	err := s.Burn(ctx, event.Payload{"owner_id": "alice", "token_ids": []any{"1"}})
	assert.ErrorIs(t, err, errDisk)
	assert.NotErrorIs(t, err, ErrSkipped)
}

func TestSession_RoyaltyRemovalFailureIsFatal(t *testing.T) {
	h := newHarness(t)
	royalties := failingRoyaltyStore{RoyaltyStore: memory.NewRoyaltyStore()}
	h.opts.Stores.Royalties = royalties
	ctx := context.Background()
	s := h.open(t)

	// A create without royalty clears any previous split, so it hits Remove.
	err := s.Create(ctx, event.Payload{"token_id": "1", "owner_id": "alice"})
	assert.ErrorIs(t, err, errDisk)
	assert.NotErrorIs(t, err, ErrSkipped)

	require.NoError(t, s.Create(ctx, event.Payload{
		"token_id": "2",
		"owner_id": "alice",
		"royalty":  map[string]any{"alice": 100.0},
	}))
	err = s.Burn(ctx, event.Payload{"owner_id": "alice", "token_ids": []any{"2"}})
	assert.ErrorIs(t, err, errDisk)
	assert.NotErrorIs(t, err, ErrSkipped)
}
