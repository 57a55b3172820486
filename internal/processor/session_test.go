package processor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"nft-token-indexer/internal/domain"
	"nft-token-indexer/internal/event"
	"nft-token-indexer/internal/idhash"
	"nft-token-indexer/internal/observability"
	"nft-token-indexer/internal/storage"
	"nft-token-indexer/internal/storage/memory"
)

const (
	testContract  = "nft.near"
	testBlock     = int64(1200)
	testBlockTime = int64(1704067200000)
)

var testNow = time.UnixMilli(1704067260000)

// harness wires a session over in-memory stores with an observed logger.
type harness struct {
	stores  storage.Stores
	sales   *memory.ListingStore
	rents   *memory.ListingStore
	logs    *observer.ObservedLogs
	metrics *observability.Metrics
	opts    Options
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	core, logs := observer.New(zapcore.DebugLevel)
	stores := memory.NewStores()
	metrics := observability.NewMetrics("test", prometheus.NewRegistry())

	return &harness{
		stores:  stores,
		sales:   stores.Sales.(*memory.ListingStore),
		rents:   stores.Rents.(*memory.ListingStore),
		logs:    logs,
		metrics: metrics,
		opts: Options{
			Stores:  stores,
			Logger:  zap.New(core),
			Metrics: metrics,
			Now:     func() time.Time { return testNow },
		},
	}
}

func (h *harness) open(t *testing.T) *Session {
	t.Helper()
	s, err := Open(context.Background(), h.opts, SessionInfo{
		ContractID:     testContract,
		BlockHeight:    testBlock,
		BlockTimestamp: testBlockTime,
	})
	require.NoError(t, err)
	return s
}

func (h *harness) listing(t *testing.T, kind domain.ListingKind, tokenID string) string {
	t.Helper()
	tokenKey := idhash.TokenKey(testContract, tokenID)

	var (
		key   string
		store *memory.ListingStore
	)
	if kind == domain.ListingSale {
		key, store = idhash.SaleKey(testContract, tokenKey), h.sales
	} else {
		key, store = idhash.RentKey(testContract, tokenKey), h.rents
	}

	err := store.Save(context.Background(), &domain.Listing{
		Key:        key,
		Kind:       kind,
		ContractID: testContract,
		TokenKey:   tokenKey,
		OwnerID:    "alice",
		Price:      "1",
	})
	require.NoError(t, err)
	return key
}

func accountStats(t *testing.T, h *harness, id string) *domain.AccountStats {
	t.Helper()
	st, err := h.stores.AccountStats.Get(context.Background(), id)
	require.NoError(t, err, "account stats for %s", id)
	return st
}

func TestSession_LifecycleScenario(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	s := h.open(t)

	// create
	err := s.Create(ctx, event.Payload{"token_id": "1", "owner_id": "alice"})
	require.NoError(t, err)

	key := idhash.TokenKey(testContract, "1")
	tok, err := h.stores.Tokens.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "alice", tok.Owner)
	assert.Equal(t, testContract, tok.ContractID)
	assert.Equal(t, testBlockTime, tok.CreatedAt)
	accountStats(t, h, "alice")

	// transfer with listings present
	saleKey := h.listing(t, domain.ListingSale, "1")
	rentKey := h.listing(t, domain.ListingRent, "1")

	err = s.Transfer(ctx, event.Payload{"old_owner_id": "alice", "new_owner_id": "bob", "token_ids": []any{"1"}})
	require.NoError(t, err)

	tok, err = h.stores.Tokens.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "bob", tok.Owner)

	_, err = h.sales.Get(ctx, saleKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = h.rents.Get(ctx, rentKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.Equal(t, int64(1), accountStats(t, h, "alice").NFTSent)
	assert.Equal(t, int64(1), accountStats(t, h, "bob").NFTReceived)

	// burn
	err = s.Burn(ctx, event.Payload{"owner_id": "bob", "token_ids": []any{"1"}})
	require.NoError(t, err)

	_, err = h.stores.Tokens.Get(ctx, key)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Equal(t, int64(1), accountStats(t, h, "bob").NFTBurned)

	// contract stats are only written by End
	_, err = h.stores.ContractStats.Get(ctx, testContract)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.End(ctx))

	cs, err := h.stores.ContractStats.Get(ctx, testContract)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cs.Transfers)
	assert.Equal(t, int64(1), cs.Burns)
	assert.Equal(t, testBlock, cs.LastBlockHeight)
}

func TestSession_CreateMissingOwner(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	s := h.open(t)

	err := s.Create(ctx, event.Payload{"token_id": "1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSkipped)
	assert.ErrorIs(t, err, event.ErrValidation)

	_, err = h.stores.Tokens.Get(ctx, idhash.TokenKey(testContract, "1"))
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Equal(t, 0, h.stores.AccountStats.(*memory.AccountStatsStore).Saves())

	entries := h.logs.FilterMessage("event skipped").All()
	require.Len(t, entries, 1)
	ctxMap := entries[0].ContextMap()
	assert.Equal(t, "nft_create", ctxMap["op"])
	assert.Equal(t, "owner_id", ctxMap["field"])
	assert.Equal(t, testContract, ctxMap["contract_id"])
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)

	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.EventsSkipped.WithLabelValues("nft_create", "validation")))
}

func TestSession_CreateFull(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	s := h.open(t)

	err := s.Create(ctx, event.Payload{
		"token_id":      "7",
		"owner_id":      "alice.near",
		"created_at":    1700000000000.0,
		"reveal_time":   1700000100000.0,
		"rarity":        "Legendary",
		"royalty":       map[string]any{"artist.near": 500.0},
		"bind_to_owner": true,
		"metadata":      map[string]any{"title": "Seven", "media": "bafy7"},
		"types":         map[string]any{"eyes": "red", "background": "blue"},
	})
	require.NoError(t, err)

	key := idhash.TokenKey(testContract, "7")
	tok, err := h.stores.Tokens.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000000), tok.CreatedAt)
	require.NotNil(t, tok.RevealTime)
	assert.Equal(t, int64(1700000100000), *tok.RevealTime)
	require.NotNil(t, tok.Rarity)
	assert.Equal(t, domain.RarityLegendary, *tok.Rarity)
	assert.True(t, tok.BindToOwner)
	require.NotNil(t, tok.MetadataID)
	assert.Equal(t, key, *tok.MetadataID)

	meta, err := h.stores.Metadata.Get(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, meta.Title)
	assert.Equal(t, "Seven", *meta.Title)
	assert.Nil(t, meta.Description)

	royalty, err := h.stores.Royalties.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, map[string]uint32{"artist.near": 500}, royalty.Shares)

	traits, err := h.stores.TraitStats.GetByContract(ctx, testContract)
	require.NoError(t, err)
	require.Len(t, traits, 2)
	assert.Equal(t, "background", traits[0].Category)
	assert.Equal(t, domain.SchemaCurrent, traits[0].Schema)
	assert.Equal(t, int64(1), traits[0].TokenCount)
}

func TestSession_CreateSchemaRoutingExclusive(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	s := h.open(t)

	// types wins; the deprecated fields are never counted
	err := s.Create(ctx, event.Payload{
		"token_id":   "1",
		"owner_id":   "alice.near",
		"types":      map[string]any{"class": "mage"},
		"collection": "genesis",
	})
	require.NoError(t, err)

	// deprecated only
	err = s.Create(ctx, event.Payload{
		"token_id":   "2",
		"owner_id":   "alice.near",
		"collection": "genesis",
		"token_type": "card",
	})
	require.NoError(t, err)

	traits, err := h.stores.TraitStats.GetByContract(ctx, testContract)
	require.NoError(t, err)

	byKey := make(map[string]*domain.TraitStat)
	for _, st := range traits {
		byKey[st.Key] = st
	}
	require.Len(t, byKey, 3)

	assert.Equal(t, domain.SchemaCurrent, byKey[idhash.TraitKey(testContract, "class", "mage")].Schema)
	genesis := byKey[idhash.TraitKey(testContract, "collection", "genesis")]
	require.NotNil(t, genesis)
	assert.Equal(t, int64(1), genesis.TokenCount)
	assert.Equal(t, domain.SchemaDeprecated, genesis.Schema)
}

func TestSession_CreateDropsMalformedOptionals(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	s := h.open(t)

	err := s.Create(ctx, event.Payload{
		"token_id": "1",
		"owner_id": "alice.near",
		"rarity":   "ultra",
		"royalty":  "lots",
		"types":    []any{"not", "an", "object"},
	})
	require.NoError(t, err)

	tok, err := h.stores.Tokens.Get(ctx, idhash.TokenKey(testContract, "1"))
	require.NoError(t, err)
	assert.Nil(t, tok.Rarity)
	assert.Nil(t, tok.Royalty)

	traits, err := h.stores.TraitStats.GetByContract(ctx, testContract)
	require.NoError(t, err)
	assert.Empty(t, traits)

	dropped := h.logs.FilterMessage("optional field dropped").All()
	fields := make(map[string]bool)
	for _, entry := range dropped {
		fields[entry.ContextMap()["field"].(string)] = true
	}
	assert.True(t, fields["rarity"])
	assert.True(t, fields["royalty"])
	assert.True(t, fields["types"])

	_, err = h.stores.Royalties.Get(ctx, idhash.TokenKey(testContract, "1"))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSession_CreateOverwritesExisting(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	s := h.open(t)

	require.NoError(t, s.Create(ctx, event.Payload{"token_id": "1", "owner_id": "alice.near", "rarity": 2.0}))
	require.NoError(t, s.Create(ctx, event.Payload{"token_id": "1", "owner_id": "carol.near"}))

	tok, err := h.stores.Tokens.Get(ctx, idhash.TokenKey(testContract, "1"))
	require.NoError(t, err)
	assert.Equal(t, "carol.near", tok.Owner)
	assert.Nil(t, tok.Rarity)
}

func TestSession_RecreateWithoutMetadataThenBurn(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	s := h.open(t)
	key := idhash.TokenKey(testContract, "1")

	require.NoError(t, s.Create(ctx, event.Payload{
		"token_id": "1",
		"owner_id": "alice.near",
		"metadata": map[string]any{"title": "x"},
		"royalty":  map[string]any{"alice.near": 500.0},
	}))
	require.NoError(t, s.Create(ctx, event.Payload{"token_id": "1", "owner_id": "alice.near"}))

	tok, err := h.stores.Tokens.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, tok.MetadataID)
	_, err = h.stores.Metadata.Get(ctx, key)
	assert.ErrorIs(t, err, storage.ErrNotFound, "stale metadata kept after re-create")
	_, err = h.stores.Royalties.Get(ctx, key)
	assert.ErrorIs(t, err, storage.ErrNotFound, "stale royalty kept after re-create")

	require.NoError(t, s.Burn(ctx, event.Payload{"token_ids": []any{"1"}, "owner_id": "alice.near"}))

	_, err = h.stores.Tokens.Get(ctx, key)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = h.stores.Metadata.Get(ctx, key)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSession_BurnRemovesUnlinkedMetadataAndRoyalty(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	s := h.open(t)
	key := idhash.TokenKey(testContract, "1")

	require.NoError(t, s.Create(ctx, event.Payload{
		"token_id": "1",
		"owner_id": "alice.near",
		"royalty":  map[string]any{"alice.near": 500.0},
	}))
	// Metadata written at the token key without a link from the token.
	require.NoError(t, h.stores.Metadata.Save(ctx, &domain.TokenMetadata{
		Key:        key,
		ContractID: testContract,
		TokenID:    "1",
	}))

	require.NoError(t, s.Burn(ctx, event.Payload{"token_ids": []any{"1"}, "owner_id": "alice.near"}))

	_, err := h.stores.Metadata.Get(ctx, key)
	assert.ErrorIs(t, err, storage.ErrNotFound, "metadata outlived burned token")
	_, err = h.stores.Royalties.Get(ctx, key)
	assert.ErrorIs(t, err, storage.ErrNotFound, "royalty outlived burned token")
}

func TestSession_TransferMissingToken(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	s := h.open(t)

	err := s.Transfer(ctx, event.Payload{"old_owner_id": "alice", "new_owner_id": "bob", "token_ids": []any{"404"}})
	assert.ErrorIs(t, err, ErrSkipped)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// No stats or cascades for a skipped event
	_, err = h.stores.AccountStats.Get(ctx, "alice")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Equal(t, 0, h.sales.Removes())

	entries := h.logs.FilterMessage("event skipped").All()
	require.Len(t, entries, 1)
	assert.Equal(t, idhash.TokenKey(testContract, "404"), entries[0].ContextMap()["key"])
	assert.Equal(t, "not_found", entries[0].ContextMap()["reason"])

	require.NoError(t, s.End(ctx))
	_, err = h.stores.ContractStats.Get(ctx, testContract)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSession_TransferCascadesWithoutListings(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	s := h.open(t)

	require.NoError(t, s.Create(ctx, event.Payload{"token_id": "1", "owner_id": "alice"}))
	require.NoError(t, s.Transfer(ctx, event.Payload{"old_owner_id": "alice", "new_owner_id": "bob", "token_ids": []any{"1"}}))

	assert.Equal(t, 1, h.sales.Removes())
	assert.Equal(t, 1, h.rents.Removes())
}

func TestSession_TransferBatchUsesFirstID(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	s := h.open(t)

	require.NoError(t, s.Create(ctx, event.Payload{"token_id": "1", "owner_id": "alice"}))
	require.NoError(t, s.Create(ctx, event.Payload{"token_id": "2", "owner_id": "alice"}))

	err := s.Transfer(ctx, event.Payload{"old_owner_id": "alice", "new_owner_id": "bob", "token_ids": []any{"1", "2"}})
	require.NoError(t, err)

	first, _ := h.stores.Tokens.Get(ctx, idhash.TokenKey(testContract, "1"))
	second, _ := h.stores.Tokens.Get(ctx, idhash.TokenKey(testContract, "2"))
	assert.Equal(t, "bob", first.Owner)
	assert.Equal(t, "alice", second.Owner)

	warn := h.logs.FilterMessage("batch token ids ignored").All()
	require.Len(t, warn, 1)
	assert.Equal(t, []interface{}{"2"}, warn[0].ContextMap()["ignored_token_ids"])
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.BatchTokenIDsIgnored.WithLabelValues("nft_transfer")))
}

func TestSession_TransferOwnerMismatchStillApplies(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	s := h.open(t)

	require.NoError(t, s.Create(ctx, event.Payload{"token_id": "1", "owner_id": "alice"}))
	require.NoError(t, s.Transfer(ctx, event.Payload{"old_owner_id": "mallory", "new_owner_id": "bob", "token_ids": []any{"1"}}))

	tok, _ := h.stores.Tokens.Get(ctx, idhash.TokenKey(testContract, "1"))
	assert.Equal(t, "bob", tok.Owner)
	assert.Equal(t, 1, h.logs.FilterMessage("transfer sender is not the recorded owner").Len())
}

func TestSession_BurnRemovesMetadataAndListings(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	s := h.open(t)

	require.NoError(t, s.Create(ctx, event.Payload{
		"token_id": "9",
		"owner_id": "alice",
		"metadata": map[string]any{"title": "Nine"},
	}))
	saleKey := h.listing(t, domain.ListingSale, "9")

	require.NoError(t, s.Burn(ctx, event.Payload{"owner_id": "alice", "token_ids": []any{"9"}}))

	key := idhash.TokenKey(testContract, "9")
	_, err := h.stores.Tokens.Get(ctx, key)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = h.stores.Metadata.Get(ctx, key)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = h.sales.Get(ctx, saleKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Second burn of the same token is skipped
	err = s.Burn(ctx, event.Payload{"owner_id": "alice", "token_ids": []any{"9"}})
	assert.ErrorIs(t, err, ErrSkipped)
	assert.Equal(t, int64(1), accountStats(t, h, "alice").NFTBurned)
}

func TestSession_MintIsStatsOnly(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	s := h.open(t)

	require.NoError(t, s.Mint(ctx, event.Payload{"owner_id": "alice", "token_ids": []any{"5"}}))

	_, err := h.stores.Tokens.Get(ctx, idhash.TokenKey(testContract, "5"))
	assert.ErrorIs(t, err, storage.ErrNotFound)

	st := accountStats(t, h, "alice")
	assert.Equal(t, int64(1), st.NFTMinted)
	assert.Equal(t, int64(1), st.NFTReceived)

	require.NoError(t, s.End(ctx))
	cs, err := h.stores.ContractStats.Get(ctx, testContract)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cs.Mints)
}

func TestSession_TransferPayout(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	s := h.open(t)

	require.NoError(t, s.Create(ctx, event.Payload{"token_id": "3", "owner_id": "alice"}))

	err := s.TransferPayout(ctx, event.Payload{
		"old_owner_id": "alice",
		"new_owner_id": "bob",
		"token_id":     "3",
		"balance":      "2500000000000000000000000",
	})
	require.NoError(t, err)
	err = s.TransferPayout(ctx, event.Payload{
		"old_owner_id": "alice",
		"new_owner_id": "bob",
		"token_id":     "3",
		"balance":      "-5",
	})
	require.NoError(t, err)

	// Payout does not move ownership
	tok, _ := h.stores.Tokens.Get(ctx, idhash.TokenKey(testContract, "3"))
	assert.Equal(t, "alice", tok.Owner)

	assert.Equal(t, int64(2), accountStats(t, h, "alice").NFTSold)
	assert.Equal(t, int64(2), accountStats(t, h, "bob").NFTBought)

	require.NoError(t, s.End(ctx))
	cs, err := h.stores.ContractStats.Get(ctx, testContract)
	require.NoError(t, err)
	assert.Equal(t, int64(2), cs.PayoutTransfers)
	assert.Equal(t, "2500000000000000000000000", cs.PayoutVolume.String())
}

func TestSession_EndOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	s := h.open(t)

	require.NoError(t, s.Mint(ctx, event.Payload{"owner_id": "alice", "token_ids": []any{"1"}}))
	require.NoError(t, s.End(ctx))

	assert.ErrorIs(t, s.End(ctx), ErrSessionEnded)
	assert.ErrorIs(t, s.Create(ctx, event.Payload{"token_id": "2", "owner_id": "alice"}), ErrSessionEnded)
	assert.ErrorIs(t, s.Transfer(ctx, event.Payload{}), ErrSessionEnded)
	assert.ErrorIs(t, s.Burn(ctx, event.Payload{}), ErrSessionEnded)
	assert.ErrorIs(t, s.Mint(ctx, event.Payload{}), ErrSessionEnded)
	assert.ErrorIs(t, s.TransferPayout(ctx, event.Payload{}), ErrSessionEnded)

	assert.Equal(t, 1, h.stores.ContractStats.(*memory.ContractStatsStore).Saves())
}

func TestSession_Get(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	s := h.open(t)

	require.NoError(t, s.Create(ctx, event.Payload{"token_id": "1", "owner_id": "alice"}))

	tok, err := s.Get(ctx, idhash.TokenKey(testContract, "1"))
	require.NoError(t, err)
	assert.Equal(t, "alice", tok.Owner)

	_, err = s.Get(ctx, idhash.TokenKey(testContract, "2"))
	assert.ErrorIs(t, err, ErrTokenRequired)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Equal(t, 1, h.logs.FilterMessage("required token missing").Len())
}

func TestOpen_EnsuresContract(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.open(t)
	c, err := h.stores.Contracts.Get(ctx, testContract)
	require.NoError(t, err)
	assert.Equal(t, testBlock, c.FirstSeenBlock)

	// A later session keeps the first-seen block
	_, err = Open(ctx, h.opts, SessionInfo{ContractID: testContract, BlockHeight: testBlock + 10})
	require.NoError(t, err)
	c, err = h.stores.Contracts.Get(ctx, testContract)
	require.NoError(t, err)
	assert.Equal(t, testBlock, c.FirstSeenBlock)
}

func TestOpen_InvalidSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := Open(ctx, h.opts, SessionInfo{})
	assert.ErrorIs(t, err, ErrInvalidSession)

	opts := h.opts
	opts.Stores.Rents = nil
	_, err = Open(ctx, opts, SessionInfo{ContractID: testContract})
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestOpen_NilLoggerAndMetrics(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, Options{Stores: memory.NewStores()}, SessionInfo{ContractID: testContract})
	require.NoError(t, err)

	assert.ErrorIs(t, s.Create(ctx, event.Payload{}), ErrSkipped)
	require.NoError(t, s.End(ctx))
}

func TestRun_EndsOnSuccess(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	info := SessionInfo{ContractID: testContract, BlockHeight: testBlock}

	err := Run(ctx, h.opts, info, func(s *Session) error {
		return s.Mint(ctx, event.Payload{"owner_id": "alice", "token_ids": []any{"1"}})
	})
	require.NoError(t, err)

	cs, err := h.stores.ContractStats.Get(ctx, testContract)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cs.Mints)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.SessionsTotal.WithLabelValues(observability.SessionOK)))
	assert.Equal(t, 0.0, testutil.ToFloat64(h.metrics.SessionsTotal.WithLabelValues(observability.SessionAborted)))
}

func TestRun_DiscardsOnFailure(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	info := SessionInfo{ContractID: testContract, BlockHeight: testBlock}
	boom := errors.New("boom")

	err := Run(ctx, h.opts, info, func(s *Session) error {
		_ = s.Mint(ctx, event.Payload{"owner_id": "alice", "token_ids": []any{"1"}})
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = h.stores.ContractStats.Get(ctx, testContract)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Equal(t, 1, h.logs.FilterMessage("session aborted, contract stats discarded").Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.SessionsTotal.WithLabelValues(observability.SessionAborted)))
	assert.Equal(t, 0.0, testutil.ToFloat64(h.metrics.SessionsTotal.WithLabelValues(observability.SessionOK)))
}
