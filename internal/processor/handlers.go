package processor

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"nft-token-indexer/internal/domain"
	"nft-token-indexer/internal/event"
	"nft-token-indexer/internal/idhash"
	"nft-token-indexer/internal/normalization"
	"nft-token-indexer/internal/stats"
	"nft-token-indexer/internal/storage"
)

// Create applies an nft_create event. An existing token at the same key is
// overwritten, including any metadata or royalty the new payload omits.
// Metadata is saved before the token that links to it.
func (s *Session) Create(ctx context.Context, p event.Payload) error {
	const kind = event.KindCreate
	if err := s.active(); err != nil {
		return err
	}

	e, err := event.DecodeCreate(p)
	if err != nil {
		return s.skip(kind, "", err)
	}

	key := idhash.TokenKey(s.info.ContractID, e.TokenID)
	s.reportDropped(kind, key, e.Dropped)

	now := s.now()
	createdAt := s.info.BlockTimestamp
	if e.CreatedAt != nil {
		createdAt = *e.CreatedAt
	}

	token := &domain.Token{
		Key:        key,
		ContractID: s.info.ContractID,
		TokenID:    e.TokenID,
		Owner:      e.OwnerID,
		CreatedAt:  createdAt,
		RevealTime: e.RevealTime,
		Rarity:     e.Rarity,
		Royalty:    e.Royalty,
		UpdatedAt:  now,
	}
	if e.BindToOwner != nil {
		token.BindToOwner = *e.BindToOwner
	}

	if e.Metadata != nil {
		meta := &domain.TokenMetadata{
			Key:         key,
			ContractID:  s.info.ContractID,
			TokenID:     e.TokenID,
			Title:       e.Metadata.Title,
			Description: e.Metadata.Description,
			Media:       e.Metadata.Media,
			CreatedAt:   now,
		}
		if err := s.stores.Metadata.Save(ctx, meta); err != nil {
			return s.fail(kind, key, fmt.Errorf("save metadata: %w", err))
		}
		token.MetadataID = &meta.Key
	}

	if err := s.stores.Tokens.Save(ctx, token); err != nil {
		return s.fail(kind, key, fmt.Errorf("save token: %w", err))
	}
	if e.Metadata == nil {
		if err := s.stores.Metadata.Remove(ctx, key); err != nil {
			return s.fail(kind, key, fmt.Errorf("remove metadata: %w", err))
		}
	}

	if e.Royalty == nil {
		if err := s.stores.Royalties.Remove(ctx, key); err != nil {
			return s.fail(kind, key, fmt.Errorf("remove royalty: %w", err))
		}
	} else {
		r := &domain.Royalty{
			TokenKey:   key,
			ContractID: s.info.ContractID,
			Shares:     e.Royalty,
			RecordedAt: now,
		}
		if err := s.stores.Royalties.Record(ctx, r); err != nil {
			return s.fail(kind, key, fmt.Errorf("record royalty: %w", err))
		}
	}

	if err := s.recordTraits(ctx, e.Classification, now); err != nil {
		return s.fail(kind, key, err)
	}

	if err := s.accounts.Ensure(ctx, e.OwnerID); err != nil {
		return s.fail(kind, key, err)
	}

	s.logger.Debug("token created",
		zap.String("key", key),
		zap.String("owner_id", e.OwnerID),
		zap.String("schema", string(e.Classification.Schema)),
	)
	s.applied(kind)
	return nil
}

// Transfer applies an nft_transfer event to the first listed token.
func (s *Session) Transfer(ctx context.Context, p event.Payload) error {
	const kind = event.KindTransfer
	if err := s.active(); err != nil {
		return err
	}

	e, err := event.DecodeTransfer(p)
	if err != nil {
		return s.skip(kind, "", err)
	}

	key := idhash.TokenKey(s.info.ContractID, s.firstTokenID(kind, e.TokenIDs))
	token, err := s.loadToken(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return s.skip(kind, key, err)
		}
		return s.fail(kind, key, err)
	}

	if token.Owner != e.OldOwnerID {
		s.logger.Warn("transfer sender is not the recorded owner",
			zap.String("op", kind.String()),
			zap.String("key", key),
			zap.String("owner_id", token.Owner),
			zap.String("old_owner_id", e.OldOwnerID),
		)
	}

	token.Owner = e.NewOwnerID
	token.UpdatedAt = s.now()
	if err := s.stores.Tokens.Save(ctx, token); err != nil {
		return s.fail(kind, key, fmt.Errorf("save token: %w", err))
	}

	if err := s.cascade(ctx, key); err != nil {
		return s.fail(kind, key, err)
	}

	if err := s.accounts.Record(ctx, e.OldOwnerID, stats.ActivitySend); err != nil {
		return s.fail(kind, key, err)
	}
	if err := s.accounts.Record(ctx, e.NewOwnerID, stats.ActivityReceive); err != nil {
		return s.fail(kind, key, err)
	}
	s.contract.Transfer()

	s.applied(kind)
	return nil
}

// Burn applies an nft_burn event: the token, its metadata, its royalty and its
// listings are removed.
func (s *Session) Burn(ctx context.Context, p event.Payload) error {
	const kind = event.KindBurn
	if err := s.active(); err != nil {
		return err
	}

	e, err := event.DecodeBurn(p)
	if err != nil {
		return s.skip(kind, "", err)
	}

	key := idhash.TokenKey(s.info.ContractID, s.firstTokenID(kind, e.TokenIDs))
	if _, err := s.loadToken(ctx, key); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return s.skip(kind, key, err)
		}
		return s.fail(kind, key, err)
	}

	// Metadata lives at the token key whether or not the token still links to it.
	if err := s.stores.Metadata.Remove(ctx, key); err != nil {
		return s.fail(kind, key, fmt.Errorf("remove metadata: %w", err))
	}
	if err := s.stores.Tokens.Remove(ctx, key); err != nil {
		return s.fail(kind, key, fmt.Errorf("remove token: %w", err))
	}
	if err := s.stores.Royalties.Remove(ctx, key); err != nil {
		return s.fail(kind, key, fmt.Errorf("remove royalty: %w", err))
	}

	if err := s.cascade(ctx, key); err != nil {
		return s.fail(kind, key, err)
	}

	if err := s.accounts.Record(ctx, e.OwnerID, stats.ActivityBurn); err != nil {
		return s.fail(kind, key, err)
	}
	s.contract.Burn()

	s.applied(kind)
	return nil
}

// Mint records mint statistics. The token itself comes from a prior create event.
func (s *Session) Mint(ctx context.Context, p event.Payload) error {
	const kind = event.KindMint
	if err := s.active(); err != nil {
		return err
	}

	e, err := event.DecodeMint(p)
	if err != nil {
		return s.skip(kind, "", err)
	}

	key := idhash.TokenKey(s.info.ContractID, s.firstTokenID(kind, e.TokenIDs))

	if err := s.accounts.Record(ctx, e.OwnerID, stats.ActivityReceive); err != nil {
		return s.fail(kind, key, err)
	}
	if err := s.accounts.Record(ctx, e.OwnerID, stats.ActivityMint); err != nil {
		return s.fail(kind, key, err)
	}
	s.contract.Mint()

	s.applied(kind)
	return nil
}

// TransferPayout records sale statistics for a payout transfer. Ownership
// changes arrive through a separate transfer event.
func (s *Session) TransferPayout(ctx context.Context, p event.Payload) error {
	const kind = event.KindTransferPayout
	if err := s.active(); err != nil {
		return err
	}

	e, err := event.DecodeTransferPayout(p)
	if err != nil {
		return s.skip(kind, "", err)
	}

	key := idhash.TokenKey(s.info.ContractID, s.firstTokenID(kind, e.TokenIDs))
	s.reportDropped(kind, key, e.Dropped)

	if err := s.accounts.Record(ctx, e.SellerID, stats.ActivitySell); err != nil {
		return s.fail(kind, key, err)
	}
	if err := s.accounts.Record(ctx, e.BuyerID, stats.ActivityBuy); err != nil {
		return s.fail(kind, key, err)
	}

	balance := decimal.Zero
	if e.Balance != nil {
		balance = *e.Balance
	}
	s.contract.TransferPayout(balance)

	s.applied(kind)
	return nil
}

// loadToken returns the token at key; a missing token wraps storage.ErrNotFound.
func (s *Session) loadToken(ctx context.Context, key string) (*domain.Token, error) {
	token, err := s.stores.Tokens.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("token %s: %w", key, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("load token: %w", err)
	}
	return token, nil
}

// recordTraits increments the per-trait token counters of a classification.
func (s *Session) recordTraits(ctx context.Context, c normalization.Classification, now int64) error {
	if c.IsNone() {
		return nil
	}

	for _, trait := range c.Traits {
		key := idhash.TraitKey(s.info.ContractID, trait.Category, trait.Value)

		st, err := s.stores.TraitStats.Get(ctx, key)
		if err != nil {
			if !errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("load trait stat %s: %w", key, err)
			}
			st = &domain.TraitStat{
				Key:        key,
				ContractID: s.info.ContractID,
				Category:   trait.Category,
				Value:      trait.Value,
			}
		}

		st.TokenCount++
		st.Schema = c.Schema
		st.UpdatedAt = now
		if err := s.stores.TraitStats.Save(ctx, st); err != nil {
			return fmt.Errorf("save trait stat %s: %w", key, err)
		}
	}
	return nil
}
