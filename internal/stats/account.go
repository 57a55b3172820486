package stats

import (
	"context"
	"errors"
	"fmt"

	"nft-token-indexer/internal/domain"
	"nft-token-indexer/internal/storage"
)

// Activity names one account-level counter.
type Activity string

const (
	ActivitySend    Activity = "nft_send"
	ActivityReceive Activity = "nft_receive"
	ActivityBuy     Activity = "nft_buy"
	ActivitySell    Activity = "nft_sell"
	ActivityMint    Activity = "nft_mint"
	ActivityBurn    Activity = "nft_burn"
)

// ErrUnknownActivity is returned for an activity with no counter.
var ErrUnknownActivity = errors.New("unknown activity")

// AccountRecorder keeps account statistics current: every call loads the record
// (creating it when absent), applies the change and saves it before returning.
type AccountRecorder struct {
	store storage.AccountStatsStore
	now   func() int64
}

// NewAccountRecorder creates an AccountRecorder. now supplies UpdatedAt in ms.
func NewAccountRecorder(store storage.AccountStatsStore, now func() int64) *AccountRecorder {
	return &AccountRecorder{store: store, now: now}
}

// Ensure creates an empty record for accountID if none exists.
func (r *AccountRecorder) Ensure(ctx context.Context, accountID string) error {
	_, created, err := r.load(ctx, accountID)
	if err != nil {
		return err
	}
	if !created {
		return nil
	}

	st := &domain.AccountStats{AccountID: accountID, UpdatedAt: r.now()}
	if err := r.store.Save(ctx, st); err != nil {
		return fmt.Errorf("save account stats %s: %w", accountID, err)
	}
	return nil
}

// Record increments one counter of accountID by one and saves the record.
func (r *AccountRecorder) Record(ctx context.Context, accountID string, activity Activity) error {
	st, _, err := r.load(ctx, accountID)
	if err != nil {
		return err
	}

	switch activity {
	case ActivitySend:
		st.NFTSent++
	case ActivityReceive:
		st.NFTReceived++
	case ActivityBuy:
		st.NFTBought++
	case ActivitySell:
		st.NFTSold++
	case ActivityMint:
		st.NFTMinted++
	case ActivityBurn:
		st.NFTBurned++
	default:
		return fmt.Errorf("%w: %q", ErrUnknownActivity, activity)
	}
	st.UpdatedAt = r.now()

	if err := r.store.Save(ctx, st); err != nil {
		return fmt.Errorf("save account stats %s: %w", accountID, err)
	}
	return nil
}

// load returns the stored record or a fresh zero record; created reports the latter.
func (r *AccountRecorder) load(ctx context.Context, accountID string) (*domain.AccountStats, bool, error) {
	st, err := r.store.Get(ctx, accountID)
	if err == nil {
		return st, false, nil
	}
	if errors.Is(err, storage.ErrNotFound) {
		return &domain.AccountStats{AccountID: accountID}, true, nil
	}
	return nil, false, fmt.Errorf("load account stats %s: %w", accountID, err)
}
