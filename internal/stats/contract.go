package stats

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"nft-token-indexer/internal/domain"
	"nft-token-indexer/internal/storage"
)

// ErrAlreadyFlushed is returned when a ContractAccumulator is used after Flush.
var ErrAlreadyFlushed = errors.New("contract stats already flushed")

// ContractAccumulator collects contract-level counters for one processing session.
// It is owned by a single session and is not safe for concurrent use.
type ContractAccumulator struct {
	contractID string
	store      storage.ContractStatsStore
	delta      domain.ContractStatsDelta
	flushed    bool
}

// NewContractAccumulator creates an empty accumulator for contractID.
func NewContractAccumulator(contractID string, store storage.ContractStatsStore) *ContractAccumulator {
	return &ContractAccumulator{contractID: contractID, store: store}
}

// Transfer counts one ownership transfer.
func (a *ContractAccumulator) Transfer() { a.delta.Transfers++ }

// Mint counts one mint.
func (a *ContractAccumulator) Mint() { a.delta.Mints++ }

// Burn counts one burn.
func (a *ContractAccumulator) Burn() { a.delta.Burns++ }

// TransferPayout counts one payout transfer and adds its balance to the volume.
func (a *ContractAccumulator) TransferPayout(balance decimal.Decimal) {
	a.delta.PayoutTransfers++
	a.delta.PayoutVolume = a.delta.PayoutVolume.Add(balance)
}

// Delta returns the unflushed contribution of the session.
func (a *ContractAccumulator) Delta() domain.ContractStatsDelta {
	return a.delta
}

// Flush merges the session delta into the persisted stats. It succeeds at most once;
// later calls return ErrAlreadyFlushed. An empty delta performs no write.
func (a *ContractAccumulator) Flush(ctx context.Context, blockHeight, now int64) error {
	if a.flushed {
		return ErrAlreadyFlushed
	}

	if a.delta.IsZero() {
		a.flushed = true
		return nil
	}

	st, err := a.store.Get(ctx, a.contractID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("load contract stats %s: %w", a.contractID, err)
		}
		st = &domain.ContractStats{ContractID: a.contractID}
	}

	st.Apply(a.delta)
	if blockHeight > st.LastBlockHeight {
		st.LastBlockHeight = blockHeight
	}
	st.UpdatedAt = now

	if err := a.store.Save(ctx, st); err != nil {
		return fmt.Errorf("save contract stats %s: %w", a.contractID, err)
	}

	a.flushed = true
	a.delta = domain.ContractStatsDelta{}
	return nil
}
