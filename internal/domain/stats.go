package domain

import "github.com/shopspring/decimal"

// AccountStats holds running activity counters for one account.
// Corresponds to account_stats table in PostgreSQL.
type AccountStats struct {
	AccountID   string
	NFTSent     int64
	NFTReceived int64
	NFTBought   int64
	NFTSold     int64
	NFTMinted   int64
	NFTBurned   int64
	UpdatedAt   int64 // ms
}

// ContractStats holds running activity counters for one NFT contract.
// Corresponds to contract_stats table in PostgreSQL.
type ContractStats struct {
	ContractID      string
	Transfers       int64
	Mints           int64
	Burns           int64
	PayoutTransfers int64
	PayoutVolume    decimal.Decimal // sum of payout balances (yocto units)
	LastBlockHeight int64           // block of the last flushed session
	UpdatedAt       int64           // ms
}

// ContractStatsDelta is the in-memory contribution of one processing session.
type ContractStatsDelta struct {
	Transfers       int64
	Mints           int64
	Burns           int64
	PayoutTransfers int64
	PayoutVolume    decimal.Decimal
}

// IsZero reports whether the delta carries no activity.
func (d ContractStatsDelta) IsZero() bool {
	return d.Transfers == 0 && d.Mints == 0 && d.Burns == 0 && d.PayoutTransfers == 0 && d.PayoutVolume.IsZero()
}

// Apply adds the delta to the stats.
func (s *ContractStats) Apply(d ContractStatsDelta) {
	s.Transfers += d.Transfers
	s.Mints += d.Mints
	s.Burns += d.Burns
	s.PayoutTransfers += d.PayoutTransfers
	s.PayoutVolume = s.PayoutVolume.Add(d.PayoutVolume)
}
