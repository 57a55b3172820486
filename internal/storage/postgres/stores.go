package postgres

import "nft-token-indexer/internal/storage"

// NewStores creates a full set of PostgreSQL-backed stores sharing one pool.
func NewStores(pool *Pool) storage.Stores {
	return storage.Stores{
		Tokens:        NewTokenStore(pool),
		Metadata:      NewTokenMetadataStore(pool),
		AccountStats:  NewAccountStatsStore(pool),
		ContractStats: NewContractStatsStore(pool),
		Contracts:     NewContractStore(pool),
		Sales:         NewSaleStore(pool),
		Rents:         NewRentStore(pool),
		Royalties:     NewRoyaltyStore(pool),
		TraitStats:    NewTraitStatsStore(pool),
	}
}
