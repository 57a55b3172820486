package memory

import (
	"nft-token-indexer/internal/domain"
	"nft-token-indexer/internal/storage"
)

// NewStores creates a full set of in-memory stores.
func NewStores() storage.Stores {
	return storage.Stores{
		Tokens:        NewTokenStore(),
		Metadata:      NewTokenMetadataStore(),
		AccountStats:  NewAccountStatsStore(),
		ContractStats: NewContractStatsStore(),
		Contracts:     NewContractStore(),
		Sales:         NewListingStore(domain.ListingSale),
		Rents:         NewListingStore(domain.ListingRent),
		Royalties:     NewRoyaltyStore(),
		TraitStats:    NewTraitStatsStore(),
	}
}
