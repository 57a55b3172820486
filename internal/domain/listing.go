package domain

// ListingKind distinguishes marketplace listings.
type ListingKind string

const (
	ListingSale ListingKind = "sale"
	ListingRent ListingKind = "rent"
)

// Listing is a marketplace listing reference for a token.
// Owned by the marketplace subsystems; the indexer only deletes them by key.
type Listing struct {
	Key        string      // sale or rent key derived from the token key
	Kind       ListingKind // sale | rent
	ContractID string      // NFT contract
	TokenKey   string      // composite token key
	OwnerID    string      // account that created the listing
	Price      string      // decimal string in yocto units
	CreatedAt  int64       // ms
}
