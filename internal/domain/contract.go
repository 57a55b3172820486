package domain

// Contract represents an NFT contract seen by the indexer.
type Contract struct {
	ContractID     string // contract account id
	FirstSeenBlock int64  // block height of the first processing session
	CreatedAt      int64  // record creation timestamp (ms)
}
