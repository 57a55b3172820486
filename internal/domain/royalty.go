package domain

// Royalty records the royalty split declared when a token was created.
type Royalty struct {
	TokenKey   string            // composite token key
	ContractID string            // NFT contract
	Shares     map[string]uint32 // account id -> basis points
	RecordedAt int64             // ms
}
