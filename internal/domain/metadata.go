package domain

// TokenMetadata holds the descriptive metadata supplied when a token is created.
// Corresponds to token_metadata table in PostgreSQL. Shares its key with the Token.
type TokenMetadata struct {
	Key         string  // same composite key as the token
	ContractID  string  // owning NFT contract
	TokenID     string  // token id local to the contract
	Title       *string // nullable
	Description *string // nullable
	Media       *string // media reference, usually a CID or URL (nullable)
	CreatedAt   int64   // record creation timestamp (ms)
}
