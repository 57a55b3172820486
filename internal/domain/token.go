package domain

// Token represents a live non-fungible token.
// Corresponds to tokens table in PostgreSQL. A missing row means the token is burned.
type Token struct {
	Key         string            // composite key: contract_id||token_id
	ContractID  string            // owning NFT contract
	TokenID     string            // token id local to the contract
	Owner       string            // current owner account id
	CreatedAt   int64             // creation timestamp (ms)
	RevealTime  *int64            // reveal timestamp (ms, nullable)
	Rarity      *Rarity           // numeric rarity code (nullable)
	Royalty     map[string]uint32 // account id -> basis points (nullable)
	BindToOwner bool              // token cannot leave its owner
	MetadataID  *string           // key of the linked TokenMetadata (nullable)
	UpdatedAt   int64             // last mutation timestamp (ms)
}

// Clone returns a deep copy of the token.
func (t *Token) Clone() *Token {
	c := *t
	if t.RevealTime != nil {
		v := *t.RevealTime
		c.RevealTime = &v
	}
	if t.Rarity != nil {
		v := *t.Rarity
		c.Rarity = &v
	}
	if t.MetadataID != nil {
		v := *t.MetadataID
		c.MetadataID = &v
	}
	if t.Royalty != nil {
		c.Royalty = make(map[string]uint32, len(t.Royalty))
		for k, v := range t.Royalty {
			c.Royalty[k] = v
		}
	}
	return &c
}
