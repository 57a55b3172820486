package idhash

import "strings"

// Separator joins the parts of every composite key.
// The marketplace subsystems derive listing keys with the same scheme.
const Separator = "||"

const (
	salePrefix = "sale"
	rentPrefix = "rent"
)

// TokenKey composes the storage key of a token and its metadata.
// Formula: contract_id||token_id
func TokenKey(contractID, tokenID string) string {
	return contractID + Separator + tokenID
}

// SaleKey derives the marketplace sale listing key for a token.
// Formula: sale||contract_id||token_key
func SaleKey(contractID, tokenKey string) string {
	return strings.Join([]string{salePrefix, contractID, tokenKey}, Separator)
}

// RentKey derives the marketplace rent listing key for a token.
// Formula: rent||contract_id||token_key
func RentKey(contractID, tokenKey string) string {
	return strings.Join([]string{rentPrefix, contractID, tokenKey}, Separator)
}

// TraitKey composes the key of a per-contract trait counter.
// Formula: contract_id||category||value
func TraitKey(contractID, category, value string) string {
	return strings.Join([]string{contractID, category, value}, Separator)
}

// SplitTokenKey splits a token key back into contract id and token id.
// Token ids may themselves contain the separator, so only the first one is used.
func SplitTokenKey(key string) (contractID, tokenID string, ok bool) {
	idx := strings.Index(key, Separator)
	if idx < 0 {
		return "", "", false
	}
	return key[:idx], key[idx+len(Separator):], true
}
