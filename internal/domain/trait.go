package domain

// ClassificationSchema identifies which payload generation produced a classification.
type ClassificationSchema string

const (
	SchemaNone       ClassificationSchema = "none"
	SchemaCurrent    ClassificationSchema = "current"    // typed `types` object
	SchemaDeprecated ClassificationSchema = "deprecated" // flat collection/token_type/token_sub_type
)

// Trait is one classification entry of a token.
type Trait struct {
	Category string
	Value    string
}

// TraitStat counts tokens created per (contract, category, value).
// Corresponds to trait_stats table in PostgreSQL.
type TraitStat struct {
	Key        string               // contract_id||category||value
	ContractID string               // NFT contract
	Category   string               // trait category
	Value      string               // trait value
	Schema     ClassificationSchema // schema that last wrote this stat
	TokenCount int64                // number of created tokens carrying the trait
	UpdatedAt  int64                // ms
}
