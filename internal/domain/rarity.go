package domain

// Rarity is the numeric rarity code stored on a token.
type Rarity int32

const (
	RarityCommon    Rarity = 1
	RarityUncommon  Rarity = 2
	RarityRare      Rarity = 3
	RarityEpic      Rarity = 4
	RarityLegendary Rarity = 5
	RarityMythic    Rarity = 6
)
