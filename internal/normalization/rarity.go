package normalization

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"nft-token-indexer/internal/domain"
)

var (
	// ErrUnknownRarity is returned for string labels outside the rarity table.
	ErrUnknownRarity = errors.New("unknown rarity label")

	// ErrInvalidRarity is returned for values that are neither labels nor integers.
	ErrInvalidRarity = errors.New("invalid rarity value")
)

var rarityTable = map[string]domain.Rarity{
	"common":    domain.RarityCommon,
	"uncommon":  domain.RarityUncommon,
	"rare":      domain.RarityRare,
	"epic":      domain.RarityEpic,
	"legendary": domain.RarityLegendary,
	"mythic":    domain.RarityMythic,
}

// RarityLabels returns the closed set of rarity labels, sorted.
func RarityLabels() []string {
	labels := make([]string, 0, len(rarityTable))
	for label := range rarityTable {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// ParseRarityLabel looks up a label (case-insensitive).
func ParseRarityLabel(label string) (domain.Rarity, bool) {
	r, ok := rarityTable[strings.ToLower(strings.TrimSpace(label))]
	return r, ok
}

// DecodeRarity decodes a dual-typed rarity value.
// Strings go through the label table; integral numbers pass through unchanged.
// A nil value decodes to nil without error.
func DecodeRarity(v any) (*domain.Rarity, error) {
	var r domain.Rarity

	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		parsed, ok := ParseRarityLabel(val)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownRarity, val)
		}
		r = parsed
	case float64:
		if val != math.Trunc(val) || val > math.MaxInt32 || val < math.MinInt32 {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRarity, val)
		}
		r = domain.Rarity(val)
	case json.Number:
		n, err := val.Int64()
		if err != nil || n > math.MaxInt32 || n < math.MinInt32 {
			return nil, fmt.Errorf("%w: %s", ErrInvalidRarity, val)
		}
		r = domain.Rarity(n)
	case int:
		if val > math.MaxInt32 || val < math.MinInt32 {
			return nil, fmt.Errorf("%w: %d", ErrInvalidRarity, val)
		}
		r = domain.Rarity(val)
	case int64:
		if val > math.MaxInt32 || val < math.MinInt32 {
			return nil, fmt.Errorf("%w: %d", ErrInvalidRarity, val)
		}
		r = domain.Rarity(val)
	default:
		return nil, fmt.Errorf("%w: unsupported type %T", ErrInvalidRarity, v)
	}

	return &r, nil
}
