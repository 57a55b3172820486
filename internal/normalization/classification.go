package normalization

import (
	"errors"
	"sort"

	"nft-token-indexer/internal/domain"
)

// Payload field names that carry token classification.
const (
	FieldTypes        = "types"
	FieldCollection   = "collection"
	FieldTokenType    = "token_type"
	FieldTokenSubType = "token_sub_type"
)

// ErrUnrecognizedTypes is returned when a `types` field is present but is not
// an object of string values. The classification degrades to SchemaNone.
var ErrUnrecognizedTypes = errors.New("unrecognized types payload")

// deprecatedFields lists the flat fields in the order their traits are emitted.
var deprecatedFields = []string{FieldCollection, FieldTokenType, FieldTokenSubType}

// Classification is the canonical classification of a created token.
// Exactly one schema produced it; SchemaNone carries no traits.
type Classification struct {
	Schema domain.ClassificationSchema
	Traits []domain.Trait
}

// None is the empty classification.
func None() Classification {
	return Classification{Schema: domain.SchemaNone}
}

// IsNone reports whether no classification stats should be recorded.
func (c Classification) IsNone() bool {
	return c.Schema == domain.SchemaNone || c.Schema == ""
}

// Classify decides which payload generation populated the token's classification.
// A typed `types` object wins; the deprecated flat fields are consulted only when
// `types` is absent. The result is total: every payload maps to exactly one schema.
func Classify(fields map[string]any) (Classification, error) {
	if raw, ok := fields[FieldTypes]; ok && raw != nil {
		traits, ok := typedTraits(raw)
		if !ok {
			return None(), ErrUnrecognizedTypes
		}
		return Classification{Schema: domain.SchemaCurrent, Traits: traits}, nil
	}

	var traits []domain.Trait
	for _, field := range deprecatedFields {
		v, ok := fields[field].(string)
		if !ok || v == "" {
			continue
		}
		traits = append(traits, domain.Trait{Category: field, Value: v})
	}
	if len(traits) == 0 {
		return None(), nil
	}
	return Classification{Schema: domain.SchemaDeprecated, Traits: traits}, nil
}

// typedTraits converts a `types` object into traits sorted by category.
func typedTraits(raw any) ([]domain.Trait, bool) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, false
	}

	traits := make([]domain.Trait, 0, len(obj))
	for category, v := range obj {
		value, ok := v.(string)
		if !ok || category == "" {
			return nil, false
		}
		traits = append(traits, domain.Trait{Category: category, Value: value})
	}

	sort.Slice(traits, func(i, j int) bool {
		return traits[i].Category < traits[j].Category
	})
	return traits, true
}
