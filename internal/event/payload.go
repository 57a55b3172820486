package event

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"nft-token-indexer/internal/accountid"
)

// Field names shared by several event kinds.
const (
	FieldTokenID     = "token_id"
	FieldTokenIDs    = "token_ids"
	FieldOwnerID     = "owner_id"
	FieldOldOwnerID  = "old_owner_id"
	FieldNewOwnerID  = "new_owner_id"
	FieldCreatedAt   = "created_at"
	FieldRevealTime  = "reveal_time"
	FieldRarity      = "rarity"
	FieldRoyalty     = "royalty"
	FieldBindToOwner = "bind_to_owner"
	FieldMetadata    = "metadata"
	FieldBalance     = "balance"
)

// Payload is the loosely typed key/value body of a decoded contract event.
// Handlers never read it directly; it is converted to a strict record first.
type Payload map[string]any

// present reports whether field exists with a non-null value.
func (p Payload) present(field string) bool {
	v, ok := p[field]
	return ok && v != nil
}

// requireString extracts a non-empty string field.
func (p Payload) requireString(kind Kind, field string) (string, error) {
	if !p.present(field) {
		return "", invalid(kind, field, "missing")
	}
	s, ok := p[field].(string)
	if !ok {
		return "", invalid(kind, field, fmt.Sprintf("expected string, got %T", p[field]))
	}
	if s == "" {
		return "", invalid(kind, field, "empty")
	}
	return s, nil
}

// requireAccount extracts a required, well-formed account id.
func (p Payload) requireAccount(kind Kind, field string) (string, error) {
	s, err := p.requireString(kind, field)
	if err != nil {
		return "", err
	}
	if err := accountid.Validate(s); err != nil {
		return "", invalid(kind, field, err.Error())
	}
	return s, nil
}

// requireTokenIDs extracts the token id list. A scalar token_id is accepted
// when the list is absent.
func (p Payload) requireTokenIDs(kind Kind) ([]string, error) {
	if !p.present(FieldTokenIDs) {
		if p.present(FieldTokenID) {
			id, err := p.requireString(kind, FieldTokenID)
			if err != nil {
				return nil, err
			}
			return []string{id}, nil
		}
		return nil, invalid(kind, FieldTokenIDs, "missing")
	}

	raw, ok := p[FieldTokenIDs].([]any)
	if !ok {
		if ids, ok := p[FieldTokenIDs].([]string); ok {
			raw = make([]any, len(ids))
			for i, id := range ids {
				raw[i] = id
			}
		} else {
			return nil, invalid(kind, FieldTokenIDs, fmt.Sprintf("expected list, got %T", p[FieldTokenIDs]))
		}
	}
	if len(raw) == 0 {
		return nil, invalid(kind, FieldTokenIDs, "empty list")
	}

	ids := make([]string, 0, len(raw))
	for i, v := range raw {
		id, ok := v.(string)
		if !ok || id == "" {
			return nil, invalid(kind, FieldTokenIDs, fmt.Sprintf("element %d is not a token id", i))
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// optString extracts an optional string field.
func (p Payload) optString(field string, dropped *[]DroppedField) *string {
	if !p.present(field) {
		return nil
	}
	s, ok := p[field].(string)
	if !ok {
		*dropped = append(*dropped, DroppedField{Field: field, Reason: fmt.Sprintf("expected string, got %T", p[field])})
		return nil
	}
	return &s
}

// optBool extracts an optional boolean field.
func (p Payload) optBool(field string, dropped *[]DroppedField) *bool {
	if !p.present(field) {
		return nil
	}
	b, ok := p[field].(bool)
	if !ok {
		*dropped = append(*dropped, DroppedField{Field: field, Reason: fmt.Sprintf("expected bool, got %T", p[field])})
		return nil
	}
	return &b
}

// optInt64 extracts an optional integer field. Numeric strings are accepted
// because u64 values are commonly serialized as strings.
func (p Payload) optInt64(field string, dropped *[]DroppedField) *int64 {
	if !p.present(field) {
		return nil
	}
	n, err := toInt64(p[field])
	if err != nil {
		*dropped = append(*dropped, DroppedField{Field: field, Reason: err.Error()})
		return nil
	}
	return &n
}

// toInt64 converts JSON scalar representations of integers.
func toInt64(v any) (int64, error) {
	switch val := v.(type) {
	case float64:
		// float64(math.MaxInt64) rounds up to 2^63, which is already out of range.
		if val != math.Trunc(val) || val >= math.MaxInt64 || val < math.MinInt64 {
			return 0, fmt.Errorf("not an integer: %v", val)
		}
		return int64(val), nil
	case json.Number:
		return val.Int64()
	case string:
		return strconv.ParseInt(val, 10, 64)
	case int:
		return int64(val), nil
	case int64:
		return val, nil
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
}
