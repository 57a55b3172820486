package event

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"nft-token-indexer/internal/domain"
	"nft-token-indexer/internal/normalization"
)

// Metadata is the optional metadata object of a create event.
type Metadata struct {
	Title       *string
	Description *string
	Media       *string
}

// CreateEvent is a validated nft_create payload.
type CreateEvent struct {
	TokenID        string
	OwnerID        string
	CreatedAt      *int64
	RevealTime     *int64
	Rarity         *domain.Rarity
	Royalty        map[string]uint32
	BindToOwner    *bool
	Metadata       *Metadata
	Classification normalization.Classification
	Dropped        []DroppedField
}

// TransferEvent is a validated nft_transfer payload.
type TransferEvent struct {
	OldOwnerID string
	NewOwnerID string
	TokenIDs   []string
}

// BurnEvent is a validated nft_burn payload.
type BurnEvent struct {
	OwnerID  string
	TokenIDs []string
}

// MintEvent is a validated nft_mint payload.
type MintEvent struct {
	OwnerID  string
	TokenIDs []string
}

// TransferPayoutEvent is a validated nft_transfer_payout payload.
type TransferPayoutEvent struct {
	SellerID string // old_owner_id
	BuyerID  string // new_owner_id
	TokenIDs []string
	Balance  *decimal.Decimal
	Dropped  []DroppedField
}

// DecodeCreate validates a create payload. Required: token_id, owner_id.
func DecodeCreate(p Payload) (*CreateEvent, error) {
	tokenID, err := p.requireString(KindCreate, FieldTokenID)
	if err != nil {
		return nil, err
	}
	ownerID, err := p.requireAccount(KindCreate, FieldOwnerID)
	if err != nil {
		return nil, err
	}

	e := &CreateEvent{
		TokenID: tokenID,
		OwnerID: ownerID,
	}

	e.CreatedAt = p.optInt64(FieldCreatedAt, &e.Dropped)
	e.RevealTime = p.optInt64(FieldRevealTime, &e.Dropped)
	e.BindToOwner = p.optBool(FieldBindToOwner, &e.Dropped)

	if p.present(FieldRarity) {
		rarity, err := normalization.DecodeRarity(p[FieldRarity])
		if err != nil {
			e.Dropped = append(e.Dropped, DroppedField{Field: FieldRarity, Reason: err.Error()})
		} else {
			e.Rarity = rarity
		}
	}

	if p.present(FieldRoyalty) {
		royalty, err := decodeRoyalty(p[FieldRoyalty])
		if err != nil {
			e.Dropped = append(e.Dropped, DroppedField{Field: FieldRoyalty, Reason: err.Error()})
		} else {
			e.Royalty = royalty
		}
	}

	if p.present(FieldMetadata) {
		obj, ok := p[FieldMetadata].(map[string]any)
		if !ok {
			e.Dropped = append(e.Dropped, DroppedField{Field: FieldMetadata, Reason: fmt.Sprintf("expected object, got %T", p[FieldMetadata])})
		} else {
			meta := Payload(obj)
			e.Metadata = &Metadata{
				Title:       meta.optString("title", &e.Dropped),
				Description: meta.optString("description", &e.Dropped),
				Media:       meta.optString("media", &e.Dropped),
			}
		}
	}

	classification, err := normalization.Classify(p)
	if err != nil {
		e.Dropped = append(e.Dropped, DroppedField{Field: normalization.FieldTypes, Reason: err.Error()})
	}
	e.Classification = classification

	return e, nil
}

// DecodeTransfer validates a transfer payload. Required: old_owner_id, new_owner_id, token_ids.
func DecodeTransfer(p Payload) (*TransferEvent, error) {
	oldOwner, err := p.requireAccount(KindTransfer, FieldOldOwnerID)
	if err != nil {
		return nil, err
	}
	newOwner, err := p.requireAccount(KindTransfer, FieldNewOwnerID)
	if err != nil {
		return nil, err
	}
	ids, err := p.requireTokenIDs(KindTransfer)
	if err != nil {
		return nil, err
	}
	return &TransferEvent{OldOwnerID: oldOwner, NewOwnerID: newOwner, TokenIDs: ids}, nil
}

// DecodeBurn validates a burn payload. Required: owner_id, token_ids.
func DecodeBurn(p Payload) (*BurnEvent, error) {
	owner, err := p.requireAccount(KindBurn, FieldOwnerID)
	if err != nil {
		return nil, err
	}
	ids, err := p.requireTokenIDs(KindBurn)
	if err != nil {
		return nil, err
	}
	return &BurnEvent{OwnerID: owner, TokenIDs: ids}, nil
}

// DecodeMint validates a mint payload. Required: owner_id, token_ids.
func DecodeMint(p Payload) (*MintEvent, error) {
	owner, err := p.requireAccount(KindMint, FieldOwnerID)
	if err != nil {
		return nil, err
	}
	ids, err := p.requireTokenIDs(KindMint)
	if err != nil {
		return nil, err
	}
	return &MintEvent{OwnerID: owner, TokenIDs: ids}, nil
}

// DecodeTransferPayout validates a payout transfer payload.
// Required: old_owner_id, new_owner_id, token_id(s). Optional: balance.
func DecodeTransferPayout(p Payload) (*TransferPayoutEvent, error) {
	seller, err := p.requireAccount(KindTransferPayout, FieldOldOwnerID)
	if err != nil {
		return nil, err
	}
	buyer, err := p.requireAccount(KindTransferPayout, FieldNewOwnerID)
	if err != nil {
		return nil, err
	}
	ids, err := p.requireTokenIDs(KindTransferPayout)
	if err != nil {
		return nil, err
	}

	e := &TransferPayoutEvent{SellerID: seller, BuyerID: buyer, TokenIDs: ids}

	if p.present(FieldBalance) {
		balance, err := decodeAmount(p[FieldBalance])
		if err != nil {
			e.Dropped = append(e.Dropped, DroppedField{Field: FieldBalance, Reason: err.Error()})
		} else {
			e.Balance = &balance
		}
	}

	return e, nil
}

// decodeRoyalty converts an account -> basis points object.
func decodeRoyalty(v any) (map[string]uint32, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected object, got %T", v)
	}

	shares := make(map[string]uint32, len(obj))
	for account, raw := range obj {
		n, err := toInt64(raw)
		if err != nil {
			return nil, fmt.Errorf("share for %q: %w", account, err)
		}
		if n < 0 || n > math.MaxUint32 {
			return nil, fmt.Errorf("share for %q out of range: %d", account, n)
		}
		shares[account] = uint32(n)
	}
	return shares, nil
}

// decodeAmount parses a non-negative decimal amount.
func decodeAmount(v any) (decimal.Decimal, error) {
	var d decimal.Decimal
	var err error

	switch val := v.(type) {
	case string:
		d, err = decimal.NewFromString(val)
	case float64:
		d = decimal.NewFromFloat(val)
	default:
		return decimal.Decimal{}, fmt.Errorf("expected decimal string, got %T", v)
	}
	if err != nil {
		return decimal.Decimal{}, err
	}
	if d.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("negative amount: %s", d)
	}
	return d, nil
}
