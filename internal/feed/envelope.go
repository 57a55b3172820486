// Package feed decodes event envelopes and streams them from files or websockets.
package feed

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"nft-token-indexer/internal/accountid"
	"nft-token-indexer/internal/event"
	"nft-token-indexer/internal/idhash"
)

// ErrInvalidEnvelope is wrapped by every envelope decoding failure.
var ErrInvalidEnvelope = errors.New("invalid envelope")

// hashLen is the decoded length of receipt ids and block hashes.
const hashLen = 32

const envelopeSchemaURL = "https://nft-token-indexer.local/feed/envelope.schema.json"

const envelopeSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["receipt_id", "block_height", "block_hash", "block_timestamp", "contract_id", "kind", "log_index", "payload"],
  "properties": {
    "receipt_id":      {"type": "string", "minLength": 32, "maxLength": 44},
    "block_height":    {"type": "integer", "minimum": 0},
    "block_hash":      {"type": "string", "minLength": 32, "maxLength": 44},
    "block_timestamp": {"type": "integer", "minimum": 0},
    "contract_id":     {"type": "string", "minLength": 2, "maxLength": 64},
    "kind":            {"type": "string", "minLength": 1},
    "log_index":       {"type": "integer", "minimum": 0},
    "payload":         {"type": "object"}
  }
}`

// Envelope is one contract event together with its chain position.
type Envelope struct {
	ReceiptID      string        `json:"receipt_id"`
	BlockHeight    int64         `json:"block_height"`
	BlockHash      string        `json:"block_hash"`
	BlockTimestamp int64         `json:"block_timestamp"` // ms
	ContractID     string        `json:"contract_id"`
	Kind           event.Kind    `json:"kind"`
	LogIndex       int           `json:"log_index"`
	Payload        event.Payload `json:"payload"`
}

// EventID returns the deterministic id of the event.
func (e *Envelope) EventID() string {
	return idhash.ComputeEventID(e.ReceiptID, e.BlockHeight, e.LogIndex)
}

// Decoder validates and decodes raw envelopes. Safe for concurrent use.
type Decoder struct {
	schema *jsonschema.Schema
}

// NewDecoder compiles the envelope schema.
func NewDecoder() (*Decoder, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(envelopeSchemaURL, strings.NewReader(envelopeSchema)); err != nil {
		return nil, fmt.Errorf("envelope schema load failed: %w", err)
	}
	schema, err := c.Compile(envelopeSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("envelope schema compile failed: %w", err)
	}
	return &Decoder{schema: schema}, nil
}

// Decode parses one JSON envelope.
// Unknown kinds are accepted here; the dispatcher decides what to do with them.
func (d *Decoder) Decode(data []byte) (*Envelope, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	if err := d.schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}

	if err := checkHash("receipt_id", env.ReceiptID); err != nil {
		return nil, err
	}
	if err := checkHash("block_hash", env.BlockHash); err != nil {
		return nil, err
	}
	if err := accountid.Validate(env.ContractID); err != nil {
		return nil, fmt.Errorf("%w: contract_id: %v", ErrInvalidEnvelope, err)
	}
	return &env, nil
}

func checkHash(field, value string) error {
	raw, err := base58.Decode(value)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidEnvelope, field, err)
	}
	if len(raw) != hashLen {
		return fmt.Errorf("%w: %s: decoded to %d bytes, want %d", ErrInvalidEnvelope, field, len(raw), hashLen)
	}
	return nil
}
