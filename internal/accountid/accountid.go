// Package accountid validates account identifiers carried in event payloads.
package accountid

import (
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"

	"filippo.io/edwards25519"
)

const (
	minLength = 2
	maxLength = 64

	// implicitLength is the hex length of a 32-byte ed25519 public key.
	implicitLength = 64
)

// Kind classifies an account id.
type Kind string

const (
	KindNamed    Kind = "named"
	KindImplicit Kind = "implicit"
)

var (
	// ErrInvalid is returned for ids that fail the account id grammar.
	ErrInvalid = errors.New("invalid account id")

	namedPattern = regexp.MustCompile(`^(([a-z\d]+[\-_])*[a-z\d]+\.)*([a-z\d]+[\-_])*[a-z\d]+$`)
	hexPattern   = regexp.MustCompile(`^[0-9a-f]+$`)
)

// Classify validates id and reports its kind.
// Implicit ids (64 lowercase hex characters) must encode a point on the ed25519 curve.
func Classify(id string) (Kind, error) {
	if len(id) < minLength || len(id) > maxLength {
		return "", fmt.Errorf("%w: length %d out of range [%d, %d]", ErrInvalid, len(id), minLength, maxLength)
	}

	if len(id) == implicitLength && hexPattern.MatchString(id) {
		raw, err := hex.DecodeString(id)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		if _, err := new(edwards25519.Point).SetBytes(raw); err != nil {
			return "", fmt.Errorf("%w: implicit account is not an ed25519 public key", ErrInvalid)
		}
		return KindImplicit, nil
	}

	if !namedPattern.MatchString(id) {
		return "", fmt.Errorf("%w: %q", ErrInvalid, id)
	}
	return KindNamed, nil
}

// Validate returns an error if id is not a well-formed account id.
func Validate(id string) error {
	_, err := Classify(id)
	return err
}
