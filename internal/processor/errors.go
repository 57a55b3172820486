package processor

import (
	"errors"
	"fmt"

	"nft-token-indexer/internal/storage"
)

var (
	// ErrSkipped wraps every non-fatal handler failure: a validation failure
	// (event.ErrValidation) or a missing token (storage.ErrNotFound).
	// The event made no state change and the session remains usable.
	ErrSkipped = errors.New("event skipped")

	// ErrSessionEnded is returned by handlers and End after End was called.
	ErrSessionEnded = errors.New("processing session ended")

	// ErrTokenRequired is returned by Session.Get when the token is absent.
	ErrTokenRequired = fmt.Errorf("required token missing: %w", storage.ErrNotFound)

	// ErrInvalidSession is returned by Open for unusable session parameters.
	ErrInvalidSession = errors.New("invalid session")
)
