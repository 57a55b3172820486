package postgres

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"nft-token-indexer/internal/storage"
)

func TestWriteError(t *testing.T) {
	check := &pgconn.PgError{Code: codeCheckViolation, ConstraintName: "tokens_owner_check"}
	err := writeError("save token", check)
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
	assert.Contains(t, err.Error(), "tokens_owner_check")

	unique := &pgconn.PgError{Code: "23505"}
	err = writeError("save token", unique)
	assert.NotErrorIs(t, err, storage.ErrInvalidInput)
	assert.ErrorAs(t, err, &unique)

	plain := errors.New("connection reset")
	assert.ErrorIs(t, writeError("save token", plain), plain)
}
