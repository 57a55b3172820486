// Package processor applies NFT lifecycle events for one contract to the stores.
//
// A Session covers one contract within one block. Handlers run strictly in the
// order events were emitted; each either applies fully, is skipped with no state
// change, or fails with a storage error that is fatal for the session.
// Account stats are written immediately; contract stats are accumulated and
// written once by End.
package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"nft-token-indexer/internal/domain"
	"nft-token-indexer/internal/observability"
	"nft-token-indexer/internal/stats"
	"nft-token-indexer/internal/storage"
)

// Options configures a processing session.
type Options struct {
	Stores  storage.Stores
	Logger  *zap.Logger            // nil disables logging
	Metrics *observability.Metrics // nil disables metrics
	Now     func() time.Time       // defaults to time.Now
}

// SessionInfo identifies the contract and block a session processes.
type SessionInfo struct {
	ContractID     string
	BlockHeight    int64
	BlockTimestamp int64 // ms; default creation time for created tokens
}

// Session processes the events of one contract in one block.
// It is not safe for concurrent use.
type Session struct {
	id       string
	info     SessionInfo
	stores   storage.Stores
	logger   *zap.Logger
	metrics  *observability.Metrics
	clock    func() time.Time
	accounts *stats.AccountRecorder
	contract *stats.ContractAccumulator
	ended    bool
}

// Open starts a session and ensures the contract record exists.
func Open(ctx context.Context, opts Options, info SessionInfo) (*Session, error) {
	if info.ContractID == "" {
		return nil, fmt.Errorf("%w: empty contract id", ErrInvalidSession)
	}
	if err := checkStores(opts.Stores); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := opts.Now
	if clock == nil {
		clock = time.Now
	}

	id := uuid.NewString()
	s := &Session{
		id:      id,
		info:    info,
		stores:  opts.Stores,
		metrics: opts.Metrics,
		clock:   clock,
		logger: logger.With(
			zap.String("session_id", id),
			zap.String("contract_id", info.ContractID),
			zap.Int64("block_height", info.BlockHeight),
		),
	}
	s.accounts = stats.NewAccountRecorder(opts.Stores.AccountStats, s.now)
	s.contract = stats.NewContractAccumulator(info.ContractID, opts.Stores.ContractStats)

	if err := s.ensureContract(ctx); err != nil {
		return nil, err
	}

	s.logger.Debug("session opened")
	return s, nil
}

// Run opens a session, calls fn and ends the session when fn succeeds.
// When fn fails the accumulated contract stats are discarded.
func Run(ctx context.Context, opts Options, info SessionInfo, fn func(*Session) error) error {
	s, err := Open(ctx, opts, info)
	if err != nil {
		return err
	}

	if err := fn(s); err != nil {
		s.ended = true
		s.metrics.RecordSession(observability.SessionAborted, info.BlockHeight, 0)
		s.logger.Warn("session aborted, contract stats discarded", zap.Error(err))
		return err
	}

	return s.End(ctx)
}

// ID returns the session id attached to every log entry.
func (s *Session) ID() string { return s.id }

// Info returns the session parameters.
func (s *Session) Info() SessionInfo { return s.info }

// End flushes the contract stats. It runs at most once; later calls and any
// handler call after End return ErrSessionEnded.
func (s *Session) End(ctx context.Context) error {
	if s.ended {
		return ErrSessionEnded
	}
	s.ended = true

	delta := s.contract.Delta()
	start := time.Now()
	if err := s.contract.Flush(ctx, s.info.BlockHeight, s.now()); err != nil {
		s.metrics.RecordSession(observability.SessionFailed, s.info.BlockHeight, time.Since(start))
		s.logger.Error("flush contract stats", zap.Error(err))
		return fmt.Errorf("end session: %w", err)
	}
	s.metrics.RecordSession(observability.SessionOK, s.info.BlockHeight, time.Since(start))

	s.logger.Debug("session ended",
		zap.Int64("transfers", delta.Transfers),
		zap.Int64("mints", delta.Mints),
		zap.Int64("burns", delta.Burns),
		zap.Int64("payout_transfers", delta.PayoutTransfers),
		zap.String("payout_volume", delta.PayoutVolume.String()),
	)
	return nil
}

// Get returns the token at key. An absent token is an error wrapping
// ErrTokenRequired, for callers that have established the token must exist.
func (s *Session) Get(ctx context.Context, key string) (*domain.Token, error) {
	t, err := s.stores.Tokens.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Error("required token missing", zap.String("op", "get"), zap.String("key", key))
			return nil, fmt.Errorf("%w: %s", ErrTokenRequired, key)
		}
		return nil, fmt.Errorf("get token %s: %w", key, err)
	}
	return t, nil
}

func (s *Session) now() int64 {
	return s.clock().UnixMilli()
}

func (s *Session) active() error {
	if s.ended {
		return ErrSessionEnded
	}
	return nil
}

func (s *Session) ensureContract(ctx context.Context) error {
	_, err := s.stores.Contracts.Get(ctx, s.info.ContractID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("load contract %s: %w", s.info.ContractID, err)
	}

	c := &domain.Contract{
		ContractID:     s.info.ContractID,
		FirstSeenBlock: s.info.BlockHeight,
		CreatedAt:      s.now(),
	}
	if err := s.stores.Contracts.Save(ctx, c); err != nil {
		return fmt.Errorf("save contract %s: %w", s.info.ContractID, err)
	}
	s.logger.Info("new contract")
	return nil
}

func checkStores(st storage.Stores) error {
	missing := func(name string) error {
		return fmt.Errorf("%w: %s store not configured", ErrInvalidSession, name)
	}
	switch {
	case st.Tokens == nil:
		return missing("tokens")
	case st.Metadata == nil:
		return missing("metadata")
	case st.AccountStats == nil:
		return missing("account stats")
	case st.ContractStats == nil:
		return missing("contract stats")
	case st.Contracts == nil:
		return missing("contracts")
	case st.Sales == nil:
		return missing("sales")
	case st.Rents == nil:
		return missing("rents")
	case st.Royalties == nil:
		return missing("royalties")
	case st.TraitStats == nil:
		return missing("trait stats")
	}
	return nil
}
