// Package dispatch feeds envelopes to processing sessions.
//
// Envelopes are buffered until the block height changes. A completed block is
// split per contract, keeping arrival order, and each contract runs in its own
// session. Contracts are processed one after another because account stats are
// shared across contracts.
package dispatch

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"nft-token-indexer/internal/event"
	"nft-token-indexer/internal/feed"
	"nft-token-indexer/internal/observability"
	"nft-token-indexer/internal/processor"
)

// Skip reasons recorded by the dispatcher.
const (
	ReasonUnsupported = "unsupported_kind"
	ReasonDuplicate   = "duplicate"
	ReasonStale       = "stale_block"
)

// BlockResult summarizes one dispatched block.
type BlockResult struct {
	BlockHeight int64
	Contracts   int
	Applied     int
	Skipped     int
}

// Dispatcher groups envelopes into blocks and runs one session per contract.
// It is not safe for concurrent use.
type Dispatcher struct {
	opts    processor.Options
	logger  *zap.Logger
	metrics *observability.Metrics

	pending   []*feed.Envelope
	seen      map[string]struct{}
	height    int64
	hasBlock  bool
	lastDone  int64
	processed bool
}

// New creates a dispatcher running sessions with opts.
func New(opts processor.Options) *Dispatcher {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		opts:    opts,
		logger:  logger,
		metrics: opts.Metrics,
		seen:    make(map[string]struct{}),
	}
}

// Consume dispatches envelopes from in until it is closed or ctx is done.
// The final block is flushed when in is closed.
func (d *Dispatcher) Consume(ctx context.Context, in <-chan *feed.Envelope) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case env, ok := <-in:
			if !ok {
				_, err := d.Flush(ctx)
				return err
			}
			if err := d.Add(ctx, env); err != nil {
				return err
			}
		}
	}
}

// Add buffers env. When env starts a new block the buffered block is flushed first.
// Envelopes from an already processed block and redelivered events are dropped.
func (d *Dispatcher) Add(ctx context.Context, env *feed.Envelope) error {
	if d.processed && env.BlockHeight <= d.lastDone {
		d.drop(env, ReasonStale)
		return nil
	}

	if d.hasBlock && env.BlockHeight != d.height {
		if env.BlockHeight < d.height {
			d.drop(env, ReasonStale)
			return nil
		}
		if _, err := d.Flush(ctx); err != nil {
			return err
		}
	}

	id := env.EventID()
	if _, dup := d.seen[id]; dup {
		d.drop(env, ReasonDuplicate)
		return nil
	}
	d.seen[id] = struct{}{}

	d.pending = append(d.pending, env)
	d.height = env.BlockHeight
	d.hasBlock = true
	return nil
}

// Flush processes the buffered block. Flushing with nothing buffered is a no-op.
func (d *Dispatcher) Flush(ctx context.Context) (BlockResult, error) {
	if !d.hasBlock {
		return BlockResult{}, nil
	}

	envs := d.pending
	height := d.height
	d.pending = nil
	d.seen = make(map[string]struct{})
	d.hasBlock = false

	res, err := d.ProcessBlock(ctx, envs)
	if err != nil {
		return res, err
	}
	d.lastDone = height
	d.processed = true
	return res, nil
}

// ProcessBlock runs the envelopes of one block. All envelopes must share a block height.
// Skipped events are tolerated; any other error aborts the block.
func (d *Dispatcher) ProcessBlock(ctx context.Context, envs []*feed.Envelope) (BlockResult, error) {
	if len(envs) == 0 {
		return BlockResult{}, nil
	}

	height := envs[0].BlockHeight
	res := BlockResult{BlockHeight: height}

	order, groups := groupByContract(envs)
	for _, contractID := range order {
		group := groups[contractID]
		if g := group[0]; g.BlockHeight != height {
			return res, fmt.Errorf("block %d: envelope from block %d", height, g.BlockHeight)
		}

		info := processor.SessionInfo{
			ContractID:     contractID,
			BlockHeight:    height,
			BlockTimestamp: group[0].BlockTimestamp,
		}
		err := processor.Run(ctx, d.opts, info, func(s *processor.Session) error {
			for _, env := range group {
				err := d.apply(ctx, s, env)
				switch {
				case err == nil:
					res.Applied++
				case errors.Is(err, processor.ErrSkipped):
					res.Skipped++
				default:
					return fmt.Errorf("event %s: %w", env.EventID(), err)
				}
			}
			return nil
		})
		if err != nil {
			return res, fmt.Errorf("contract %s at block %d: %w", contractID, height, err)
		}
		res.Contracts++
	}

	d.logger.Debug("block dispatched",
		zap.Int64("block_height", height),
		zap.Int("contracts", res.Contracts),
		zap.Int("applied", res.Applied),
		zap.Int("skipped", res.Skipped),
	)
	return res, nil
}

// apply routes env to its handler.
func (d *Dispatcher) apply(ctx context.Context, s *processor.Session, env *feed.Envelope) error {
	switch env.Kind {
	case event.KindCreate:
		return s.Create(ctx, env.Payload)
	case event.KindTransfer:
		return s.Transfer(ctx, env.Payload)
	case event.KindBurn:
		return s.Burn(ctx, env.Payload)
	case event.KindMint:
		return s.Mint(ctx, env.Payload)
	case event.KindTransferPayout:
		return s.TransferPayout(ctx, env.Payload)
	default:
		d.drop(env, ReasonUnsupported)
		return fmt.Errorf("%w: unsupported kind %q", processor.ErrSkipped, env.Kind)
	}
}

func (d *Dispatcher) drop(env *feed.Envelope, reason string) {
	d.metrics.RecordSkip(env.Kind.String(), reason)
	d.logger.Warn("envelope dropped",
		zap.String("reason", reason),
		zap.String("kind", env.Kind.String()),
		zap.String("contract_id", env.ContractID),
		zap.Int64("block_height", env.BlockHeight),
		zap.String("receipt_id", env.ReceiptID),
		zap.Int("log_index", env.LogIndex),
	)
}

// groupByContract splits envs per contract in first-seen order.
func groupByContract(envs []*feed.Envelope) ([]string, map[string][]*feed.Envelope) {
	var order []string
	groups := make(map[string][]*feed.Envelope)
	for _, env := range envs {
		if _, ok := groups[env.ContractID]; !ok {
			order = append(order, env.ContractID)
		}
		groups[env.ContractID] = append(groups[env.ContractID], env)
	}
	return order, groups
}
