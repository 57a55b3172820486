package processor

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"nft-token-indexer/internal/event"
	"nft-token-indexer/internal/observability"
	"nft-token-indexer/internal/storage"
)

// Skip reasons reported in logs and metrics.
const (
	reasonValidation = "validation"
	reasonNotFound   = "not_found"
)

// skip logs a non-fatal failure and returns it wrapped in ErrSkipped.
func (s *Session) skip(kind event.Kind, key string, err error) error {
	reason := reasonValidation
	if errors.Is(err, storage.ErrNotFound) {
		reason = reasonNotFound
	}

	fields := []zap.Field{
		zap.String("op", kind.String()),
		zap.String("reason", reason),
		zap.Error(err),
	}
	if key != "" {
		fields = append(fields, zap.String("key", key))
	}
	var verr *event.ValidationError
	if errors.As(err, &verr) {
		fields = append(fields, zap.String("field", verr.Field))
	}
	s.logger.Warn("event skipped", fields...)

	s.metrics.RecordSkip(kind.String(), reason)
	s.metrics.RecordEvent(kind.String(), observability.OutcomeSkipped)
	return fmt.Errorf("%w: %w", ErrSkipped, err)
}

// fail logs a storage failure. The session should not continue after it.
func (s *Session) fail(kind event.Kind, key string, err error) error {
	s.logger.Error("event failed",
		zap.String("op", kind.String()),
		zap.String("key", key),
		zap.Error(err),
	)
	s.metrics.RecordEvent(kind.String(), observability.OutcomeFailed)
	return fmt.Errorf("%s %s: %w", kind, key, err)
}

func (s *Session) applied(kind event.Kind) {
	s.metrics.RecordEvent(kind.String(), observability.OutcomeApplied)
}

// reportDropped logs each malformed optional field that was ignored.
func (s *Session) reportDropped(kind event.Kind, key string, dropped []event.DroppedField) {
	for _, d := range dropped {
		s.logger.Warn("optional field dropped",
			zap.String("op", kind.String()),
			zap.String("key", key),
			zap.String("field", d.Field),
			zap.String("reason", d.Reason),
		)
		s.metrics.RecordDroppedField(kind.String(), d.Field)
	}
}

// firstTokenID returns the token id the event applies to. Only the first id of
// a batch is processed; the rest are reported.
func (s *Session) firstTokenID(kind event.Kind, ids []string) string {
	if len(ids) > 1 {
		s.logger.Warn("batch token ids ignored",
			zap.String("op", kind.String()),
			zap.String("token_id", ids[0]),
			zap.Strings("ignored_token_ids", ids[1:]),
		)
		s.metrics.RecordIgnoredTokenIDs(kind.String(), len(ids)-1)
	}
	return ids[0]
}
