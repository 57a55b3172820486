package feed

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"nft-token-indexer/internal/observability"
)

// Feed message statuses.
const (
	StatusAccepted = "accepted"
	StatusInvalid  = "invalid"
)

// maxLineSize bounds a single JSONL record.
const maxLineSize = 4 << 20

// Source streams envelopes in chain order.
// Stream sends on out until the source is exhausted or ctx is done, then closes out.
// Malformed envelopes are logged and skipped.
type Source interface {
	Stream(ctx context.Context, out chan<- *Envelope) error
}

// FileSource reads newline-delimited JSON envelopes.
type FileSource struct {
	path    string
	reader  io.Reader
	decoder *Decoder
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewFileSource reads envelopes from the file at path.
func NewFileSource(path string, decoder *Decoder, logger *zap.Logger, metrics *observability.Metrics) *FileSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileSource{path: path, decoder: decoder, logger: logger, metrics: metrics}
}

// NewReaderSource reads envelopes from r.
func NewReaderSource(r io.Reader, decoder *Decoder, logger *zap.Logger, metrics *observability.Metrics) *FileSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileSource{reader: r, decoder: decoder, logger: logger, metrics: metrics}
}

// Stream implements Source.
func (s *FileSource) Stream(ctx context.Context, out chan<- *Envelope) error {
	defer close(out)

	r := s.reader
	if r == nil {
		f, err := os.Open(s.path)
		if err != nil {
			return fmt.Errorf("open feed file: %w", err)
		}
		defer f.Close()
		r = f
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	line := 0
	for scanner.Scan() {
		line++
		data := scanner.Bytes()
		if len(data) == 0 {
			continue
		}

		env, err := s.decoder.Decode(data)
		if err != nil {
			s.metrics.RecordFeedMessage("file", StatusInvalid)
			s.logger.Warn("invalid envelope", zap.Int("line", line), zap.Error(err))
			continue
		}
		s.metrics.RecordFeedMessage("file", StatusAccepted)

		select {
		case out <- env:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read feed line %d: %w", line+1, err)
	}
	return nil
}
