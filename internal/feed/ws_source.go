package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"nft-token-indexer/internal/observability"
)

// WSConfig configures websocket source behavior.
type WSConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing control frames.
	WriteTimeout time.Duration
}

// DefaultWSConfig returns default websocket configuration.
func DefaultWSConfig() WSConfig {
	return WSConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// WSSource subscribes to a websocket endpoint that pushes one envelope per
// text message. Dropped connections are re-established with exponential
// backoff. A normal close from the server ends the stream.
type WSSource struct {
	endpoint string
	config   WSConfig
	decoder  *Decoder
	logger   *zap.Logger
	metrics  *observability.Metrics
}

// NewWSSource creates a websocket source. A nil config uses DefaultWSConfig.
func NewWSSource(endpoint string, config *WSConfig, decoder *Decoder, logger *zap.Logger, metrics *observability.Metrics) *WSSource {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WSSource{
		endpoint: endpoint,
		config:   cfg,
		decoder:  decoder,
		logger:   logger.With(zap.String("endpoint", endpoint)),
		metrics:  metrics,
	}
}

// Stream implements Source.
func (s *WSSource) Stream(ctx context.Context, out chan<- *Envelope) error {
	defer close(out)

	delay := s.config.ReconnectDelay
	for {
		conn, err := s.dial(ctx)
		if err == nil {
			delay = s.config.ReconnectDelay
			err = s.consume(ctx, conn, out)
			if err == nil {
				return nil
			}
		}
		if ctx.Err() != nil {
			return nil
		}

		s.metrics.RecordReconnect()
		s.logger.Warn("feed connection lost, reconnecting", zap.Duration("delay", delay), zap.Error(err))

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}

		delay *= 2
		if delay > s.config.MaxReconnectDelay {
			delay = s.config.MaxReconnectDelay
		}
	}
}

func (s *WSSource) dial(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, s.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial: %w", err)
	}
	return conn, nil
}

// consume reads from conn until it fails. It returns nil on a normal close.
func (s *WSSource) consume(ctx context.Context, conn *websocket.Conn, out chan<- *Envelope) error {
	var writeMu sync.Mutex
	done := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.pingLoop(conn, &writeMu, done)
	}()

	// Unblocks ReadMessage on shutdown.
	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case <-ctx.Done():
			writeMu.Lock()
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(s.config.WriteTimeout))
			writeMu.Unlock()
			conn.Close()
		case <-done:
		}
	}()

	defer func() {
		close(done)
		conn.Close()
		wg.Wait()
	}()

	for {
		conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))

		msgType, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				s.logger.Info("feed closed by server")
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		if msgType != websocket.TextMessage {
			continue
		}

		env, err := s.decoder.Decode(message)
		if err != nil {
			s.metrics.RecordFeedMessage("ws", StatusInvalid)
			s.logger.Warn("invalid envelope", zap.Error(err))
			continue
		}
		s.metrics.RecordFeedMessage("ws", StatusAccepted)

		select {
		case out <- env:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// pingLoop sends periodic ping frames to keep connection alive.
func (s *WSSource) pingLoop(conn *websocket.Conn, writeMu *sync.Mutex, done <-chan struct{}) {
	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			writeMu.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.config.WriteTimeout))
			writeMu.Unlock()
			if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
				// Connection might be dead, reader will handle reconnect
				s.logger.Debug("ping failed", zap.Error(err))
			}
		}
	}
}
