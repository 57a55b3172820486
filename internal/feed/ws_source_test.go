package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"nft-token-indexer/internal/observability"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func testWSConfig() *WSConfig {
	return &WSConfig{
		ReconnectDelay:    10 * time.Millisecond,
		MaxReconnectDelay: 50 * time.Millisecond,
		PingInterval:      time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      time.Second,
	}
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func closeNormally(conn *websocket.Conn) {
	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	// Wait for the client to acknowledge before tearing down.
	conn.SetReadDeadline(time.Now().Add(time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func TestWSSource_Stream(t *testing.T) {
	messages := [][]byte{
		envelopeJSON(t, nil),
		[]byte("garbage"),
		envelopeJSON(t, func(m map[string]any) { m["log_index"] = 1 }),
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		for _, msg := range messages {
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
		closeNormally(conn)
	}))
	defer server.Close()

	metrics := observability.NewMetrics("test", prometheus.NewRegistry())
	src := NewWSSource(wsURL(server), testWSConfig(), newTestDecoder(t), nil, metrics)

	envs, err := collect(t, src)
	if err != nil {
		t.Fatalf("Stream failed: %v", err)
	}
	if len(envs) != 2 {
		t.Fatalf("expected 2 envelopes, got %d", len(envs))
	}
	if got := testutil.ToFloat64(metrics.FeedMessages.WithLabelValues("ws", StatusInvalid)); got != 1 {
		t.Errorf("invalid messages: got %v", got)
	}
}

func TestWSSource_Reconnect(t *testing.T) {
	var connections atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		n := connections.Add(1)
		msg := envelopeJSON(t, func(m map[string]any) { m["log_index"] = int(n) })
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
		if n == 1 {
			// Drop without a close frame.
			return
		}
		closeNormally(conn)
	}))
	defer server.Close()

	metrics := observability.NewMetrics("test", prometheus.NewRegistry())
	src := NewWSSource(wsURL(server), testWSConfig(), newTestDecoder(t), nil, metrics)

	envs, err := collect(t, src)
	if err != nil {
		t.Fatalf("Stream failed: %v", err)
	}
	if len(envs) != 2 {
		t.Fatalf("expected 2 envelopes across reconnect, got %d", len(envs))
	}
	if envs[0].LogIndex != 1 || envs[1].LogIndex != 2 {
		t.Errorf("unexpected order: %d, %d", envs[0].LogIndex, envs[1].LogIndex)
	}
	if got := testutil.ToFloat64(metrics.FeedReconnects); got != 1 {
		t.Errorf("reconnects: got %v", got)
	}
}

func TestWSSource_CancelStopsStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	src := NewWSSource(wsURL(server), testWSConfig(), newTestDecoder(t), nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan *Envelope)
	errCh := make(chan error, 1)
	go func() { errCh <- src.Stream(ctx, out) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("expected nil on cancel, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Stream did not stop after cancel")
	}
	if _, ok := <-out; ok {
		t.Error("out should be closed")
	}
}
