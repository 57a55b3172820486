// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Event outcomes.
const (
	OutcomeApplied = "applied"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// Session statuses.
const (
	SessionOK      = "ok"
	SessionAborted = "aborted"
	SessionFailed  = "failed"
)

// Metrics holds all Prometheus metrics for the indexer.
// All Record methods are safe on a nil *Metrics and then do nothing.
type Metrics struct {
	// Processor metrics
	EventsProcessed      *prometheus.CounterVec
	EventsSkipped        *prometheus.CounterVec
	FieldsDropped        *prometheus.CounterVec
	BatchTokenIDsIgnored *prometheus.CounterVec
	CascadeDeletions     *prometheus.CounterVec

	// Session metrics
	SessionsTotal        *prometheus.CounterVec
	SessionFlushDuration prometheus.Histogram
	LastBlockHeight      prometheus.Gauge

	// Feed metrics
	FeedMessages   *prometheus.CounterVec
	FeedReconnects prometheus.Counter
}

// NewMetrics creates a new Metrics instance registered against reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "nft_indexer"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		// Processor metrics
		EventsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "processor",
			Name:      "events_processed_total",
			Help:      "Total number of events handled by kind and outcome",
		}, []string{"kind", "outcome"}),
		EventsSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "processor",
			Name:      "events_skipped_total",
			Help:      "Total number of events skipped by kind and reason",
		}, []string{"kind", "reason"}),
		FieldsDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "processor",
			Name:      "fields_dropped_total",
			Help:      "Total number of malformed optional fields dropped",
		}, []string{"kind", "field"}),
		BatchTokenIDsIgnored: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_token_ids_ignored_total",
			Help:      "Total number of token ids ignored beyond the first in batch events",
		}, []string{"kind"}),
		CascadeDeletions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "processor",
			Name:      "cascade_deletions_total",
			Help:      "Total number of listing removals issued",
		}, []string{"listing"}),

		// Session metrics
		SessionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "total",
			Help:      "Total number of processing sessions by status",
		}, []string{"status"}),
		SessionFlushDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "flush_duration_seconds",
			Help:      "Contract stats flush duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		LastBlockHeight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "last_block_height",
			Help:      "Highest block height of a finished session",
		}),

		// Feed metrics
		FeedMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "messages_total",
			Help:      "Total number of feed messages by source and status",
		}, []string{"source", "status"}),
		FeedReconnects: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "reconnects_total",
			Help:      "Total number of websocket reconnect attempts",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint serving g.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// RecordEvent records the outcome of one handler call.
func (m *Metrics) RecordEvent(kind, outcome string) {
	if m == nil {
		return
	}
	m.EventsProcessed.WithLabelValues(kind, outcome).Inc()
}

// RecordSkip records a skipped event with its reason.
func (m *Metrics) RecordSkip(kind, reason string) {
	if m == nil {
		return
	}
	m.EventsSkipped.WithLabelValues(kind, reason).Inc()
}

// RecordDroppedField records a malformed optional field.
func (m *Metrics) RecordDroppedField(kind, field string) {
	if m == nil {
		return
	}
	m.FieldsDropped.WithLabelValues(kind, field).Inc()
}

// RecordIgnoredTokenIDs records token ids beyond the first of a batch event.
func (m *Metrics) RecordIgnoredTokenIDs(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.BatchTokenIDsIgnored.WithLabelValues(kind).Add(float64(n))
}

// RecordCascade records one listing removal.
func (m *Metrics) RecordCascade(listing string) {
	if m == nil {
		return
	}
	m.CascadeDeletions.WithLabelValues(listing).Inc()
}

// RecordSession records a finished session and its flush latency.
func (m *Metrics) RecordSession(status string, blockHeight int64, flush time.Duration) {
	if m == nil {
		return
	}
	m.SessionsTotal.WithLabelValues(status).Inc()
	m.SessionFlushDuration.Observe(flush.Seconds())
	m.LastBlockHeight.Set(float64(blockHeight))
}

// RecordFeedMessage records one feed message.
func (m *Metrics) RecordFeedMessage(source, status string) {
	if m == nil {
		return
	}
	m.FeedMessages.WithLabelValues(source, status).Inc()
}

// RecordReconnect records one reconnect attempt.
func (m *Metrics) RecordReconnect() {
	if m == nil {
		return
	}
	m.FeedReconnects.Inc()
}
