// Package telemetry provides Prometheus metrics and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	MessagesCreated  *prometheus.CounterVec // labeled by message type (user|auto)
	LiveTicks        prometheus.Counter
	LiveTickErrors   prometheus.Counter
	AutoReplies      prometheus.Counter
	AutoReplyErrors  prometheus.Counter
	QuoteFallbacks   prometheus.Counter
	LiveStartDenied  prometheus.Counter

	// Histograms (seconds)
	QuoteFetchDuration prometheus.Observer

	// Gauges
	ConnectionsGauge  prometheus.Gauge
	LiveSessionsGauge prometheus.Gauge
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		MessagesCreated = promauto.NewCounterVec(prometheus.CounterOpts{Name: "chat_messages_created_total", Help: "Number of messages persisted, by type"}, []string{"type"})
		LiveTicks = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_live_ticks_total", Help: "Number of live-message scheduler ticks fired"})
		LiveTickErrors = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_live_tick_errors_total", Help: "Number of live-message ticks that failed"})
		AutoReplies = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_auto_replies_total", Help: "Number of delayed auto-replies delivered"})
		AutoReplyErrors = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_auto_reply_errors_total", Help: "Number of delayed auto-replies that failed"})
		QuoteFallbacks = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_quote_fallbacks_total", Help: "Number of quotes served from the in-process pool after remote failure"})
		LiveStartDenied = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_live_start_denied_total", Help: "Number of live-message starts refused (no chats available)"})
		QuoteFetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "chat_quote_fetch_duration_seconds", Help: "Quote fetch duration seconds", Buckets: prometheus.DefBuckets})
		ConnectionsGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "chat_ws_connections", Help: "Current number of connected WebSocket clients"})
		LiveSessionsGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "chat_live_sessions", Help: "Current number of active live-message sessions"})
	})
}

// CountMessage records a persisted message by type.
func CountMessage(msgType string) {
	if MessagesCreated != nil {
		MessagesCreated.WithLabelValues(msgType).Inc()
	}
}

// CountQuoteFallback records a quote served from the fallback pool.
func CountQuoteFallback() {
	if QuoteFallbacks != nil {
		QuoteFallbacks.Inc()
	}
}

// SetLiveSessions records the current number of active live sessions.
func SetLiveSessions(n int) {
	if LiveSessionsGauge != nil {
		LiveSessionsGauge.Set(float64(n))
	}
}

// TimeFunc measures the duration of fn and records in observer if non-nil.
func TimeFunc(obs prometheus.Observer, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	if obs != nil {
		obs.Observe(d.Seconds())
	}
	return d
}

// Correlation ID helpers ----------------------------------------------------
type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding correlation id (if absent) and the id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	v := ctx.Value(corrKey)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
