// Package server exposes the HTTP API: auth, chats, messages, live-message
// controls, health, and metrics, plus the websocket upgrade endpoint. It
// includes permissive CORS for development and injects correlation IDs into
// request contexts for consistent logging.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AppleCherryJaM/reenbit-tech-task-be/auth"
	"github.com/AppleCherryJaM/reenbit-tech-task-be/config"
	"github.com/AppleCherryJaM/reenbit-tech-task-be/live"
	"github.com/AppleCherryJaM/reenbit-tech-task-be/realtime"
	"github.com/AppleCherryJaM/reenbit-tech-task-be/telemetry"
)

// Deps bundles everything the HTTP layer needs beyond the database handle.
type Deps struct {
	Cfg      *config.Config
	Verifier auth.Verifier
	Flow     *auth.Flow
	Bot      *live.Scheduler
	Hub      *realtime.Hub
}

// NewMux returns the HTTP handler with all routes.
// The provided context is used for rate limiter cleanup goroutine lifecycle
// and bounds background work spawned by handlers.
func NewMux(ctx context.Context, db *sql.DB, d Deps) http.Handler {
	rateLimiterCfg := loadRateLimiterConfig()
	corsCfg := loadCORSConfig()
	rateLimiter := newIPRateLimiter(ctx, rateLimiterCfg)

	handlers := NewHandlers(ctx, db, d.Cfg, d.Verifier, d.Flow, d.Bot)
	ws := realtime.NewHandler(ctx, d.Hub, d.Bot)

	mux := http.NewServeMux()

	// Metrics endpoint
	mux.Handle("/metrics", promhttp.Handler())

	// Health and readiness endpoints
	mux.HandleFunc("/healthz", handlers.HandleHealthz)
	mux.HandleFunc("/readyz", handlers.HandleReadyz)

	// Auth endpoints
	mux.HandleFunc("/api/auth/google", handlers.HandleGoogleLogin)
	mux.HandleFunc("/api/auth/google/start", handlers.HandleOAuthStart)
	mux.HandleFunc("/api/auth/google/callback", handlers.HandleOAuthCallback)
	mux.HandleFunc("/api/auth/me", handlers.requireUser(handlers.HandleMe))

	// Chat and message endpoints
	mux.HandleFunc("/api/chats", handlers.requireUser(handlers.HandleChats))
	mux.HandleFunc("/api/chats/", handlers.requireUser(handlers.HandleChatByID))
	mux.HandleFunc("/api/messages", handlers.requireUser(handlers.HandleMessages))

	// Live message controls
	mux.HandleFunc("/api/live-messages/start", handlers.requireUser(handlers.HandleLiveStart))
	mux.HandleFunc("/api/live-messages/stop", handlers.requireUser(handlers.HandleLiveStop))

	// Websocket upgrade
	mux.HandleFunc("/ws", ws.HandleWS)

	// Rate limit auth and live-message endpoints; everything else passes through
	selectiveHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/auth/") || strings.HasPrefix(r.URL.Path, "/api/live-messages/") {
			rateLimitMiddleware(mux, rateLimiter).ServeHTTP(w, r)
			return
		}
		mux.ServeHTTP(w, r)
	})

	// Wrap with correlation ID injector and tracing middleware
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Reuse corr header if provided else generate
		corr := r.Header.Get("X-Correlation-ID")
		if corr == "" {
			corr = uuid.New().String()
		}
		ctx := telemetry.WithCorrelation(r.Context(), corr)
		w.Header().Set("X-Correlation-ID", corr)

		ctx, span := telemetry.StartSpan(ctx, "http-server", r.Method+" "+r.URL.Path,
			telemetry.HTTPMethodAttr(r.Method),
			telemetry.HTTPRouteAttr(r.URL.Path),
			telemetry.HTTPURLAttr(r.URL.String()),
		)
		defer span.End()

		telemetry.LoggerWithCorr(ctx).Debug("request start", slog.String("method", r.Method), slog.String("path", r.URL.Path), slog.String("component", "http"))

		// Capture status code via custom ResponseWriter
		wrappedWriter := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		selectiveHandler.ServeHTTP(wrappedWriter, r.WithContext(ctx))

		telemetry.SetSpanHTTPStatus(span, wrappedWriter.statusCode)
		if wrappedWriter.statusCode >= 400 {
			code, msg := telemetry.ErrorStatus(fmt.Sprintf("HTTP %d", wrappedWriter.statusCode))
			span.SetStatus(code, msg)
		}
	})
	return withCORSConfig(handler, corsCfg)
}

// statusRecorder wraps ResponseWriter to capture status code
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

// Flush implements http.Flusher if the underlying ResponseWriter supports it
func (r *statusRecorder) Flush() {
	if flusher, ok := r.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Start runs the HTTP server and shuts down gracefully on context cancellation.
func Start(ctx context.Context, db *sql.DB, addr string, d Deps) error {
	srv := &http.Server{
		Addr:        addr,
		Handler:     NewMux(ctx, db, d),
		ReadTimeout: 5 * time.Second,
		// No write timeout: long-lived websocket connections share this server,
		// and the pumps manage their own deadlines.
		IdleTimeout: 60 * time.Second,
	}

	// Shutdown goroutine
	go func() {
		<-ctx.Done()
		// Use WithoutCancel to inherit context values but allow shutdown to complete
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("http server shutdown error", slog.Any("err", err))
		}
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("http server error", slog.Any("err", err))
		return err
	}
	return nil
}
