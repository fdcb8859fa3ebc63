package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"Bearer abc", "abc"},
		{"bearer abc", "abc"},
		{"Basic abc", ""},
		{"Bearer", ""},
		{"Bearer  spaced ", "spaced"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		if got := bearerToken(req); got != tt.want {
			t.Errorf("bearerToken(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

func TestRateLimiterAllow(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := &rateLimiterConfig{enabled: true, requestsPerIP: 3, window: time.Minute}
	rl := newIPRateLimiter(ctx, cfg)

	for i := 0; i < 3; i++ {
		if !rl.allow("1.2.3.4") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.allow("1.2.3.4") {
		t.Fatal("fourth request should be blocked")
	}
	if !rl.allow("5.6.7.8") {
		t.Fatal("different IP should not be affected")
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := &rateLimiterConfig{enabled: false, requestsPerIP: 1, window: time.Minute}
	rl := newIPRateLimiter(ctx, cfg)
	for i := 0; i < 10; i++ {
		if !rl.allow("1.2.3.4") {
			t.Fatal("disabled limiter must allow everything")
		}
	}
}

func TestRateLimitMiddlewareBlocks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := &rateLimiterConfig{enabled: true, requestsPerIP: 1, window: time.Minute}
	rl := newIPRateLimiter(ctx, cfg)

	handler := rateLimitMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), rl)

	req := httptest.NewRequest(http.MethodPost, "/api/live-messages/start", nil)
	req.RemoteAddr = "9.9.9.9:1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request: %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("missing Retry-After header")
	}
}

func TestIsOriginAllowed(t *testing.T) {
	allowed := []string{"https://app.example.com", "*.demo.org"}

	tests := []struct {
		origin string
		want   bool
	}{
		{"https://app.example.com", true},
		{"https://other.example.com", false},
		{"https://sub.demo.org", true},
		{"https://demo.org", true},
		{"https://demo.org.evil.com", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := isOriginAllowed(tt.origin, allowed); got != tt.want {
			t.Errorf("isOriginAllowed(%q) = %v, want %v", tt.origin, got, tt.want)
		}
	}
}

func TestOAuthStateStore(t *testing.T) {
	h := &Handlers{stateStore: make(map[string]time.Time)}

	h.addOAuthState("fresh", time.Now().Add(time.Minute))
	if !h.consumeOAuthState("fresh") {
		t.Fatal("fresh state should validate")
	}
	if h.consumeOAuthState("fresh") {
		t.Fatal("state must be single-use")
	}

	h.addOAuthState("stale", time.Now().Add(-time.Minute))
	if h.consumeOAuthState("stale") {
		t.Fatal("expired state should be rejected")
	}
	if h.consumeOAuthState("never-issued") {
		t.Fatal("unknown state should be rejected")
	}
}
