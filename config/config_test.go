package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("QUOTE_API_URL", "")
	t.Setenv("QUOTE_TIMEOUT", "")
	t.Setenv("LIVE_MESSAGE_INTERVAL", "")
	t.Setenv("AUTO_REPLY_DELAY", "")
	t.Setenv("DB_DSN", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.QuoteURL != "http://api.quotable.io/random" {
		t.Errorf("QuoteURL = %q", cfg.QuoteURL)
	}
	if cfg.QuoteSecureURL != "https://api.quotable.io/random" {
		t.Errorf("QuoteSecureURL = %q", cfg.QuoteSecureURL)
	}
	if cfg.QuoteTimeout != 5*time.Second {
		t.Errorf("QuoteTimeout = %v", cfg.QuoteTimeout)
	}
	if cfg.LiveInterval != 10*time.Second {
		t.Errorf("LiveInterval = %v", cfg.LiveInterval)
	}
	if cfg.AutoReplyDelay != 3*time.Second {
		t.Errorf("AutoReplyDelay = %v", cfg.AutoReplyDelay)
	}
	if cfg.DBDsn == "" {
		t.Error("DBDsn default missing")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("LIVE_MESSAGE_INTERVAL", "2s")
	t.Setenv("AUTO_REPLY_DELAY", "500ms")
	t.Setenv("QUOTE_TIMEOUT", "1s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":9999" {
		t.Errorf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.LiveInterval != 2*time.Second {
		t.Errorf("LiveInterval = %v", cfg.LiveInterval)
	}
	if cfg.AutoReplyDelay != 500*time.Millisecond {
		t.Errorf("AutoReplyDelay = %v", cfg.AutoReplyDelay)
	}
	if cfg.QuoteTimeout != time.Second {
		t.Errorf("QuoteTimeout = %v", cfg.QuoteTimeout)
	}
}

func TestLoadRejectsBadDurations(t *testing.T) {
	t.Setenv("LIVE_MESSAGE_INTERVAL", "soon")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid LIVE_MESSAGE_INTERVAL")
	}
}

func TestValidateAuthReady(t *testing.T) {
	cfg := &Config{}
	if err := cfg.ValidateAuthReady(); err == nil {
		t.Fatal("expected error without GOOGLE_CLIENT_ID")
	}
	cfg.GoogleClientID = "client-id"
	if err := cfg.ValidateAuthReady(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
