// Package quote fetches short quotes used as bot-message content. The remote API is
// best effort: a primary fetch, a secondary fetch over TLS with relaxed verification
// (the upstream's certificate chain is chronically broken), and finally a fixed
// in-process pool. A caller always gets a quote; this package never returns an error.
package quote

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"time"

	"github.com/AppleCherryJaM/reenbit-tech-task-be/telemetry"
)

// Quote is a short text with attribution.
type Quote struct {
	Content string `json:"content"`
	Author  string `json:"author"`
}

var fallbackQuotes = []Quote{
	{Content: "The only way to do great work is to love what you do.", Author: "Steve Jobs"},
	{Content: "Innovation distinguishes between a leader and a follower.", Author: "Steve Jobs"},
	{Content: "Stay hungry, stay foolish.", Author: "Steve Jobs"},
	{Content: "Life is what happens when you're busy making other plans.", Author: "John Lennon"},
	{Content: "The future belongs to those who believe in the beauty of their dreams.", Author: "Eleanor Roosevelt"},
	{Content: "It is during our darkest moments that we must focus to see the light.", Author: "Aristotle"},
	{Content: "Whoever is happy will make others happy too.", Author: "Anne Frank"},
	{Content: "Do not go where the path may lead, go instead where there is no path and leave a trail.", Author: "Ralph Waldo Emerson"},
}

// Source fetches quotes from a remote API with a local fallback pool.
type Source struct {
	// URL is the primary endpoint; SecureURL is retried with relaxed TLS verification.
	URL       string
	SecureURL string
	Timeout   time.Duration

	HTTPClient *http.Client

	insecureClient *http.Client
}

// NewSource returns a Source with the given endpoints. Zero Timeout means 5s.
func NewSource(url, secureURL string, timeout time.Duration) *Source {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Source{
		URL:       url,
		SecureURL: secureURL,
		Timeout:   timeout,
		insecureClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				//nolint:gosec // G402: deliberate fallback for an upstream with a broken cert chain
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		},
	}
}

func (s *Source) httpClient() *http.Client {
	if s.HTTPClient != nil {
		return s.HTTPClient
	}
	return &http.Client{Timeout: s.Timeout}
}

// Random returns a quote. Remote failures degrade to the fallback pool; the
// returned quote is always usable.
func (s *Source) Random(ctx context.Context) Quote {
	q, err := s.fetch(ctx, s.httpClient(), s.URL)
	if err == nil {
		return q
	}
	slog.Debug("primary quote fetch failed, trying secure endpoint", slog.Any("err", err), slog.String("component", "quote"))

	if s.SecureURL != "" {
		q, err = s.fetch(ctx, s.insecureClient, s.SecureURL)
		if err == nil {
			return q
		}
		slog.Debug("secure quote fetch failed", slog.Any("err", err), slog.String("component", "quote"))
	}

	telemetry.CountQuoteFallback()
	slog.Warn("quote source unavailable, using fallback pool", slog.String("component", "quote"))
	return fallbackQuotes[rand.Intn(len(fallbackQuotes))] //nolint:gosec // G404: pool selection, not security
}

// AutoResponse formats a random quote as bot-message text.
func (s *Source) AutoResponse(ctx context.Context) string {
	q := s.Random(ctx)
	return fmt.Sprintf("%s — %s", q.Content, q.Author)
}

func (s *Source) fetch(ctx context.Context, hc *http.Client, url string) (Quote, error) {
	if url == "" {
		return Quote{}, fmt.Errorf("quote url empty")
	}
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Quote{}, err
	}
	resp, err := hc.Do(req)
	if err != nil {
		return Quote{}, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return Quote{}, fmt.Errorf("quote request failed: %s", resp.Status)
	}
	var q Quote
	if err := json.NewDecoder(resp.Body).Decode(&q); err != nil {
		return Quote{}, err
	}
	if q.Content == "" {
		return Quote{}, fmt.Errorf("empty content in quote response")
	}
	return q, nil
}
