package testutil

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AppleCherryJaM/reenbit-tech-task-be/auth"
)

// MockQuoteServer creates a test server that mocks the quote API
type MockQuoteServer struct {
	*httptest.Server
	Handlers map[string]http.HandlerFunc
}

// NewMockQuoteServer creates a new mock quote API server
func NewMockQuoteServer(t *testing.T) *MockQuoteServer {
	t.Helper()
	m := &MockQuoteServer{
		Handlers: make(map[string]http.HandlerFunc),
	}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Path
		if handler, ok := m.Handlers[key]; ok {
			handler(w, r)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(m.Close)
	return m
}

// MockRandomQuote adds a handler for the /random endpoint
func (m *MockQuoteServer) MockRandomQuote(content, author string) {
	m.Handlers["/random"] = func(w http.ResponseWriter, r *http.Request) {
		response := map[string]string{
			"content": content,
			"author":  author,
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response) //nolint:errcheck // test mock response
	}
}

// MockRandomQuoteFailure makes the /random endpoint return the given status
func (m *MockQuoteServer) MockRandomQuoteFailure(status int) {
	m.Handlers["/random"] = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}
}

// StaticVerifier resolves any listed token to a fixed identity. Unknown tokens
// fail with auth.ErrUnauthorized, same as the real verifier.
type StaticVerifier struct {
	Tokens map[string]auth.Identity
}

func (v *StaticVerifier) Verify(_ context.Context, token string) (auth.Identity, error) {
	if id, ok := v.Tokens[token]; ok {
		return id, nil
	}
	return auth.Identity{}, auth.ErrUnauthorized
}

var _ auth.Verifier = (*StaticVerifier)(nil)
