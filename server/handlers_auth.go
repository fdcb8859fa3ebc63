package server

import (
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"time"

	"github.com/AppleCherryJaM/reenbit-tech-task-be/auth"
	"github.com/AppleCherryJaM/reenbit-tech-task-be/db"
)

// HandleGoogleLogin exchanges a Google ID token for a local account.
// First sign-in provisions the user together with their starter chats.
func (h *Handlers) HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		Token string `json:"token"`
	}
	if err := decodeBody(r, &body); err != nil || body.Token == "" {
		writeErrorMsg(w, http.StatusBadRequest, "token is required")
		return
	}

	ident, err := h.verifier.Verify(r.Context(), body.Token)
	if err != nil {
		writeError(w, err)
		return
	}
	user, err := db.FindOrCreateUser(r.Context(), h.db, auth.ProviderGoogle, ident.ProviderID, ident.Email, ident.Name, ident.Picture)
	if err != nil {
		writeError(w, err)
		return
	}
	chats, err := db.GetAllChats(r.Context(), h.db, user.ID, "")
	if err != nil {
		writeError(w, err)
		return
	}

	slog.Info("user signed in", slog.String("user_id", user.ID), slog.String("component", "server"))
	writeJSON(w, http.StatusOK, map[string]any{
		"user":  user,
		"chats": chats,
		"token": body.Token,
	})
}

// HandleMe returns the account behind the bearer token.
func (h *Handlers) HandleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": userFrom(r.Context())})
}

// HandleOAuthStart begins the server-side Google authorization code flow.
// Only used by clients that cannot run the browser SDK themselves.
func (h *Handlers) HandleOAuthStart(w http.ResponseWriter, r *http.Request) {
	if !h.flow.Enabled() {
		writeErrorMsg(w, http.StatusServiceUnavailable, "google oauth is not configured")
		return
	}

	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		writeError(w, err)
		return
	}
	state := hex.EncodeToString(buf)
	h.addOAuthState(state, time.Now().Add(10*time.Minute))

	http.Redirect(w, r, h.flow.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// HandleOAuthCallback completes the authorization code flow: it validates the
// state, exchanges the code for an ID token, and signs the user in.
func (h *Handlers) HandleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	if !h.flow.Enabled() {
		writeErrorMsg(w, http.StatusServiceUnavailable, "google oauth is not configured")
		return
	}

	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")
	if state == "" || code == "" {
		writeErrorMsg(w, http.StatusBadRequest, "missing state or code")
		return
	}
	if !h.consumeOAuthState(state) {
		writeErrorMsg(w, http.StatusBadRequest, "invalid or expired state")
		return
	}

	idToken, err := h.flow.ExchangeIDToken(r.Context(), code)
	if err != nil {
		slog.Warn("oauth code exchange failed", "component", "server", "err", err)
		writeErrorMsg(w, http.StatusBadGateway, "code exchange failed")
		return
	}
	ident, err := h.verifier.Verify(r.Context(), idToken)
	if err != nil {
		writeError(w, err)
		return
	}
	user, err := db.FindOrCreateUser(r.Context(), h.db, auth.ProviderGoogle, ident.ProviderID, ident.Email, ident.Name, ident.Picture)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user":  user,
		"token": idToken,
	})
}
