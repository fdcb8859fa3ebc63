package server

import (
	"errors"
	"net/http"

	"github.com/AppleCherryJaM/reenbit-tech-task-be/live"
)

// HTTP live sessions are keyed per user so a second start replaces the first
// instead of stacking timers. Socket-driven sessions use the connection id and
// never collide with these keys.
func liveSessionKey(userID string) string {
	return "user:" + userID
}

// HandleLiveStart starts the recurring automated-message feed for the caller.
func (h *Handlers) HandleLiveStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	user := userFrom(r.Context())

	if err := h.bot.Start(h.ctx, liveSessionKey(user.ID), user.ID); err != nil {
		if errors.Is(err, live.ErrNoChats) {
			writeErrorMsg(w, http.StatusBadRequest, "no chats available for live messages")
			return
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"message":  "live messages started",
		"interval": h.cfg.LiveInterval.Milliseconds(),
	})
}

// HandleLiveStop stops the caller's feed. Stopping an inactive feed is a no-op.
func (h *Handlers) HandleLiveStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	user := userFrom(r.Context())
	h.bot.Stop(liveSessionKey(user.ID))
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "live messages stopped",
	})
}
