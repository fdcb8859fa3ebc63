package server

import (
	"net/http"

	"github.com/AppleCherryJaM/reenbit-tech-task-be/db"
)

// HandleMessages serves POST /api/messages: persist a user message in one of the
// caller's chats, then arm the delayed automated reply for that chat.
func (h *Handlers) HandleMessages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	user := userFrom(r.Context())

	var body struct {
		Text   string `json:"text"`
		ChatID string `json:"chatId"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid body")
		return
	}

	ok, err := db.ValidateChatOwnership(r.Context(), h.db, user.ID, body.ChatID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		writeErrorMsg(w, http.StatusForbidden, "chat does not belong to user")
		return
	}

	msg, err := db.CreateMessage(r.Context(), h.db, body.Text, body.ChatID, &user.ID, db.MessageTypeUser)
	if err != nil {
		writeError(w, err)
		return
	}

	// The reply outlives this request, so it runs on the server context.
	h.bot.ScheduleReply(h.ctx, body.ChatID, h.cfg.AutoReplyDelay)

	writeJSON(w, http.StatusCreated, msg)
}
