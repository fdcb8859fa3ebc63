package server

import (
	"net/http"
	"strings"

	"github.com/AppleCherryJaM/reenbit-tech-task-be/db"
)

type chatRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// HandleChats serves the /api/chats collection: list (with optional ?search=)
// and create.
func (h *Handlers) HandleChats(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	switch r.Method {
	case http.MethodGet:
		chats, err := db.GetAllChats(r.Context(), h.db, user.ID, r.URL.Query().Get("search"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, chats)
	case http.MethodPost:
		var body chatRequest
		if err := decodeBody(r, &body); err != nil {
			writeErrorMsg(w, http.StatusBadRequest, "invalid body")
			return
		}
		chat, err := db.CreateChat(r.Context(), h.db, user.ID, body.FirstName, body.LastName)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, chat)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleChatByID dispatches /api/chats/{id} and /api/chats/{id}/messages.
func (h *Handlers) HandleChatByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/chats/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		http.NotFound(w, r)
		return
	}
	chatID := parts[0]

	switch {
	case len(parts) == 1:
		h.handleChatItem(w, r, chatID)
	case len(parts) == 2 && parts[1] == "messages":
		h.handleChatMessages(w, r, chatID)
	default:
		http.NotFound(w, r)
	}
}

func (h *Handlers) handleChatItem(w http.ResponseWriter, r *http.Request, chatID string) {
	user := userFrom(r.Context())
	switch r.Method {
	case http.MethodPut:
		var body chatRequest
		if err := decodeBody(r, &body); err != nil {
			writeErrorMsg(w, http.StatusBadRequest, "invalid body")
			return
		}
		chat, err := db.UpdateChat(r.Context(), h.db, user.ID, chatID, body.FirstName, body.LastName)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, chat)
	case http.MethodDelete:
		if err := db.DeleteChat(r.Context(), h.db, user.ID, chatID); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handlers) handleChatMessages(w http.ResponseWriter, r *http.Request, chatID string) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	user := userFrom(r.Context())
	msgs, err := db.GetChatMessages(r.Context(), h.db, user.ID, chatID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}
