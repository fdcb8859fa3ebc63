package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS policy is enforced at the HTTP layer; the demo accepts any origin here.
		return true
	},
}

// LiveController arms and cancels recurring live-message sessions. Sessions are
// keyed by connection so a dropped client can never leak a timer.
type LiveController interface {
	Start(ctx context.Context, sessionKey, ownerID string) error
	Stop(sessionKey string)
}

// Handler upgrades HTTP requests to WebSocket connections and dispatches the
// event protocol: room join/leave and live-message session control.
type Handler struct {
	hub  *Hub
	live LiveController
	ctx  context.Context
}

// NewHandler wires the hub and the live-message controller. ctx bounds the
// lifetime of sessions started from connections (process shutdown stops them all).
func NewHandler(ctx context.Context, hub *Hub, live LiveController) *Handler {
	return &Handler{hub: hub, live: live, ctx: ctx}
}

// HandleWS upgrades the request and runs the connection's pumps.
func (h *Handler) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", slog.Any("err", err), slog.String("component", "realtime"))
		return
	}

	client := NewClient(uuid.New().String(), h.hub, conn)
	h.hub.Register(client)

	go client.writePump()
	go client.readPump(h.dispatch, h.closed)
}

// closed runs when a connection ends for any reason: cancel the connection's
// live session before the hub forgets the client.
func (h *Handler) closed(c *Client) {
	h.live.Stop(c.ID)
}

func (h *Handler) dispatch(c *Client, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		slog.Debug("invalid frame", slog.String("client_id", c.ID), slog.Any("err", err))
		return
	}

	switch env.Event {
	case EventJoinChat:
		var ref chatRef
		if err := json.Unmarshal(env.Data, &ref); err != nil || ref.ChatID == "" {
			slog.Debug("invalid join payload", slog.String("client_id", c.ID))
			return
		}
		h.hub.JoinRoom(c, ref.ChatID)

	case EventLeaveChat:
		var ref chatRef
		if err := json.Unmarshal(env.Data, &ref); err != nil || ref.ChatID == "" {
			slog.Debug("invalid leave payload", slog.String("client_id", c.ID))
			return
		}
		h.hub.LeaveRoom(c, ref.ChatID)

	case EventLiveStart:
		var req liveStartRequest
		if err := json.Unmarshal(env.Data, &req); err != nil || req.UserID == "" {
			c.Send(EventLiveError, errorPayload{Message: "user id is required"})
			return
		}
		if err := h.live.Start(h.ctx, c.ID, req.UserID); err != nil {
			c.Send(EventLiveError, errorPayload{Message: err.Error()})
			return
		}
		slog.Info("live messages started", slog.String("client_id", c.ID), slog.String("user_id", req.UserID), slog.String("component", "realtime"))

	case EventLiveStop:
		h.live.Stop(c.ID)
		slog.Info("live messages stopped", slog.String("client_id", c.ID), slog.String("component", "realtime"))

	default:
		slog.Debug("unknown event", slog.String("event", env.Event), slog.String("client_id", c.ID))
	}
}
