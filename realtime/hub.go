// Package realtime delivers newly created messages to connected WebSocket clients.
// Delivery has two addressing modes: room-scoped (only subscribers who joined the
// chat's room) and global (every connected client, used for notifications).
package realtime

import (
	"context"
	"log/slog"
	"sync"

	"github.com/AppleCherryJaM/reenbit-tech-task-be/telemetry"
)

// Hub tracks connected clients and chat-room membership and fans frames out to them.
type Hub struct {
	clients    map[string]*Client            // client id -> client
	rooms      map[string]map[string]*Client // chat id -> client id -> client
	register   chan *Client
	unregister chan *Client
	outbound   chan frame
	mu         sync.RWMutex
}

// frame is a serialized envelope bound for one room or everyone.
type frame struct {
	chatID string // empty means global broadcast
	data   []byte
}

// NewHub returns a hub; call Run to start dispatching.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		rooms:      make(map[string]map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		outbound:   make(chan frame, 256),
	}
}

// Run dispatches registrations and frames until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c.ID] = c
			n := len(h.clients)
			h.mu.Unlock()
			if telemetry.ConnectionsGauge != nil {
				telemetry.ConnectionsGauge.Set(float64(n))
			}
			slog.Debug("client connected", slog.String("client_id", c.ID), slog.String("component", "realtime"))

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c.ID]; ok {
				for chatID, members := range h.rooms {
					delete(members, c.ID)
					if len(members) == 0 {
						delete(h.rooms, chatID)
					}
				}
				delete(h.clients, c.ID)
				close(c.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			if telemetry.ConnectionsGauge != nil {
				telemetry.ConnectionsGauge.Set(float64(n))
			}
			slog.Debug("client disconnected", slog.String("client_id", c.ID), slog.String("component", "realtime"))

		case f := <-h.outbound:
			h.mu.RLock()
			if f.chatID == "" {
				for _, c := range h.clients {
					c.trySend(f.data)
				}
			} else if members, ok := h.rooms[f.chatID]; ok {
				for _, c := range members {
					c.trySend(f.data)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) { h.register <- c }

// Unregister removes a client and its room memberships.
func (h *Hub) Unregister(c *Client) { h.unregister <- c }

// JoinRoom subscribes a client to a chat room. Idempotent.
func (h *Hub) JoinRoom(c *Client, chatID string) {
	if chatID == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[chatID]; !ok {
		h.rooms[chatID] = make(map[string]*Client)
	}
	h.rooms[chatID][c.ID] = c
	slog.Debug("client joined room", slog.String("client_id", c.ID), slog.String("chat_id", chatID), slog.String("component", "realtime"))
}

// LeaveRoom unsubscribes a client from a chat room. Idempotent.
func (h *Hub) LeaveRoom(c *Client, chatID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.rooms[chatID]; ok {
		delete(members, c.ID)
		if len(members) == 0 {
			delete(h.rooms, chatID)
		}
	}
	slog.Debug("client left room", slog.String("client_id", c.ID), slog.String("chat_id", chatID), slog.String("component", "realtime"))
}

// ToChat delivers an event to subscribers of one chat room.
func (h *Hub) ToChat(chatID, event string, payload any) {
	data, err := marshalEnvelope(event, payload)
	if err != nil {
		slog.Warn("failed to marshal room event", slog.String("event", event), slog.Any("err", err))
		return
	}
	h.outbound <- frame{chatID: chatID, data: data}
}

// Broadcast delivers an event to every connected client.
func (h *Hub) Broadcast(event string, payload any) {
	data, err := marshalEnvelope(event, payload)
	if err != nil {
		slog.Warn("failed to marshal broadcast event", slog.String("event", event), slog.Any("err", err))
		return
	}
	h.outbound <- frame{data: data}
}

// RoomSize reports current membership of a chat room.
func (h *Hub) RoomSize(chatID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[chatID])
}
