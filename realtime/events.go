package realtime

import (
	"encoding/json"

	"github.com/AppleCherryJaM/reenbit-tech-task-be/db"
)

// Client -> server events.
const (
	EventJoinChat  = "join:chat"
	EventLeaveChat = "leave:chat"
	EventLiveStart = "live:messages:start"
	EventLiveStop  = "live:messages:stop"
)

// Server -> client events.
const (
	EventMessageNew      = "message:new"
	EventNotificationNew = "notification:new"
	EventLiveError       = "live:messages:error"
)

// Envelope is the wire format for every WebSocket frame, in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// chatRef names a chat in join/leave events.
type chatRef struct {
	ChatID string `json:"chatId"`
}

// liveStartRequest carries the user whose chats the live session draws from.
type liveStartRequest struct {
	UserID string `json:"userId"`
}

// errorPayload is sent with EventLiveError.
type errorPayload struct {
	Message string `json:"message"`
}

// Notification is the payload of EventNotificationNew, broadcast to every
// connected client for cross-chat toast alerts.
type Notification struct {
	Type    string     `json:"type"`
	ChatID  string     `json:"chatId"`
	Message db.Message `json:"message"`
}

// Notification types.
const (
	NotificationNewMessage  = "new_message"
	NotificationLiveMessage = "live_message"
)

// marshalEnvelope packs an event and payload into a single frame.
func marshalEnvelope(event string, payload any) ([]byte, error) {
	var data json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		data = b
	}
	return json.Marshal(Envelope{Event: event, Data: data})
}
