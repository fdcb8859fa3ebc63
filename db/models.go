package db

import "time"

// Message types. Automated messages carry no author.
const (
	MessageTypeUser = "user"
	MessageTypeAuto = "auto"
)

// User is an account created on first successful Google sign-in. The
// (provider, provider_id) tuple is the external identity; ID is the internal
// identity everything downstream operates on.
type User struct {
	ID         string    `json:"id"`
	Provider   string    `json:"provider"`
	ProviderID string    `json:"providerId"`
	Email      string    `json:"email"`
	Name       string    `json:"name,omitempty"`
	Avatar     string    `json:"avatar,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Chat is a conversation thread with a synthetic contact, owned by exactly one user.
type Chat struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	CreatedAt time.Time `json:"createdAt"`

	// LastMessage is attached by GetAllChats for list views; nil when the chat is empty.
	LastMessage *Message `json:"lastMessage,omitempty"`
}

// Message belongs to exactly one chat and is immutable once created.
// UserID is set only for type=user; automated replies have no author.
type Message struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chatId"`
	UserID    *string   `json:"userId,omitempty"`
	Text      string    `json:"text"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"createdAt"`

	// User is the author profile, attached when UserID is set.
	User *User `json:"user,omitempty"`
}
