package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// CreateMessage appends a message to a chat. authorID must be nil for automated
// messages (type=auto) and set for user messages; the gateway enforces the pairing.
func CreateMessage(ctx context.Context, dbx *sql.DB, text, chatID string, authorID *string, msgType string) (Message, error) {
	if strings.TrimSpace(text) == "" || chatID == "" {
		return Message{}, fmt.Errorf("%w: text and chat id are required", ErrValidation)
	}
	if msgType == "" {
		msgType = MessageTypeUser
	}
	if msgType != MessageTypeUser && msgType != MessageTypeAuto {
		return Message{}, fmt.Errorf("%w: unknown message type %q", ErrValidation, msgType)
	}
	if msgType == MessageTypeAuto && authorID != nil {
		return Message{}, fmt.Errorf("%w: automated messages carry no author", ErrValidation)
	}
	if msgType == MessageTypeUser && authorID == nil {
		return Message{}, fmt.Errorf("%w: user messages require an author", ErrValidation)
	}

	m := Message{
		ID:     uuid.New().String(),
		ChatID: chatID,
		UserID: authorID,
		Text:   text,
		Type:   msgType,
	}
	var dbAuthor sql.NullString
	if authorID != nil {
		dbAuthor = sql.NullString{String: *authorID, Valid: true}
	}
	row := dbx.QueryRowContext(ctx,
		`INSERT INTO messages (id, chat_id, user_id, text, type, created_at)
		 VALUES ($1,$2,$3,$4,$5,NOW()) RETURNING created_at`,
		m.ID, chatID, dbAuthor, text, msgType)
	if err := row.Scan(&m.CreatedAt); err != nil {
		return Message{}, fmt.Errorf("insert message: %w", err)
	}
	if authorID != nil {
		if u, err := GetUserByID(ctx, dbx, *authorID); err == nil {
			m.User = &u
		}
	}
	return m, nil
}

// GetChatMessages returns a chat's messages in creation order. The chat must belong
// to ownerID: a missing chat yields ErrNotFound, a foreign chat ErrAccessDenied.
func GetChatMessages(ctx context.Context, dbx *sql.DB, ownerID, chatID string) ([]Message, error) {
	var chatOwner string
	err := dbx.QueryRowContext(ctx, `SELECT user_id FROM chats WHERE id=$1`, chatID).Scan(&chatOwner)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if chatOwner != ownerID {
		return nil, ErrAccessDenied
	}

	rows, err := dbx.QueryContext(ctx,
		`SELECT m.id, m.chat_id, m.user_id, m.text, m.type, m.created_at,
		        u.id, u.provider, u.provider_id, u.email, u.name, u.avatar, u.created_at
		 FROM messages m
		 LEFT JOIN users u ON u.id = m.user_id
		 WHERE m.chat_id=$1 ORDER BY m.created_at ASC`, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Message, 0)
	for rows.Next() {
		var m Message
		var mUserID sql.NullString
		var uID, uProvider, uProviderID, uEmail, uName, uAvatar sql.NullString
		var uCreated sql.NullTime
		if err := rows.Scan(&m.ID, &m.ChatID, &mUserID, &m.Text, &m.Type, &m.CreatedAt,
			&uID, &uProvider, &uProviderID, &uEmail, &uName, &uAvatar, &uCreated); err != nil {
			return nil, err
		}
		if mUserID.Valid {
			id := mUserID.String
			m.UserID = &id
		}
		if uID.Valid {
			m.User = &User{
				ID:         uID.String,
				Provider:   uProvider.String,
				ProviderID: uProviderID.String,
				Email:      uEmail.String,
				Name:       uName.String,
				Avatar:     uAvatar.String,
				CreatedAt:  uCreated.Time,
			}
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
