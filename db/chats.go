package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// CreateChat inserts a chat owned by ownerID.
func CreateChat(ctx context.Context, dbx *sql.DB, ownerID, firstName, lastName string) (Chat, error) {
	if strings.TrimSpace(firstName) == "" || strings.TrimSpace(lastName) == "" {
		return Chat{}, fmt.Errorf("%w: first name and last name are required", ErrValidation)
	}
	c := Chat{
		ID:        uuid.New().String(),
		UserID:    ownerID,
		FirstName: firstName,
		LastName:  lastName,
	}
	row := dbx.QueryRowContext(ctx,
		`INSERT INTO chats (id, user_id, first_name, last_name, created_at)
		 VALUES ($1,$2,$3,$4,NOW()) RETURNING created_at`,
		c.ID, ownerID, firstName, lastName)
	if err := row.Scan(&c.CreatedAt); err != nil {
		return Chat{}, fmt.Errorf("insert chat: %w", err)
	}
	return c, nil
}

// UpdateChat renames a chat. Only the owner's chats are touched; a foreign or
// missing chat id yields ErrNotFound (the row is invisible to this owner).
func UpdateChat(ctx context.Context, dbx *sql.DB, ownerID, chatID, firstName, lastName string) (Chat, error) {
	if strings.TrimSpace(firstName) == "" || strings.TrimSpace(lastName) == "" {
		return Chat{}, fmt.Errorf("%w: first name and last name are required", ErrValidation)
	}
	var c Chat
	row := dbx.QueryRowContext(ctx,
		`UPDATE chats SET first_name=$1, last_name=$2 WHERE id=$3 AND user_id=$4
		 RETURNING id, user_id, first_name, last_name, created_at`,
		firstName, lastName, chatID, ownerID)
	if err := row.Scan(&c.ID, &c.UserID, &c.FirstName, &c.LastName, &c.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return Chat{}, chatMissingReason(ctx, dbx, chatID)
		}
		return Chat{}, err
	}
	return c, nil
}

// DeleteChat removes a chat and its messages (FK cascade). Same visibility rules as UpdateChat.
func DeleteChat(ctx context.Context, dbx *sql.DB, ownerID, chatID string) error {
	res, err := dbx.ExecContext(ctx, `DELETE FROM chats WHERE id=$1 AND user_id=$2`, chatID, ownerID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return chatMissingReason(ctx, dbx, chatID)
	}
	return nil
}

// chatMissingReason distinguishes "no such chat" from "someone else's chat" after an
// owner-scoped statement matched nothing.
func chatMissingReason(ctx context.Context, dbx *sql.DB, chatID string) error {
	var exists bool
	if err := dbx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM chats WHERE id=$1)`, chatID).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return ErrAccessDenied
	}
	return ErrNotFound
}

// GetAllChats lists the owner's chats, newest first, with the latest message (and its
// author) attached to each. An optional search filters by contact name, case-insensitive.
func GetAllChats(ctx context.Context, dbx *sql.DB, ownerID, search string) ([]Chat, error) {
	q := `SELECT c.id, c.user_id, c.first_name, c.last_name, c.created_at,
	             m.id, m.user_id, m.text, m.type, m.created_at,
	             u.id, u.provider, u.provider_id, u.email, u.name, u.avatar, u.created_at
	      FROM chats c
	      LEFT JOIN LATERAL (
	        SELECT id, user_id, text, type, created_at FROM messages
	        WHERE chat_id = c.id ORDER BY created_at DESC LIMIT 1
	      ) m ON TRUE
	      LEFT JOIN users u ON u.id = m.user_id
	      WHERE c.user_id = $1`
	args := []any{ownerID}
	if search != "" {
		q += ` AND (c.first_name ILIKE $2 OR c.last_name ILIKE $2)`
		args = append(args, "%"+search+"%")
	}
	q += ` ORDER BY c.created_at DESC`

	rows, err := dbx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	chats := make([]Chat, 0)
	for rows.Next() {
		var c Chat
		var mID, mUserID, mText, mType sql.NullString
		var mCreated sql.NullTime
		var uID, uProvider, uProviderID, uEmail, uName, uAvatar sql.NullString
		var uCreated sql.NullTime
		if err := rows.Scan(&c.ID, &c.UserID, &c.FirstName, &c.LastName, &c.CreatedAt,
			&mID, &mUserID, &mText, &mType, &mCreated,
			&uID, &uProvider, &uProviderID, &uEmail, &uName, &uAvatar, &uCreated); err != nil {
			return nil, err
		}
		if mID.Valid {
			m := &Message{
				ID:        mID.String,
				ChatID:    c.ID,
				Text:      mText.String,
				Type:      mType.String,
				CreatedAt: mCreated.Time,
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
			c.LastMessage = m
		}
		chats = append(chats, c)
	}
	return chats, rows.Err()
}

// ValidateChatOwnership reports whether chatID exists and belongs to ownerID.
func ValidateChatOwnership(ctx context.Context, dbx *sql.DB, ownerID, chatID string) (bool, error) {
	var ok bool
	err := dbx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM chats WHERE id=$1 AND user_id=$2)`, chatID, ownerID).Scan(&ok)
	return ok, err
}
