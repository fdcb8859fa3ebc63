package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// predefinedChats are created for every new user so the demo has content to talk to.
var predefinedChats = []struct{ FirstName, LastName string }{
	{"John", "Doe"},
	{"Jane", "Smith"},
	{"Bob", "Johnson"},
}

// FindUser looks up a user by external identity. Returns ErrNotFound when absent.
func FindUser(ctx context.Context, dbx *sql.DB, provider, providerID string) (User, error) {
	var u User
	var name, avatar sql.NullString
	row := dbx.QueryRowContext(ctx,
		`SELECT id, provider, provider_id, email, name, avatar, created_at
		 FROM users WHERE provider=$1 AND provider_id=$2`, provider, providerID)
	if err := row.Scan(&u.ID, &u.Provider, &u.ProviderID, &u.Email, &name, &avatar, &u.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	u.Name = name.String
	u.Avatar = avatar.String
	return u, nil
}

// GetUserByID fetches a user by internal id. Returns ErrNotFound when absent.
func GetUserByID(ctx context.Context, dbx *sql.DB, id string) (User, error) {
	var u User
	var name, avatar sql.NullString
	row := dbx.QueryRowContext(ctx,
		`SELECT id, provider, provider_id, email, name, avatar, created_at FROM users WHERE id=$1`, id)
	if err := row.Scan(&u.ID, &u.Provider, &u.ProviderID, &u.Email, &name, &avatar, &u.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	u.Name = name.String
	u.Avatar = avatar.String
	return u, nil
}

// FindOrCreateUser resolves an external identity to an internal user, creating the
// account on first sight. New accounts get the predefined starter chats in the same
// transaction so a partially provisioned user is never visible.
func FindOrCreateUser(ctx context.Context, dbx *sql.DB, provider, providerID, email, name, avatar string) (User, error) {
	if provider == "" || providerID == "" || email == "" {
		return User{}, fmt.Errorf("%w: provider, provider id and email are required", ErrValidation)
	}

	if u, err := FindUser(ctx, dbx, provider, providerID); err == nil {
		return u, nil
	} else if err != ErrNotFound {
		return User{}, err
	}

	tx, err := dbx.BeginTx(ctx, nil)
	if err != nil {
		return User{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	u := User{
		ID:         uuid.New().String(),
		Provider:   provider,
		ProviderID: providerID,
		Email:      email,
		Name:       name,
		Avatar:     avatar,
	}
	row := tx.QueryRowContext(ctx,
		`INSERT INTO users (id, provider, provider_id, email, name, avatar, created_at)
		 VALUES ($1,$2,$3,$4,NULLIF($5,''),NULLIF($6,''),NOW())
		 ON CONFLICT (provider, provider_id) DO NOTHING
		 RETURNING created_at`,
		u.ID, provider, providerID, email, name, avatar)
	if err := row.Scan(&u.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			// Lost a race with a concurrent first sign-in; the winner created the chats.
			_ = tx.Rollback()
			return FindUser(ctx, dbx, provider, providerID)
		}
		return User{}, err
	}

	for _, c := range predefinedChats {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO chats (id, user_id, first_name, last_name, created_at) VALUES ($1,$2,$3,$4,NOW())`,
			uuid.New().String(), u.ID, c.FirstName, c.LastName); err != nil {
			return User{}, fmt.Errorf("create predefined chat: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return User{}, fmt.Errorf("commit user creation: %w", err)
	}
	slog.Info("user created", slog.String("user_id", u.ID), slog.String("provider", provider), slog.String("component", "db_users"))
	return u, nil
}
