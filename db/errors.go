package db

import "errors"

// Sentinel errors returned by the data access layer. Handlers map these to HTTP
// statuses with errors.Is; background jobs log and continue.
var (
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAccessDenied indicates the row exists but belongs to a different user.
	ErrAccessDenied = errors.New("access denied")
	// ErrValidation indicates required fields were missing or malformed.
	ErrValidation = errors.New("validation failed")
)
