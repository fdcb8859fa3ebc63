// Package auth verifies Google bearer tokens and resolves them to a stable identity.
// Token verification happens once at the request boundary; everything downstream
// operates on internal user ids only.
package auth

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/idtoken"
)

// ProviderGoogle is the provider key stored with users created via Google sign-in.
const ProviderGoogle = "google"

// ErrUnauthorized indicates a missing, invalid, or expired credential.
var ErrUnauthorized = errors.New("unauthorized")

// Identity is the external identity carried by a verified token.
type Identity struct {
	ProviderID string
	Email      string
	Name       string
	Picture    string
}

// Verifier validates a bearer token and extracts the identity behind it.
type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// GoogleVerifier validates Google ID tokens against the configured OAuth client id.
type GoogleVerifier struct {
	ClientID string
}

// NewGoogleVerifier returns a verifier for the given audience.
func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{ClientID: clientID}
}

// Verify checks signature, expiry, and audience, then extracts the profile claims.
func (v *GoogleVerifier) Verify(ctx context.Context, token string) (Identity, error) {
	if token == "" {
		return Identity{}, fmt.Errorf("%w: empty token", ErrUnauthorized)
	}
	payload, err := idtoken.Validate(ctx, token, v.ClientID)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	id := Identity{ProviderID: payload.Subject}
	if s, ok := payload.Claims["email"].(string); ok {
		id.Email = s
	}
	if s, ok := payload.Claims["name"].(string); ok {
		id.Name = s
	}
	if s, ok := payload.Claims["picture"].(string); ok {
		id.Picture = s
	}
	if id.ProviderID == "" || id.Email == "" {
		return Identity{}, fmt.Errorf("%w: token missing subject or email", ErrUnauthorized)
	}
	return id, nil
}

var _ Verifier = (*GoogleVerifier)(nil)
