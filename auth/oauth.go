package auth

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Flow implements the server-side Google OAuth authorization-code flow. It is
// optional: single-page clients can obtain an ID token themselves and present
// it as a bearer token, but the redirect flow is available for plain web clients.
type Flow struct {
	cfg *oauth2.Config
}

// NewFlow builds the flow from client credentials. Returns a disabled flow when
// client id or redirect URI are missing.
func NewFlow(clientID, clientSecret, redirectURI string) *Flow {
	if clientID == "" || redirectURI == "" {
		return &Flow{}
	}
	return &Flow{cfg: &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Endpoint:     google.Endpoint,
		Scopes:       []string{"openid", "email", "profile"},
	}}
}

// Enabled reports whether the redirect flow is configured.
func (f *Flow) Enabled() bool { return f.cfg != nil }

// AuthCodeURL returns the Google consent page URL carrying the given state.
func (f *Flow) AuthCodeURL(state string) string {
	if f.cfg == nil {
		return ""
	}
	return f.cfg.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// ExchangeIDToken trades an authorization code for the ID token embedded in the
// token response. The caller verifies it like any other bearer token.
func (f *Flow) ExchangeIDToken(ctx context.Context, code string) (string, error) {
	if f.cfg == nil {
		return "", fmt.Errorf("oauth flow not configured")
	}
	tok, err := f.cfg.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("code exchange failed: %w", err)
	}
	raw, ok := tok.Extra("id_token").(string)
	if !ok || raw == "" {
		return "", fmt.Errorf("token response missing id_token")
	}
	return raw, nil
}
