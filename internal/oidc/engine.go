package oidc

import (
	"context"
	"errors"
)

const (
	PromptLogin   = "login"
	PromptConsent = "consent"
)

var (
	ErrInteractionNotFound = errors.New("interaction session not found or expired")
	ErrUnknownClient       = errors.New("unknown client")
	ErrInvalidRedirectURI  = errors.New("redirect_uri not registered for client")
	ErrInvalidGrant        = errors.New("invalid or expired authorization code")
)

// Client is a registered OAuth client.
type Client struct {
	ID           string   `json:"id"`
	Secret       string   `json:"-"`
	Name         string   `json:"name"`
	RedirectURIs []string `json:"redirectUris"`
}

// AuthParams carries the authorization request parameters through the
// interaction flow.
type AuthParams struct {
	RedirectURI         string `json:"redirectUri"`
	Scope               string `json:"scope"`
	State               string `json:"state,omitempty"`
	Nonce               string `json:"nonce,omitempty"`
	CodeChallenge       string `json:"codeChallenge,omitempty"`
	CodeChallengeMethod string `json:"codeChallengeMethod,omitempty"`
}

// Interaction is the engine-owned session for an in-progress authorization
// request, identified by an opaque uid.
type Interaction struct {
	UID        string     `json:"uid"`
	Prompt     string     `json:"prompt"`
	ClientID   string     `json:"clientId"`
	ClientName string     `json:"clientName"`
	AccountID  string     `json:"accountId,omitempty"`
	GrantID    string     `json:"grantId,omitempty"`
	Params     AuthParams `json:"params"`
}

// Grant records a user's consent to a client's requested scopes.
type Grant struct {
	ID        string   `json:"id"`
	AccountID string   `json:"accountId"`
	ClientID  string   `json:"clientId"`
	Scopes    []string `json:"scopes"`
}

// Engine is the narrow surface the interaction controller drives. The
// controller only supplies outcomes; code issuance and token exchange stay
// inside the engine.
type Engine interface {
	// Details resolves the interaction session for uid.
	Details(ctx context.Context, uid string) (*Interaction, error)
	// FinishLogin records the resolved account and moves the session to
	// the consent prompt. Returns the URL the user agent should follow.
	FinishLogin(ctx context.Context, uid, accountID string, remember bool) (string, error)
	// EnsureGrant reuses the session's grant when present, otherwise
	// creates one, attaches the requested scopes and persists it.
	EnsureGrant(ctx context.Context, uid string, scopes []string) (string, error)
	// FinishConsent finalizes the session with the grant, issuing an
	// authorization code. Returns the client redirect URL.
	FinishConsent(ctx context.Context, uid, grantID string) (string, error)
	// FinishError aborts the session. Returns the client redirect URL
	// carrying the error parameters.
	FinishError(ctx context.Context, uid, code, description string) (string, error)
}
