package domain

import (
	"context"
	"errors"
)

var (
	ErrSessionNotFound = errors.New("session not found")
)

// TokenSet holds an OAuth2 token response from an upstream provider.
// CIS2 responses additionally carry an ID token.
type TokenSet struct {
	AccessToken  string `json:"access_token" dynamodbav:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty" dynamodbav:"refresh_token,omitempty"`
	IDToken      string `json:"id_token,omitempty" dynamodbav:"id_token,omitempty"`
	TokenType    string `json:"token_type" dynamodbav:"token_type"`
	ExpiresIn    int64  `json:"expires_in" dynamodbav:"expires_in"`
}

// Tokens groups the per-provider token sets attached to a session after
// sign-in. Each set is independently optional; absence means the tokens
// have not been obtained yet, not an error state.
type Tokens struct {
	CIS2 *TokenSet `json:"cis2,omitempty" dynamodbav:"cis2,omitempty"`
	APIM *TokenSet `json:"apim,omitempty" dynamodbav:"apim,omitempty"`
}

// User is the denormalised profile snapshot attached after CIS2 sign-in.
type User struct {
	DisplayName string   `json:"displayName,omitempty" dynamodbav:"displayName,omitempty"`
	Orgs        []string `json:"orgs,omitempty" dynamodbav:"orgs,omitempty"`
	Roles       []string `json:"roles,omitempty" dynamodbav:"roles,omitempty"`
}

// Session is the server-side session row. ExpiresAt is an absolute
// epoch-millisecond timestamp; a row past it must be treated as absent by
// every reader, whether or not the store has evicted it yet.
//
// CodeVerifier and Nonce hold the PKCE material generated when a sign-in
// redirect is built, retained on the row so the callback can complete the
// token exchange. They are never serialised to JSON.
type Session struct {
	SessionID    string `json:"sessionID" dynamodbav:"sessionID"`
	State        string `json:"state" dynamodbav:"state"`
	ExpiresAt    int64  `json:"expiresAt" dynamodbav:"expiresAt"`
	UserID       string `json:"userID,omitempty" dynamodbav:"userID,omitempty"`
	User         *User  `json:"user,omitempty" dynamodbav:"user,omitempty"`
	Tokens       Tokens `json:"tokens" dynamodbav:"tokens"`
	CodeVerifier string `json:"-" dynamodbav:"codeVerifier,omitempty"`
	Nonce        string `json:"-" dynamodbav:"nonce,omitempty"`
}

// ClientSession is the browser-safe projection of a Session. It never
// carries tokens or PKCE material.
type ClientSession struct {
	SessionID string `json:"sessionID"`
	State     string `json:"state"`
	ExpiresAt int64  `json:"expiresAt"`
	UserID    string `json:"userID,omitempty"`
	User      *User  `json:"user,omitempty"`
}

// Client returns the browser-safe projection of s.
func (s *Session) Client() *ClientSession {
	return &ClientSession{
		SessionID: s.SessionID,
		State:     s.State,
		ExpiresAt: s.ExpiresAt,
		UserID:    s.UserID,
		User:      s.User,
	}
}

// SessionStore defines the interface for session row access. Get returns
// ErrSessionNotFound both when no row exists and when the row has expired;
// callers cannot distinguish the two cases.
type SessionStore interface {
	Put(ctx context.Context, session *Session) error
	Get(ctx context.Context, sessionID string) (*Session, error)
	Delete(ctx context.Context, sessionID string) error
}
