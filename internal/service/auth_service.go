package service

import (
	"context"
	"errors"

	"dos-ui/internal/domain"
	"dos-ui/internal/observability"
	"dos-ui/internal/oidc"
)

var (
	ErrStateMismatch   = errors.New("state does not match session")
	ErrNoLoginInFlight = errors.New("no sign-in attempt in flight for session")
)

// Authenticator drives the authorization-code-with-PKCE flow against the
// identity provider.
type Authenticator interface {
	AuthorizationRequest(ctx context.Context, state string) (*oidc.AuthorizationRequest, error)
	Exchange(ctx context.Context, code, verifier, nonce string) (*oidc.Identity, error)
}

// AuthService orchestrates CIS2 sign-in for sessions owned by the
// SessionManager.
type AuthService struct {
	sessions *SessionManager
	oidc     Authenticator
}

// NewAuthService creates an AuthService.
func NewAuthService(sessions *SessionManager, authenticator Authenticator) *AuthService {
	return &AuthService{sessions: sessions, oidc: authenticator}
}

// LoginRedirect builds the authorization URL for the given session, bound
// to its state value, and retains the PKCE verifier and nonce on the
// session row so the callback can complete the exchange.
func (s *AuthService) LoginRedirect(ctx context.Context, sessionID string) (string, error) {
	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return "", err
	}

	request, err := s.oidc.AuthorizationRequest(ctx, session.State)
	if err != nil {
		return "", err
	}

	session.CodeVerifier = request.CodeVerifier
	session.Nonce = request.Nonce
	if _, err := s.sessions.UpdateSession(ctx, session); err != nil {
		return "", err
	}

	observability.FromContext(ctx).Info("authorization redirect built",
		"session_id", session.SessionID,
	)
	return request.URL, nil
}

// CompleteLogin finishes the callback leg: it correlates the returned
// state with the session, redeems the code with the retained verifier and
// attaches the verified identity and tokens to the session.
func (s *AuthService) CompleteLogin(ctx context.Context, sessionID, state, code string) (*domain.ClientSession, error) {
	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if state == "" || session.State != state {
		return nil, ErrStateMismatch
	}
	if session.CodeVerifier == "" {
		return nil, ErrNoLoginInFlight
	}

	identity, err := s.oidc.Exchange(ctx, code, session.CodeVerifier, session.Nonce)
	if err != nil {
		return nil, err
	}

	session.UserID = identity.UserID
	session.User = &domain.User{
		DisplayName: identity.DisplayName,
		Orgs:        identity.Orgs,
		Roles:       identity.Roles,
	}
	session.Tokens.CIS2 = identity.Tokens
	session.CodeVerifier = ""
	session.Nonce = ""

	updated, err := s.sessions.UpdateSession(ctx, session)
	if err != nil {
		return nil, err
	}

	observability.FromContext(ctx).Info("sign-in completed",
		"session_id", session.SessionID,
		"user_id", session.UserID,
	)
	return updated.Client(), nil
}
