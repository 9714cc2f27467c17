package service

import (
	"context"
	"errors"

	"dos-ui/internal/domain"
	"dos-ui/internal/observability"
)

// SessionRef is the cookie-backed session reference held by the client.
// Implementations decode the reference from the request and write updates
// back to the response.
type SessionRef interface {
	SessionID() string
	Update(sessionID string) error
}

// SetupSession reconciles the client-held session reference with the
// server-side store so every request ends up with exactly one valid
// session. A reference that is missing, stale or expired self-heals with a
// fresh anonymous session; a valid reference is left untouched.
func (m *SessionManager) SetupSession(ctx context.Context, ref SessionRef) (*domain.ClientSession, error) {
	sessionID := ref.SessionID()
	if sessionID == "" {
		return m.issueSession(ctx, ref, "created")
	}

	existing, err := m.GetSession(ctx, sessionID)
	if err == nil {
		observability.SessionBootstraps.WithLabelValues("reused").Inc()
		return existing.Client(), nil
	}
	if !errors.Is(err, domain.ErrSessionNotFound) {
		return nil, err
	}

	// Stale reference: the row is gone or expired. Replace it rather than
	// surfacing an error to the user.
	return m.issueSession(ctx, ref, "repaired")
}

func (m *SessionManager) issueSession(ctx context.Context, ref SessionRef, outcome string) (*domain.ClientSession, error) {
	session, err := m.CreateSession(ctx)
	if err != nil {
		return nil, err
	}
	if err := ref.Update(session.SessionID); err != nil {
		return nil, err
	}

	observability.SessionBootstraps.WithLabelValues(outcome).Inc()
	return session.Client(), nil
}
