package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	"dos-ui/internal/domain"
	"dos-ui/internal/observability"

	"github.com/google/uuid"
)

// SessionManager owns the session lifecycle on top of an injected store.
type SessionManager struct {
	store domain.SessionStore
	ttl   time.Duration
}

// NewSessionManager creates a SessionManager persisting through the given
// store. Sessions live for ttl from creation.
func NewSessionManager(store domain.SessionStore, ttl time.Duration) *SessionManager {
	return &SessionManager{store: store, ttl: ttl}
}

// CreateSession generates a fresh anonymous session and persists it with a
// single unconditional put. The state value is random and independent of
// the session ID.
func (m *SessionManager) CreateSession(ctx context.Context) (*domain.Session, error) {
	session := &domain.Session{
		SessionID: uuid.NewString(),
		State:     randomState(),
		ExpiresAt: time.Now().Add(m.ttl).UnixMilli(),
	}

	if err := m.store.Put(ctx, session); err != nil {
		return nil, err
	}

	observability.SessionsCreated.Inc()
	observability.FromContext(ctx).Info("session created",
		"session_id", session.SessionID,
		"expires_at", session.ExpiresAt,
	)
	return session, nil
}

// GetSession reads a session by ID. Absent and expired rows both surface
// as domain.ErrSessionNotFound; an expired row is never returned even if
// the store has not evicted it yet.
func (m *SessionManager) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	observability.FromContext(ctx).Debug("session fetched",
		"session_id", session.SessionID,
		"expires_at", session.ExpiresAt,
	)
	return session, nil
}

// UpdateSession persists the given session as-is and returns it for
// chaining. The caller is responsible for supplying a valid full session.
func (m *SessionManager) UpdateSession(ctx context.Context, session *domain.Session) (*domain.Session, error) {
	if err := m.store.Put(ctx, session); err != nil {
		return nil, err
	}

	observability.FromContext(ctx).Info("session updated",
		"session_id", session.SessionID,
		"expires_at", session.ExpiresAt,
	)
	return session, nil
}

// DeleteSession removes a session row. Deleting an absent session is not
// an error.
func (m *SessionManager) DeleteSession(ctx context.Context, sessionID string) error {
	if err := m.store.Delete(ctx, sessionID); err != nil {
		return err
	}

	observability.FromContext(ctx).Info("session deleted", "session_id", sessionID)
	return nil
}

// randomState generates the CSRF correlation value carried through the
// sign-in flow. 256 bits of entropy.
func randomState() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
