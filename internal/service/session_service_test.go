package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"dos-ui/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockSessionStore mimics the store contract in memory: a row past its
// expiry reads as not found even though it is still present.
type mockSessionStore struct {
	sessions map[string]*domain.Session
	putCalls int
	put      func(ctx context.Context, session *domain.Session) error
	get      func(ctx context.Context, sessionID string) (*domain.Session, error)
	delete   func(ctx context.Context, sessionID string) error
}

func newMockSessionStore() *mockSessionStore {
	return &mockSessionStore{sessions: make(map[string]*domain.Session)}
}

func (m *mockSessionStore) Put(ctx context.Context, session *domain.Session) error {
	m.putCalls++
	if m.put != nil {
		return m.put(ctx, session)
	}
	copied := *session
	m.sessions[session.SessionID] = &copied
	return nil
}

func (m *mockSessionStore) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	if m.get != nil {
		return m.get(ctx, sessionID)
	}
	session, ok := m.sessions[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	if session.ExpiresAt <= time.Now().UnixMilli() {
		return nil, domain.ErrSessionNotFound
	}
	copied := *session
	return &copied, nil
}

func (m *mockSessionStore) Delete(ctx context.Context, sessionID string) error {
	if m.delete != nil {
		return m.delete(ctx, sessionID)
	}
	delete(m.sessions, sessionID)
	return nil
}

func TestCreateSession(t *testing.T) {
	store := newMockSessionStore()
	manager := NewSessionManager(store, time.Hour)

	before := time.Now().UnixMilli()
	session, err := manager.CreateSession(context.Background())
	after := time.Now().UnixMilli()
	require.NoError(t, err)

	_, err = uuid.Parse(session.SessionID)
	assert.NoError(t, err, "sessionID should be a UUID")

	assert.NotEmpty(t, session.State)
	assert.NotEqual(t, session.SessionID, session.State)

	assert.GreaterOrEqual(t, session.ExpiresAt, before+time.Hour.Milliseconds())
	assert.LessOrEqual(t, session.ExpiresAt, after+time.Hour.Milliseconds())

	assert.Empty(t, session.UserID)
	assert.Nil(t, session.User)
	assert.Nil(t, session.Tokens.CIS2)
	assert.Nil(t, session.Tokens.APIM)

	// Exactly one put holding the exact session object.
	assert.Equal(t, 1, store.putCalls)
	assert.Equal(t, session, store.sessions[session.SessionID])
}

func TestCreateSession_Uniqueness(t *testing.T) {
	store := newMockSessionStore()
	manager := NewSessionManager(store, time.Hour)

	ids := map[string]bool{}
	states := map[string]bool{}
	for i := 0; i < 50; i++ {
		session, err := manager.CreateSession(context.Background())
		require.NoError(t, err)

		assert.False(t, ids[session.SessionID], "duplicate session ID")
		assert.False(t, states[session.State], "duplicate state")
		ids[session.SessionID] = true
		states[session.State] = true
	}
}

func TestCreateSession_StoreFailure(t *testing.T) {
	store := newMockSessionStore()
	store.put = func(_ context.Context, _ *domain.Session) error {
		return errors.New("table not found")
	}
	manager := NewSessionManager(store, time.Hour)

	_, err := manager.CreateSession(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "table not found")
}

func TestGetSession(t *testing.T) {
	store := newMockSessionStore()
	manager := NewSessionManager(store, time.Hour)

	created, err := manager.CreateSession(context.Background())
	require.NoError(t, err)

	got, err := manager.GetSession(context.Background(), created.SessionID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func TestGetSession_NotFound(t *testing.T) {
	manager := NewSessionManager(newMockSessionStore(), time.Hour)

	_, err := manager.GetSession(context.Background(), "missing-id")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestGetSession_ExpiredRowReadsAsNotFound(t *testing.T) {
	store := newMockSessionStore()
	store.sessions["X"] = &domain.Session{
		SessionID: "X",
		State:     "stale-state",
		ExpiresAt: time.Now().UnixMilli() - 1000,
	}
	manager := NewSessionManager(store, time.Hour)

	_, err := manager.GetSession(context.Background(), "X")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestUpdateSession(t *testing.T) {
	store := newMockSessionStore()
	manager := NewSessionManager(store, time.Hour)

	session, err := manager.CreateSession(context.Background())
	require.NoError(t, err)

	session.UserID = "9012345678"
	session.Tokens.CIS2 = &domain.TokenSet{AccessToken: "token", TokenType: "Bearer"}

	updated, err := manager.UpdateSession(context.Background(), session)
	require.NoError(t, err)
	assert.Same(t, session, updated)

	stored := store.sessions[session.SessionID]
	assert.Equal(t, "9012345678", stored.UserID)
	require.NotNil(t, stored.Tokens.CIS2)
	assert.Equal(t, "token", stored.Tokens.CIS2.AccessToken)
}

func TestDeleteSession_Idempotent(t *testing.T) {
	store := newMockSessionStore()
	manager := NewSessionManager(store, time.Hour)

	session, err := manager.CreateSession(context.Background())
	require.NoError(t, err)

	require.NoError(t, manager.DeleteSession(context.Background(), session.SessionID))
	require.NoError(t, manager.DeleteSession(context.Background(), session.SessionID))

	_, err = manager.GetSession(context.Background(), session.SessionID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}
