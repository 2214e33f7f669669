package avp

import (
	"sync"
	"time"

	"github.com/avproto/avp/internal/crypto"
)

// Session is the capability returned by Authenticate. Its ID must accompany
// every subsequent operation. Sessions are never persisted; they live only as
// long as the client that minted them.
type Session struct {
	ID        string
	Workspace string
	ExpiresAt time.Time // zero when the session is bound to the client lifetime
}

type sessionRecord struct {
	workspace string
	expiresAt time.Time
}

// sessionManager issues and validates session tokens. A zero ttl means
// sessions stay valid until invalidated; otherwise expiry is a passive check
// at validation time, no timer task runs.
type sessionManager struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]sessionRecord
	now      func() time.Time
}

func newSessionManager(ttl time.Duration) *sessionManager {
	return &sessionManager{
		ttl:      ttl,
		sessions: make(map[string]sessionRecord),
		now:      time.Now,
	}
}

// issue mints an unguessable session token scoped to a workspace.
func (m *sessionManager) issue(workspace string) (Session, error) {
	id, err := crypto.RandomToken()
	if err != nil {
		return Session{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweepLocked()

	var expiresAt time.Time
	if m.ttl > 0 {
		expiresAt = m.now().Add(m.ttl)
	}
	m.sessions[id] = sessionRecord{
		workspace: workspace,
		expiresAt: expiresAt,
	}
	return Session{
		ID:        id,
		Workspace: workspace,
		ExpiresAt: expiresAt,
	}, nil
}

// validate looks up a session, failing for unknown or expired ids. The error
// is the same opaque authentication failure in both cases.
func (m *sessionManager) validate(id string) (sessionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.sessions[id]
	if !ok {
		return sessionRecord{}, ErrAuthenticationFailed
	}
	if !rec.expiresAt.IsZero() && m.now().After(rec.expiresAt) {
		delete(m.sessions, id)
		return sessionRecord{}, ErrAuthenticationFailed
	}
	return rec, nil
}

// invalidate removes one session.
func (m *sessionManager) invalidate(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// invalidateAll removes every session; used by Close.
func (m *sessionManager) invalidateAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = make(map[string]sessionRecord)
}

// sweepLocked drops expired records. Callers must hold mu.
func (m *sessionManager) sweepLocked() {
	if m.ttl <= 0 {
		return
	}
	now := m.now()
	for id, rec := range m.sessions {
		if !rec.expiresAt.IsZero() && now.After(rec.expiresAt) {
			delete(m.sessions, id)
		}
	}
}
