package avp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionIssueAndValidate(t *testing.T) {
	m := newSessionManager(0)

	s, err := m.issue("default")
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, "default", s.Workspace)
	assert.True(t, s.ExpiresAt.IsZero(), "no TTL means client-lifetime sessions")

	rec, err := m.validate(s.ID)
	require.NoError(t, err)
	assert.Equal(t, "default", rec.workspace)
}

func TestSessionIDsAreUnique(t *testing.T) {
	m := newSessionManager(0)
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		s, err := m.issue("ws")
		require.NoError(t, err)
		assert.False(t, seen[s.ID])
		seen[s.ID] = true
	}
}

func TestSessionValidateUnknown(t *testing.T) {
	m := newSessionManager(0)
	_, err := m.validate("no-such-token")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestSessionInvalidate(t *testing.T) {
	m := newSessionManager(0)
	s, err := m.issue("default")
	require.NoError(t, err)

	m.invalidate(s.ID)
	_, err = m.validate(s.ID)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestSessionInvalidateAll(t *testing.T) {
	m := newSessionManager(0)
	s1, err := m.issue("a")
	require.NoError(t, err)
	s2, err := m.issue("b")
	require.NoError(t, err)

	m.invalidateAll()
	_, err = m.validate(s1.ID)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
	_, err = m.validate(s2.ID)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestSessionExpiry(t *testing.T) {
	m := newSessionManager(time.Minute)
	now := time.Now()
	m.now = func() time.Time { return now }

	s, err := m.issue("default")
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Minute), s.ExpiresAt)

	_, err = m.validate(s.ID)
	require.NoError(t, err)

	// Expiry is a passive check at validation time
	now = now.Add(2 * time.Minute)
	_, err = m.validate(s.ID)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestSessionSweepOnIssue(t *testing.T) {
	m := newSessionManager(time.Minute)
	now := time.Now()
	m.now = func() time.Time { return now }

	stale, err := m.issue("default")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = m.issue("default")
	require.NoError(t, err)

	m.mu.Lock()
	_, kept := m.sessions[stale.ID]
	m.mu.Unlock()
	assert.False(t, kept, "expired records are swept when new sessions are issued")
}
