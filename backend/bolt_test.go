package backend

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoltLoadMissing(t *testing.T) {
	ctx := context.Background()
	b := NewBolt(filepath.Join(t.TempDir(), "vault.db"))
	defer b.Close()

	exists, err := b.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = b.Load(ctx)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBoltSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	b := NewBolt(filepath.Join(t.TempDir(), "vault.db"))
	defer b.Close()

	require.NoError(t, b.Save(ctx, []byte("encrypted bytes")))

	exists, err := b.Exists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)

	data, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("encrypted bytes"), data)

	// Save replaces the blob
	require.NoError(t, b.Save(ctx, []byte("newer")))
	data, err = b.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("newer"), data)
}

func TestBoltPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "vault.db")

	b := NewBolt(path)
	require.NoError(t, b.Save(ctx, []byte("durable")))
	require.NoError(t, b.Close())

	reopened := NewBolt(path)
	defer reopened.Close()
	data, err := reopened.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("durable"), data)
}

func TestBoltLockExclusion(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "vault.db")

	first := NewBolt(path)
	defer first.Close()
	require.NoError(t, first.Save(ctx, []byte("data")))

	second := NewBolt(path, WithOpenTimeout(100*time.Millisecond))
	defer second.Close()
	_, err := second.Load(ctx)
	assert.ErrorIs(t, err, ErrVaultLocked)
}
