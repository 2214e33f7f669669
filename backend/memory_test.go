package backend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryEmpty(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	exists, err := m.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = m.Load(ctx)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemorySaveLoad(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Save(ctx, []byte("first")))
	exists, err := m.Exists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)

	data, err := m.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), data)

	// Save replaces in place
	require.NoError(t, m.Save(ctx, []byte("second")))
	data, err = m.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), data)

	require.NoError(t, m.Close())
}

func TestMemoryLoadReturnsCopy(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Save(ctx, []byte("data")))

	data, err := m.Load(ctx)
	require.NoError(t, err)
	data[0] = 'X'

	again, err := m.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), again)
}

func TestMemoryContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := NewMemory()
	_, err := m.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, m.Save(ctx, []byte("x")), context.Canceled)
}
