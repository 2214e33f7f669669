package keyring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	zkeyring "github.com/zalando/go-keyring"
)

func TestPassphraseRoundTrip(t *testing.T) {
	zkeyring.MockInit()

	const vaultID = "4f4c8b9a-9f56-4d16-9f2c-6f3a2d0a1b2c"

	assert.False(t, HasPassphrase(vaultID))

	require.NoError(t, SavePassphrase(vaultID, "hunter2"))
	assert.True(t, HasPassphrase(vaultID))

	got, err := GetPassphrase(vaultID)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", got)

	require.NoError(t, DeletePassphrase(vaultID))
	assert.False(t, HasPassphrase(vaultID))
}
