package avp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPassphraseFromEnv(t *testing.T) {
	t.Setenv(PassphraseEnvVar, "from-env")
	assert.Equal(t, []byte("from-env"), PassphraseFromEnv())
}

func TestPassphraseFromEnvUnset(t *testing.T) {
	t.Setenv(PassphraseEnvVar, "")
	assert.Nil(t, PassphraseFromEnv())
}

func TestDefaultVaultPath(t *testing.T) {
	path := DefaultVaultPath()
	assert.NotEmpty(t, path)
	assert.Contains(t, path, "avp")
}
