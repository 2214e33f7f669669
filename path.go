package avp

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

// DefaultVaultPath returns the standard location for a user's vault file,
// typically ~/.local/share/avp/vault.enc on Linux.
func DefaultVaultPath() string {
	return filepath.Join(xdg.DataHome, "avp", "vault.enc")
}
