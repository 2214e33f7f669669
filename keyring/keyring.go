// Package keyring caches vault passphrases in the operating system keyring,
// keyed by vault ID, so interactive callers do not have to retype them.
package keyring

import (
	"github.com/zalando/go-keyring"
)

const serviceName = "avp"

// SavePassphrase stores a vault passphrase in the OS keyring
func SavePassphrase(vaultID string, passphrase string) error {
	return keyring.Set(serviceName, vaultID, passphrase)
}

// GetPassphrase retrieves a vault passphrase from the OS keyring
func GetPassphrase(vaultID string) (string, error) {
	return keyring.Get(serviceName, vaultID)
}

// DeletePassphrase removes a vault passphrase from the OS keyring
func DeletePassphrase(vaultID string) error {
	return keyring.Delete(serviceName, vaultID)
}

// HasPassphrase checks if a passphrase is stored for the vault
func HasPassphrase(vaultID string) bool {
	_, err := keyring.Get(serviceName, vaultID)
	return err == nil
}
