package avp

import (
	"fmt"
	"os"
	"syscall"

	"golang.org/x/term"

	"github.com/avproto/avp/internal/crypto"
)

// PassphraseEnvVar names the environment variable checked by
// PassphraseFromEnv.
const PassphraseEnvVar = "AVP_PASSPHRASE"

// ReadPassphrase reads a passphrase from the terminal without echoing
func ReadPassphrase(prompt string) ([]byte, error) {
	fmt.Print(prompt)

	passphrase, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println() // New line after passphrase

	if err != nil {
		return nil, fmt.Errorf("failed to read passphrase: %w", err)
	}

	return passphrase, nil
}

// ReadPassphraseConfirm reads a passphrase twice and ensures they match
func ReadPassphraseConfirm() ([]byte, error) {
	passphrase1, err := ReadPassphrase("Enter passphrase: ")
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(passphrase1)

	passphrase2, err := ReadPassphrase("Confirm passphrase: ")
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(passphrase2)

	if !crypto.ConstantTimeCompare(passphrase1, passphrase2) {
		return nil, fmt.Errorf("passphrases do not match")
	}

	// Return a copy of the passphrase
	result := make([]byte, len(passphrase1))
	copy(result, passphrase1)
	return result, nil
}

// PassphraseFromEnv reads the passphrase from the AVP_PASSPHRASE environment
// variable. Returns nil when unset.
func PassphraseFromEnv() []byte {
	passphrase := os.Getenv(PassphraseEnvVar)
	if passphrase == "" {
		return nil
	}
	// Return a copy to avoid issues when clearing the bytes
	result := make([]byte, len(passphrase))
	copy(result, []byte(passphrase))
	return result
}
