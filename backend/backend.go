// Package backend provides persistence strategies for opaque encrypted vault
// bytes. A backend never sees plaintext; encryption and decryption happen in
// the client above it.
//
// Three variants are provided:
//   - File: a single vault file with atomic writes and an exclusive
//     advisory lock held for the lifetime of the backend
//   - Memory: a process-local slot for tests and ephemeral agents
//   - Bolt: a bbolt database holding the vault blob, relying on bbolt's own
//     file lock for cross-process exclusion
package backend

import (
	"context"
	"errors"
)

var (
	// ErrNotFound reports that no vault exists yet. It is normal control
	// flow: the client initializes a fresh vault when it sees it.
	ErrNotFound = errors.New("vault not found")

	// ErrVaultLocked reports that another process holds the exclusive lock
	// on the vault.
	ErrVaultLocked = errors.New("vault is locked by another process")
)

// Backend persists the encrypted vault representation.
type Backend interface {
	// Load returns the stored vault bytes, or ErrNotFound if no vault has
	// been saved yet.
	Load(ctx context.Context) ([]byte, error)
	// Save durably replaces the stored vault bytes. The previous state
	// must survive intact if the write fails partway.
	Save(ctx context.Context, data []byte) error
	// Exists reports whether a vault has been saved.
	Exists(ctx context.Context) (bool, error)
	// Close releases any locks or handles held by the backend.
	Close() error
}
