// Package vaultfile implements the on-disk vault framing: a cleartext JSON
// header carrying KDF parameters and the payload nonce, followed by the
// encrypted workspaces payload.
//
//	magic "AVP1" | uint32 header length | header JSON | ciphertext||tag
//
// The header is never encrypted; the payload is opaque until decrypted with
// the key derived from the header's KDF parameters.
package vaultfile

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	// FormatVersion is the current vault format version.
	FormatVersion = 1

	// KDFArgon2id names the only key derivation algorithm the format
	// currently supports.
	KDFArgon2id = "argon2id"

	// maxHeaderSize bounds the declared header length so a corrupt length
	// field cannot trigger a huge allocation.
	maxHeaderSize = 1 << 20
)

var magic = []byte("AVP1")

// ErrMalformed reports that the bytes do not parse as a vault file. Callers
// treat it the same as an authentication failure so corruption and wrong
// passwords stay indistinguishable.
var ErrMalformed = errors.New("malformed vault file")

// KDFHeader carries the key derivation parameters needed to re-derive the
// vault key on open. The salt is generated once at vault creation and never
// regenerated.
type KDFHeader struct {
	Algo        string `json:"algo"`
	Memory      uint32 `json:"memory"`
	Time        uint32 `json:"time"`
	Parallelism uint8  `json:"parallelism"`
	Salt        []byte `json:"salt"`
}

// Header is the cleartext portion of a vault file.
type Header struct {
	Version    int       `json:"version"`
	VaultID    string    `json:"vault_id"`
	KDF        KDFHeader `json:"kdf"`
	Nonce      []byte    `json:"nonce"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}

// Encode serializes a header and encrypted payload into the vault file format.
func Encode(h *Header, payload []byte) ([]byte, error) {
	headerJSON, err := json.Marshal(h)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal header: %w", err)
	}
	if len(headerJSON) > maxHeaderSize {
		return nil, fmt.Errorf("header too large: %d bytes", len(headerJSON))
	}

	buf := make([]byte, 0, len(magic)+4+len(headerJSON)+len(payload))
	buf = append(buf, magic...)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(headerJSON)))
	buf = append(buf, headerJSON...)
	buf = append(buf, payload...)
	return buf, nil
}

// Decode parses a vault file into its header and encrypted payload.
func Decode(data []byte) (*Header, []byte, error) {
	if len(data) < len(magic)+4 {
		return nil, nil, ErrMalformed
	}
	if !bytes.Equal(data[:len(magic)], magic) {
		return nil, nil, ErrMalformed
	}

	headerLen := binary.BigEndian.Uint32(data[len(magic) : len(magic)+4])
	if headerLen > maxHeaderSize {
		return nil, nil, ErrMalformed
	}
	rest := data[len(magic)+4:]
	if uint32(len(rest)) < headerLen {
		return nil, nil, ErrMalformed
	}

	var h Header
	if err := json.Unmarshal(rest[:headerLen], &h); err != nil {
		return nil, nil, ErrMalformed
	}
	if h.Version != FormatVersion {
		return nil, nil, fmt.Errorf("%w: unsupported version %d", ErrMalformed, h.Version)
	}

	payload := append([]byte(nil), rest[headerLen:]...)
	return &h, payload, nil
}
