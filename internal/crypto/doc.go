// Package crypto provides cryptographic operations for the vault engine.
//
// Encryption uses AES-256-GCM with:
//   - 32-byte key derived from the vault password via Argon2id
//   - 12-byte random nonce per encryption operation
//   - Authenticated encryption prevents tampering
//
// Key derivation uses Argon2id with:
//   - 32-byte random salt (stored unencrypted in the vault header)
//   - memory-hard cost parameters carried in the header, defaulting to
//     64 MiB / 3 passes / 4 lanes
//
// Memory safety:
//   - Use ClearBytes() to zero sensitive data after use
//   - Call Encryptor.Destroy() when done with encryption operations
package crypto
