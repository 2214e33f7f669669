package avp

import "errors"

var (
	// ErrAuthenticationFailed covers wrong passwords, tampered or corrupt
	// vaults and unknown or expired sessions. The causes are deliberately
	// indistinguishable so the error never acts as an oracle.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrNotAuthenticated reports an operation on a closed client.
	ErrNotAuthenticated = errors.New("client is not authenticated")

	// ErrNotFound reports a retrieve on a secret that does not exist.
	ErrNotFound = errors.New("secret not found")
)
