// Package avp implements an agent-oriented secret vault: encrypted-at-rest
// storage of named credentials gated by password-derived authentication and
// short-lived sessions, with versioning to support safe rotation.
//
// A vault is a single encrypted unit of persistence holding named workspaces;
// each workspace isolates a set of secrets, and each secret keeps an ordered,
// append-only version history. The vault key is derived from a password with
// Argon2id and the payload is sealed with AES-256-GCM, so a stolen vault file
// is expensive to brute-force and any tampering is detected on open.
//
// Typical use:
//
//	client := avp.NewClient(backend.NewFile(path), password)
//	defer client.Close()
//
//	session, err := client.Authenticate(ctx, "default")
//	if err != nil {
//		return err
//	}
//	if err := client.Store(ctx, session.ID, "api-key", value); err != nil {
//		return err
//	}
//
// Persistence strategies live in the backend subpackage; presentation concerns
// such as argument parsing and import/export formats belong to callers.
package avp
