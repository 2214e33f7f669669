package avp

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/avproto/avp/backend"
	"github.com/avproto/avp/internal/crypto"
	"github.com/avproto/avp/internal/vaultfile"
)

// DefaultWorkspace is used when callers do not name a workspace.
const DefaultWorkspace = "default"

// KDFParams exposes the Argon2id cost parameters for vault creation. Costs
// are written to the vault header at initialization and reused verbatim on
// every later open.
type KDFParams struct {
	Memory      uint32 // KiB
	Time        uint32
	Parallelism uint8
}

// Option configures a Client.
type Option func(*Client)

// WithKDFParams overrides the Argon2id costs used when initializing a new
// vault. It has no effect on an existing vault, whose costs come from its
// header.
func WithKDFParams(p KDFParams) Option {
	return func(c *Client) {
		c.kdfParams = crypto.Params{
			Memory:      p.Memory,
			Time:        p.Time,
			Parallelism: p.Parallelism,
		}
	}
}

// WithSessionTTL sets an absolute expiry on issued sessions. The default is
// no absolute timeout: a session stays valid until the client closes.
func WithSessionTTL(d time.Duration) Option {
	return func(c *Client) {
		c.sessionTTL = d
	}
}

// Client is the vault facade. It owns the decrypted credential store and all
// active sessions for the lifetime of one open vault handle; the backend owns
// only the encrypted bytes.
//
// A client starts Closed, transitions to Open on the first successful
// Authenticate and back to Closed on Close. All operations are serialized by
// an internal mutex, so a single client may be shared across goroutines. A
// closed client may be re-authenticated; the password is retained for that
// purpose until the client is garbage collected.
type Client struct {
	mu         sync.Mutex
	backend    backend.Backend
	password   []byte
	kdfParams  crypto.Params
	sessionTTL time.Duration
	sessions   *sessionManager

	open   bool
	dirty  bool
	header *vaultfile.Header
	enc    *crypto.Encryptor
	store  *credentialStore
}

// NewClient creates a client for the vault persisted by b. The password is
// copied; the caller may clear its own copy.
func NewClient(b backend.Backend, password []byte, opts ...Option) *Client {
	c := &Client{
		backend:   b,
		password:  append([]byte(nil), password...),
		kdfParams: crypto.DefaultParams(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.sessions = newSessionManager(c.sessionTTL)
	return c
}

// Authenticate opens the vault if it is not open yet and mints a session for
// the workspace, creating the workspace lazily if absent. An empty workspace
// name means DefaultWorkspace. If no vault exists, a fresh one is initialized
// with a new salt and an empty payload.
//
// Key derivation is deliberately slow (hundreds of milliseconds); callers
// should expect that latency here and only here.
func (c *Client) Authenticate(ctx context.Context, workspace string) (Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if workspace == "" {
		workspace = DefaultWorkspace
	}

	if !c.open {
		if err := c.openVault(ctx); err != nil {
			return Session{}, err
		}
	}

	if c.store.ensureWorkspace(workspace) {
		if err := c.persist(ctx); err != nil {
			return Session{}, err
		}
	}

	return c.sessions.issue(workspace)
}

// openVault loads and decrypts the vault, or initializes a fresh one when the
// backend has nothing stored.
func (c *Client) openVault(ctx context.Context) error {
	data, err := c.backend.Load(ctx)
	if errors.Is(err, backend.ErrNotFound) {
		return c.initialize(ctx)
	}
	if err != nil {
		return err
	}

	header, payload, err := vaultfile.Decode(data)
	if err != nil {
		// Corrupt vault is indistinguishable from a wrong password
		return ErrAuthenticationFailed
	}
	if header.KDF.Algo != vaultfile.KDFArgon2id {
		return ErrAuthenticationFailed
	}

	kdf := &crypto.KDF{
		Salt: header.KDF.Salt,
		Params: crypto.Params{
			Memory:      header.KDF.Memory,
			Time:        header.KDF.Time,
			Parallelism: header.KDF.Parallelism,
		},
	}
	key := kdf.DeriveKey(c.password)
	enc := crypto.NewEncryptor(key)

	plaintext, err := enc.Decrypt(header.Nonce, payload)
	if err != nil {
		enc.Destroy()
		return ErrAuthenticationFailed
	}

	store, err := decodeCredentialStore(plaintext)
	crypto.ClearBytes(plaintext)
	if err != nil {
		enc.Destroy()
		return ErrAuthenticationFailed
	}

	c.header = header
	c.enc = enc
	c.store = store
	c.open = true
	return nil
}

// initialize creates a brand-new vault: fresh salt, new vault ID, empty
// payload, persisted before the first session is issued.
func (c *Client) initialize(ctx context.Context) error {
	kdf, err := crypto.NewKDF(c.kdfParams)
	if err != nil {
		return err
	}

	now := time.Now()
	c.header = &vaultfile.Header{
		Version: vaultfile.FormatVersion,
		VaultID: uuid.NewString(),
		KDF: vaultfile.KDFHeader{
			Algo:        vaultfile.KDFArgon2id,
			Memory:      kdf.Params.Memory,
			Time:        kdf.Params.Time,
			Parallelism: kdf.Params.Parallelism,
			Salt:        kdf.Salt,
		},
		CreatedAt:  now,
		ModifiedAt: now,
	}
	c.enc = crypto.NewEncryptor(kdf.DeriveKey(c.password))
	c.store = newCredentialStore()
	c.open = true

	if err := c.persist(ctx); err != nil {
		c.reset()
		return err
	}
	return nil
}

// persist re-encrypts the full payload with a fresh nonce and saves it.
// Success is reported only after the backend write completed.
func (c *Client) persist(ctx context.Context) error {
	plaintext, err := c.store.encode()
	if err != nil {
		return err
	}

	nonce, ciphertext, err := c.enc.Encrypt(plaintext)
	crypto.ClearBytes(plaintext)
	if err != nil {
		return err
	}

	c.header.Nonce = nonce
	c.header.ModifiedAt = time.Now()

	data, err := vaultfile.Encode(c.header, ciphertext)
	if err != nil {
		return err
	}

	if err := c.backend.Save(ctx, data); err != nil {
		c.dirty = true
		return fmt.Errorf("failed to persist vault: %w", err)
	}
	c.dirty = false
	return nil
}

// begin validates the session and returns its workspace. Every operation
// calls it first.
func (c *Client) begin(sessionID string) (string, error) {
	if !c.open {
		return "", ErrNotAuthenticated
	}
	rec, err := c.sessions.validate(sessionID)
	if err != nil {
		return "", err
	}
	return rec.workspace, nil
}

// Store sets the value of a secret. An existing secret has its current
// version overwritten in place; use Rotate to grow history instead.
func (c *Client) Store(ctx context.Context, sessionID, key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ws, err := c.begin(sessionID)
	if err != nil {
		return err
	}
	c.store.store(ws, key, value)
	return c.persist(ctx)
}

// Retrieve returns the current value of a secret, or ErrNotFound.
func (c *Client) Retrieve(sessionID, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ws, err := c.begin(sessionID)
	if err != nil {
		return nil, err
	}
	value, ok := c.store.retrieve(ws, key)
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	return value, nil
}

// Rotate appends a new version of a secret, retaining the previous value in
// history. A secret that does not exist yet is created at version 1.
func (c *Client) Rotate(ctx context.Context, sessionID, key string, newValue []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ws, err := c.begin(sessionID)
	if err != nil {
		return err
	}
	c.store.rotate(ws, key, newValue)
	return c.persist(ctx)
}

// ListSecrets returns one entry per secret in the session's workspace,
// ordered by name. Values are never included.
func (c *Client) ListSecrets(sessionID string) ([]SecretInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ws, err := c.begin(sessionID)
	if err != nil {
		return nil, err
	}
	return c.store.listSecrets(ws), nil
}

// Delete removes a secret and its whole version history. It reports whether
// anything was removed; deleting an absent key is not an error.
func (c *Client) Delete(ctx context.Context, sessionID, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ws, err := c.begin(sessionID)
	if err != nil {
		return false, err
	}
	if !c.store.delete(ws, key) {
		return false, nil
	}
	if err := c.persist(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Versions returns the retained version history of a secret, oldest first.
// History is kept for audit and rollback even though no value is exposed
// here; see DiffVersions.
func (c *Client) Versions(sessionID, key string) ([]VersionInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ws, err := c.begin(sessionID)
	if err != nil {
		return nil, err
	}
	infos, ok := c.store.versions(ws, key)
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	return infos, nil
}

// DiffVersions renders a unified diff between two retained versions of a
// secret. Either version number may name the current one.
func (c *Client) DiffVersions(sessionID, key string, from, to int) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ws, err := c.begin(sessionID)
	if err != nil {
		return "", err
	}
	oldValue, ok := c.store.versionValue(ws, key, from)
	if !ok {
		return "", fmt.Errorf("%s version %d: %w", key, from, ErrNotFound)
	}
	newValue, ok := c.store.versionValue(ws, key, to)
	if !ok {
		return "", fmt.Errorf("%s version %d: %w", key, to, ErrNotFound)
	}
	defer crypto.ClearBytes(oldValue)
	defer crypto.ClearBytes(newValue)
	return generateUnifiedDiff(key, from, to, oldValue, newValue), nil
}

// Logout invalidates a single session without closing the vault.
func (c *Client) Logout(sessionID string) {
	c.sessions.invalidate(sessionID)
}

// VaultID returns the vault's stable identifier, or "" while the client is
// closed. It keys passphrase caching in the keyring package.
func (c *Client) VaultID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open {
		return ""
	}
	return c.header.VaultID
}

// Close invalidates every session, flushes unsaved state, destroys key
// material and releases the backend lock. Operations after Close fail with
// ErrNotAuthenticated; Authenticate may reopen the vault.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.open {
		return c.backend.Close()
	}

	var firstErr error
	if c.dirty {
		if err := c.persist(context.Background()); err != nil {
			firstErr = err
		}
	}

	c.sessions.invalidateAll()
	c.reset()

	if err := c.backend.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// reset drops decrypted state and key material. Callers must hold mu.
func (c *Client) reset() {
	if c.enc != nil {
		c.enc.Destroy()
	}
	c.enc = nil
	c.store = nil
	c.header = nil
	c.dirty = false
	c.open = false
}
