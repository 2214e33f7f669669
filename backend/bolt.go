package backend

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Bucket and key names
var (
	vaultBucket = []byte("vault")
	vaultKey    = []byte("data")
)

// Bolt stores the encrypted vault blob inside a bbolt database. bbolt holds
// an exclusive lock on its file while open, which gives the same
// cross-process exclusion guarantee as the File backend.
type Bolt struct {
	path        string
	openTimeout time.Duration
	db          *bolt.DB
}

// BoltOption configures a Bolt backend.
type BoltOption func(*Bolt)

// WithOpenTimeout sets how long opening the database may wait for its file
// lock before the backend reports ErrVaultLocked.
func WithOpenTimeout(d time.Duration) BoltOption {
	return func(b *Bolt) {
		b.openTimeout = d
	}
}

// NewBolt creates a bbolt backend for the vault at path. The database is
// opened lazily on first use.
func NewBolt(path string, opts ...BoltOption) *Bolt {
	b := &Bolt{
		path:        path,
		openTimeout: DefaultLockTimeout,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Bolt) open() error {
	if b.db != nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(b.path), DirPermSecure); err != nil {
		return fmt.Errorf("failed to create vault directory: %w", err)
	}

	db, err := bolt.Open(b.path, FilePermSecure, &bolt.Options{Timeout: b.openTimeout})
	if err != nil {
		if errors.Is(err, bolt.ErrTimeout) {
			return fmt.Errorf("%s: %w", b.path, ErrVaultLocked)
		}
		return fmt.Errorf("failed to open vault database: %w", err)
	}
	b.db = db
	return nil
}

// Load returns the stored vault blob, or ErrNotFound if none was saved yet.
func (b *Bolt) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := b.open(); err != nil {
		return nil, err
	}

	var data []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(vaultBucket)
		if bucket == nil {
			return ErrNotFound
		}
		v := bucket.Get(vaultKey)
		if v == nil {
			return ErrNotFound
		}
		// Copy: the slice is only valid during the transaction
		data = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Save replaces the stored vault blob in a single write transaction.
func (b *Bolt) Save(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := b.open(); err != nil {
		return err
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(vaultBucket)
		if err != nil {
			return fmt.Errorf("failed to create vault bucket: %w", err)
		}
		return bucket.Put(vaultKey, data)
	})
}

// Exists reports whether a vault blob has been saved.
func (b *Bolt) Exists(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if _, err := os.Stat(b.path); os.IsNotExist(err) {
		return false, nil
	}
	if err := b.open(); err != nil {
		return false, err
	}

	var found bool
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(vaultBucket)
		found = bucket != nil && bucket.Get(vaultKey) != nil
		return nil
	})
	return found, err
}

// Close closes the database, releasing its file lock.
func (b *Bolt) Close() error {
	if b.db == nil {
		return nil
	}
	db := b.db
	b.db = nil
	return db.Close()
}
