package backend

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gofrs/flock"
)

const (
	// DefaultLockTimeout bounds how long a File backend waits for the
	// exclusive vault lock before failing with ErrVaultLocked.
	DefaultLockTimeout = 5 * time.Second

	DirPermSecure  = 0700 // Directory: owner rwx only
	FilePermSecure = 0600 // File: owner rw only
)

// File persists the vault in a single file. Saves write to a temporary file
// in the same directory and atomically rename it over the target, so a crash
// mid-write never leaves a half-written vault.
//
// An exclusive advisory lock is taken on a sidecar <path>.lock file on first
// use and held until Close. The lock lives on a sidecar because the atomic
// rename replaces the vault file itself on every save.
type File struct {
	path        string
	lock        *flock.Flock
	lockTimeout time.Duration
	locked      bool
}

// FileOption configures a File backend.
type FileOption func(*File)

// WithLockTimeout sets how long lock acquisition may take before the backend
// reports ErrVaultLocked. Zero means a single immediate attempt.
func WithLockTimeout(d time.Duration) FileOption {
	return func(f *File) {
		f.lockTimeout = d
	}
}

// NewFile creates a file backend for the vault at path. The file does not
// need to exist yet.
func NewFile(path string, opts ...FileOption) *File {
	f := &File{
		path:        path,
		lock:        flock.New(path + ".lock"),
		lockTimeout: DefaultLockTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// acquireLock takes the exclusive vault lock, retrying with backoff until the
// configured timeout elapses. Exceeding the timeout is a normal, reported
// failure, not a crash.
func (f *File) acquireLock(ctx context.Context) error {
	if f.locked {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(f.path), DirPermSecure); err != nil {
		return fmt.Errorf("failed to create vault directory: %w", err)
	}

	try := func() error {
		locked, err := f.lock.TryLock()
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to acquire vault lock: %w", err))
		}
		if !locked {
			return ErrVaultLocked
		}
		return nil
	}

	if f.lockTimeout <= 0 {
		// Single immediate attempt; MaxElapsedTime of zero would mean
		// retry without limit.
		locked, err := f.lock.TryLock()
		if err != nil {
			return fmt.Errorf("failed to acquire vault lock: %w", err)
		}
		if !locked {
			return fmt.Errorf("%s: %w", f.path, ErrVaultLocked)
		}
		f.locked = true
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 50 * time.Millisecond
	bo.MaxInterval = 500 * time.Millisecond
	bo.MaxElapsedTime = f.lockTimeout

	if err := backoff.Retry(try, backoff.WithContext(bo, ctx)); err != nil {
		if errors.Is(err, ErrVaultLocked) || errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%s: %w", f.path, ErrVaultLocked)
		}
		return err
	}

	f.locked = true
	return nil
}

// Load reads the vault file, returning ErrNotFound if it does not exist.
func (f *File) Load(ctx context.Context) ([]byte, error) {
	if err := f.acquireLock(ctx); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read vault: %w", err)
	}
	return data, nil
}

// Save writes the vault atomically: temp file in the same directory, fsync,
// rename. The previous vault file stays intact until the rename succeeds.
func (f *File) Save(ctx context.Context, data []byte) error {
	if err := f.acquireLock(ctx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, ".vault-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary vault file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(FilePermSecure); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set vault permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write vault: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync vault: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close vault: %w", err)
	}

	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("failed to replace vault: %w", err)
	}
	return nil
}

// Exists reports whether the vault file is present on disk.
func (f *File) Exists(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	_, err := os.Stat(f.path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat vault: %w", err)
}

// Path returns the vault file path.
func (f *File) Path() string {
	return f.path
}

// Close releases the exclusive vault lock.
func (f *File) Close() error {
	if !f.locked {
		return nil
	}
	f.locked = false
	if err := f.lock.Unlock(); err != nil {
		return fmt.Errorf("failed to release vault lock: %w", err)
	}
	return nil
}
