package backend

import (
	"context"
	"sync"
)

// Memory holds the encrypted vault bytes in a process-local slot. There is no
// cross-process durability; it exists for tests and ephemeral agents.
type Memory struct {
	mu   sync.Mutex
	data []byte
}

// NewMemory creates an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{}
}

// Load returns the stored bytes, or ErrNotFound if nothing has been saved.
func (m *Memory) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, ErrNotFound
	}
	return append([]byte(nil), m.data...), nil
}

// Save replaces the stored bytes in place.
func (m *Memory) Save(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append([]byte(nil), data...)
	return nil
}

// Exists reports whether a vault has been saved.
func (m *Memory) Exists(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data != nil, nil
}

// Close is a no-op for the memory backend.
func (m *Memory) Close() error {
	return nil
}
