package store

import (
	"context"
	"sync"
)

// MemoryStore is a process-local BlobStore. It counts writes so callers
// can observe when a blob was persisted.
type MemoryStore struct {
	mu     sync.Mutex
	blobs  map[string][]byte
	writes int
	putErr error
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

// Get returns a copy of the blob stored under key.
func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.blobs[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

// Put stores a copy of data under key. If a failure was injected with
// FailPuts, the blob is left unchanged and the failure is returned.
func (m *MemoryStore) Put(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.writes++
	if m.putErr != nil {
		return m.putErr
	}
	m.blobs[key] = append([]byte(nil), data...)
	return nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error {
	return nil
}

// Writes returns how many times Put was called.
func (m *MemoryStore) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// FailPuts makes every later Put return err. A nil err restores normal
// behavior.
func (m *MemoryStore) FailPuts(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putErr = err
}
