package repository

import (
	"context"
	"sync"

	"github.com/gameloans/core/internal/ports"
)

type memoryBackend struct {
	mu   sync.RWMutex
	docs map[ports.Collection][]byte
}

// NewMemoryStore returns a process-local store. Records are kept encoded so
// callers never share memory with the store.
func NewMemoryStore() *BlobStore {
	return newBlobStore(&memoryBackend{docs: make(map[ports.Collection][]byte)}, false)
}

func (m *memoryBackend) read(_ context.Context, collection ports.Collection) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]byte(nil), m.docs[collection]...), nil
}

func (m *memoryBackend) write(_ context.Context, collection ports.Collection, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[collection] = append([]byte(nil), data...)
	return nil
}

func (m *memoryBackend) close() error { return nil }
