package vectorDB

import (
	"context"
	"sync"
)

type MemoryStorage struct {
	lock  sync.RWMutex
	blobs map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{blobs: make(map[string][]byte)}
}

func (m *MemoryStorage) Write(ctx context.Context, sessionId string, blob []byte) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.blobs[sessionId] = append([]byte(nil), blob...)
	return nil
}

func (m *MemoryStorage) Read(ctx context.Context, sessionId string) ([]byte, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	blob, ok := m.blobs[sessionId]
	if !ok {
		return nil, ErrBlobNotFound
	}
	return append([]byte(nil), blob...), nil
}

func (m *MemoryStorage) Exists(ctx context.Context, sessionId string) (bool, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	_, ok := m.blobs[sessionId]
	return ok, nil
}

func (m *MemoryStorage) Delete(ctx context.Context, sessionId string) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	delete(m.blobs, sessionId)
	return nil
}
