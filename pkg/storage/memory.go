package storage

import (
	"context"
	"sync"
)

// Memory keeps values in process. Contents are lost on restart.
type Memory struct {
	mu     sync.RWMutex
	values map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{values: make(map[string][]byte)}
}

func memoryKey(sessionID, name string) string {
	return sessionID + "\x00" + name
}

func (m *Memory) Get(ctx context.Context, sessionID, name string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[memoryKey(sessionID, name)]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *Memory) Put(ctx context.Context, sessionID, name string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.values == nil {
		m.values = make(map[string][]byte)
	}
	m.values[memoryKey(sessionID, name)] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) Delete(ctx context.Context, sessionID, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.values, memoryKey(sessionID, name))
	return nil
}

func (m *Memory) Ping(context.Context) error {
	return nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values = nil
	return nil
}
