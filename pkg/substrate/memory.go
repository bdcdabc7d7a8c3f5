package substrate

import (
	"context"
	"log/slog"
	"sync"
)

// Memory is an in-process Store. It backs tests and is the fallback when no
// durable backend is configured.
type Memory struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{docs: make(map[string][]byte)}
}

var _ Store = (*Memory)(nil)

func (m *Memory) Load(_ context.Context, key string, out any) bool {
	m.mu.RLock()
	data, ok := m.docs[key]
	m.mu.RUnlock()
	if !ok {
		return false
	}
	if err := open(data, out); err != nil {
		slog.Warn("failed to decode stored document", "key", key, "error", err)
		return false
	}
	return true
}

func (m *Memory) Save(_ context.Context, key string, v any) bool {
	data, err := seal(v)
	if err != nil {
		slog.Warn("failed to encode document", "key", key, "error", err)
		return false
	}
	m.mu.Lock()
	m.docs[key] = data
	m.mu.Unlock()
	return true
}

// Reset drops every document. The only destroy path for resources.
func (m *Memory) Reset() {
	m.mu.Lock()
	m.docs = make(map[string][]byte)
	m.mu.Unlock()
}
