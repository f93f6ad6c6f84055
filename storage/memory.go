package storage

import (
	"context"
	"maps"
	"sync"
)

var _ KeyValue = (*Memory)(nil)

// Memory is a process-local KeyValue. It backs the session store when persistence is
// disabled and in tests.
type Memory struct {
	mu    sync.RWMutex
	items map[string]string
}

func NewMemory() *Memory {
	return &Memory{
		items: make(map[string]string),
	}
}

func (m *Memory) Get(_ context.Context, keys ...string) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := m.items[k]; ok {
			result[k] = v
		}
	}
	return result, nil
}

func (m *Memory) Update(_ context.Context, set map[string]string, remove ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	maps.Copy(m.items, set)
	for _, k := range remove {
		delete(m.items, k)
	}
	return nil
}

func (m *Memory) Close() error {
	return nil
}
