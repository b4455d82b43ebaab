// Package cache stores encoded renders by key.
package cache

import (
	"context"
	"sync"
)

// Cache is a byte store. A miss is reported as ok == false with a nil error.
type Cache interface {
	Get(ctx context.Context, key string) (b []byte, ok bool, err error)
	Set(ctx context.Context, key string, b []byte) error
}

// Memory is a bounded in-process cache. When full, the oldest entry is evicted first.
type Memory struct {
	sync.Mutex
	max   int
	items map[string][]byte
	order []string
}

// NewMemory returns a cache holding at most max entries. A non-positive max holds one entry.
func NewMemory(max int) *Memory {
	if max < 1 {
		max = 1
	}
	return &Memory{
		max:   max,
		items: make(map[string][]byte, max),
		order: make([]string, 0, max),
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.Lock()
	defer m.Unlock()
	b, ok := m.items[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), b...), true, nil
}

func (m *Memory) Set(_ context.Context, key string, b []byte) error {
	m.Lock()
	defer m.Unlock()
	if _, ok := m.items[key]; !ok {
		for len(m.order) >= m.max {
			delete(m.items, m.order[0])
			m.order = m.order[1:]
		}
		m.order = append(m.order, key)
	}
	m.items[key] = append([]byte(nil), b...)
	return nil
}

// Len returns the number of entries held.
func (m *Memory) Len() int {
	m.Lock()
	defer m.Unlock()
	return len(m.items)
}
