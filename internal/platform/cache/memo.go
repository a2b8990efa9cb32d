package cache

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Memo remembers successful provider responses for the lifetime of one run.
// Concurrent loads of the same key collapse into a single call; failed loads
// are never remembered so a later caller may retry.
type Memo[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]V
	flight  singleflight.Group
}

func NewMemo[K comparable, V any]() *Memo[K, V] {
	return &Memo[K, V]{entries: make(map[K]V)}
}

func (m *Memo[K, V]) Peek(key K) (V, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.entries[key]
	return v, ok
}

func (m *Memo[K, V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *Memo[K, V]) GetOrLoad(ctx context.Context, key K, load func(context.Context) (V, error)) (V, error) {
	if v, ok := m.Peek(key); ok {
		return v, nil
	}

	res, err, _ := m.flight.Do(fmt.Sprint(key), func() (any, error) {
		if v, ok := m.Peek(key); ok {
			return v, nil
		}
		loaded, err := load(ctx)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.entries[key] = loaded
		m.mu.Unlock()
		return loaded, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return res.(V), nil
}
