package session

import (
	"context"
	"sync"
	"time"
)

// Cache is a keyed value store with an optional expiry applied on Set.
type Cache[S any] interface {
	Set(ctx context.Context, key string, val S) error
	Get(ctx context.Context, key string) (S, bool, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Sweeper is a cache that drops expired entries on demand.
type Sweeper interface {
	Sweep() int
}

type memoryEntry[S any] struct {
	val       S
	expiresAt time.Time
}

// MemoryCache keeps values in process. A zero ttl disables expiry.
type MemoryCache[S any] struct {
	mu  sync.RWMutex
	m   map[string]memoryEntry[S]
	ttl time.Duration
	now func() time.Time
}

func NewMemoryCache[S any](ttl time.Duration) *MemoryCache[S] {
	return &MemoryCache[S]{m: map[string]memoryEntry[S]{}, ttl: ttl, now: time.Now}
}

func (m *MemoryCache[S]) Set(ctx context.Context, key string, val S) error {
	entry := memoryEntry[S]{val: val}
	if m.ttl > 0 {
		entry.expiresAt = m.now().Add(m.ttl)
	}
	m.mu.Lock()
	m.m[key] = entry
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache[S]) Get(ctx context.Context, key string) (S, bool, error) {
	m.mu.RLock()
	entry, ok := m.m[key]
	m.mu.RUnlock()
	if !ok || m.expired(entry) {
		var zero S
		return zero, false, nil
	}
	return entry.val, true, nil
}

func (m *MemoryCache[S]) Del(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.m, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache[S]) Exists(ctx context.Context, key string) (bool, error) {
	_, ok, err := m.Get(ctx, key)
	return ok, err
}

// Sweep drops expired entries and returns how many were removed.
func (m *MemoryCache[S]) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k, entry := range m.m {
		if m.expired(entry) {
			delete(m.m, k)
			n++
		}
	}
	return n
}

func (m *MemoryCache[S]) expired(entry memoryEntry[S]) bool {
	return !entry.expiresAt.IsZero() && !m.now().Before(entry.expiresAt)
}
