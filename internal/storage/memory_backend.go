package storage

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// MemoryCache is an in-memory implementation of Cache. Used when no cache
// path is configured, and in tests.
type MemoryCache struct {
	mu       sync.RWMutex
	entries  map[string]memoryEntry
	readOnly bool
	hits     int64
	misses   int64

	// now is replaceable in tests.
	now func() time.Time
}

// NewMemoryCache creates a new in-memory cache, ready for use.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Initialize implements Cache. The path is ignored.
func (m *MemoryCache) Initialize(path string, readOnly bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries == nil {
		m.entries = make(map[string]memoryEntry)
	}
	m.readOnly = readOnly
	return nil
}

// Close implements Cache.
func (m *MemoryCache) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = nil
	return nil
}

// Get implements Cache.
func (m *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries == nil {
		return nil, ErrClosed
	}

	entry, ok := m.entries[key]
	if ok && entry.expired(m.now()) {
		delete(m.entries, key)
		ok = false
	}
	if !ok {
		m.misses++
		return nil, ErrNotFound
	}
	m.hits++

	out := make([]byte, len(entry.value))
	copy(out, entry.value)
	return out, nil
}

// Set implements Cache.
func (m *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries == nil {
		return ErrClosed
	}
	if m.readOnly {
		return ErrReadOnly
	}

	entry := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		entry.expiresAt = m.now().Add(ttl)
	}
	m.entries[key] = entry
	return nil
}

// Delete implements Cache.
func (m *MemoryCache) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries == nil {
		return ErrClosed
	}
	if m.readOnly {
		return ErrReadOnly
	}
	delete(m.entries, key)
	return nil
}

// Stats implements Cache.
func (m *MemoryCache) Stats(ctx context.Context) (Stats, error) {
	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.entries == nil {
		return Stats{}, ErrClosed
	}

	now := m.now()
	live := 0
	for _, e := range m.entries {
		if !e.expired(now) {
			live++
		}
	}
	return Stats{Entries: live, Hits: m.hits, Misses: m.misses}, nil
}
