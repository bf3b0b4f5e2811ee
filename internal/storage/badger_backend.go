package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Key prefixes for different data types
const (
	prefixEntry = "c:" // cached response
)

// record is the JSON envelope stored for every entry.
type record struct {
	Value    []byte    `json:"value"`
	StoredAt time.Time `json:"stored_at"`
}

// BadgerCache is a BadgerDB-backed cache. Expiry uses badger's native TTL.
type BadgerCache struct {
	db       *badger.DB
	readOnly bool
	mu       sync.RWMutex
	hits     atomic.Int64
	misses   atomic.Int64
}

// NewBadgerCache creates a new BadgerDB cache.
func NewBadgerCache() *BadgerCache {
	return &BadgerCache{}
}

// Initialize opens or creates the BadgerDB database at the given path.
func (b *BadgerCache) Initialize(path string, readOnly bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	opts := badger.DefaultOptions(path).
		WithNumCompactors(2).
		WithNumMemtables(5).
		WithLoggingLevel(badger.ERROR) // Suppress INFO/WARNING logs

	if readOnly {
		opts = opts.WithReadOnly(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return fmt.Errorf("opening badger DB: %w", err)
	}

	b.db = db
	b.readOnly = readOnly
	return nil
}

// Close releases all resources held by the cache.
func (b *BadgerCache) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.db == nil {
		return nil
	}

	err := b.db.Close()
	b.db = nil
	return err
}

// Get implements Cache.
func (b *BadgerCache) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.db == nil {
		return nil, ErrClosed
	}

	var rec record
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(prefixEntry + key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		b.misses.Add(1)
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading cache entry: %w", err)
	}

	b.hits.Add(1)
	return rec.Value, nil
}

// Set implements Cache.
func (b *BadgerCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.db == nil {
		return ErrClosed
	}
	if b.readOnly {
		return ErrReadOnly
	}

	data, err := json.Marshal(record{Value: value, StoredAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshaling cache entry: %w", err)
	}

	entry := badger.NewEntry([]byte(prefixEntry+key), data)
	if ttl > 0 {
		entry = entry.WithTTL(ttl)
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(entry)
	})
}

// Delete implements Cache.
func (b *BadgerCache) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.db == nil {
		return ErrClosed
	}
	if b.readOnly {
		return ErrReadOnly
	}

	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(prefixEntry + key))
	})
}

// Stats implements Cache. Expired entries are not counted.
func (b *BadgerCache) Stats(ctx context.Context) (Stats, error) {
	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.db == nil {
		return Stats{}, ErrClosed
	}

	stats := Stats{Hits: b.hits.Load(), Misses: b.misses.Load()}
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixEntry)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			stats.Entries++
		}
		return nil
	})
	if err != nil {
		return Stats{}, fmt.Errorf("counting cache entries: %w", err)
	}
	return stats, nil
}
