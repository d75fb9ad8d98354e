// Package memory provides the reference in-memory store: a concurrent sharded
// map with lazy TTL reclamation. Its expiry semantics define the behavioral
// contract other store implementations must match.
//
// Reclamation is lazy and asymmetric on purpose: a single-key Get physically
// removes an expired entry, while GetBulk only filters expired entries out of
// its result. There is no background sweep, so entries that expire but are
// never individually fetched stay in memory until deleted or cleared.
package memory

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/unkn0wn-root/cachekit/store"
)

const defaultShardCount = 16

type entry struct {
	data      []byte
	expiresAt time.Time // zero => no expiry
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

type shard struct {
	mu    sync.RWMutex
	items map[string]entry
}

// Store is a concurrent, sharded, lazily-expiring in-memory byte store.
type Store struct {
	shards []*shard
	mask   uint32
}

var (
	_ store.Store          = (*Store)(nil)
	_ store.ExistsChecker  = (*Store)(nil)
	_ store.BulkGetter     = (*Store)(nil)
	_ store.BulkDeleter    = (*Store)(nil)
	_ store.HealthChecker  = (*Store)(nil)
	_ store.Clearer        = (*Store)(nil)
)

// New creates a store with the default shard count.
func New() *Store { return NewWithShards(defaultShardCount) }

// NewWithShards creates a store with n shards, rounded up to a power of two.
func NewWithShards(n int) *Store {
	size := 1
	for size < n {
		size <<= 1
	}
	s := &Store{
		shards: make([]*shard, size),
		mask:   uint32(size - 1),
	}
	for i := range s.shards {
		s.shards[i] = &shard{items: make(map[string]entry)}
	}
	return s
}

func (s *Store) shardFor(key string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return s.shards[h.Sum32()&s.mask]
}

// Get returns the entry's bytes when present and not expired. An expired
// entry is physically removed as a side effect and reported absent.
func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	sh := s.shardFor(key)
	now := time.Now()

	sh.mu.RLock()
	e, ok := sh.items[key]
	sh.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if e.expired(now) {
		sh.mu.Lock()
		// re-check under the write lock; a concurrent Set may have replaced it
		if cur, ok := sh.items[key]; ok && cur.expired(time.Now()) {
			delete(sh.items, key)
		}
		sh.mu.Unlock()
		return nil, false, nil
	}
	return e.data, true, nil
}

// Set overwrites unconditionally. ttl <= 0 stores without expiry.
func (s *Store) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := entry{data: value}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}
	sh := s.shardFor(key)
	sh.mu.Lock()
	sh.items[key] = e
	sh.mu.Unlock()
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	sh := s.shardFor(key)
	sh.mu.Lock()
	delete(sh.items, key)
	sh.mu.Unlock()
	return nil
}

// Exists reports presence without removing expired entries.
func (s *Store) Exists(_ context.Context, key string) (bool, error) {
	sh := s.shardFor(key)
	sh.mu.RLock()
	e, ok := sh.items[key]
	sh.mu.RUnlock()
	return ok && !e.expired(time.Now()), nil
}

// GetBulk filters expired entries from the result but does not remove them
// from the map; only single-key Get and Delete/ClearAll reclaim physically.
func (s *Store) GetBulk(_ context.Context, keys []string) ([][]byte, error) {
	out := make([][]byte, len(keys))
	now := time.Now()
	for i, key := range keys {
		sh := s.shardFor(key)
		sh.mu.RLock()
		e, ok := sh.items[key]
		sh.mu.RUnlock()
		if ok && !e.expired(now) {
			out[i] = e.data
		}
	}
	return out, nil
}

func (s *Store) DeleteBulk(_ context.Context, keys []string) error {
	for _, key := range keys {
		sh := s.shardFor(key)
		sh.mu.Lock()
		delete(sh.items, key)
		sh.mu.Unlock()
	}
	return nil
}

// HealthCheck always succeeds; process memory has no backend to probe.
func (s *Store) HealthCheck(context.Context) error { return nil }

// ClearAll drops every entry across all shards.
func (s *Store) ClearAll(context.Context) error {
	for _, sh := range s.shards {
		sh.mu.Lock()
		sh.items = make(map[string]entry)
		sh.mu.Unlock()
	}
	return nil
}

// Len returns the number of physically present entries, expired included.
func (s *Store) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.items)
		sh.mu.RUnlock()
	}
	return n
}

// Stats describes current occupancy.
type Stats struct {
	Entries int // physically present entries
	Expired int // logically dead entries awaiting lazy reclamation
	Bytes   int // total payload bytes held
}

// Stats walks all shards and reports occupancy.
func (s *Store) Stats() Stats {
	var st Stats
	now := time.Now()
	for _, sh := range s.shards {
		sh.mu.RLock()
		for _, e := range sh.items {
			st.Entries++
			st.Bytes += len(e.data)
			if e.expired(now) {
				st.Expired++
			}
		}
		sh.mu.RUnlock()
	}
	return st
}
