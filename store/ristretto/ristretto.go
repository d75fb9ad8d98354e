// Package ristretto adapts dgraph's Ristretto cache to the store contract.
//
// Ristretto is admission-based: a Set may be silently rejected under memory
// pressure. That is not an error under the store contract - cache population
// is best-effort - so rejection is not surfaced.
package ristretto

import (
	"context"
	"errors"
	"time"

	rc "github.com/dgraph-io/ristretto"

	"github.com/unkn0wn-root/cachekit/store"
)

type Store struct {
	c *rc.Cache
}

var (
	_ store.Store   = (*Store)(nil)
	_ store.Clearer = (*Store)(nil)
	_ store.Closer  = (*Store)(nil)
)

type Config struct {
	NumCounters int64
	MaxCost     int64
	BufferItems int64
	Metrics     bool
}

func New(cfg Config) (*Store, error) {
	if cfg.NumCounters <= 0 || cfg.MaxCost <= 0 || cfg.BufferItems <= 0 {
		return nil, errors.New("ristretto store: invalid config")
	}
	c, err := rc.NewCache(&rc.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
		Metrics:     cfg.Metrics,
	})
	if err != nil {
		return nil, err
	}
	return &Store{c: c}, nil
}

func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := s.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	b, _ := v.([]byte)
	if b == nil {
		// unexpected entry shape; drop it
		s.c.Del(key)
		return nil, false, nil
	}
	return b, true, nil
}

// Set uses the payload length as the admission cost. Rejection under pressure
// is swallowed.
func (s *Store) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	cost := int64(len(value))
	if cost == 0 {
		cost = 1
	}
	if ttl > 0 {
		s.c.SetWithTTL(key, value, cost, ttl)
	} else {
		s.c.Set(key, value, cost)
	}
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.c.Del(key)
	return nil
}

func (s *Store) ClearAll(context.Context) error {
	s.c.Clear()
	return nil
}

func (s *Store) Close(context.Context) error {
	s.c.Wait()
	s.c.Close()
	return nil
}

// Metrics exposes Ristretto's own counters (not part of the store contract).
func (s *Store) Metrics() *rc.Metrics { return s.c.Metrics }
