// Package store defines the byte store abstraction the expander reads and
// writes through.
//
// Implementations MUST be byte-for-byte transparent: Get must return exactly
// the []byte previously passed to Set for a key (no prepended metadata, no
// re-encoding). Internal transforms such as compression must be fully
// reversed before bytes leave the store.
//
// Every operation must be safe for arbitrary concurrent callers without
// external synchronization; the expander holds no lock around store calls.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotImplemented reports an optional capability this store does not carry.
var ErrNotImplemented = errors.New("store: operation not implemented")

// Store is the minimal byte store contract. TTL semantics: ttl <= 0 means "no
// explicit TTL" (the store decides - typically infinite or its own default).
type Store interface {
	// Get returns (value, true, nil) on hit and (nil, false, nil) on miss.
	// IO/remote failures return (nil, false, err).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value, overwriting unconditionally.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// ExistsChecker is implemented by stores with a cheaper presence probe than a
// full Get (e.g. Redis EXISTS).
type ExistsChecker interface {
	Exists(ctx context.Context, key string) (bool, error)
}

// BulkGetter is implemented by stores with a batched read (e.g. Redis MGET).
// The result preserves request order; absent entries are nil at their
// position.
type BulkGetter interface {
	GetBulk(ctx context.Context, keys []string) ([][]byte, error)
}

// BulkDeleter is implemented by stores with a batched delete.
type BulkDeleter interface {
	DeleteBulk(ctx context.Context, keys []string) error
}

// HealthChecker is implemented by stores that can probe their backend
// (readiness checks, circuit breakers).
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Clearer is implemented by stores that support wiping the whole keyspace.
// Callers must not assume it exists.
type Clearer interface {
	ClearAll(ctx context.Context) error
}

// Closer is implemented by stores holding releasable resources.
type Closer interface {
	Close(ctx context.Context) error
}

// Exists probes for key, using the store's own probe when available and a
// Get otherwise.
func Exists(ctx context.Context, s Store, key string) (bool, error) {
	if ec, ok := s.(ExistsChecker); ok {
		return ec.Exists(ctx, key)
	}
	_, found, err := s.Get(ctx, key)
	return found, err
}

// GetBulk reads many keys, delegating to the store's batched read when
// available and looping Get otherwise. Order is preserved; absent entries are
// nil at their position.
func GetBulk(ctx context.Context, s Store, keys []string) ([][]byte, error) {
	if bg, ok := s.(BulkGetter); ok {
		return bg.GetBulk(ctx, keys)
	}
	out := make([][]byte, len(keys))
	for i, k := range keys {
		v, found, err := s.Get(ctx, k)
		if err != nil {
			return nil, err
		}
		if found {
			out[i] = v
		}
	}
	return out, nil
}

// DeleteBulk removes many keys, delegating to the store's batched delete when
// available and looping Delete otherwise.
func DeleteBulk(ctx context.Context, s Store, keys []string) error {
	if bd, ok := s.(BulkDeleter); ok {
		return bd.DeleteBulk(ctx, keys)
	}
	for _, k := range keys {
		if err := s.Delete(ctx, k); err != nil {
			return err
		}
	}
	return nil
}

// HealthCheck probes the store's backend. Stores without a probe are assumed
// healthy.
func HealthCheck(ctx context.Context, s Store) error {
	if hc, ok := s.(HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}

// ClearAll wipes the store's keyspace. Returns ErrNotImplemented when the
// store does not support it.
func ClearAll(ctx context.Context, s Store) error {
	if c, ok := s.(Clearer); ok {
		return c.ClearAll(ctx)
	}
	return ErrNotImplemented
}
