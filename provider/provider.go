// Package provider defines the source-of-truth fetch abstraction the expander
// falls through to on cache misses.
//
// Absence is not an error: FetchByID returns (nil, nil) when the entity does
// not exist. Unavailability of the underlying source (connection lost, query
// failure) is reported as an error, distinct from absence.
package provider

import (
	"context"
	"errors"
)

// ErrNotImplemented reports an optional capability this provider does not carry.
var ErrNotImplemented = errors.New("provider: operation not implemented")

// Provider fetches entities from the primary data source.
type Provider[T any] interface {
	// FetchByID returns (entity, nil) when found, (nil, nil) when absent,
	// and (nil, err) when the source is unavailable.
	FetchByID(ctx context.Context, id string) (*T, error)
}

// BulkFetcher is implemented by providers with a batched fetch (e.g. SQL
// WHERE id IN (...)). The result preserves request order; absent entities are
// nil at their position.
type BulkFetcher[T any] interface {
	FetchByIDs(ctx context.Context, ids []string) ([]*T, error)
}

// Counter is implemented by providers that can report total entity count.
type Counter interface {
	Count(ctx context.Context) (uint64, error)
}

// AllFetcher is implemented by providers that can enumerate every entity.
// Use sparingly; results can be large.
type AllFetcher[T any] interface {
	FetchAll(ctx context.Context) ([]*T, error)
}

// FetchByIDs fetches many ids, delegating to the provider's batched fetch
// when available and looping FetchByID otherwise.
func FetchByIDs[T any](ctx context.Context, p Provider[T], ids []string) ([]*T, error) {
	if bf, ok := p.(BulkFetcher[T]); ok {
		return bf.FetchByIDs(ctx, ids)
	}
	out := make([]*T, len(ids))
	for i, id := range ids {
		v, err := p.FetchByID(ctx, id)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Count reports the provider's total entity count, or ErrNotImplemented.
func Count[T any](ctx context.Context, p Provider[T]) (uint64, error) {
	if c, ok := p.(Counter); ok {
		return c.Count(ctx)
	}
	return 0, ErrNotImplemented
}

// FetchAll enumerates every entity, or returns ErrNotImplemented.
func FetchAll[T any](ctx context.Context, p Provider[T]) ([]*T, error) {
	if af, ok := p.(AllFetcher[T]); ok {
		return af.FetchAll(ctx)
	}
	return nil, ErrNotImplemented
}
