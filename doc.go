// Package cachekit implements a backend-agnostic caching orchestration layer.
// Given an entity type, a pluggable byte store, and a source-of-truth provider,
// the expander decides per call whether to read the store, fall through to the
// provider, and repopulate the store.
//
// Components:
//   - store.Store: byte store with TTL (in-memory reference, Redis, Ristretto, BigCache).
//   - provider.Provider[T]: source-of-truth fetch (database, remote service).
//   - codec.Codec[T]: (de)serializes T <-> []byte inside the envelope.
//   - Feeder[T]: caller-owned sink naming the id to fetch and receiving the result.
//   - Strategy: one of Fresh/Refresh/Invalidate/Bypass, chosen per call.
//
// Every stored value is wrapped in a versioned binary envelope:
//
//	magic "CKIT" (4) | schema version (u32 le) | payload
//
// Decode validates magic and version before the payload is trusted; any
// mismatch surfaces a typed error so callers evict and recompute instead of
// silently accepting a corrupt or stale-schema entry.
//
// Usage:
//
//	exp, _ := cachekit.New[User](cachekit.Options[User]{Store: memory.New()})
//	feeder := cachekit.NewGenericFeeder[User]("1")
//	_ = exp.Execute(ctx, feeder, repo, cachekit.StrategyRefresh)
//	user := feeder.Data // nil on miss
//
// Concurrent duplicate misses for one key are NOT coalesced: N simultaneous
// Refresh calls on an absent key each consult the provider and each write
// back (last writer wins). Callers that need single-flight must layer it on
// top.
package cachekit
