package cachekit

import (
	"context"
	"time"

	"github.com/unkn0wn-root/cachekit/codec"
	"github.com/unkn0wn-root/cachekit/internal/wire"
	"github.com/unkn0wn-root/cachekit/provider"
	"github.com/unkn0wn-root/cachekit/store"
)

// Options configure an Expander. Only Store is required.
type Options[T Entity] struct {
	// Required: the byte store operations run against.
	Store store.Store

	// Codec serializes entities inside the envelope. nil => Msgpack.
	Codec codec.Codec[T]

	// Logger; nil => NopLogger.
	Logger Logger

	// Metrics sink; nil => NopMetrics.
	Metrics Metrics

	// TTL policy for cache writes. Zero value defers to the store.
	TTL TTLPolicy
}

// Expander is the strategy/retry engine: it validates the feeder, derives the
// composite key, executes the selected strategy against store and provider,
// and delivers the result back through the feeder.
//
// An Expander is stateless beyond its store handle, TTL policy, and metrics
// sink; it holds no internal locks and is safe for concurrent use. Within one
// call, operations are strictly sequential.
type Expander[T Entity] struct {
	store   store.Store
	codec   codec.Codec[T]
	log     Logger
	metrics Metrics
	ttl     TTLPolicy
	ns      string
}

// New constructs an Expander for entity type T. The namespace is taken from
// T's zero value, so CachePrefix must not depend on instance state.
func New[T Entity](opts Options[T]) (*Expander[T], error) {
	if opts.Store == nil {
		return nil, newError(KindConfig, "store is required", nil)
	}
	var zero T
	ns := zero.CachePrefix()
	if ns == "" {
		return nil, newError(KindConfig, "entity cache prefix is empty", nil)
	}

	e := &Expander[T]{
		store: opts.Store,
		ns:    ns,
		ttl:   opts.TTL,
	}
	e.codec = opts.Codec
	if e.codec == nil {
		e.codec = codec.Msgpack[T]{}
	}
	e.log = opts.Logger
	if e.log == nil {
		e.log = NopLogger{}
	}
	e.metrics = opts.Metrics
	if e.metrics == nil {
		e.metrics = NopMetrics{}
	}
	return e, nil
}

// Store returns the underlying store (for advanced use).
func (e *Expander[T]) Store() store.Store { return e.store }

// Namespace returns the entity namespace this expander derives keys under.
func (e *Expander[T]) Namespace() string { return e.ns }

// Execute runs one cache operation with default configuration.
func (e *Expander[T]) Execute(ctx context.Context, feeder Feeder[T], prov provider.Provider[T], strategy Strategy) error {
	return e.ExecuteWithConfig(ctx, feeder, prov, strategy, OperationConfig{})
}

// ExecuteWithConfig runs one cache operation with per-call TTL override and
// retry count. Failed attempts are retried uniformly, regardless of error
// kind, up to cfg.RetryCount times with exponential backoff
// (100ms * 2^(attempt-1)); the last error is surfaced unchanged.
func (e *Expander[T]) ExecuteWithConfig(ctx context.Context, feeder Feeder[T], prov provider.Provider[T], strategy Strategy, cfg OperationConfig) error {
	maxAttempts := cfg.RetryCount + 1
	var lastErr error
	for attempt := uint(1); attempt <= maxAttempts; attempt++ {
		lastErr = e.executeOnce(ctx, feeder, prov, strategy, cfg)
		if lastErr == nil {
			return nil
		}
		if attempt == maxAttempts {
			break
		}
		e.log.Debug("cache operation failed, retrying", Fields{
			"attempt": attempt,
			"max":     maxAttempts,
			"err":     lastErr,
		})
		if cfg.RetryCount > 0 {
			time.Sleep(100 * time.Millisecond << (attempt - 1))
		}
	}
	return lastErr
}

// executeOnce is a single attempt, without retry. The metrics timer spans
// this attempt only.
func (e *Expander[T]) executeOnce(ctx context.Context, feeder Feeder[T], prov provider.Provider[T], strategy Strategy, cfg OperationConfig) error {
	start := time.Now()

	if v, ok := any(feeder).(Validator); ok {
		if err := v.Validate(); err != nil {
			return classify(err, KindValidation, "feeder validation failed")
		}
	}

	key := BuildKeyWithPrefix(e.ns, feeder.EntityID())
	e.log.Debug("cache operation", Fields{"key": key, "strategy": strategy.String()})

	var (
		result *T
		err    error
	)
	switch strategy {
	case StrategyFresh:
		result, err = e.runFresh(ctx, key)
	case StrategyRefresh:
		result, err = e.runRefresh(ctx, key, prov, cfg)
	case StrategyInvalidate:
		result, err = e.runInvalidate(ctx, key, prov, cfg)
	case StrategyBypass:
		result, err = e.runBypass(ctx, key, prov, cfg)
	default:
		err = newError(KindConfig, "unknown strategy", nil)
	}

	if err != nil {
		e.metrics.RecordError(key, err.Error())
		return err
	}

	if result != nil {
		if v, ok := any(*result).(Validator); ok {
			if err := v.Validate(); err != nil {
				return classify(err, KindValidation, "entity validation failed")
			}
		}
		if h, ok := any(feeder).(HitHook); ok {
			if err := h.OnHit(key); err != nil {
				return err
			}
		}
		if l, ok := any(feeder).(LoadedHook[T]); ok {
			if err := l.OnLoaded(result); err != nil {
				return err
			}
		}
		feeder.Feed(result)
		e.metrics.RecordHit(key, time.Since(start))
		return nil
	}

	if m, ok := any(feeder).(MissHook); ok {
		if err := m.OnMiss(key); err != nil {
			return err
		}
	}
	feeder.Feed(nil)
	e.metrics.RecordMiss(key, time.Since(start))
	return nil
}

// runFresh reads the store only. Miss returns nothing; the provider is never
// consulted.
func (e *Expander[T]) runFresh(ctx context.Context, key string) (*T, error) {
	raw, found, err := e.store.Get(ctx, key)
	if err != nil {
		return nil, classify(err, KindBackend, "store get failed")
	}
	if !found {
		return nil, nil
	}
	return e.decodeEntry(raw)
}

// runRefresh reads the store first and falls through to the provider on miss,
// repopulating the store best-effort.
func (e *Expander[T]) runRefresh(ctx context.Context, key string, prov provider.Provider[T], cfg OperationConfig) (*T, error) {
	raw, found, err := e.store.Get(ctx, key)
	if err != nil {
		return nil, classify(err, KindBackend, "store get failed")
	}
	if found {
		return e.decodeEntry(raw)
	}
	return e.fetchAndStore(ctx, key, prov, cfg)
}

// runInvalidate drops the key unconditionally, then refetches and
// repopulates. Unlike the repopulation write, the delete is load-bearing and
// its failure surfaces.
func (e *Expander[T]) runInvalidate(ctx context.Context, key string, prov provider.Provider[T], cfg OperationConfig) (*T, error) {
	delStart := time.Now()
	if err := e.store.Delete(ctx, key); err != nil {
		return nil, classify(err, KindBackend, "store delete failed")
	}
	e.metrics.RecordDelete(key, time.Since(delStart))
	return e.fetchAndStore(ctx, key, prov, cfg)
}

// runBypass never reads the store; it fetches from the provider and writes
// through for other callers.
func (e *Expander[T]) runBypass(ctx context.Context, key string, prov provider.Provider[T], cfg OperationConfig) (*T, error) {
	return e.fetchAndStore(ctx, key, prov, cfg)
}

// fetchAndStore consults the provider and, on a value, repopulates the store.
// A repopulation failure never turns a successful provider fetch into a
// caller-visible failure; it only degrades future hit rate.
func (e *Expander[T]) fetchAndStore(ctx context.Context, key string, prov provider.Provider[T], cfg OperationConfig) (*T, error) {
	if prov == nil {
		return nil, newError(KindConfig, "provider is required for this strategy", nil)
	}
	_, id, ok := SplitKey(key)
	if !ok {
		return nil, newError(KindValidation, "invalid cache key format: "+key, nil)
	}

	v, err := prov.FetchByID(ctx, id)
	if err != nil {
		return nil, classify(err, KindRepository, "provider fetch failed")
	}
	if v == nil {
		return nil, nil
	}

	entry, err := e.encodeEntry(*v)
	if err != nil {
		return nil, err
	}
	ttl := e.resolveTTL(cfg)

	setStart := time.Now()
	if err := e.store.Set(ctx, key, entry, ttl); err != nil {
		// best-effort population; the fetched value is still delivered
		e.log.Warn("cache repopulation failed", Fields{"key": key, "err": err})
	} else {
		e.metrics.RecordSet(key, time.Since(setStart))
	}
	return v, nil
}

// resolveTTL applies the precedence: per-call override > policy > none.
func (e *Expander[T]) resolveTTL(cfg OperationConfig) time.Duration {
	if cfg.TTL > 0 {
		return cfg.TTL
	}
	if d, ok := e.ttl.Resolve(e.ns); ok {
		return d
	}
	return 0
}

func (e *Expander[T]) encodeEntry(v T) ([]byte, error) {
	payload, err := e.codec.Encode(v)
	if err != nil {
		return nil, newError(KindSerialization, "payload encode failed", err)
	}
	return wire.Encode(payload), nil
}

func (e *Expander[T]) decodeEntry(b []byte) (*T, error) {
	payload, err := wire.Decode(b)
	if err != nil {
		// already carries its kind (invalid entry / version mismatch / truncated)
		return nil, err
	}
	v, err := e.codec.Decode(payload)
	if err != nil {
		return nil, newError(KindDeserialization, "payload decode failed", err)
	}
	return &v, nil
}

// classify wraps err under fallback unless it already carries a kind.
func classify(err error, fallback Kind, msg string) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != KindUnknown {
		return err
	}
	return newError(fallback, msg, err)
}
