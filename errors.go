package cachekit

import (
	"errors"
	"fmt"

	"github.com/unkn0wn-root/cachekit/internal/wire"
	"github.com/unkn0wn-root/cachekit/store"
)

// Kind classifies cache errors by failure mode so callers can pick a recovery
// path without matching on message strings.
type Kind uint8

const (
	// KindUnknown is the zero Kind, returned for errors this package did not produce.
	KindUnknown Kind = iota

	// KindSerialization: entity could not be encoded. Fix the type, not retryable.
	KindSerialization

	// KindDeserialization: stored bytes are malformed. Evict and recompute.
	KindDeserialization

	// KindValidation: feeder or entity self-check failed. Caller-level fix.
	KindValidation

	// KindCacheMiss: explicit absence signal for store-only lookups.
	KindCacheMiss

	// KindBackend: the store is unavailable or misbehaving. Retryable.
	KindBackend

	// KindRepository: the provider is unavailable. Retryable.
	KindRepository

	// KindTimeout: a store/provider-enforced limit was exceeded. Retryable.
	KindTimeout

	// KindConfig: invalid construction-time configuration. Fatal.
	KindConfig

	// KindNotImplemented: optional store capability absent. Fatal for that call.
	KindNotImplemented

	// KindInvalidEntry: envelope magic mismatch. Evict and recompute.
	KindInvalidEntry

	// KindVersionMismatch: envelope schema version differs from the compiled
	// constant. Evict and recompute; expected during rolling deployments.
	KindVersionMismatch
)

func (k Kind) String() string {
	switch k {
	case KindSerialization:
		return "serialization"
	case KindDeserialization:
		return "deserialization"
	case KindValidation:
		return "validation"
	case KindCacheMiss:
		return "cache miss"
	case KindBackend:
		return "backend"
	case KindRepository:
		return "repository"
	case KindTimeout:
		return "timeout"
	case KindConfig:
		return "config"
	case KindNotImplemented:
		return "not implemented"
	case KindInvalidEntry:
		return "invalid cache entry"
	case KindVersionMismatch:
		return "version mismatch"
	default:
		return "unknown"
	}
}

// Error is the classified error type produced by this package. Err, when set,
// carries the underlying cause and participates in errors.Is/As chains.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("cachekit: %s error: %s: %v", e.Kind, e.Msg, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("cachekit: %s error: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("cachekit: %s error: %s", e.Kind, e.Msg)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// ErrCacheMiss is the explicit "go find it yourself" signal. Store and
// provider implementations may return it wrapped; the expander itself
// represents absence as a nil value, not an error.
var ErrCacheMiss = &Error{Kind: KindCacheMiss, Msg: "entry not found"}

// VersionMismatchError carries both the compiled and the found schema version.
type VersionMismatchError = wire.VersionMismatchError

// ErrInvalidCacheEntry reports an envelope whose magic does not match.
var ErrInvalidCacheEntry = wire.ErrInvalidEntry

// KindOf classifies err, following wrap chains. Errors not produced by this
// package (or the store contract) classify as KindUnknown.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	var vm *wire.VersionMismatchError
	if errors.As(err, &vm) {
		return KindVersionMismatch
	}
	switch {
	case errors.Is(err, wire.ErrInvalidEntry):
		return KindInvalidEntry
	case errors.Is(err, wire.ErrTruncated):
		return KindDeserialization
	case errors.Is(err, store.ErrNotImplemented):
		return KindNotImplemented
	}
	return KindUnknown
}

func newError(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: cause}
}
