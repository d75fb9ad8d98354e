package cachekit

import "time"

// TTLPolicy resolves a time-to-live for cache writes by entity namespace.
// Set once at expander construction and immutable thereafter; per-call
// overrides (OperationConfig.TTL) take precedence without mutating it.
//
// The zero value is StoreDefaultTTL.
type TTLPolicy struct {
	kind  ttlKind
	fixed time.Duration
	perNS func(namespace string) time.Duration
}

type ttlKind uint8

const (
	ttlStoreDefault ttlKind = iota
	ttlFixed
	ttlInfinite
	ttlPerNamespace
)

// StoreDefaultTTL defers to the store: writes carry no explicit TTL.
func StoreDefaultTTL() TTLPolicy { return TTLPolicy{kind: ttlStoreDefault} }

// FixedTTL applies d to every write regardless of namespace.
func FixedTTL(d time.Duration) TTLPolicy { return TTLPolicy{kind: ttlFixed, fixed: d} }

// InfiniteTTL stores entries without expiry. Resolves the same as
// StoreDefaultTTL ("no explicit TTL"); the distinction is documentation of
// intent only.
func InfiniteTTL() TTLPolicy { return TTLPolicy{kind: ttlInfinite} }

// PerNamespaceTTL evaluates f for each write's entity namespace.
func PerNamespaceTTL(f func(namespace string) time.Duration) TTLPolicy {
	return TTLPolicy{kind: ttlPerNamespace, perNS: f}
}

// Resolve returns the TTL for namespace, or (0, false) when no explicit TTL
// applies and the store decides.
func (p TTLPolicy) Resolve(namespace string) (time.Duration, bool) {
	switch p.kind {
	case ttlFixed:
		return p.fixed, true
	case ttlPerNamespace:
		if p.perNS != nil {
			return p.perNS(namespace), true
		}
		return 0, false
	default: // store default or infinite
		return 0, false
	}
}
