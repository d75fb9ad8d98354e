package cachekit

import "time"

// Metrics receives cache lifecycle events. Implementations MUST be cheap,
// non-blocking, and safe for concurrent use; the expander calls them on hot
// paths.
//
// The elapsed duration passed to RecordHit/RecordMiss spans only the final
// attempt of a retried operation, not the whole retry sequence.
type Metrics interface {
	// RecordHit: the call delivered a value (from store or provider).
	RecordHit(key string, elapsed time.Duration)

	// RecordMiss: the call completed with no value.
	RecordMiss(key string, elapsed time.Duration)

	// RecordSet: a value was written to the store.
	RecordSet(key string, elapsed time.Duration)

	// RecordDelete: a key was removed from the store.
	RecordDelete(key string, elapsed time.Duration)

	// RecordError: the call failed; errText is the error's message.
	RecordError(key string, errText string)
}

// NopMetrics is the default no-op sink.
type NopMetrics struct{}

func (NopMetrics) RecordHit(string, time.Duration)    {}
func (NopMetrics) RecordMiss(string, time.Duration)   {}
func (NopMetrics) RecordSet(string, time.Duration)    {}
func (NopMetrics) RecordDelete(string, time.Duration) {}
func (NopMetrics) RecordError(string, string)         {}

// LogMetrics writes every event to a Logger at debug level (errors at warn).
// Useful during development; use a real sink (metrics/prom) in production.
type LogMetrics struct {
	Log Logger
}

func (m LogMetrics) RecordHit(key string, elapsed time.Duration) {
	m.Log.Debug("cache hit", Fields{"key": key, "elapsed": elapsed})
}

func (m LogMetrics) RecordMiss(key string, elapsed time.Duration) {
	m.Log.Debug("cache miss", Fields{"key": key, "elapsed": elapsed})
}

func (m LogMetrics) RecordSet(key string, elapsed time.Duration) {
	m.Log.Debug("cache set", Fields{"key": key, "elapsed": elapsed})
}

func (m LogMetrics) RecordDelete(key string, elapsed time.Duration) {
	m.Log.Debug("cache delete", Fields{"key": key, "elapsed": elapsed})
}

func (m LogMetrics) RecordError(key string, errText string) {
	m.Log.Warn("cache error", Fields{"key": key, "err": errText})
}
