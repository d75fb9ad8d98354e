package cachekit

import "time"

// OperationConfig overrides TTL and retry behavior for a single call without
// touching the expander's global settings. The zero value means "no override,
// no retries".
type OperationConfig struct {
	// TTL, when > 0, overrides the expander's TTL policy for this call's
	// cache writes only.
	TTL time.Duration

	// RetryCount is the number of retry attempts after the initial one
	// (0 = no retry). Failed attempts back off as 100ms * 2^(attempt-1).
	RetryCount uint
}

// WithTTL returns a copy with the TTL override set.
func (c OperationConfig) WithTTL(ttl time.Duration) OperationConfig {
	c.TTL = ttl
	return c
}

// WithRetry returns a copy with the retry count set.
func (c OperationConfig) WithRetry(count uint) OperationConfig {
	c.RetryCount = count
	return c
}
