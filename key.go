package cachekit

import "strings"

// keySeparator joins namespace and id in composite cache keys.
const keySeparator = ":"

// BuildKey composes the cache key for id under T's namespace.
func BuildKey[T Entity](id string) string {
	var zero T
	return zero.CachePrefix() + keySeparator + id
}

// BuildKeyWithPrefix composes a cache key under an explicit prefix.
func BuildKeyWithPrefix(prefix, id string) string {
	return prefix + keySeparator + id
}

// BuildCompositeKey joins arbitrary parts into one key.
func BuildCompositeKey(parts ...string) string {
	return strings.Join(parts, keySeparator)
}

// ParseKey splits a composite key into its parts.
func ParseKey(key string) []string {
	return strings.Split(key, keySeparator)
}

// SplitKey separates a composite key into namespace and id. All segments
// after the first separator belong to the id, so ids containing the separator
// round-trip.
func SplitKey(key string) (namespace, id string, ok bool) {
	namespace, id, ok = strings.Cut(key, keySeparator)
	return
}
