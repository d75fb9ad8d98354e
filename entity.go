package cachekit

// Entity is the contract cached types implement.
//
// CachePrefix must be callable on the zero value (the expander derives the
// namespace from a zero T at construction time) and must return the same
// fixed string for every instance of the type. The final cache key is
// "{prefix}:{key}".
//
//	type User struct {
//		ID   string `msgpack:"id"`
//		Name string `msgpack:"name"`
//	}
//
//	func (u User) CacheKey() string    { return u.ID }
//	func (User) CachePrefix() string   { return "user" }
type Entity interface {
	// CacheKey returns the entity's unique textual id, e.g. "emp_12345".
	CacheKey() string

	// CachePrefix returns the namespace for the entity type, e.g. "employment".
	CachePrefix() string
}

// Validator is optionally implemented by entities (and feeders) to self-check.
// Entity validation runs after every decode; a failure surfaces as a
// validation error, never a silently accepted value.
type Validator interface {
	Validate() error
}
