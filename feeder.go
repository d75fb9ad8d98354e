package cachekit

// Feeder is the caller-owned sink for one cache operation: it names the id to
// fetch and receives the result. Feeders are transient and not safe for
// concurrent reuse across calls.
//
// A feeder may additionally implement Validator (checked before the
// operation; e.g. reject an empty id) and any of the hook interfaces below.
type Feeder[T Entity] interface {
	// EntityID returns the id to fetch.
	EntityID() string

	// Feed delivers the result. nil marks absence.
	Feed(entity *T)
}

// HitHook is called when the operation delivers a value, before Feed.
type HitHook interface {
	OnHit(key string) error
}

// MissHook is called when the operation completes without a value, before Feed.
type MissHook interface {
	OnMiss(key string) error
}

// LoadedHook is called with the loaded entity after OnHit and before Feed.
// Useful for post-processing or caller-side observation.
type LoadedHook[T Entity] interface {
	OnLoaded(entity *T) error
}

// GenericFeeder is the ready-made feeder for the common case: give it an id,
// read Data (nil on miss) after the call.
type GenericFeeder[T Entity] struct {
	ID   string
	Data *T
}

func NewGenericFeeder[T Entity](id string) *GenericFeeder[T] {
	return &GenericFeeder[T]{ID: id}
}

func (f *GenericFeeder[T]) EntityID() string { return f.ID }

func (f *GenericFeeder[T]) Feed(entity *T) { f.Data = entity }

// Validate rejects an empty id before the store is touched.
func (f *GenericFeeder[T]) Validate() error {
	if f.ID == "" {
		return newError(KindValidation, "feeder id is empty", nil)
	}
	return nil
}
