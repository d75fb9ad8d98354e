package cachekit

// Strategy selects the read/fallback/write sequence for a single call. It is
// stateless: chosen per call, never persisted.
//
// Decision guide:
//   - StrategyFresh: data should already be cached; a miss returns nothing
//     and the provider is never consulted.
//   - StrategyRefresh (default): prefer the store, fall through to the
//     provider on miss and repopulate.
//   - StrategyInvalidate: the cached entry is known stale (e.g. after a
//     mutation); drop it and refetch.
//   - StrategyBypass: skip reads entirely but still write through, keeping
//     the store warm for other callers.
type Strategy uint8

const (
	// StrategyRefresh reads the store first and falls back to the provider
	// on miss, repopulating the store. The default.
	StrategyRefresh Strategy = iota

	// StrategyFresh reads the store only. Miss returns nothing; the provider
	// is never consulted.
	StrategyFresh

	// StrategyInvalidate deletes the key unconditionally, then fetches from
	// the provider and repopulates.
	StrategyInvalidate

	// StrategyBypass never reads the store; it always consults the provider
	// and writes the result through.
	StrategyBypass
)

func (s Strategy) String() string {
	switch s {
	case StrategyFresh:
		return "Fresh"
	case StrategyRefresh:
		return "Refresh"
	case StrategyInvalidate:
		return "Invalidate"
	case StrategyBypass:
		return "Bypass"
	default:
		return "Unknown"
	}
}
