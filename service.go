package cachekit

import (
	"context"

	"github.com/unkn0wn-root/cachekit/provider"
)

// Service is a thin, shareable handle around one Expander. It exists so that
// application layers can depend on a small value type instead of a generic
// pointer; copying a Service shares the underlying engine.
type Service[T Entity] struct {
	exp *Expander[T]
}

// NewService builds the engine from opts and wraps it.
func NewService[T Entity](opts Options[T]) (Service[T], error) {
	exp, err := New(opts)
	if err != nil {
		return Service[T]{}, err
	}
	return Service[T]{exp: exp}, nil
}

// WrapService wraps an already-constructed Expander.
func WrapService[T Entity](exp *Expander[T]) Service[T] {
	return Service[T]{exp: exp}
}

// Execute runs one cache operation with default configuration.
func (s Service[T]) Execute(ctx context.Context, feeder Feeder[T], prov provider.Provider[T], strategy Strategy) error {
	return s.exp.Execute(ctx, feeder, prov, strategy)
}

// ExecuteWithConfig runs one cache operation with explicit TTL/retry config.
func (s Service[T]) ExecuteWithConfig(ctx context.Context, feeder Feeder[T], prov provider.Provider[T], strategy Strategy, cfg OperationConfig) error {
	return s.exp.ExecuteWithConfig(ctx, feeder, prov, strategy, cfg)
}

// Expander exposes the wrapped engine for advanced use.
func (s Service[T]) Expander() *Expander[T] { return s.exp }
