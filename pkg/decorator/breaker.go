package decorator

import (
	"context"

	"github.com/architeacher/resilience/pkg/circuitbreaker"
)

type commandBreakerDecorator[C Command, R any] struct {
	base    CommandHandler[C, R]
	breaker *circuitbreaker.CircuitBreaker[R]
}

// NewCommandBreakerDecorator guards a command handler with a circuit
// breaker. A nil breaker passes calls through unguarded.
func NewCommandBreakerDecorator[C Command, R any](
	base CommandHandler[C, R],
	breaker *circuitbreaker.CircuitBreaker[R],
) CommandHandler[C, R] {
	return commandBreakerDecorator[C, R]{
		base:    base,
		breaker: breaker,
	}
}

func (d commandBreakerDecorator[C, R]) Handle(ctx context.Context, cmd C) (R, error) {
	return d.breaker.Execute(func() (R, error) {
		return d.base.Handle(ctx, cmd)
	})
}

type queryBreakerDecorator[Q Query, R Result] struct {
	base    QueryHandler[Q, R]
	breaker *circuitbreaker.CircuitBreaker[R]
}

// NewQueryBreakerDecorator guards a query handler with a circuit breaker.
// A nil breaker passes calls through unguarded.
func NewQueryBreakerDecorator[Q Query, R Result](
	base QueryHandler[Q, R],
	breaker *circuitbreaker.CircuitBreaker[R],
) QueryHandler[Q, R] {
	return queryBreakerDecorator[Q, R]{
		base:    base,
		breaker: breaker,
	}
}

func (d queryBreakerDecorator[Q, R]) Execute(ctx context.Context, query Q) (R, error) {
	return d.breaker.Execute(func() (R, error) {
		return d.base.Execute(ctx, query)
	})
}
