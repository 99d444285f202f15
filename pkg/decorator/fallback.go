package decorator

import (
	"context"
	"time"

	"github.com/architeacher/resilience/pkg/circuitbreaker"
)

type (
	// FallbackStatus represents the status of a fallback lookup.
	FallbackStatus string

	// fallbackStatusKey is the context key for fallback status.
	fallbackStatusKey struct{}

	// FallbackConfig holds configuration for the fallback decorator.
	FallbackConfig struct {
		Enabled bool
		TTL     time.Duration
	}

	// FallbackGetter retrieves last-known-good results.
	FallbackGetter[Q Query, R Result] interface {
		Get(ctx context.Context, query Q) (R, bool, error)
	}

	// FallbackSetter stores last-known-good results.
	FallbackSetter[Q Query, R Result] interface {
		Set(ctx context.Context, query Q, result R, ttl time.Duration) error
	}

	// FallbackCache combines getter and setter operations.
	FallbackCache[Q Query, R Result] interface {
		FallbackGetter[Q, R]
		FallbackSetter[Q, R]
	}

	queryFallbackDecorator[Q Query, R Result] struct {
		base   QueryHandler[Q, R]
		cache  FallbackCache[Q, R]
		config FallbackConfig
	}
)

const (
	FallbackStatusServed FallbackStatus = "SERVED"
	FallbackStatusBypass FallbackStatus = "BYPASS"
)

// WithFallbackStatus adds fallback status to context.
func WithFallbackStatus(ctx context.Context, status FallbackStatus) context.Context {
	return context.WithValue(ctx, fallbackStatusKey{}, status)
}

// GetFallbackStatus retrieves fallback status from context.
func GetFallbackStatus(ctx context.Context) FallbackStatus {
	if status, ok := ctx.Value(fallbackStatusKey{}).(FallbackStatus); ok {
		return status
	}

	return FallbackStatusBypass
}

// NewQueryFallbackDecorator serves a last-known-good result when the
// underlying circuit breaker rejects a query. Successful results refresh
// the stored value; errors other than breaker rejections pass through
// untouched.
func NewQueryFallbackDecorator[Q Query, R Result](
	base QueryHandler[Q, R],
	cache FallbackCache[Q, R],
	config FallbackConfig,
) QueryHandler[Q, R] {
	return queryFallbackDecorator[Q, R]{
		base:   base,
		cache:  cache,
		config: config,
	}
}

func (d queryFallbackDecorator[Q, R]) Execute(ctx context.Context, query Q) (R, error) {
	var zero R

	if !d.config.Enabled || d.cache == nil {
		ctx = WithFallbackStatus(ctx, FallbackStatusBypass)

		return d.base.Execute(ctx, query)
	}

	result, err := d.base.Execute(ctx, query)
	if err == nil {
		go func() {
			bgCtx := context.Background()
			_ = d.cache.Set(bgCtx, query, result, d.config.TTL)
		}()

		return result, nil
	}

	if !circuitbreaker.IsRejection(err) {
		return zero, err
	}

	cached, hit, cacheErr := d.cache.Get(WithFallbackStatus(ctx, FallbackStatusServed), query)
	if cacheErr == nil && hit {
		return cached, nil
	}

	return zero, err
}
