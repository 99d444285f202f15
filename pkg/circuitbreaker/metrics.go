package circuitbreaker

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/architeacher/resilience/pkg/metrics"
)

const (
	breakerNameKey = "circuit_breaker.name"
	breakerFromKey = "circuit_breaker.from"
	breakerToKey   = "circuit_breaker.to"

	// MetricTransitionsTotal counts state transitions per circuit breaker.
	MetricTransitionsTotal = "circuit_breaker_transitions_total"

	// MetricState gauges the current state per circuit breaker:
	// 0 closed, 1 open, 2 half-open.
	MetricState = "circuit_breaker_state"
)

// MetricsObserver records state transitions on a metrics client.
type MetricsObserver struct {
	client metrics.Client
}

func NewMetricsObserver(client metrics.Client) *MetricsObserver {
	return &MetricsObserver{client: client}
}

func (o *MetricsObserver) OnStateChange(name string, from, to State) {
	if o.client == nil {
		return
	}

	ctx := context.Background()

	o.client.Inc(ctx, MetricTransitionsTotal, int64(1),
		attribute.String(breakerNameKey, name),
		attribute.String(breakerFromKey, from.String()),
		attribute.String(breakerToKey, to.String()),
	)

	o.client.Inc(ctx, MetricState, int64(to),
		attribute.String(breakerNameKey, name),
	)
}
