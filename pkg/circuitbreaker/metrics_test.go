package circuitbreaker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/architeacher/resilience/pkg/metrics"
	"github.com/architeacher/resilience/pkg/metrics/otelclient"
)

func TestMetricsObserver(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := provider.Meter("circuitbreaker-test")

	client, err := otelclient.New(meter,
		otelclient.WithCounter(MetricTransitionsTotal, metrics.Descriptor{
			Description: "Number of circuit breaker state transitions.",
			Unit:        "{transition}",
		}),
		otelclient.WithGauge(MetricState, metrics.Descriptor{
			Description: "Current circuit breaker state.",
			Unit:        "{state}",
		}),
	)
	require.NoError(t, err)

	observer := NewMetricsObserver(client)
	observer.OnStateChange("payments", StateClosed, StateOpen)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	byName := make(map[string]metricdata.Metrics)
	for _, m := range rm.ScopeMetrics[0].Metrics {
		byName[m.Name] = m
	}

	transitions, ok := byName[MetricTransitionsTotal].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, transitions.DataPoints, 1)
	require.Equal(t, int64(1), transitions.DataPoints[0].Value)

	attrs := transitions.DataPoints[0].Attributes

	name, ok := attrs.Value(attribute.Key("circuit_breaker.name"))
	require.True(t, ok)
	require.Equal(t, "payments", name.AsString())

	from, ok := attrs.Value(attribute.Key("circuit_breaker.from"))
	require.True(t, ok)
	require.Equal(t, "closed", from.AsString())

	to, ok := attrs.Value(attribute.Key("circuit_breaker.to"))
	require.True(t, ok)
	require.Equal(t, "open", to.AsString())

	state, ok := byName[MetricState].Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, state.DataPoints, 1)
	require.Equal(t, int64(StateOpen), state.DataPoints[0].Value)
}

func TestMetricsObserver_NilClient(t *testing.T) {
	t.Parallel()

	observer := NewMetricsObserver(nil)

	require.NotPanics(t, func() {
		observer.OnStateChange("payments", StateClosed, StateOpen)
	})
}
