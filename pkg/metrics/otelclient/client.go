// Package otelclient provides a metrics client backed by OpenTelemetry
// instruments. Instruments are declared up front through options and looked
// up by key on every Inc call; increments against undeclared keys are
// dropped silently.
package otelclient

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/architeacher/resilience/pkg/metrics"
)

type instrumentKind int

const (
	kindCounter instrumentKind = iota
	kindHistogram
	kindGauge
)

type (
	declaration struct {
		kind       instrumentKind
		descriptor metrics.Descriptor
	}

	// Option declares an instrument to register on the client.
	Option func(map[string]declaration)

	Client struct {
		counters   map[string]metric.Int64Counter
		histograms map[string]metric.Float64Histogram
		gauges     map[string]metric.Int64Gauge
	}
)

// WithCounter declares an Int64 counter under the given key.
func WithCounter(key string, descriptor metrics.Descriptor) Option {
	return func(declarations map[string]declaration) {
		declarations[key] = declaration{kind: kindCounter, descriptor: descriptor}
	}
}

// WithHistogram declares a Float64 histogram under the given key.
func WithHistogram(key string, descriptor metrics.Descriptor) Option {
	return func(declarations map[string]declaration) {
		declarations[key] = declaration{kind: kindHistogram, descriptor: descriptor}
	}
}

// WithGauge declares an Int64 gauge under the given key.
func WithGauge(key string, descriptor metrics.Descriptor) Option {
	return func(declarations map[string]declaration) {
		declarations[key] = declaration{kind: kindGauge, descriptor: descriptor}
	}
}

// New registers the declared instruments on the given meter and returns a
// client recording against them.
func New(meter metric.Meter, opts ...Option) (*Client, error) {
	declarations := make(map[string]declaration)

	for _, opt := range opts {
		opt(declarations)
	}

	client := &Client{
		counters:   make(map[string]metric.Int64Counter),
		histograms: make(map[string]metric.Float64Histogram),
		gauges:     make(map[string]metric.Int64Gauge),
	}

	for key, decl := range declarations {
		switch decl.kind {
		case kindCounter:
			counter, err := metrics.RegisterInt64Counter(meter, decl.descriptor, key)
			if err != nil {
				return nil, err
			}

			client.counters[key] = counter
		case kindHistogram:
			histogram, err := metrics.RegisterFloat64Histogram(meter, decl.descriptor, key)
			if err != nil {
				return nil, err
			}

			client.histograms[key] = histogram
		case kindGauge:
			gauge, err := metrics.RegisterInt64Gauge(meter, decl.descriptor, key)
			if err != nil {
				return nil, err
			}

			client.gauges[key] = gauge
		}
	}

	return client, nil
}

// Inc records a value against the instrument declared under key. Counters
// and gauges accept integer values, histograms accept numeric values.
func (c *Client) Inc(ctx context.Context, key string, value any, attributes ...attribute.KeyValue) {
	opts := metric.WithAttributes(attributes...)

	if counter, ok := c.counters[key]; ok {
		if v, ok := toInt64(value); ok {
			counter.Add(ctx, v, opts)
		}

		return
	}

	if histogram, ok := c.histograms[key]; ok {
		if v, ok := toFloat64(value); ok {
			histogram.Record(ctx, v, opts)
		}

		return
	}

	if gauge, ok := c.gauges[key]; ok {
		if v, ok := toInt64(value); ok {
			gauge.Record(ctx, v, opts)
		}
	}
}

// Shutdown is a no-op. Flushing is owned by the meter provider.
func (c *Client) Shutdown(_ context.Context) error {
	return nil
}

func toInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint32:
		return int64(v), true
	case uint64:
		return int64(v), true
	default:
		return 0, false
	}
}

func toFloat64(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
