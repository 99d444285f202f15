package decorator

import (
	"context"
	"fmt"
	"strings"

	"github.com/architeacher/resilience/pkg/circuitbreaker"
	"github.com/architeacher/resilience/pkg/logger"
	"github.com/architeacher/resilience/pkg/metrics"
	otelTrace "go.opentelemetry.io/otel/trace"
)

type (
	Command any

	CommandHandler[C Command, R any] interface {
		Handle(context.Context, C) (R, error)
	}
)

func ApplyCommandDecorators[C Command, R any](
	handler CommandHandler[C, R],
	breaker *circuitbreaker.CircuitBreaker[R],
	log logger.Logger,
	metricsClient metrics.Client,
	tracerProvider otelTrace.TracerProvider,
) CommandHandler[C, R] {
	return commandLoggingDecorator[C, R]{
		base: commandMetricsDecorator[C, R]{
			base: commandTracingDecorator[C, R]{
				base: commandBreakerDecorator[C, R]{
					base:    handler,
					breaker: breaker,
				},
				tracerProvider: tracerProvider,
			},
			client: metricsClient,
		},
		logger: log,
	}
}

func generateActionName(handler any) string {
	return strings.Split(fmt.Sprintf("%T", handler), ".")[1]
}
