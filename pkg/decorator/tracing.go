package decorator

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/codes"
	otelTrace "go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/architeacher/resilience/pkg/decorator"

type commandTracingDecorator[C Command, R any] struct {
	base           CommandHandler[C, R]
	tracerProvider otelTrace.TracerProvider
}

func (d commandTracingDecorator[C, R]) Handle(ctx context.Context, cmd C) (result R, err error) {
	if d.tracerProvider == nil {
		return d.base.Handle(ctx, cmd)
	}

	tracer := d.tracerProvider.Tracer(tracerName)

	ctx, span := tracer.Start(ctx, fmt.Sprintf("commands.%s", generateActionName(cmd)))
	defer span.End()

	result, err = d.base.Handle(ctx, cmd)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	return result, err
}

type queryTracingDecorator[Q Query, R Result] struct {
	base           QueryHandler[Q, R]
	tracerProvider otelTrace.TracerProvider
}

func (d queryTracingDecorator[Q, R]) Execute(ctx context.Context, query Q) (result R, err error) {
	if d.tracerProvider == nil {
		return d.base.Execute(ctx, query)
	}

	tracer := d.tracerProvider.Tracer(tracerName)

	ctx, span := tracer.Start(ctx, fmt.Sprintf("queries.%s", generateActionName(query)))
	defer span.End()

	result, err = d.base.Execute(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	return result, err
}
