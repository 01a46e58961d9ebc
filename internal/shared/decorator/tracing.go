package decorator

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelTrace "go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/architeacher/svc-queue-client/internal/shared/decorator"

type commandTracingDecorator[C any, R any] struct {
	base   CommandHandler[C, R]
	tracer otelTrace.Tracer
}

func (d commandTracingDecorator[C, R]) Handle(ctx context.Context, cmd C) (R, error) {
	action := generateActionName(cmd)

	ctx, span := d.tracer.Start(ctx, "command."+action,
		otelTrace.WithAttributes(attribute.String("app.command", action)),
	)
	defer span.End()

	result, err := d.base.Handle(ctx, cmd)
	recordError(span, err)

	return result, err
}

type queryTracingDecorator[Q any, R any] struct {
	base   QueryHandler[Q, R]
	tracer otelTrace.Tracer
}

func (d queryTracingDecorator[Q, R]) Handle(ctx context.Context, q Q) (R, error) {
	action := generateActionName(q)

	ctx, span := d.tracer.Start(ctx, "query."+action,
		otelTrace.WithAttributes(attribute.String("app.query", action)),
	)
	defer span.End()

	result, err := d.base.Handle(ctx, q)
	recordError(span, err)

	return result, err
}

func recordError(span otelTrace.Span, err error) {
	if err == nil {
		return
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
