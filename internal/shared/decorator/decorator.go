package decorator

import (
	"context"
	"fmt"
	"strings"

	"github.com/architeacher/svc-queue-client/internal/infrastructure"
	otelTrace "go.opentelemetry.io/otel/trace"
)

type (
	CommandHandler[C any, R any] interface {
		Handle(ctx context.Context, cmd C) (R, error)
	}

	QueryHandler[Q any, R any] interface {
		Handle(ctx context.Context, q Q) (R, error)
	}

	MetricsClient interface {
		Inc(key string, value int)
	}
)

// ApplyCommandDecorators wraps handler so it is traced, then logged, then
// counted, in that order from the outside in.
func ApplyCommandDecorators[C any, R any](
	handler CommandHandler[C, R],
	logger infrastructure.Logger,
	tracerProvider otelTrace.TracerProvider,
	metricsClient MetricsClient,
) CommandHandler[C, R] {
	return commandTracingDecorator[C, R]{
		base: commandLoggingDecorator[C, R]{
			base: commandMetricsDecorator[C, R]{
				base:   handler,
				client: metricsClient,
			},
			logger: logger,
		},
		tracer: tracerProvider.Tracer(tracerName),
	}
}

func ApplyQueryDecorators[Q any, R any](
	handler QueryHandler[Q, R],
	logger infrastructure.Logger,
	tracerProvider otelTrace.TracerProvider,
	metricsClient MetricsClient,
) QueryHandler[Q, R] {
	return queryTracingDecorator[Q, R]{
		base: queryLoggingDecorator[Q, R]{
			base: queryMetricsDecorator[Q, R]{
				base:   handler,
				client: metricsClient,
			},
			logger: logger,
		},
		tracer: tracerProvider.Tracer(tracerName),
	}
}

func generateActionName(handler any) string {
	name := fmt.Sprintf("%T", handler)
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}

	if i := strings.Index(name, "["); i >= 0 {
		name = name[:i]
	}

	return name
}
