package commands

import (
	"context"

	"github.com/architeacher/svc-queue-client/internal/domain"
	"github.com/architeacher/svc-queue-client/internal/infrastructure"
	"github.com/architeacher/svc-queue-client/internal/service"
	"github.com/architeacher/svc-queue-client/internal/shared/decorator"
	otelTrace "go.opentelemetry.io/otel/trace"
)

type (
	DestroyQueueCommand struct{}

	DestroyQueueHandler decorator.CommandHandler[DestroyQueueCommand, *domain.DestroyResult]

	destroyQueueHandler struct {
		publisherService service.PublisherService
	}
)

func NewDestroyQueueHandler(
	publisherService service.PublisherService,
	logger infrastructure.Logger,
	tracerProvider otelTrace.TracerProvider,
	metricsClient decorator.MetricsClient,
) DestroyQueueHandler {
	return decorator.ApplyCommandDecorators[DestroyQueueCommand, *domain.DestroyResult](
		destroyQueueHandler{
			publisherService: publisherService,
		},
		logger,
		tracerProvider,
		metricsClient,
	)
}

func (h destroyQueueHandler) Handle(ctx context.Context, _ DestroyQueueCommand) (*domain.DestroyResult, error) {
	return h.publisherService.Destroy(ctx)
}
