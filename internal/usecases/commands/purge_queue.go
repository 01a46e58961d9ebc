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
	PurgeQueueCommand struct{}

	PurgeQueueHandler decorator.CommandHandler[PurgeQueueCommand, *domain.PurgeResult]

	purgeQueueHandler struct {
		publisherService service.PublisherService
	}
)

func NewPurgeQueueHandler(
	publisherService service.PublisherService,
	logger infrastructure.Logger,
	tracerProvider otelTrace.TracerProvider,
	metricsClient decorator.MetricsClient,
) PurgeQueueHandler {
	return decorator.ApplyCommandDecorators[PurgeQueueCommand, *domain.PurgeResult](
		purgeQueueHandler{
			publisherService: publisherService,
		},
		logger,
		tracerProvider,
		metricsClient,
	)
}

func (h purgeQueueHandler) Handle(ctx context.Context, _ PurgeQueueCommand) (*domain.PurgeResult, error) {
	return h.publisherService.Purge(ctx)
}
