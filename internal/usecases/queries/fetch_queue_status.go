package queries

import (
	"context"

	"github.com/architeacher/svc-queue-client/internal/domain"
	"github.com/architeacher/svc-queue-client/internal/infrastructure"
	"github.com/architeacher/svc-queue-client/internal/service"
	"github.com/architeacher/svc-queue-client/internal/shared/decorator"
	otelTrace "go.opentelemetry.io/otel/trace"
)

type (
	FetchQueueStatusQuery struct{}

	FetchQueueStatusQueryHandler decorator.QueryHandler[FetchQueueStatusQuery, *domain.QueueStatus]

	fetchQueueStatusQueryHandler struct {
		publisherService service.PublisherService
	}
)

func NewFetchQueueStatusQueryHandler(
	publisherService service.PublisherService,
	logger infrastructure.Logger,
	tracerProvider otelTrace.TracerProvider,
	metricsClient decorator.MetricsClient,
) FetchQueueStatusQueryHandler {
	return decorator.ApplyQueryDecorators[FetchQueueStatusQuery, *domain.QueueStatus](
		fetchQueueStatusQueryHandler{
			publisherService: publisherService,
		},
		logger,
		tracerProvider,
		metricsClient,
	)
}

func (h fetchQueueStatusQueryHandler) Handle(ctx context.Context, _ FetchQueueStatusQuery) (*domain.QueueStatus, error) {
	return h.publisherService.Status(ctx)
}
