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
	InsertMessageCommand struct {
		Message domain.Message
	}

	InsertMessageHandler decorator.CommandHandler[InsertMessageCommand, *domain.InsertResult]

	insertMessageHandler struct {
		publisherService service.PublisherService
	}
)

func NewInsertMessageHandler(
	publisherService service.PublisherService,
	logger infrastructure.Logger,
	tracerProvider otelTrace.TracerProvider,
	metricsClient decorator.MetricsClient,
) InsertMessageHandler {
	return decorator.ApplyCommandDecorators[InsertMessageCommand, *domain.InsertResult](
		insertMessageHandler{
			publisherService: publisherService,
		},
		logger,
		tracerProvider,
		metricsClient,
	)
}

func (h insertMessageHandler) Handle(ctx context.Context, cmd InsertMessageCommand) (*domain.InsertResult, error) {
	return h.publisherService.Insert(ctx, cmd.Message)
}
