package usecases

import (
	"github.com/architeacher/svc-queue-client/internal/infrastructure"
	"github.com/architeacher/svc-queue-client/internal/service"
	"github.com/architeacher/svc-queue-client/internal/shared/decorator"
	"github.com/architeacher/svc-queue-client/internal/usecases/commands"
	"github.com/architeacher/svc-queue-client/internal/usecases/queries"
	otelTrace "go.opentelemetry.io/otel/trace"
)

type (
	PublisherApplication struct {
		Commands PublisherCommands
		Queries  PublisherQueries
	}

	PublisherCommands struct {
		InsertMessageHandler commands.InsertMessageHandler
		PurgeQueueHandler    commands.PurgeQueueHandler
		DestroyQueueHandler  commands.DestroyQueueHandler
	}

	PublisherQueries struct {
		FetchQueueStatusQueryHandler queries.FetchQueueStatusQueryHandler
	}
)

func NewPublisherApplication(
	publisherService service.PublisherService,
	logger infrastructure.Logger,
	tracerProvider otelTrace.TracerProvider,
	metricsClient decorator.MetricsClient,
) *PublisherApplication {
	return &PublisherApplication{
		Commands: PublisherCommands{
			InsertMessageHandler: commands.NewInsertMessageHandler(
				publisherService,
				logger,
				tracerProvider,
				metricsClient,
			),
			PurgeQueueHandler: commands.NewPurgeQueueHandler(
				publisherService,
				logger,
				tracerProvider,
				metricsClient,
			),
			DestroyQueueHandler: commands.NewDestroyQueueHandler(
				publisherService,
				logger,
				tracerProvider,
				metricsClient,
			),
		},
		Queries: PublisherQueries{
			FetchQueueStatusQueryHandler: queries.NewFetchQueueStatusQueryHandler(
				publisherService,
				logger,
				tracerProvider,
				metricsClient,
			),
		},
	}
}
