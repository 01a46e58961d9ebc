package runtime

import (
	"context"
	"fmt"

	"github.com/architeacher/svc-queue-client/internal/adapters"
	"github.com/architeacher/svc-queue-client/internal/adapters/repos"
	"github.com/architeacher/svc-queue-client/internal/config"
	"github.com/architeacher/svc-queue-client/internal/infrastructure"
	"github.com/architeacher/svc-queue-client/internal/service"
	"github.com/architeacher/svc-queue-client/internal/shared/backoff"
	"github.com/architeacher/svc-queue-client/internal/usecases"
	"go.opentelemetry.io/otel"
)

type (
	DependencyOption func(*Dependencies) error
)

func defaultOptions(ctx context.Context) []DependencyOption {
	return []DependencyOption{
		WithSecretStorage(),
		WithSecretStorageRepo(),
		WithConfigLoader(ctx),
		WithMetrics(ctx),
		WithTracing(ctx),
		WithQueue(),
		WithManagementClient(),
	}
}

// WithSecretStorage initializes the Vault client using ENV config.
func WithSecretStorage() DependencyOption {
	return func(d *Dependencies) error {
		client, err := repos.NewVaultClient(d.cfg.SecretStorage)
		if err != nil {
			return err
		}

		d.Infra.SecretStorageClient = client

		return nil
	}
}

func WithSecretStorageRepo() DependencyOption {
	return func(d *Dependencies) error {
		d.Repos.SecretStorageRepo = repos.NewVaultRepository(d.Infra.SecretStorageClient)

		return nil
	}
}

func WithConfigLoader(ctx context.Context) DependencyOption {
	return func(d *Dependencies) error {
		d.configLoader = config.NewLoader(d.cfg, d.Repos.SecretStorageRepo, d.secretVersion)

		if !d.cfg.SecretStorage.Enabled {
			d.logger.Info().Msg("secret storage is disabled, skipping vault configuration loading")

			return nil
		}

		version, err := d.configLoader.Load(ctx, d.Repos.SecretStorageRepo, d.cfg)
		if err != nil {
			return fmt.Errorf("unable to load service configuration: %w", err)
		}

		d.secretVersion = version

		return nil
	}
}

func WithMetrics(ctx context.Context) DependencyOption {
	return func(d *Dependencies) error {
		metrics, err := infrastructure.NewMetrics(ctx, *d.cfg, d.logger)
		if err != nil {
			return fmt.Errorf("failed to initialize metrics: %w", err)
		}

		d.Infra.Metrics = metrics

		return nil
	}
}

func WithTracing(ctx context.Context) DependencyOption {
	return func(d *Dependencies) error {
		if !d.cfg.Telemetry.Traces.Enabled {
			d.tracerShutdownFunc = func(_ context.Context) error {
				return nil
			}

			return nil
		}

		tracerShutdownFunc, err := infrastructure.InitGlobalTracer(ctx, d.cfg.Telemetry, d.cfg.AppConfig)
		if err != nil {
			d.logger.Error().Err(err).Msg("failed to initialize global tracer")

			return err
		}

		d.tracerShutdownFunc = tracerShutdownFunc

		return nil
	}
}

// WithQueue builds the broker client. The connection is dialed lazily on the
// first operation, so a broker outage does not block start up.
func WithQueue() DependencyOption {
	return func(d *Dependencies) error {
		if d.cfg.Queue.QueueName == "" {
			return fmt.Errorf("queue name is required")
		}

		d.Infra.QueueClient = infrastructure.NewQueue(d.cfg.Queue, d.logger, d.Infra.Metrics)

		d.logger.Info().
			Str("queue", d.cfg.Queue.QueueName).
			Str("profile", d.cfg.Queue.Profile).
			Msg("queue client created")

		return nil
	}
}

func WithManagementClient() DependencyOption {
	return func(d *Dependencies) error {
		if !d.cfg.Management.Enabled {
			d.logger.Info().Msg("management API is disabled, queue stats will not be reported")

			return nil
		}

		d.Repos.ManagementClient = adapters.NewManagementClient(d.cfg.Management, d.logger)

		return nil
	}
}

func WithHTTPServer() DependencyOption {
	return func(d *Dependencies) error {
		publisherService := service.NewPublisherService(
			d.Infra.QueueClient,
			d.Repos.ManagementClient,
			d.cfg.CircuitBreaker,
			d.cfg.Backoff,
			backoff.NewExponentialStrategy(d.cfg.Backoff),
			d.logger,
		)

		d.Apps.Publisher = usecases.NewPublisherApplication(
			publisherService,
			d.logger,
			otel.GetTracerProvider(),
			adapters.NewMetricsAdapter(d.Infra.Metrics),
		)

		requestHandler := adapters.NewRequestHandler(
			d.Apps.Publisher,
			adapters.NewHealthChecker(d.Infra.QueueClient, d.Repos.ManagementClient),
			d.cfg.HTTPServer.MaxBodyBytes,
			d.logger,
		)

		httpServer, err := initHTTPServer(d.cfg, d.logger, d.Infra.Metrics, requestHandler)
		if err != nil {
			return err
		}

		d.Infra.HTTPServer = httpServer

		return nil
	}
}
