package infrastructure

import (
	"github.com/architeacher/svc-queue-client/internal/config"
	"github.com/architeacher/svc-queue-client/pkg/queue"
	"go.opentelemetry.io/otel"
)

// Queue is the client surface the service depends on.
type Queue = queue.Queue

// NewQueue builds the broker client from the service configuration. Nothing
// is dialed until the first Connect.
func NewQueue(cfg config.QueueConfig, logger Logger, metrics queue.Metrics) *queue.Client {
	queueLogger := logger.QueueLogger()

	return queue.NewClient(
		cfg.ClientConfig(),
		queue.WithQueue(cfg.QueueName),
		queue.WithProfile(cfg.Profile),
		queue.WithLogger(queueLogger),
		queue.WithMetrics(metrics),
		queue.WithTracerProvider(otel.GetTracerProvider()),
		queue.WithConnectionOptions(
			queue.WithConnectionTimeout(cfg.ConnectTimeout),
			queue.WithHeartbeat(cfg.Heartbeat),
			queue.WithConnectionName(cfg.ConnectionName),
			queue.WithConnectionLogger(queueLogger),
		),
	)
}
