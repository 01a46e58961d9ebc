package infrastructure

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/architeacher/svc-queue-client/internal/config"
	"github.com/architeacher/svc-queue-client/pkg/queue"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const (
	metricsNamespace = "queue_publisher"
)

type (
	Metrics interface {
		queue.Metrics

		RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration, requestSize, responseSize int64)
		RecordUseCase(ctx context.Context, name string, count int)
		Handler() http.Handler
		Shutdown(ctx context.Context) error
	}

	OTELMetrics struct {
		meterProvider *sdkmetric.MeterProvider
		meter         metric.Meter
		logger        Logger

		httpRequestTotal    metric.Int64Counter
		httpRequestDuration metric.Float64Histogram
		httpRequestSize     metric.Int64Histogram
		httpResponseSize    metric.Int64Histogram
		useCaseTotal        metric.Int64Counter

		connectionTotal      metric.Int64Counter
		connectionErrorTotal metric.Int64Counter
		channelTotal         metric.Int64Counter
		channelErrorTotal    metric.Int64Counter
		channelEvictionTotal metric.Int64Counter
		queueAssertionTotal  metric.Int64Counter
		publishTotal         metric.Int64Counter
	}
)

var _ Metrics = (*OTELMetrics)(nil)

func NewMetrics(ctx context.Context, cfg config.ServiceConfig, logger Logger) (Metrics, error) {
	if !cfg.Telemetry.Metrics.Enabled {
		logger.Info().Msg("metrics disabled, using NoOp implementation")

		return &NoOpMetrics{}, nil
	}

	return NewOTELMetrics(ctx, cfg, logger)
}

func NewOTELMetrics(ctx context.Context, cfg config.ServiceConfig, logger Logger) (*OTELMetrics, error) {
	endpoint := fmt.Sprintf("%s:%s", cfg.Telemetry.OtelGRPCHost, cfg.Telemetry.OtelGRPCPort)

	conn, err := grpc.NewClient(
		endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection to OTEL collector: %w", err)
	}

	exporter, err := otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metric exporter: %w", err)
	}

	res, err := newResource(ctx, cfg.AppConfig)
	if err != nil {
		return nil, err
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(meterProvider)

	provider, err := newOTELMetrics(meterProvider, cfg.AppConfig.ServiceVersion, logger)
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("otel_endpoint", endpoint).
		Msg("OTEL metrics provider initialized successfully")

	return provider, nil
}

func newOTELMetrics(meterProvider *sdkmetric.MeterProvider, version string, logger Logger) (*OTELMetrics, error) {
	provider := &OTELMetrics{
		meterProvider: meterProvider,
		meter: meterProvider.Meter(
			metricsNamespace,
			metric.WithInstrumentationVersion(version),
		),
		logger: Logger{Logger: logger.With().Str("component", "metrics").Logger()},
	}

	if err := provider.initializeMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	return provider, nil
}

func newResource(ctx context.Context, app config.AppConfig) (*resource.Resource, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(app.ServiceName),
			semconv.ServiceVersionKey.String(app.ServiceVersion),
			semconv.ServiceInstanceIDKey.String(app.CommitSHA),
			semconv.DeploymentEnvironmentKey.String(app.Env),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	return res, nil
}

func (om *OTELMetrics) initializeMetrics() error {
	var err error

	om.httpRequestTotal, err = om.meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create http_requests_total counter: %w", err)
	}

	om.httpRequestDuration, err = om.meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create http_request_duration_seconds histogram: %w", err)
	}

	om.httpRequestSize, err = om.meter.Int64Histogram(
		"http_request_size_bytes",
		metric.WithDescription("HTTP request size in bytes"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return fmt.Errorf("failed to create http_request_size_bytes histogram: %w", err)
	}

	om.httpResponseSize, err = om.meter.Int64Histogram(
		"http_response_size_bytes",
		metric.WithDescription("HTTP response size in bytes"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return fmt.Errorf("failed to create http_response_size_bytes histogram: %w", err)
	}

	om.useCaseTotal, err = om.meter.Int64Counter(
		"use_case_results_total",
		metric.WithDescription("Total number of command and query results"),
		metric.WithUnit("{result}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create use_case_results_total counter: %w", err)
	}

	om.connectionTotal, err = om.meter.Int64Counter(
		"rabbitmq_connections_total",
		metric.WithDescription("Total number of broker connections opened"),
		metric.WithUnit("{connection}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create rabbitmq_connections_total counter: %w", err)
	}

	om.connectionErrorTotal, err = om.meter.Int64Counter(
		"rabbitmq_connection_errors_total",
		metric.WithDescription("Total number of failed broker dials"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create rabbitmq_connection_errors_total counter: %w", err)
	}

	om.channelTotal, err = om.meter.Int64Counter(
		"rabbitmq_channels_total",
		metric.WithDescription("Total number of channels opened"),
		metric.WithUnit("{channel}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create rabbitmq_channels_total counter: %w", err)
	}

	om.channelErrorTotal, err = om.meter.Int64Counter(
		"rabbitmq_channel_errors_total",
		metric.WithDescription("Total number of failed channel creations"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create rabbitmq_channel_errors_total counter: %w", err)
	}

	om.channelEvictionTotal, err = om.meter.Int64Counter(
		"rabbitmq_channel_evictions_total",
		metric.WithDescription("Total number of channel cache evictions"),
		metric.WithUnit("{eviction}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create rabbitmq_channel_evictions_total counter: %w", err)
	}

	om.queueAssertionTotal, err = om.meter.Int64Counter(
		"rabbitmq_queue_assertions_total",
		metric.WithDescription("Total number of queue declarations sent to the broker"),
		metric.WithUnit("{assertion}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create rabbitmq_queue_assertions_total counter: %w", err)
	}

	om.publishTotal, err = om.meter.Int64Counter(
		"rabbitmq_publishes_total",
		metric.WithDescription("Total number of messages handed to the broker"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create rabbitmq_publishes_total counter: %w", err)
	}

	return nil
}

func (om *OTELMetrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration, requestSize, responseSize int64) {
	requestAttrs := metric.WithAttributes(
		HTTPMethodAttr(method),
		HTTPPathAttr(path),
		HTTPStatusCodeAttr(statusCode),
	)

	om.httpRequestTotal.Add(ctx, 1, requestAttrs)
	om.httpRequestDuration.Record(ctx, duration.Seconds(), requestAttrs)
	om.httpRequestSize.Record(ctx, requestSize,
		metric.WithAttributes(
			HTTPMethodAttr(method),
			HTTPPathAttr(path),
		),
	)
	om.httpResponseSize.Record(ctx, responseSize, requestAttrs)
}

func (om *OTELMetrics) RecordUseCase(ctx context.Context, name string, count int) {
	om.useCaseTotal.Add(ctx, int64(count),
		metric.WithAttributes(
			UseCaseAttr(name),
		),
	)
}

func (om *OTELMetrics) RecordConnection(ctx context.Context, profile string, success bool) {
	if !success {
		om.connectionErrorTotal.Add(ctx, 1, metric.WithAttributes(ProfileAttr(profile)))

		return
	}

	om.connectionTotal.Add(ctx, 1, metric.WithAttributes(ProfileAttr(profile)))
}

func (om *OTELMetrics) RecordChannel(ctx context.Context, queueName string, success bool) {
	if !success {
		om.channelErrorTotal.Add(ctx, 1, metric.WithAttributes(QueueAttr(queueName)))

		return
	}

	om.channelTotal.Add(ctx, 1, metric.WithAttributes(QueueAttr(queueName)))
}

func (om *OTELMetrics) RecordChannelEviction(ctx context.Context, queueName, reason string) {
	om.channelEvictionTotal.Add(ctx, 1,
		metric.WithAttributes(
			QueueAttr(queueName),
			ReasonAttr(reason),
		),
	)
}

func (om *OTELMetrics) RecordQueueAssertion(ctx context.Context, queueName string, success bool) {
	om.queueAssertionTotal.Add(ctx, 1,
		metric.WithAttributes(
			QueueAttr(queueName),
			StatusAttr(statusOf(success)),
		),
	)
}

func (om *OTELMetrics) RecordPublish(ctx context.Context, queueName string, grouped, accepted bool) {
	om.publishTotal.Add(ctx, 1,
		metric.WithAttributes(
			QueueAttr(queueName),
			GroupedAttr(grouped),
			StatusAttr(statusOf(accepted)),
		),
	)
}

func (om *OTELMetrics) Handler() http.Handler {
	return promhttp.Handler()
}

func (om *OTELMetrics) Shutdown(ctx context.Context) error {
	if err := om.meterProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown meter provider: %w", err)
	}

	return nil
}

func statusOf(success bool) string {
	if success {
		return "success"
	}

	return "error"
}
