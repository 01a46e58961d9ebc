package queue

import (
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

type connectionOptions struct {
	timeout        time.Duration
	heartbeat      time.Duration
	connectionName string
	logger         Logger
}

type connectionOption func(options *connectionOptions)

// WithConnectionTimeout returns a connectionOption which sets the timeout used when establishing a connection.
func WithConnectionTimeout(timeout time.Duration) connectionOption {
	return func(o *connectionOptions) {
		o.timeout = timeout
	}
}

// WithHeartbeat returns a connectionOption which sets the AMQP heartbeat interval.
func WithHeartbeat(heartbeat time.Duration) connectionOption {
	return func(o *connectionOptions) {
		o.heartbeat = heartbeat
	}
}

// WithConnectionName returns a connectionOption which sets the client-provided
// connection name shown in the management UI.
func WithConnectionName(name string) connectionOption {
	return func(o *connectionOptions) {
		o.connectionName = name
	}
}

// WithConnectionLogger returns a connectionOption which sets the logger used by connections and channels.
func WithConnectionLogger(l Logger) connectionOption {
	return func(o *connectionOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

func defaultConnectionOptions() connectionOptions {
	return connectionOptions{
		timeout:   defaultConnectionTimeout,
		heartbeat: defaultHeartbeat,
		logger:    NopLogger(),
	}
}

// clientOptions configure a NewClient call. clientOptions are set by the clientOption
// values passed to NewClient.
type clientOptions struct {
	queueName      string
	profile        string
	logger         Logger
	metrics        Metrics
	tracerProvider trace.TracerProvider
	dialer         Dialer
	connections    *ConnectionCache
	channels       *ChannelCache
	connOpts       []connectionOption
}

type clientOption func(options *clientOptions)

// WithQueue returns a clientOption which sets the single queue the client works on.
func WithQueue(name string) clientOption {
	return func(o *clientOptions) {
		o.queueName = name
	}
}

// WithProfile returns a clientOption which selects the configuration key used by Connect.
func WithProfile(profile string) clientOption {
	return func(o *clientOptions) {
		o.profile = profile
	}
}

// WithLogger returns a clientOption which sets the logger.
func WithLogger(l Logger) clientOption {
	return func(o *clientOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics returns a clientOption which sets the metrics recorder.
func WithMetrics(m Metrics) clientOption {
	return func(o *clientOptions) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithTracerProvider returns a clientOption which sets the tracer provider used for client spans.
func WithTracerProvider(tp trace.TracerProvider) clientOption {
	return func(o *clientOptions) {
		if tp != nil {
			o.tracerProvider = tp
		}
	}
}

// WithDialer returns a clientOption which replaces the amqp091 dialer.
func WithDialer(d Dialer) clientOption {
	return func(o *clientOptions) {
		o.dialer = d
	}
}

// WithConnectionCache returns a clientOption which shares a connection cache between clients.
func WithConnectionCache(c *ConnectionCache) clientOption {
	return func(o *clientOptions) {
		o.connections = c
	}
}

// WithChannelCache returns a clientOption which shares a channel cache between clients.
func WithChannelCache(c *ChannelCache) clientOption {
	return func(o *clientOptions) {
		o.channels = c
	}
}

// WithConnectionOptions returns a clientOption which configures the default amqp091 dialer.
func WithConnectionOptions(opts ...connectionOption) clientOption {
	return func(o *clientOptions) {
		o.connOpts = append(o.connOpts, opts...)
	}
}

func defaultClientOptions() clientOptions {
	return clientOptions{
		logger:         NopLogger(),
		metrics:        NoOpMetrics{},
		tracerProvider: otel.GetTracerProvider(),
	}
}
