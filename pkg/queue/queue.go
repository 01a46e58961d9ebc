package queue

import (
	"context"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/architeacher/svc-queue-client/pkg/queue"

// Queue represents the client operations on a single queue.
type Queue interface {
	// Lifecycle operations
	Connect(ctx context.Context) (Connection, error)
	CreateChannel(ctx context.Context) (Channel, error)
	GetChannel() (Channel, bool)
	CloseConnection(ctx context.Context) error
	State() State

	// Data operations
	Insert(ctx context.Context, data any) (bool, error)
	InsertWithGroupBy(ctx context.Context, key, data any) (bool, error)
	Purge(ctx context.Context) (int, error)
	Destroy(ctx context.Context) (int, error)

	QueueName() string
}

// Client implements the Queue interface using RabbitMQ.
type Client struct {
	queueName string
	profile   string

	connections *ConnectionCache
	channels    *ChannelCache

	logger  Logger
	metrics Metrics
	tracer  trace.Tracer

	stateMutex       sync.Mutex
	closed           bool
	channelRequested bool
	destroyedOn      Channel
}

var _ Queue = (*Client)(nil)

// NewClient creates a client for cfg. Nothing is dialed until Connect.
func NewClient(cfg Config, opts ...clientOption) *Client {
	options := defaultClientOptions()
	for _, opt := range opts {
		opt(&options)
	}

	if options.profile == "" {
		options.profile = cfg.defaultProfile()
	}

	if options.connections == nil {
		dialer := options.dialer
		if dialer == nil {
			connOpts := append([]connectionOption{WithConnectionLogger(options.logger)}, options.connOpts...)
			dialer = NewAMQPDialer(connOpts...)
		}

		options.connections = NewConnectionCache(cfg, dialer, options.logger, options.metrics)
	}

	if options.channels == nil {
		options.channels = NewChannelCache(options.logger, options.metrics)
	}

	return &Client{
		queueName:   options.queueName,
		profile:     options.profile,
		connections: options.connections,
		channels:    options.channels,
		logger:      options.logger,
		metrics:     options.metrics,
		tracer:      options.tracerProvider.Tracer(tracerName),
	}
}

// QueueName returns the configured queue, empty when none was given.
func (c *Client) QueueName() string {
	return c.queueName
}

func (c *Client) channelKey() ChannelKey {
	return ChannelKey{Profile: c.profile, Queue: c.queueName}
}

// Connect returns the shared connection of the client's profile, dialing it on first use.
func (c *Client) Connect(ctx context.Context) (Connection, error) {
	ctx, span := c.startSpan(ctx, "queue.Connect")
	defer span.End()

	c.stateMutex.Lock()
	c.closed = false
	c.stateMutex.Unlock()

	conn, err := c.connections.Get(ctx, c.profile)
	if err != nil {
		return nil, c.fail(span, err)
	}

	c.logState("connect")

	return conn, nil
}

// CreateChannel returns the channel of the client's queue, creating it and
// asserting the queue when needed. Connect must have been called first.
func (c *Client) CreateChannel(ctx context.Context) (Channel, error) {
	ctx, span := c.startSpan(ctx, "queue.CreateChannel")
	defer span.End()

	entry, ok := c.connections.lookup(c.profile)
	if !ok {
		return nil, c.fail(span, &ConfigError{Message: msgNoConnection})
	}

	if c.queueName == "" {
		return nil, c.fail(span, &ConfigError{Message: msgNoQueue})
	}

	conn, err := entry.await(ctx)
	if err != nil {
		return nil, c.fail(span, err)
	}

	c.stateMutex.Lock()
	c.channelRequested = true
	c.stateMutex.Unlock()

	ch, err := c.channels.Get(ctx, conn, c.channelKey())
	if err != nil {
		return nil, c.fail(span, err)
	}

	c.logState("create_channel")

	return ch, nil
}

// GetChannel returns the cached channel without creating one.
func (c *Client) GetChannel() (Channel, bool) {
	if c.queueName == "" {
		return nil, false
	}

	return c.channels.Peek(c.channelKey())
}

// Insert publishes data, encoded as JSON, to the queue without headers.
func (c *Client) Insert(ctx context.Context, data any) (bool, error) {
	ctx, span := c.startSpan(ctx, "queue.Insert", trace.WithSpanKind(trace.SpanKindProducer))
	defer span.End()

	return c.send(ctx, span, data, nil)
}

// InsertWithGroupBy publishes data with a groupBy header set to key so that
// consumers can partition by it. The key is passed through unvalidated.
func (c *Client) InsertWithGroupBy(ctx context.Context, key, data any) (bool, error) {
	ctx, span := c.startSpan(ctx, "queue.InsertWithGroupBy", trace.WithSpanKind(trace.SpanKindProducer))
	defer span.End()

	return c.send(ctx, span, data, groupByHeaders(key))
}

// Purge removes every buffered message and keeps the queue.
func (c *Client) Purge(ctx context.Context) (int, error) {
	ctx, span := c.startSpan(ctx, "queue.Purge")
	defer span.End()

	ch, err := c.channel()
	if err != nil {
		return 0, c.fail(span, err)
	}

	n, err := ch.PurgeQueue(ctx, c.queueName)
	if err != nil {
		return 0, c.fail(span, err)
	}

	span.SetAttributes(attribute.Int("messaging.rabbitmq.purged_count", n))
	c.logger.Info().Str("queue", c.queueName).Msg("queue purged")

	return n, nil
}

// Destroy deletes the queue from the broker. The connection and channel
// caches are left untouched; call CloseConnection for a full teardown.
func (c *Client) Destroy(ctx context.Context) (int, error) {
	ctx, span := c.startSpan(ctx, "queue.Destroy")
	defer span.End()

	ch, err := c.channel()
	if err != nil {
		return 0, c.fail(span, err)
	}

	n, err := ch.DeleteQueue(ctx, c.queueName)
	if err != nil {
		return 0, c.fail(span, err)
	}

	c.stateMutex.Lock()
	c.destroyedOn = ch
	c.stateMutex.Unlock()

	c.logger.Info().Str("queue", c.queueName).Msg("queue deleted")
	c.logState("destroy")

	return n, nil
}

// CloseConnection closes the cached connection, if any, and drops the channel
// derived from it.
func (c *Client) CloseConnection(ctx context.Context) error {
	ctx, span := c.startSpan(ctx, "queue.CloseConnection")
	defer span.End()

	_, cached := c.connections.lookup(c.profile)

	if c.queueName != "" {
		c.channels.Evict(c.channelKey())
	}

	if err := c.connections.Close(ctx, c.profile); err != nil {
		return c.fail(span, err)
	}

	c.stateMutex.Lock()
	c.closed = c.closed || cached
	c.channelRequested = false
	c.destroyedOn = nil
	c.stateMutex.Unlock()

	c.logState("close_connection")

	return nil
}

// State derives the lifecycle state from the caches and the client flags.
func (c *Client) State() State {
	c.stateMutex.Lock()
	closed, requested, destroyedOn := c.closed, c.channelRequested, c.destroyedOn
	c.stateMutex.Unlock()

	if closed {
		return StateConnectionClosed
	}

	entry, ok := c.connections.lookup(c.profile)
	if !ok {
		return StateUnconnected
	}

	if _, ok := entry.peek(); !ok {
		return StateConnectionPending
	}

	if c.queueName == "" {
		return StateConnected
	}

	if ch, ok := c.channels.Peek(c.channelKey()); ok && destroyedOn != nil && ch == destroyedOn {
		return StateQueueDestroyed
	}

	if c.channels.Ready(c.channelKey()) {
		return StateChannelReady
	}

	if _, pending := c.channels.lookup(c.channelKey()); pending || requested {
		return StateChannelPending
	}

	return StateConnected
}

func (c *Client) send(ctx context.Context, span trace.Span, data any, headers amqp.Table) (bool, error) {
	ch, err := c.channel()
	if err != nil {
		return false, c.fail(span, err)
	}

	body, err := encodePayload(data)
	if err != nil {
		return false, c.fail(span, err)
	}

	span.SetAttributes(attribute.Int("messaging.message.body.size", len(body)))

	accepted, err := ch.SendToQueue(ctx, c.queueName, body, SendOptions{Headers: headers})
	c.metrics.RecordPublish(ctx, c.queueName, headers != nil, accepted && err == nil)

	if err != nil {
		return false, c.fail(span, err)
	}

	return accepted, nil
}

func (c *Client) channel() (Channel, error) {
	ch, ok := c.GetChannel()
	if !ok {
		return nil, &ConfigError{Message: msgNoChannel}
	}

	return ch, nil
}

func (c *Client) startSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	opts = append(opts, trace.WithAttributes(
		attribute.String("messaging.system", "rabbitmq"),
		attribute.String("messaging.destination.name", c.queueName),
		attribute.String("messaging.rabbitmq.profile", c.profile),
	))

	return c.tracer.Start(ctx, name, opts...)
}

func (c *Client) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	return err
}

func (c *Client) logState(op string) {
	c.logger.Debug().
		Str("queue", c.queueName).
		Str("operation", op).
		Str("state", c.State().String()).
		Msg("client state changed")
}
