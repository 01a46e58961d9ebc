package queue

import (
	"context"
	"crypto/tls"
	"fmt"
	"sync/atomic"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	defaultConnectionTimeout = 30 * time.Second
	defaultHeartbeat         = 10 * time.Second
	defaultLocale            = "en_US"
)

type (
	// AMQPDialer dials RabbitMQ through amqp091-go.
	AMQPDialer struct {
		timeout        time.Duration
		heartbeat      time.Duration
		connectionName string
		logger         Logger
	}

	// amqpConnection is the part of *amqp.Connection the wrapper uses.
	amqpConnection interface {
		Channel() (*amqp.Channel, error)
		NotifyClose(receiver chan *amqp.Error) chan *amqp.Error
		IsClosed() bool
		Close() error
	}

	// ConnectionWrapper adapts *amqp.Connection to Connection and reports
	// broker or transport closures as a termination.
	ConnectionWrapper struct {
		amqpConn amqpConnection
		logger   Logger

		closed      atomic.Bool
		termination terminationSignal
	}
)

var (
	_ Dialer     = (*AMQPDialer)(nil)
	_ Connection = (*ConnectionWrapper)(nil)
)

// NewAMQPDialer creates a dialer honoring the connection options.
func NewAMQPDialer(opts ...connectionOption) *AMQPDialer {
	options := defaultConnectionOptions()
	for _, opt := range opts {
		opt(&options)
	}

	return &AMQPDialer{
		timeout:        options.timeout,
		heartbeat:      options.heartbeat,
		connectionName: options.connectionName,
		logger:         options.logger,
	}
}

// Dial opens a connection. The TLS server name is only used for amqps URLs.
func (d *AMQPDialer) Dial(ctx context.Context, url string, opts DialOptions) (Connection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	properties := amqp.NewConnectionProperties()
	if d.connectionName != "" {
		properties.SetClientConnectionName(d.connectionName)
	}

	conn, err := amqp.DialConfig(url, amqp.Config{
		Heartbeat:  d.heartbeat,
		Locale:     defaultLocale,
		Properties: properties,
		Dial:       amqp.DefaultDial(d.timeout),
		TLSClientConfig: &tls.Config{
			ServerName: opts.ServerName,
			MinVersion: tls.VersionTLS12,
		},
	})
	if err != nil {
		return nil, err
	}

	d.logger.Info().Str("host", opts.ServerName).Msg("successfully connected to RabbitMQ")

	return newConnectionWrapper(conn, d.logger), nil
}

func newConnectionWrapper(amqpConn amqpConnection, logger Logger) *ConnectionWrapper {
	conn := &ConnectionWrapper{
		amqpConn: amqpConn,
		logger:   logger,
	}

	closes := amqpConn.NotifyClose(make(chan *amqp.Error, 1))
	go conn.watch(closes)

	return conn
}

// watch fires the termination signal unless the close came through Close.
func (c *ConnectionWrapper) watch(closes <-chan *amqp.Error) {
	amqpErr, ok := <-closes

	if c.closed.Load() {
		return
	}

	event := c.logger.Info()
	if ok && amqpErr != nil {
		event = c.logger.Error().Err(amqpErr)
	}
	event.Msg("connection terminated")

	c.termination.fire()
}

// OnTermination implements Connection.
func (c *ConnectionWrapper) OnTermination(fn func()) func() {
	return c.termination.subscribe(fn)
}

// Channel opens a new AMQP channel on the connection.
func (c *ConnectionWrapper) Channel(ctx context.Context) (Channel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	amqpCh, err := c.amqpConn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	return newChannelWrapper(amqpCh, c.logger), nil
}

// Close closes the connection unless the broker already did.
func (c *ConnectionWrapper) Close() error {
	c.closed.Store(true)

	if c.amqpConn.IsClosed() {
		return nil
	}

	return c.amqpConn.Close()
}
