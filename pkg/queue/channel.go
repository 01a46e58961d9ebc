package queue

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	amqp "github.com/rabbitmq/amqp091-go"
)

// amqpChannel is used mainly to be able to generate mocks for the AMQP behavior.
type amqpChannel interface {
	io.Closer

	NotifyClose(c chan *amqp.Error) chan *amqp.Error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueDelete(name string, ifUnused, ifEmpty, noWait bool) (int, error)
	QueuePurge(name string, noWait bool) (int, error)
}

// ChannelWrapper is a wrapper around amqp091-go.Channel which turns the
// NotifyClose stream into a one-shot termination signal.
type ChannelWrapper struct {
	amqpChan amqpChannel

	logger Logger

	mutex  *sync.Mutex
	closed atomic.Bool

	termination terminationSignal
}

var _ Channel = (*ChannelWrapper)(nil)

func newChannelWrapper(amqpChan amqpChannel, logger Logger) *ChannelWrapper {
	ch := &ChannelWrapper{
		amqpChan: amqpChan,
		logger:   logger,
		mutex:    &sync.Mutex{},
	}

	closes := amqpChan.NotifyClose(make(chan *amqp.Error, 1))
	go ch.watch(closes)

	return ch
}

// watch waits for the channel to close. Closures initiated through Close are
// not reported as terminations.
func (ch *ChannelWrapper) watch(closes <-chan *amqp.Error) {
	amqpErr, ok := <-closes

	if ch.isClosed() {
		return
	}

	event := ch.logger.Info()
	if ok && amqpErr != nil {
		event = ch.logger.Error().Err(amqpErr)
	}
	event.Msg("channel terminated")

	ch.termination.fire()
}

// OnTermination implements Channel.
func (ch *ChannelWrapper) OnTermination(fn func()) func() {
	return ch.termination.subscribe(fn)
}

// Close is a wrapper around amqp091-go.Channel.Close method, which closes a channel.
func (ch *ChannelWrapper) Close() error {
	defer ch.mutex.Unlock()
	ch.mutex.Lock()

	if ch.isClosed() {
		return amqp.ErrClosed
	}

	ch.closed.Store(true)

	return ch.amqpChan.Close()
}

// AssertQueue declares the queue; the broker treats a matching declaration as a no-op.
func (ch *ChannelWrapper) AssertQueue(_ context.Context, name string, opts QueueOptions) (QueueInfo, error) {
	ch.mutex.Lock()
	defer ch.mutex.Unlock()

	q, err := ch.amqpChan.QueueDeclare(name, opts.Durable, false, false, false, nil)
	if err != nil {
		return QueueInfo{}, fmt.Errorf("failed to declare queue %s: %w", name, err)
	}

	return QueueInfo{
		Name:      q.Name,
		Messages:  q.Messages,
		Consumers: q.Consumers,
	}, nil
}

// SendToQueue publishes body through the default exchange, routed by queue name.
// The returned flag reports that the client accepted the publishing for
// transmission, not that the broker stored it.
func (ch *ChannelWrapper) SendToQueue(ctx context.Context, name string, body []byte, opts SendOptions) (bool, error) {
	ch.mutex.Lock()
	defer ch.mutex.Unlock()

	if ch.isClosed() {
		return false, amqp.ErrClosed
	}

	err := ch.amqpChan.PublishWithContext(ctx, "", name, false, false, newPublishing(body, opts.Headers))
	if err != nil {
		return false, fmt.Errorf("failed to publish to queue %s: %w", name, err)
	}

	return true, nil
}

func (ch *ChannelWrapper) PurgeQueue(_ context.Context, name string) (int, error) {
	ch.mutex.Lock()
	defer ch.mutex.Unlock()

	n, err := ch.amqpChan.QueuePurge(name, false)
	if err != nil {
		return 0, fmt.Errorf("failed to purge queue %s: %w", name, err)
	}

	return n, nil
}

func (ch *ChannelWrapper) DeleteQueue(_ context.Context, name string) (int, error) {
	ch.mutex.Lock()
	defer ch.mutex.Unlock()

	n, err := ch.amqpChan.QueueDelete(name, false, false, false)
	if err != nil {
		return 0, fmt.Errorf("failed to delete queue %s: %w", name, err)
	}

	return n, nil
}

func (ch *ChannelWrapper) isClosed() bool {
	return ch.closed.Load()
}
