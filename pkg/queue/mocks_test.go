package queue

import (
	"context"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/mock"
)

// Mock implementations for testing

type MockDialer struct {
	mock.Mock
}

func (m *MockDialer) Dial(ctx context.Context, url string, opts DialOptions) (Connection, error) {
	args := m.Called(ctx, url, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(Connection), args.Error(1)
}

// mockTermination records termination subscribers so tests can fire them.
type mockTermination struct {
	subsMutex   sync.Mutex
	nextSubID   int
	subscribers map[int]func()
}

func (m *mockTermination) OnTermination(fn func()) func() {
	m.subsMutex.Lock()
	defer m.subsMutex.Unlock()

	if m.subscribers == nil {
		m.subscribers = make(map[int]func())
	}

	m.nextSubID++
	id := m.nextSubID
	m.subscribers[id] = fn

	return func() {
		m.subsMutex.Lock()
		delete(m.subscribers, id)
		m.subsMutex.Unlock()
	}
}

func (m *mockTermination) Terminate() {
	m.subsMutex.Lock()
	subscribers := m.subscribers
	m.subscribers = nil
	m.subsMutex.Unlock()

	for _, fn := range subscribers {
		fn()
	}
}

func (m *mockTermination) Subscribers() int {
	m.subsMutex.Lock()
	defer m.subsMutex.Unlock()

	return len(m.subscribers)
}

type MockConnection struct {
	mock.Mock
	mockTermination
}

func (m *MockConnection) Channel(ctx context.Context) (Channel, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(Channel), args.Error(1)
}

func (m *MockConnection) Close() error {
	args := m.Called()

	return args.Error(0)
}

type MockChannel struct {
	mock.Mock
	mockTermination
}

func (m *MockChannel) Close() error {
	args := m.Called()

	return args.Error(0)
}

func (m *MockChannel) AssertQueue(ctx context.Context, name string, opts QueueOptions) (QueueInfo, error) {
	args := m.Called(ctx, name, opts)

	return args.Get(0).(QueueInfo), args.Error(1)
}

func (m *MockChannel) SendToQueue(ctx context.Context, name string, body []byte, opts SendOptions) (bool, error) {
	args := m.Called(ctx, name, body, opts)

	return args.Bool(0), args.Error(1)
}

func (m *MockChannel) PurgeQueue(ctx context.Context, name string) (int, error) {
	args := m.Called(ctx, name)

	return args.Int(0), args.Error(1)
}

func (m *MockChannel) DeleteQueue(ctx context.Context, name string) (int, error) {
	args := m.Called(ctx, name)

	return args.Int(0), args.Error(1)
}

type MockamqpChannel struct {
	mock.Mock
}

func (m *MockamqpChannel) Close() error {
	args := m.Called()

	return args.Error(0)
}

func (m *MockamqpChannel) NotifyClose(c chan *amqp.Error) chan *amqp.Error {
	args := m.Called(c)

	return args.Get(0).(chan *amqp.Error)
}

func (m *MockamqpChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	args := m.Called(ctx, exchange, key, mandatory, immediate, msg)

	return args.Error(0)
}

func (m *MockamqpChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	arguments := m.Called(name, durable, autoDelete, exclusive, noWait, args)

	return arguments.Get(0).(amqp.Queue), arguments.Error(1)
}

func (m *MockamqpChannel) QueueDelete(name string, ifUnused, ifEmpty, noWait bool) (int, error) {
	args := m.Called(name, ifUnused, ifEmpty, noWait)

	return args.Int(0), args.Error(1)
}

func (m *MockamqpChannel) QueuePurge(name string, noWait bool) (int, error) {
	args := m.Called(name, noWait)

	return args.Int(0), args.Error(1)
}

type MockMetrics struct {
	mock.Mock
}

func (m *MockMetrics) RecordConnection(ctx context.Context, profile string, success bool) {
	m.Called(ctx, profile, success)
}

func (m *MockMetrics) RecordChannel(ctx context.Context, queue string, success bool) {
	m.Called(ctx, queue, success)
}

func (m *MockMetrics) RecordChannelEviction(ctx context.Context, queue, reason string) {
	m.Called(ctx, queue, reason)
}

func (m *MockMetrics) RecordQueueAssertion(ctx context.Context, queue string, success bool) {
	m.Called(ctx, queue, success)
}

func (m *MockMetrics) RecordPublish(ctx context.Context, queue string, grouped, accepted bool) {
	m.Called(ctx, queue, grouped, accepted)
}

type MockamqpConnection struct {
	mock.Mock
}

func (m *MockamqpConnection) Channel() (*amqp.Channel, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*amqp.Channel), args.Error(1)
}

func (m *MockamqpConnection) NotifyClose(c chan *amqp.Error) chan *amqp.Error {
	args := m.Called(c)

	return args.Get(0).(chan *amqp.Error)
}

func (m *MockamqpConnection) IsClosed() bool {
	args := m.Called()

	return args.Bool(0)
}

func (m *MockamqpConnection) Close() error {
	args := m.Called()

	return args.Error(0)
}
