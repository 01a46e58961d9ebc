package service

import (
	"context"
	"time"

	"github.com/architeacher/svc-queue-client/internal/domain"
	"github.com/architeacher/svc-queue-client/pkg/queue"
	"github.com/stretchr/testify/mock"
)

type (
	MockQueue struct {
		mock.Mock
	}

	MockManagementClient struct {
		mock.Mock
	}

	noDelay struct{}
)

func (noDelay) Backoff(int) time.Duration {
	return 0
}

func (m *MockQueue) Connect(ctx context.Context) (queue.Connection, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(queue.Connection), args.Error(1)
}

func (m *MockQueue) CreateChannel(ctx context.Context) (queue.Channel, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(queue.Channel), args.Error(1)
}

func (m *MockQueue) GetChannel() (queue.Channel, bool) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}

	return args.Get(0).(queue.Channel), args.Bool(1)
}

func (m *MockQueue) CloseConnection(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockQueue) State() queue.State {
	return m.Called().Get(0).(queue.State)
}

func (m *MockQueue) Insert(ctx context.Context, data any) (bool, error) {
	args := m.Called(ctx, data)
	return args.Bool(0), args.Error(1)
}

func (m *MockQueue) InsertWithGroupBy(ctx context.Context, key, data any) (bool, error) {
	args := m.Called(ctx, key, data)
	return args.Bool(0), args.Error(1)
}

func (m *MockQueue) Purge(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockQueue) Destroy(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockQueue) QueueName() string {
	return "jobs"
}

func (m *MockManagementClient) QueueStats(ctx context.Context, name string) (*domain.QueueStats, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.QueueStats), args.Error(1)
}
