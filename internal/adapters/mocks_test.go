package adapters

import (
	"context"

	"github.com/architeacher/svc-queue-client/internal/domain"
	"github.com/architeacher/svc-queue-client/pkg/queue"
	"github.com/stretchr/testify/mock"
)

type (
	mockQueue struct {
		mock.Mock
		queue.Queue
	}

	mockManagementClient struct {
		mock.Mock
	}

	mockPublisherService struct {
		mock.Mock
	}

	mockHealthChecker struct {
		mock.Mock
	}

	countingMetrics struct {
		keys []string
	}
)

func (m *mockQueue) Connect(ctx context.Context) (queue.Connection, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(queue.Connection), args.Error(1)
}

func (m *mockQueue) State() queue.State {
	return m.Called().Get(0).(queue.State)
}

func (m *mockQueue) QueueName() string {
	return "jobs"
}

func (m *mockManagementClient) QueueStats(ctx context.Context, name string) (*domain.QueueStats, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.QueueStats), args.Error(1)
}

func (m *mockPublisherService) Insert(ctx context.Context, msg domain.Message) (*domain.InsertResult, error) {
	args := m.Called(ctx, msg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.InsertResult), args.Error(1)
}

func (m *mockPublisherService) Purge(ctx context.Context) (*domain.PurgeResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.PurgeResult), args.Error(1)
}

func (m *mockPublisherService) Destroy(ctx context.Context) (*domain.DestroyResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.DestroyResult), args.Error(1)
}

func (m *mockPublisherService) Status(ctx context.Context) (*domain.QueueStatus, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.QueueStatus), args.Error(1)
}

func (m *mockHealthChecker) CheckLiveness(ctx context.Context) *domain.LivenessResult {
	return m.Called(ctx).Get(0).(*domain.LivenessResult)
}

func (m *mockHealthChecker) CheckReadiness(ctx context.Context) *domain.ReadinessResult {
	return m.Called(ctx).Get(0).(*domain.ReadinessResult)
}

func (m *mockHealthChecker) CheckHealth(ctx context.Context) *domain.HealthResult {
	return m.Called(ctx).Get(0).(*domain.HealthResult)
}

func (c *countingMetrics) Inc(key string, _ int) {
	c.keys = append(c.keys, key)
}
