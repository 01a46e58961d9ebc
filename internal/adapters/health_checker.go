package adapters

import (
	"context"
	"time"

	"github.com/architeacher/svc-queue-client/internal/domain"
	"github.com/architeacher/svc-queue-client/internal/ports"
	"github.com/architeacher/svc-queue-client/pkg/queue"
)

const defaultCheckTimeout = 2 * time.Second

// HealthChecker reports on the broker connection and, when configured, the
// management API.
type HealthChecker struct {
	queue        queue.Queue
	management   ports.ManagementClient
	checkTimeout time.Duration
	startTime    time.Time
}

// NewHealthChecker builds a checker. management may be nil.
func NewHealthChecker(q queue.Queue, management ports.ManagementClient) *HealthChecker {
	return &HealthChecker{
		queue:        q,
		management:   management,
		checkTimeout: defaultCheckTimeout,
		startTime:    time.Now(),
	}
}

var _ ports.HealthChecker = (*HealthChecker)(nil)

// CheckLiveness never dials. It only reports the cached client state.
func (h *HealthChecker) CheckLiveness(_ context.Context) *domain.LivenessResult {
	state := h.queue.State()

	brokerStatus := domain.DependencyStatus{
		Status:      domain.DependencyCheckStatusHealthy,
		LastChecked: time.Now(),
		Details:     map[string]any{"client_state": state.String()},
	}

	overallStatus := domain.LivenessResponseStatusAlive

	if state == queue.StateConnectionClosed {
		brokerStatus.Status = domain.DependencyCheckStatusDegraded
		brokerStatus.Error = "connection closed"
		overallStatus = domain.LivenessResponseStatusDegraded
	}

	return &domain.LivenessResult{
		OverallStatus: overallStatus,
		Broker:        brokerStatus,
	}
}

func (h *HealthChecker) CheckReadiness(ctx context.Context) *domain.ReadinessResult {
	brokerStatus := h.checkBrokerHealth(ctx)
	managementStatus := h.checkManagementHealth(ctx)

	return &domain.ReadinessResult{
		OverallStatus: domain.ReadinessFrom(brokerStatus.Status, managementStatus.Status),
		Broker:        brokerStatus,
		Management:    managementStatus,
	}
}

func (h *HealthChecker) CheckHealth(ctx context.Context) *domain.HealthResult {
	brokerStatus := h.checkBrokerHealth(ctx)
	managementStatus := h.checkManagementHealth(ctx)

	return &domain.HealthResult{
		OverallStatus: domain.HealthFrom(brokerStatus.Status, managementStatus.Status),
		Broker:        brokerStatus,
		Management:    managementStatus,
		Uptime:        float32(time.Since(h.startTime).Seconds()),
	}
}

// checkBrokerHealth resolves the cached connection, dialing on first use.
func (h *HealthChecker) checkBrokerHealth(ctx context.Context) domain.DependencyStatus {
	ctx, cancel := context.WithTimeout(ctx, h.checkTimeout)
	defer cancel()

	start := time.Now()

	_, err := h.queue.Connect(ctx)

	status := domain.DependencyStatus{
		Status:       domain.DependencyCheckStatusHealthy,
		ResponseTime: float32(time.Since(start).Milliseconds()),
		LastChecked:  time.Now(),
		Details:      map[string]any{"client_state": h.queue.State().String()},
	}

	if err != nil {
		status.Status = domain.DependencyCheckStatusUnhealthy
		status.Error = err.Error()
	}

	return status
}

func (h *HealthChecker) checkManagementHealth(ctx context.Context) domain.DependencyStatus {
	if h.management == nil {
		return domain.DependencyStatus{
			Status:      domain.DependencyCheckStatusHealthy,
			LastChecked: time.Now(),
			Details:     map[string]any{"enabled": false},
		}
	}

	ctx, cancel := context.WithTimeout(ctx, h.checkTimeout)
	defer cancel()

	start := time.Now()

	stats, err := h.management.QueueStats(ctx, h.queue.QueueName())

	status := domain.DependencyStatus{
		Status:       domain.DependencyCheckStatusHealthy,
		ResponseTime: float32(time.Since(start).Milliseconds()),
		LastChecked:  time.Now(),
	}

	switch {
	case err != nil:
		status.Status = domain.DependencyCheckStatusUnhealthy
		status.Error = err.Error()
	case stats.State != "" && stats.State != "running":
		status.Status = domain.DependencyCheckStatusDegraded
		status.Details = map[string]any{"queue_state": stats.State}
	default:
		status.Details = map[string]any{"messages": stats.Messages, "consumers": stats.Consumers}
	}

	return status
}
