package ports

import (
	"context"

	"github.com/architeacher/svc-queue-client/internal/domain"
)

type HealthChecker interface {
	CheckLiveness(ctx context.Context) *domain.LivenessResult
	CheckReadiness(ctx context.Context) *domain.ReadinessResult
	CheckHealth(ctx context.Context) *domain.HealthResult
}
