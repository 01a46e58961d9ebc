package ports

import (
	"context"

	"github.com/architeacher/svc-queue-client/internal/domain"
)

// ManagementClient reads broker side queue statistics.
type ManagementClient interface {
	QueueStats(ctx context.Context, queue string) (*domain.QueueStats, error)
}
