package adapters

import (
	"context"

	"github.com/architeacher/svc-queue-client/internal/infrastructure"
	"github.com/architeacher/svc-queue-client/internal/shared/decorator"
)

type MetricsAdapter struct {
	metrics infrastructure.Metrics
}

func NewMetricsAdapter(metrics infrastructure.Metrics) decorator.MetricsClient {
	return &MetricsAdapter{
		metrics: metrics,
	}
}

func (m *MetricsAdapter) Inc(key string, value int) {
	m.metrics.RecordUseCase(context.Background(), key, value)
}
