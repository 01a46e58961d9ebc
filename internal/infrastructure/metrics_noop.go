package infrastructure

import (
	"context"
	"net/http"
	"time"

	"github.com/architeacher/svc-queue-client/pkg/queue"
)

type (
	NoOp struct{}

	NoOpMetrics struct {
		queue.NoOpMetrics
	}
)

func (d NoOp) Inc(_ string, _ int) {
}

func (n *NoOpMetrics) RecordHTTPRequest(_ context.Context, _, _ string, _ int, _ time.Duration, _, _ int64) {
}

func (n *NoOpMetrics) RecordUseCase(_ context.Context, _ string, _ int) {
}

func (n *NoOpMetrics) Handler() http.Handler {
	return http.NotFoundHandler()
}

func (n *NoOpMetrics) Shutdown(_ context.Context) error {
	return nil
}
