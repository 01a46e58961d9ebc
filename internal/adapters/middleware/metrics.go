package middleware

import (
	"net/http"
	"time"

	"github.com/architeacher/svc-queue-client/internal/infrastructure"
	"github.com/go-chi/chi/v5"
)

type MetricsMiddleware struct {
	metrics infrastructure.Metrics
}

func NewMetricsMiddleware(metrics infrastructure.Metrics) *MetricsMiddleware {
	return &MetricsMiddleware{
		metrics: metrics,
	}
}

func (m *MetricsMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()

		recorder := NewStatusRecorder(w)

		next.ServeHTTP(recorder, r)

		m.metrics.RecordHTTPRequest(
			r.Context(),
			r.Method,
			routePath(r),
			recorder.StatusCode(),
			time.Since(startTime),
			r.ContentLength,
			recorder.BytesWritten(),
		)
	})
}

// routePath prefers the matched route pattern to keep label cardinality bounded.
func routePath(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}

	return r.URL.Path
}
