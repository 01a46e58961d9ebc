package middleware

import (
	"context"
	"net/http"
)

type HealthCheckFilter struct {
	healthEndpoints map[string]struct{}
	logHealthChecks bool
}

func NewHealthCheckFilter(logHealthChecks bool) *HealthCheckFilter {
	return &HealthCheckFilter{
		healthEndpoints: map[string]struct{}{
			"/v1/health": {},
			"/v1/ready":  {},
			"/v1/live":   {},
			"/metrics":   {},
		},
		logHealthChecks: logHealthChecks,
	}
}

func (h *HealthCheckFilter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.logHealthChecks || r.Method != http.MethodGet {
			next.ServeHTTP(w, r)

			return
		}

		if _, ok := h.healthEndpoints[r.URL.Path]; ok {
			ctx := context.WithValue(r.Context(), skipAccessLogKey, true)
			next.ServeHTTP(w, r.WithContext(ctx))

			return
		}

		next.ServeHTTP(w, r)
	})
}
