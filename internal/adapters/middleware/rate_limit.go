package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/architeacher/svc-queue-client/internal/config"
	"github.com/architeacher/svc-queue-client/internal/domain"
	"github.com/architeacher/svc-queue-client/internal/infrastructure"
	"github.com/throttled/throttled/v2"
	"github.com/throttled/throttled/v2/store/memstore"
)

type ThrottledRateLimitingMiddleware struct {
	limiter   *throttled.HTTPRateLimiterCtx
	skipPaths map[string]struct{}
	logger    infrastructure.Logger
}

func NewThrottledRateLimitingMiddleware(cfg config.ThrottledRateLimitingConfig, logger infrastructure.Logger) (*ThrottledRateLimitingMiddleware, error) {
	store, err := memstore.NewCtx(cfg.MaxKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit store: %w", err)
	}

	quota := throttled.RateQuota{
		MaxRate:  throttled.PerSec(cfg.RequestsPerSecond),
		MaxBurst: cfg.BurstSize,
	}

	rateLimiter, err := throttled.NewGCRARateLimiterCtx(store, quota)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limiter: %w", err)
	}

	mw := &ThrottledRateLimitingMiddleware{
		skipPaths: make(map[string]struct{}, len(cfg.SkipPaths)),
		logger:    logger,
	}

	for _, path := range cfg.SkipPaths {
		mw.skipPaths[path] = struct{}{}
	}

	mw.limiter = &throttled.HTTPRateLimiterCtx{
		RateLimiter:   rateLimiter,
		VaryBy:        &throttled.VaryBy{RemoteAddr: cfg.EnableIPLimiting, Path: false},
		DeniedHandler: http.HandlerFunc(mw.denied),
		Error:         mw.failed,
	}

	return mw, nil
}

func (m *ThrottledRateLimitingMiddleware) Middleware(next http.Handler) http.Handler {
	limited := m.limiter.RateLimit(next)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := m.skipPaths[r.URL.Path]; ok {
			next.ServeHTTP(w, r)

			return
		}

		limited.ServeHTTP(w, r)
	})
}

func (m *ThrottledRateLimitingMiddleware) denied(w http.ResponseWriter, r *http.Request) {
	m.logger.Warn().
		Str("remote_addr", r.RemoteAddr).
		Str("path", r.URL.Path).
		Msg("rate limit exceeded")

	domainErr := domain.NewRateLimitError("Too many requests, retry later")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(domainErr.StatusCode)

	_ = json.NewEncoder(w).Encode(map[string]any{
		"error":       domainErr.Code,
		"message":     domainErr.Message,
		"status_code": domainErr.StatusCode,
		"timestamp":   time.Now().UTC(),
	})
}

func (m *ThrottledRateLimitingMiddleware) failed(w http.ResponseWriter, _ *http.Request, err error) {
	m.logger.Error().Err(err).Msg("rate limiter failed")

	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
