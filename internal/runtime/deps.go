package runtime

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/architeacher/svc-queue-client/internal/adapters"
	"github.com/architeacher/svc-queue-client/internal/adapters/middleware"
	"github.com/architeacher/svc-queue-client/internal/config"
	"github.com/architeacher/svc-queue-client/internal/infrastructure"
	"github.com/architeacher/svc-queue-client/internal/ports"
	"github.com/architeacher/svc-queue-client/internal/usecases"
	"github.com/architeacher/svc-queue-client/pkg/queue"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/hashicorp/vault/api"
)

type (
	Applications struct {
		Publisher *usecases.PublisherApplication
	}

	TracerShutdownFunc func(ctx context.Context) error

	InfrastructureDeps struct {
		HTTPServer          *http.Server
		SecretStorageClient *api.Client
		QueueClient         *queue.Client
		Metrics             infrastructure.Metrics
	}

	Repos struct {
		SecretStorageRepo ports.SecretsRepository
		ManagementClient  ports.ManagementClient
	}

	Dependencies struct {
		Apps Applications

		cfg          *config.ServiceConfig
		configLoader *config.Loader

		logger infrastructure.Logger

		Infra InfrastructureDeps
		Repos Repos

		tracerShutdownFunc TracerShutdownFunc
		secretVersion      uint
	}
)

func initializeDependencies(ctx context.Context, opts ...DependencyOption) (*Dependencies, error) {
	cfg, err := config.Init()
	if err != nil {
		return nil, fmt.Errorf("unable to load service configuration: %w", err)
	}

	appLogger := infrastructure.New(config.LoggingConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	appLogger.Info().Msg("initializing dependencies...")

	deps := &Dependencies{
		cfg:    cfg,
		logger: appLogger,
	}

	for _, opt := range append(defaultOptions(ctx), opts...) {
		if err := opt(deps); err != nil {
			return nil, fmt.Errorf("failed to apply dependency option: %w", err)
		}
	}

	deps.logger.Info().Msg("dependencies initialized successfully")

	return deps, nil
}

func initHTTPServer(
	cfg *config.ServiceConfig,
	logger infrastructure.Logger,
	metrics infrastructure.Metrics,
	reqHandler *adapters.RequestHandler,
) (*http.Server, error) {
	router, err := newRouter(cfg, logger, metrics, reqHandler)
	if err != nil {
		return nil, err
	}

	server := &http.Server{
		Addr:         net.JoinHostPort(cfg.HTTPServer.Host, strconv.Itoa(cfg.HTTPServer.Port)),
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	logger.Info().Str("addr", server.Addr).Msg("HTTP server created")

	return server, nil
}

func newRouter(
	cfg *config.ServiceConfig,
	logger infrastructure.Logger,
	metrics infrastructure.Metrics,
	reqHandler *adapters.RequestHandler,
) (chi.Router, error) {
	middlewares, err := initMiddlewares(cfg, logger, metrics)
	if err != nil {
		return nil, err
	}

	router := chi.NewRouter()
	router.Use(middlewares...)

	if cfg.Telemetry.Metrics.Enabled {
		router.Handle("/metrics", metrics.Handler())
	}

	reqHandler.Routes(router)

	return router, nil
}

// middlewareChain keeps handlers in registration order with a name each, so
// the active chain can be logged once at start up.
type middlewareChain struct {
	names    []string
	handlers []func(http.Handler) http.Handler
}

func (c *middlewareChain) use(name string, handlers ...func(http.Handler) http.Handler) {
	c.names = append(c.names, name)
	c.handlers = append(c.handlers, handlers...)
}

func initMiddlewares(
	cfg *config.ServiceConfig,
	logger infrastructure.Logger,
	metrics infrastructure.Metrics,
) ([]func(http.Handler) http.Handler, error) {
	chain := &middlewareChain{}

	chain.use("request_id", chimiddleware.RequestID)
	chain.use("real_ip", chimiddleware.RealIP)
	chain.use("recoverer", chimiddleware.Recoverer)
	chain.use("timeout", chimiddleware.Timeout(cfg.HTTPServer.WriteTimeout))
	chain.use("service_headers", middleware.NewServiceHeadersMiddleware(cfg.AppConfig.APIVersion, cfg.Queue.QueueName).Middleware)
	chain.use("tracer", middleware.Tracer(cfg.AppConfig.ServiceName))

	if cfg.Telemetry.Metrics.Enabled {
		chain.use("metrics", middleware.NewMetricsMiddleware(metrics).Middleware)
	}

	if accessLog := cfg.Logging.AccessLog; accessLog.Enabled {
		chain.use("access_log",
			middleware.NewHealthCheckFilter(accessLog.LogHealthChecks).Middleware,
			middleware.NewAccessLogger(logger.Logger, accessLog.IncludeQueryParams).Middleware,
		)
	}

	if cfg.ThrottledRateLimiting.Enabled {
		rateLimiter, err := middleware.NewThrottledRateLimitingMiddleware(cfg.ThrottledRateLimiting, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create rate limiting middleware: %w", err)
		}

		chain.use("rate_limit", rateLimiter.Middleware)
	}

	logger.Info().Strs("middlewares", chain.names).Msg("HTTP middleware chain configured")

	return chain.handlers, nil
}
