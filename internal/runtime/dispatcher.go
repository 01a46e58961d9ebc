package runtime

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
)

var errShutdownTimedOut = errors.New("graceful shutdown timed out")

// ServiceCtx owns the lifecycle of the HTTP publisher: dependency wiring,
// serving, config reloads and the ordered teardown.
type ServiceCtx struct {
	deps *Dependencies

	shutdownChannel chan os.Signal
	serverReady     chan struct{}
	depOptions      []DependencyOption
}

func New(opt ...ServiceOption) *ServiceCtx {
	sCtx := &ServiceCtx{
		shutdownChannel: make(chan os.Signal, 1),
	}

	for i := range opt {
		opt[i](sCtx)
	}

	return sCtx
}

// Run blocks until ctx is cancelled, a termination signal arrives on the
// shutdown channel or the listener fails. Cleanup always runs once the
// dependencies are built.
func (c *ServiceCtx) Run(ctx context.Context) error {
	serverCtx, stop := context.WithCancel(ctx)
	defer stop()

	deps, err := initializeDependencies(serverCtx, append([]DependencyOption{WithHTTPServer()}, c.depOptions...)...)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	c.deps = deps

	serveErrors := c.serve()
	c.monitorConfigChanges(serverCtx)

	var runErr error

	select {
	case <-serverCtx.Done():
		c.deps.logger.Info().Msg("received shutdown signal")
	case sig := <-c.shutdownChannel:
		c.deps.logger.Info().Str("signal", fmt.Sprint(sig)).Msg("received shutdown signal")
	case runErr = <-serveErrors:
		c.deps.logger.Error().Err(runErr).Msg("http server stopped unexpectedly")
	}

	stop()

	if err := c.shutdown(); err != nil {
		return errors.Join(runErr, err)
	}

	return runErr
}

func (c *ServiceCtx) serve() <-chan error {
	serveErrors := make(chan error, 1)

	go func() {
		c.deps.logger.Info().
			Str("address", net.JoinHostPort(c.deps.cfg.HTTPServer.Host, strconv.Itoa(c.deps.cfg.HTTPServer.Port))).
			Str("queue", c.deps.cfg.Queue.QueueName).
			Msg("service starting up")

		if c.serverReady != nil {
			c.serverReady <- struct{}{}
		}

		if err := c.deps.Infra.HTTPServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrors <- fmt.Errorf("unable to serve http: %w", err)
		}
	}()

	return serveErrors
}

func (c *ServiceCtx) monitorConfigChanges(ctx context.Context) {
	if c.deps.configLoader == nil {
		return
	}

	reloadErrors := c.deps.configLoader.WatchConfigSignals(ctx)

	go func() {
		for err := range reloadErrors {
			if err != nil {
				c.deps.logger.Error().Err(err).Msg("failed to reload config")

				continue
			}

			c.deps.logger.Info().Msg("config reloaded successfully")
		}
	}()
}

// shutdown runs cleanup under the configured grace period. The period is
// measured from a fresh context since the serving one is already cancelled.
func (c *ServiceCtx) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), c.deps.cfg.HTTPServer.ShutdownTimeout)
	defer cancel()

	done := make(chan struct{})

	go func() {
		defer close(done)

		c.cleanup(shutdownCtx)
	}()

	select {
	case <-done:
		c.deps.logger.Info().Msg("service shutdown completed")

		return nil
	case <-shutdownCtx.Done():
		c.deps.logger.Error().Dur("timeout", c.deps.cfg.HTTPServer.ShutdownTimeout).Msg("graceful shutdown timed out")

		return errShutdownTimedOut
	}
}

// WaitForServer blocks until the listener goroutine has started. It only
// returns when the service was built with WithWaitingForServer.
//
//	srv := runtime.New(runtime.WithWaitingForServer())
//	go srv.Run(ctx)
//
//	srv.WaitForServer()
func (c *ServiceCtx) WaitForServer() {
	if c.serverReady != nil {
		<-c.serverReady
		close(c.serverReady)
	}
}

func (c *ServiceCtx) cleanup(ctx context.Context) {
	logger := c.deps.logger

	// Stop accepting requests before the broker connection goes away.
	if err := c.deps.Infra.HTTPServer.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("unable to gracefully shutdown http server")
	}

	if c.deps.Infra.QueueClient != nil {
		if err := c.deps.Infra.QueueClient.CloseConnection(ctx); err != nil {
			logger.Error().Err(err).Msg("failed to close broker connection")
		}
	}

	if err := c.deps.Infra.Metrics.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown metrics provider")
	}

	if c.deps.tracerShutdownFunc != nil {
		if err := c.deps.tracerShutdownFunc(ctx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown tracer provider")
		}
	}
}
