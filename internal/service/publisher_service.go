package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/architeacher/svc-queue-client/internal/config"
	"github.com/architeacher/svc-queue-client/internal/domain"
	"github.com/architeacher/svc-queue-client/internal/infrastructure"
	"github.com/architeacher/svc-queue-client/internal/ports"
	"github.com/architeacher/svc-queue-client/internal/shared/backoff"
	"github.com/architeacher/svc-queue-client/pkg/queue"
	"github.com/sony/gobreaker"
)

type (
	PublisherService interface {
		Insert(ctx context.Context, msg domain.Message) (*domain.InsertResult, error)
		Purge(ctx context.Context) (*domain.PurgeResult, error)
		Destroy(ctx context.Context) (*domain.DestroyResult, error)
		Status(ctx context.Context) (*domain.QueueStatus, error)
	}

	publisherService struct {
		queue           infrastructure.Queue
		management      ports.ManagementClient
		circuitBreaker  *gobreaker.CircuitBreaker
		backoffStrategy backoff.Strategy
		maxAttempts     int
		logger          infrastructure.Logger
	}
)

func NewPublisherService(
	queue infrastructure.Queue,
	management ports.ManagementClient,
	circuitBreakerConfig config.CircuitBreakerConfig,
	backoffConfig config.BackoffConfig,
	backoffStrategy backoff.Strategy,
	logger infrastructure.Logger,
) PublisherService {
	maxAttempts := backoffConfig.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	return publisherService{
		queue:           queue,
		management:      management,
		circuitBreaker:  newCircuitBreaker(queue.QueueName(), circuitBreakerConfig, logger),
		backoffStrategy: backoffStrategy,
		maxAttempts:     maxAttempts,
		logger:          logger,
	}
}

func newCircuitBreaker(queueName string, cfg config.CircuitBreakerConfig, logger infrastructure.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "rabbitmq-" + queueName,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.MinRequests && failureRatio >= cfg.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			// Misconfiguration is not a broker outage.
			return err == nil || errors.Is(err, queue.ErrConfig)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info().
				Str("name", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})
}

func (s publisherService) Insert(ctx context.Context, msg domain.Message) (*domain.InsertResult, error) {
	if len(msg.Payload) == 0 {
		return nil, domain.NewInvalidRequestError("message payload is required", nil)
	}

	if err := s.ensureChannel(ctx); err != nil {
		return nil, err
	}

	var (
		accepted bool
		err      error
	)

	if msg.GroupBy != nil {
		accepted, err = s.queue.InsertWithGroupBy(ctx, *msg.GroupBy, msg.Payload)
	} else {
		accepted, err = s.queue.Insert(ctx, msg.Payload)
	}

	if err != nil {
		return nil, s.mapQueueError(err)
	}

	s.logger.Debug().
		Str("queue", s.queue.QueueName()).
		Bool("accepted", accepted).
		Bool("grouped", msg.GroupBy != nil).
		Msg("message inserted")

	return &domain.InsertResult{
		Queue:    s.queue.QueueName(),
		Accepted: accepted,
	}, nil
}

func (s publisherService) Purge(ctx context.Context) (*domain.PurgeResult, error) {
	if err := s.ensureChannel(ctx); err != nil {
		return nil, err
	}

	purged, err := s.queue.Purge(ctx)
	if err != nil {
		return nil, s.mapQueueError(err)
	}

	s.logger.Info().
		Str("queue", s.queue.QueueName()).
		Int("purged", purged).
		Msg("queue purged")

	return &domain.PurgeResult{Queue: s.queue.QueueName(), Purged: purged}, nil
}

func (s publisherService) Destroy(ctx context.Context) (*domain.DestroyResult, error) {
	if err := s.ensureChannel(ctx); err != nil {
		return nil, err
	}

	deleted, err := s.queue.Destroy(ctx)
	if err != nil {
		return nil, s.mapQueueError(err)
	}

	s.logger.Info().
		Str("queue", s.queue.QueueName()).
		Int("deleted", deleted).
		Msg("queue destroyed")

	return &domain.DestroyResult{Queue: s.queue.QueueName(), Deleted: deleted}, nil
}

func (s publisherService) Status(ctx context.Context) (*domain.QueueStatus, error) {
	status := &domain.QueueStatus{
		Queue:       s.queue.QueueName(),
		ClientState: s.queue.State().String(),
	}

	if s.management == nil {
		return status, nil
	}

	stats, err := s.management.QueueStats(ctx, s.queue.QueueName())
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("queue", s.queue.QueueName()).
			Msg("failed to fetch queue stats from management API")

		return status, nil
	}

	status.Stats = stats

	return status, nil
}

// ensureChannel connects and opens the channel when none is cached. Broker
// failures are retried with backoff, each attempt going through the breaker.
func (s publisherService) ensureChannel(ctx context.Context) error {
	if _, ok := s.queue.GetChannel(); ok {
		return nil
	}

	var lastErr error

	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		if attempt > 0 {
			if err := backoff.Wait(ctx, s.backoffStrategy, attempt-1); err != nil {
				return domain.NewQueueUnavailableError(s.queue.QueueName(), err)
			}
		}

		_, err := s.circuitBreaker.Execute(func() (any, error) {
			return s.establish(ctx)
		})
		if err == nil {
			return nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			s.logger.Warn().Str("queue", s.queue.QueueName()).Msg("circuit breaker is open")

			return domain.NewCircuitBreakerOpenError(s.queue.QueueName())
		}

		if errors.Is(err, queue.ErrConfig) {
			return domain.NewQueueNotConfiguredError(err)
		}

		lastErr = err

		s.logger.Warn().
			Err(err).
			Str("queue", s.queue.QueueName()).
			Int("attempt", attempt+1).
			Int("max_attempts", s.maxAttempts).
			Msg("failed to establish channel")
	}

	return domain.NewQueueUnavailableError(s.queue.QueueName(), &domain.MaxRetriesExceededError{
		Queue:       s.queue.QueueName(),
		Attempts:    s.maxAttempts,
		MaxAttempts: s.maxAttempts,
		Cause:       lastErr,
	})
}

func (s publisherService) establish(ctx context.Context) (queue.Channel, error) {
	if _, err := s.queue.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	ch, err := s.queue.CreateChannel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	return ch, nil
}

// mapQueueError translates failures of data operations. A ConfigError here
// means the channel went away after ensureChannel returned, so it is reported
// as unavailability like any broker error.
func (s publisherService) mapQueueError(err error) error {
	return domain.NewQueueUnavailableError(s.queue.QueueName(), err)
}
