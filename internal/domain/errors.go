package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrInvalidRequest      = errors.New("invalid request")
	ErrInternalServerError = errors.New("internal server error")
	ErrRateLimitExceeded   = errors.New("rate limit exceeded")
	ErrCircuitBreakerOpen  = errors.New("circuit breaker open")
	ErrQueueUnavailable    = errors.New("queue unavailable")
	ErrQueueNotConfigured  = errors.New("queue not configured")
)

type (
	DomainError struct {
		Code       string
		Message    string
		StatusCode int
		Cause      error
		Details    map[string]any
	}

	// MaxRetriesExceededError reports that channel establishment kept failing
	// after every allowed attempt.
	MaxRetriesExceededError struct {
		Queue       string
		Attempts    int
		MaxAttempts int
		Cause       error
	}
)

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Cause.Error())
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

func NewDomainError(code, message string, statusCode int, cause error) *DomainError {
	return &DomainError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Cause:      cause,
		Details:    make(map[string]any),
	}
}

func (e *DomainError) WithDetails(key string, value any) *DomainError {
	e.Details[key] = value
	return e
}

func NewInvalidRequestError(message string, cause error) *DomainError {
	if cause == nil {
		cause = ErrInvalidRequest
	}

	return NewDomainError(
		"INVALID_REQUEST",
		message,
		http.StatusBadRequest,
		cause,
	)
}

func NewQueueUnavailableError(queue string, cause error) *DomainError {
	return NewDomainError(
		"QUEUE_UNAVAILABLE",
		fmt.Sprintf("Queue %s is unavailable", queue),
		http.StatusServiceUnavailable,
		errors.Join(ErrQueueUnavailable, cause),
	).WithDetails("queue", queue)
}

func NewQueueNotConfiguredError(cause error) *DomainError {
	return NewDomainError(
		"QUEUE_NOT_CONFIGURED",
		"Queue client is not configured",
		http.StatusInternalServerError,
		errors.Join(ErrQueueNotConfigured, cause),
	)
}

func NewCircuitBreakerOpenError(queue string) *DomainError {
	return NewDomainError(
		"CIRCUIT_BREAKER_OPEN",
		"Broker circuit breaker is open, retry later",
		http.StatusServiceUnavailable,
		ErrCircuitBreakerOpen,
	).WithDetails("queue", queue)
}

func NewRateLimitError(message string) *DomainError {
	return NewDomainError(
		"RATE_LIMITING_EXCEEDED",
		message,
		http.StatusTooManyRequests,
		ErrRateLimitExceeded,
	)
}

func NewInternalServerError(message string, cause error) *DomainError {
	return NewDomainError(
		"INTERNAL_SERVER_ERROR",
		message,
		http.StatusInternalServerError,
		cause,
	)
}

func (e *MaxRetriesExceededError) Error() string {
	return fmt.Sprintf("max retries exceeded for queue %s: %d/%d: %v", e.Queue, e.Attempts, e.MaxAttempts, e.Cause)
}

func (e *MaxRetriesExceededError) Unwrap() error {
	return e.Cause
}
