package mappers

import (
	"errors"
	"net/http"
	"time"

	"github.com/architeacher/svc-queue-client/internal/domain"
)

type ErrorResponse struct {
	Error      string         `json:"error"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	StatusCode int            `json:"status_code"`
	Timestamp  time.Time      `json:"timestamp"`
}

// DomainErrorFrom unwraps a DomainError or wraps anything else as an
// internal server error.
func DomainErrorFrom(err error) *domain.DomainError {
	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}

	return domain.NewInternalServerError("Unexpected error", err)
}

func DomainErrorToResponse(err *domain.DomainError, now time.Time) ErrorResponse {
	resp := ErrorResponse{
		Error:      err.Code,
		Message:    err.Message,
		StatusCode: err.StatusCode,
		Timestamp:  now.UTC(),
	}

	if len(err.Details) > 0 {
		resp.Details = err.Details
	}

	return resp
}

func servingToHTTP(serving bool) int {
	if serving {
		return http.StatusOK
	}

	return http.StatusServiceUnavailable
}

func LivenessStatusToHTTP(status domain.LivenessResponseStatus) int {
	return servingToHTTP(status.Serving())
}

func ReadinessStatusToHTTP(status domain.ReadinessResponseStatus) int {
	return servingToHTTP(status.Serving())
}

func HealthStatusToHTTP(status domain.HealthResponseStatus) int {
	return servingToHTTP(status.Serving())
}
