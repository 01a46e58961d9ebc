package adapters

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/architeacher/svc-queue-client/internal/adapters/http/mappers"
	"github.com/architeacher/svc-queue-client/internal/adapters/middleware"
	"github.com/architeacher/svc-queue-client/internal/domain"
	"github.com/architeacher/svc-queue-client/internal/infrastructure"
	"github.com/architeacher/svc-queue-client/internal/ports"
	"github.com/architeacher/svc-queue-client/internal/usecases"
	"github.com/architeacher/svc-queue-client/internal/usecases/commands"
	"github.com/architeacher/svc-queue-client/internal/usecases/queries"
	"github.com/go-chi/chi/v5"
)

type RequestHandler struct {
	app           *usecases.PublisherApplication
	healthChecker ports.HealthChecker
	maxBodyBytes  int64
	logger        infrastructure.Logger
}

var _ ports.RequestHandler = (*RequestHandler)(nil)

func NewRequestHandler(
	app *usecases.PublisherApplication,
	healthChecker ports.HealthChecker,
	maxBodyBytes int64,
	logger infrastructure.Logger,
) *RequestHandler {
	return &RequestHandler{
		app:           app,
		healthChecker: healthChecker,
		maxBodyBytes:  maxBodyBytes,
		logger:        logger,
	}
}

// Routes mounts the handler on r.
func (h *RequestHandler) Routes(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.Post("/messages", h.InsertMessage)
		r.Delete("/messages", h.PurgeQueue)
		r.Get("/queue", h.GetQueueStatus)
		r.Delete("/queue", h.DestroyQueue)
		r.Get("/live", h.GetLiveness)
		r.Get("/ready", h.GetReadiness)
		r.Get("/health", h.GetHealth)
	})
}

// InsertMessage publishes the raw JSON body. The X-Group-By header turns it
// into a grouped insert.
func (h *RequestHandler) InsertMessage(w http.ResponseWriter, r *http.Request) {
	if h.maxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.writeError(w, domain.NewDomainError(
				"PAYLOAD_TOO_LARGE",
				"Message body exceeds the configured limit",
				http.StatusRequestEntityTooLarge,
				err,
			).WithDetails("limit_bytes", maxBytesErr.Limit))

			return
		}

		h.writeError(w, domain.NewInvalidRequestError("Unable to read request body", err))

		return
	}

	if len(body) == 0 {
		h.writeError(w, domain.NewInvalidRequestError("Message body is required", nil))

		return
	}

	if !json.Valid(body) {
		h.writeError(w, domain.NewInvalidRequestError("Message body must be valid JSON", nil))

		return
	}

	msg := domain.Message{Payload: json.RawMessage(body)}

	if groupBy := strings.TrimSpace(r.Header.Get(middleware.GroupByHeader)); groupBy != "" {
		msg.GroupBy = &groupBy
	}

	result, err := h.app.Commands.InsertMessageHandler.Handle(r.Context(), commands.InsertMessageCommand{Message: msg})
	if err != nil {
		h.writeError(w, mappers.DomainErrorFrom(err))

		return
	}

	if !result.Accepted {
		w.Header().Set("Retry-After", "1")
		h.writeJSON(w, http.StatusServiceUnavailable, result)

		return
	}

	h.writeJSON(w, http.StatusAccepted, result)
}

func (h *RequestHandler) PurgeQueue(w http.ResponseWriter, r *http.Request) {
	result, err := h.app.Commands.PurgeQueueHandler.Handle(r.Context(), commands.PurgeQueueCommand{})
	if err != nil {
		h.writeError(w, mappers.DomainErrorFrom(err))

		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

func (h *RequestHandler) DestroyQueue(w http.ResponseWriter, r *http.Request) {
	result, err := h.app.Commands.DestroyQueueHandler.Handle(r.Context(), commands.DestroyQueueCommand{})
	if err != nil {
		h.writeError(w, mappers.DomainErrorFrom(err))

		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

func (h *RequestHandler) GetQueueStatus(w http.ResponseWriter, r *http.Request) {
	result, err := h.app.Queries.FetchQueueStatusQueryHandler.Handle(r.Context(), queries.FetchQueueStatusQuery{})
	if err != nil {
		h.writeError(w, mappers.DomainErrorFrom(err))

		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

func (h *RequestHandler) GetLiveness(w http.ResponseWriter, r *http.Request) {
	result := h.healthChecker.CheckLiveness(r.Context())

	h.writeJSON(w, mappers.LivenessStatusToHTTP(result.OverallStatus), result)
}

func (h *RequestHandler) GetReadiness(w http.ResponseWriter, r *http.Request) {
	result := h.healthChecker.CheckReadiness(r.Context())

	h.writeJSON(w, mappers.ReadinessStatusToHTTP(result.OverallStatus), result)
}

func (h *RequestHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	result := h.healthChecker.CheckHealth(r.Context())

	h.writeJSON(w, mappers.HealthStatusToHTTP(result.OverallStatus), result)
}

func (h *RequestHandler) writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode response")
	}
}

// writeError writes a standardized error response
func (h *RequestHandler) writeError(w http.ResponseWriter, err *domain.DomainError) {
	if err.StatusCode >= http.StatusInternalServerError {
		h.logger.Error().Err(err).Str("code", err.Code).Msg("request failed")
	}

	h.writeJSON(w, err.StatusCode, mappers.DomainErrorToResponse(err, time.Now()))
}
