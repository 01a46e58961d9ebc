package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

type skipAccessLogKeyType struct{}

var skipAccessLogKey = skipAccessLogKeyType{}

type AccessLogger struct {
	logger             zerolog.Logger
	includeQueryParams bool
}

func NewAccessLogger(logger zerolog.Logger, includeQueryParams bool) *AccessLogger {
	return &AccessLogger{
		logger:             logger.With().Str("component", "http_access").Logger(),
		includeQueryParams: includeQueryParams,
	}
}

func (a *AccessLogger) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if skip, ok := r.Context().Value(skipAccessLogKey).(bool); ok && skip {
			next.ServeHTTP(w, r)

			return
		}

		startTime := time.Now()
		recorder := NewStatusRecorder(w)

		next.ServeHTTP(recorder, r)

		duration := time.Since(startTime)

		logEvent := a.eventFor(recorder.StatusCode()).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_addr", r.RemoteAddr).
			Str("user_agent", r.UserAgent()).
			Str("proto", r.Proto).
			Str("host", r.Host).
			Int("status_code", recorder.StatusCode()).
			Int64("response_size_bytes", recorder.BytesWritten()).
			Dur("duration", duration)

		if a.includeQueryParams && r.URL.RawQuery != "" {
			logEvent.Str("query", r.URL.RawQuery)
		}

		if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil && routeCtx.RoutePattern() != "" {
			logEvent.Str("route", routeCtx.RoutePattern())
		}

		if requestID := chimiddleware.GetReqID(r.Context()); requestID != "" {
			logEvent.Str("request_id", requestID)
		} else if requestID := r.Header.Get(chimiddleware.RequestIDHeader); requestID != "" {
			logEvent.Str("request_id", requestID)
		}

		if spanCtx := trace.SpanContextFromContext(r.Context()); spanCtx.HasTraceID() {
			logEvent.Str("trace_id", spanCtx.TraceID().String())
		}

		if groupBy := r.Header.Get(GroupByHeader); groupBy != "" {
			logEvent.Str("group_by", groupBy)
		}

		logEvent.Msg("HTTP request completed")
	})
}

func (a *AccessLogger) eventFor(statusCode int) *zerolog.Event {
	switch {
	case statusCode >= http.StatusInternalServerError:
		return a.logger.Error()
	case statusCode >= http.StatusBadRequest:
		return a.logger.Warn()
	default:
		return a.logger.Info()
	}
}
