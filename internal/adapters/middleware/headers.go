package middleware

import (
	"net/http"
)

const (
	// GroupByHeader selects grouped insertion on POST /v1/messages.
	GroupByHeader = "X-Group-By"

	apiVersionHeader   = "API-Version"
	queueHeader        = "X-Queue-Name"
	contentTypeOptions = "X-Content-Type-Options"
)

type ServiceHeadersMiddleware struct {
	apiVersion string
	queueName  string
}

func NewServiceHeadersMiddleware(apiVersion, queueName string) ServiceHeadersMiddleware {
	return ServiceHeadersMiddleware{
		apiVersion: apiVersion,
		queueName:  queueName,
	}
}

func (mw ServiceHeadersMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(apiVersionHeader, mw.apiVersion)
		w.Header().Set(queueHeader, mw.queueName)
		w.Header().Set(contentTypeOptions, "nosniff")

		next.ServeHTTP(w, r)
	})
}
