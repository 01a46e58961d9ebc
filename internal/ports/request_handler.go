package ports

import (
	"net/http"
)

type RequestHandler interface {
	InsertMessage(w http.ResponseWriter, r *http.Request)
	PurgeQueue(w http.ResponseWriter, r *http.Request)
	DestroyQueue(w http.ResponseWriter, r *http.Request)
	GetQueueStatus(w http.ResponseWriter, r *http.Request)
	GetLiveness(w http.ResponseWriter, r *http.Request)
	GetReadiness(w http.ResponseWriter, r *http.Request)
	GetHealth(w http.ResponseWriter, r *http.Request)
}
