package middleware

import (
	"net/http"
)

// StatusRecorder captures the status code and body size written through it.
// Optional interfaces of the wrapped writer stay reachable via Unwrap and
// http.ResponseController.
type StatusRecorder struct {
	http.ResponseWriter
	statusCode    int
	bytesWritten  int64
	headerWritten bool
}

func NewStatusRecorder(w http.ResponseWriter) *StatusRecorder {
	if recorder, ok := w.(*StatusRecorder); ok {
		return recorder
	}

	return &StatusRecorder{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

func (s *StatusRecorder) WriteHeader(code int) {
	if s.headerWritten {
		return
	}

	s.statusCode = code
	s.headerWritten = true
	s.ResponseWriter.WriteHeader(code)
}

func (s *StatusRecorder) Write(b []byte) (int, error) {
	s.headerWritten = true

	n, err := s.ResponseWriter.Write(b)
	s.bytesWritten += int64(n)

	return n, err
}

func (s *StatusRecorder) Flush() {
	if flusher, ok := s.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (s *StatusRecorder) StatusCode() int {
	return s.statusCode
}

func (s *StatusRecorder) BytesWritten() int64 {
	return s.bytesWritten
}

func (s *StatusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}
