package server

import (
	"net/http"
	"strconv"
	"time"
)

// statusWriter captures the final status code for metrics.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

// instrument records request count and duration for one endpoint. It is a
// no-op when metrics are disabled.
func (s *Server) instrument(endpoint string, next http.Handler) http.Handler {
	if s.registry == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w}
		start := time.Now()

		next.ServeHTTP(sw, r)

		status := sw.status
		if status == 0 {
			status = http.StatusOK
		}
		s.registry.ObserveRequest(endpoint, strconv.Itoa(status), time.Since(start))
	})
}
