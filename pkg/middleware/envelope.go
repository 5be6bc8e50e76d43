package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"edgeline/diagd/pkg/generation"
)

// Handler is a diagnostic handler. It writes its own response on success
// and returns a non-nil error to let the envelope produce the failure
// response instead. A handler must not both write and return an error.
type Handler func(w http.ResponseWriter, r *http.Request) error

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.written = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

// Envelope wraps a diagnostic handler with the uniform request envelope:
//
//   - a fresh uppercase-UUID correlation id, set on the context and the
//     X-Request-ID response header
//   - a start log line with id, client address, method, and path
//   - containment of both returned errors and panics, substituted with a
//     fixed generic 500 response (ErrNoGeneration maps to 503: a daemon
//     racing its first sync is an expected condition, not a server fault)
//   - a completion log line with id, elapsed milliseconds, final status,
//     and success/failure classification
//
// Exactly one start line and one completion line are logged per request,
// on every path.
func Envelope(logger *slog.Logger, h Handler) http.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}

	return func(w http.ResponseWriter, r *http.Request) {
		reqid := NewRequestID()
		start := time.Now()

		ctx := context.WithValue(r.Context(), RequestIDKey, reqid)
		ctx = context.WithValue(ctx, StartTimeKey, start)
		r = r.WithContext(ctx)

		w.Header().Set(RequestIDHeader, reqid)
		rw := newResponseWriter(w)

		logger.Info("request start",
			"request_id", reqid,
			"remote_addr", r.RemoteAddr,
			"method", r.Method,
			"path", r.URL.Path,
		)

		// Registered before the recovery defer so it runs after it: the
		// completion line must see the substituted status.
		defer func() {
			elapsed := time.Since(start).Milliseconds()

			outcome := "failure"
			level := slog.LevelError
			if rw.statusCode/100 == 2 {
				outcome = "success"
				level = slog.LevelInfo
			}

			logger.Log(r.Context(), level, "request complete",
				"request_id", reqid,
				"elapsed_ms", elapsed,
				"status", rw.statusCode,
				"outcome", outcome,
			)
		}()

		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("panic in handler",
					"request_id", reqid,
					"method", r.Method,
					"path", r.URL.Path,
					"error", fmt.Sprint(rec),
					"stack", string(debug.Stack()),
				)
				writeFailure(rw, http.StatusInternalServerError, "server error")
			}
		}()

		if err := h(rw, r); err != nil {
			if errors.Is(err, generation.ErrNoGeneration) {
				logger.Error("no configuration generation found",
					"request_id", reqid,
					"path", r.URL.Path,
					"error", err,
				)
				writeFailure(rw, http.StatusServiceUnavailable, "no configuration generation found yet")
				return
			}

			logger.Error("handler failed",
				"request_id", reqid,
				"method", r.Method,
				"path", r.URL.Path,
				"error", err,
			)
			writeFailure(rw, http.StatusInternalServerError, "server error")
		}
	}
}

// writeFailure writes the substituted failure body unless the handler
// already started a response; in that case the status on the wire stands.
func writeFailure(rw *responseWriter, status int, body string) {
	if rw.written {
		return
	}
	rw.Header().Set("Content-Type", "text/plain; charset=utf-8")
	rw.WriteHeader(status)
	fmt.Fprintln(rw, body)
}
