package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// --------------------------------------------------------------------------
// Request ID
// --------------------------------------------------------------------------

type ctxKey int

const requestIDKey ctxKey = iota

const requestIDHeader = "X-Request-ID"

// requestID returns the id assigned to the request by withRequestID
func requestID(r *http.Request) string {
	id, _ := r.Context().Value(requestIDKey).(string)
	return id
}

// withRequestID keeps the X-Request-ID of the client or assigns a new one
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// --------------------------------------------------------------------------
// Instrumentation (logging, metrics, recovery)
// --------------------------------------------------------------------------

// responseWriter captures the status code of a response
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// instrument wraps the handler of a route. It recovers panics, logs the request
// and records its status and duration under the route pattern.
func (s *Server) instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		defer func() {
			if p := recover(); p != nil {
				writeError(rw, r, fmt.Errorf("panic: %v", p))
			}
			s.metrics.observe(route, rw.statusCode, start)
			Logger.Debugf("%s %s => %d took %s (request %s)", r.Method, r.URL.Path, rw.statusCode, time.Since(start), requestID(r))
		}()

		next.ServeHTTP(rw, r)
	})
}
