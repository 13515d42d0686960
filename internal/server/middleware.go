package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/logging"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// RequestIDHeader carries the request correlation id.
const RequestIDHeader = "X-Request-ID"

// RequestIDFromContext returns the request id set by RequestMiddleware.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDContextKey).(string); ok {
		return id
	}
	return ""
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// RequestMiddleware assigns a request id, logs each request and counts it
// by matched route.
func (s *APIServer) RequestMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		req := r.WithContext(context.WithValue(r.Context(), requestIDContextKey, requestID))
		next.ServeHTTP(rec, req)

		route := req.Pattern
		if route == "" {
			route = "unmatched"
		}
		s.Metrics.ObserveHTTP(r.Method, route, rec.status)
		s.Logger.Info("request",
			logging.RequestID(requestID),
			logging.Method(r.Method),
			logging.Path(r.URL.Path),
			logging.Status(rec.status),
			logging.Latency(time.Since(start)))
	})
}
