// Package server implements the HTTP API and its lifecycle.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/apperr"
	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/auth"
	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/logging"
	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/metrics"
	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/models"
	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/oauth"
	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/scanlog"
	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/scanner"
	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/sources"
	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/types"
)

const maxBodyBytes = 1 << 16

// Pinger reports whether storage is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// SourceLister lists the registered data sources.
type SourceLister interface {
	ListSources() []sources.SourceInfo
}

// APIServer serves the OAuth, scan and report endpoints.
type APIServer struct {
	Flow    *oauth.Flow
	Scanner *scanner.Service
	Log     *scanlog.Log
	Sources SourceLister
	DB      Pinger
	Metrics *metrics.Metrics
	Logger  *zap.Logger

	// CallbackURL builds the redirect URI registered for a platform.
	CallbackURL func(platform string) string
	// SuccessRedirect is where the operator lands after connecting.
	SuccessRedirect string
	// AdminKey guards credential setup when non-nil.
	AdminKey *auth.Key
}

// Handler returns the HTTP handler for the API server.
func (s *APIServer) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /oauth/platforms", s.handlePlatforms)
	mux.HandleFunc("GET /oauth/authorize/{platform}", s.handleAuthorize)
	mux.HandleFunc("GET /oauth/callback/{platform}", s.handleCallback)
	mux.Handle("POST /api/oauth/setup/{platform}", s.AdminMiddleware(http.HandlerFunc(s.handleSetup)))
	mux.HandleFunc("GET /api/platform-status", s.handlePlatformStatus)

	mux.HandleFunc("POST /api/bip", s.handleBip)
	mux.HandleFunc("POST /api/barcode", s.handleBip)
	mux.HandleFunc("GET /api/sources", s.handleSources)

	mux.HandleFunc("GET /api/reports", s.handleReports)
	mux.HandleFunc("GET /api/reports/daily", s.handleDailyReport)
	mux.HandleFunc("GET /api/reports/period", s.handlePeriodReport)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", s.Metrics.Handler())

	return s.RequestMiddleware(mux)
}

// AdminMiddleware requires the admin key as a bearer token when one is
// configured.
func (s *APIServer) AdminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey == nil {
			next.ServeHTTP(w, r)
			return
		}
		header := r.Header.Get("Authorization")
		const prefix = "Bearer "
		if len(header) <= len(prefix) || header[:len(prefix)] != prefix || !s.AdminKey.Verify(header[len(prefix):]) {
			writeJSON(w, http.StatusUnauthorized, types.ErrorResponse{Status: types.StatusError, Message: "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *APIServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.DB.PingContext(ctx); err != nil {
			s.Logger.Error("health check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, types.HealthResponse{Status: "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, types.HealthResponse{Status: "ok"})
}

func (s *APIServer) handleSources(w http.ResponseWriter, r *http.Request) {
	resp := types.SourcesResponse{Sources: []sources.SourceInfo{}}
	if s.Sources != nil {
		resp.Sources = s.Sources.ListSources()
	}
	writeJSON(w, http.StatusOK, resp)
}

// writeError maps err onto a status code. Internal errors are logged and
// reported without detail.
func (s *APIServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.Logger.Error("request failed",
			logging.Path(r.URL.Path),
			logging.RequestID(RequestIDFromContext(r.Context())),
			zap.Error(err))
		msg = "internal error"
	}
	writeJSON(w, status, types.ErrorResponse{Status: types.StatusError, Message: msg})
}

// decodeJSON reads a single JSON object of at most maxBodyBytes. It writes
// the error response itself and reports whether decoding succeeded.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeJSON(w, http.StatusRequestEntityTooLarge, types.ErrorResponse{Status: types.StatusError, Message: "request body too large"})
			return false
		}
		writeJSON(w, http.StatusBadRequest, types.ErrorResponse{Status: types.StatusError, Message: "invalid JSON"})
		return false
	}
	if dec.Decode(&struct{}{}) != io.EOF {
		writeJSON(w, http.StatusBadRequest, types.ErrorResponse{Status: types.StatusError, Message: "unexpected trailing data"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(data); err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func scanRecord(s models.Scan) types.ScanRecord {
	return types.ScanRecord{
		ID:          s.ID,
		Barcode:     s.Barcode,
		Platform:    s.Platform,
		ProductID:   s.ProductID,
		ProductName: s.ProductName,
		SKU:         s.SKU,
		Price:       s.Price.StringFixed(2),
		BuyerName:   s.BuyerName,
		OrderID:     s.OrderID,
		ImageURL:    s.ImageURL,
		CapturedAt:  formatMillis(s.CapturedAt),
	}
}

func scanRecords(scans []models.Scan) []types.ScanRecord {
	out := make([]types.ScanRecord, 0, len(scans))
	for _, s := range scans {
		out = append(out, scanRecord(s))
	}
	return out
}

func formatMillis(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}
