// Package scanner ties code resolution to the scan log: every successful
// lookup, including the not-found placeholder, is recorded.
package scanner

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/apperr"
	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/logging"
	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/metrics"
	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/models"
	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/scanlog"
	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/sources"
)

// Resolver looks a raw code up across data sources.
type Resolver interface {
	Resolve(ctx context.Context, raw string) (*sources.Resolution, error)
}

// Result is a resolution together with the record it produced.
type Result struct {
	Resolution *sources.Resolution
	Scan       *models.Scan
}

// Service handles scans.
type Service struct {
	resolver Resolver
	log      *scanlog.Log
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// New creates a Service.
func New(resolver Resolver, log *scanlog.Log, m *metrics.Metrics, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{resolver: resolver, log: log, metrics: m, logger: logger.Named("scanner")}
}

// Scan resolves raw and records the outcome. Nothing is recorded when
// resolution fails.
func (s *Service) Scan(ctx context.Context, raw string) (*Result, error) {
	code := strings.TrimSpace(raw)
	if code == "" {
		s.metrics.ObserveScan("", metrics.OutcomeError)
		return nil, &apperr.FormatError{Input: raw, Reason: "empty code"}
	}

	res, err := s.resolver.Resolve(ctx, code)
	if err != nil {
		s.metrics.ObserveScan("", metrics.OutcomeError)
		s.logger.Info("scan failed", logging.Barcode(code), zap.Error(err))
		return nil, err
	}

	scan := toScan(code, res)
	if err := s.log.Record(ctx, scan); err != nil {
		return nil, err
	}

	outcome := metrics.OutcomeResolved
	if !res.Found {
		outcome = metrics.OutcomePlaceholder
	}
	s.metrics.ObserveScan(res.Platform, outcome)
	s.logger.Info("scan recorded",
		logging.Barcode(res.Code),
		logging.Platform(res.Platform),
		logging.Source(res.Source),
		zap.Int64("scan_id", scan.ID))
	return &Result{Resolution: res, Scan: scan}, nil
}

// toScan builds the record of a scan. The record keeps the code as the
// operator scanned it; the canonical form only travels in the response.
func toScan(scanned string, res *sources.Resolution) *models.Scan {
	scan := &models.Scan{
		Barcode:     scanned,
		Platform:    res.Platform,
		ProductID:   optional(res.Product.ID),
		ProductName: optional(res.Product.Name),
		SKU:         optional(res.Product.SKU),
		Price:       res.Product.Price,
		ImageURL:    optional(res.Product.ImageURL),
	}
	if res.Order != nil {
		scan.OrderID = optional(res.Order.ID)
		scan.BuyerName = optional(res.Order.DisplayBuyer())
	}
	return scan
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
