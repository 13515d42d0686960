package sources

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/apperr"
	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/barcode"
	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/logging"
)

// Placeholder values returned when no source knows a code.
const (
	PlaceholderPlatform = "Desconhecida"
	PlaceholderSKU      = "N/A"
	PlaceholderImage    = "/static/images/placeholder.png"
)

type entry struct {
	source   Source
	orders   OrderResolver
	products ProductResolver
	fallback bool
}

// Chain tries registered sources in order: live sources in registration
// order, then fallback sources.
type Chain struct {
	entries []entry
	logger  *zap.Logger
}

// NewChain creates an empty Chain.
func NewChain(logger *zap.Logger) *Chain {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chain{logger: logger.Named("sources")}
}

// Register detects which capability interfaces a source implements and adds
// it to the chain. Sources with neither capability are ignored.
func (c *Chain) Register(src Source) {
	e := entry{source: src}
	if r, ok := src.(OrderResolver); ok {
		e.orders = r
	}
	if r, ok := src.(ProductResolver); ok {
		e.products = r
	}
	if e.orders == nil && e.products == nil {
		c.logger.Warn("source has no resolver capability", logging.Source(src.ID()))
		return
	}
	if fb, ok := src.(FallbackSource); ok && fb.IsFallback() {
		e.fallback = true
	}
	c.entries = append(c.entries, e)
}

// ListSources returns metadata about all registered sources in lookup order.
func (c *Chain) ListSources() []SourceInfo {
	infos := make([]SourceInfo, 0, len(c.entries))
	for _, e := range c.ordered() {
		info := SourceInfo{
			ID:           e.source.ID(),
			Platform:     e.source.Platform(),
			Capabilities: make([]string, 0, 2),
			Fallback:     e.fallback,
		}
		if e.orders != nil {
			info.Capabilities = append(info.Capabilities, CapabilityOrders)
		}
		if e.products != nil {
			info.Capabilities = append(info.Capabilities, CapabilityProducts)
		}
		infos = append(infos, info)
	}
	return infos
}

func (c *Chain) ordered() []entry {
	out := make([]entry, 0, len(c.entries))
	for _, e := range c.entries {
		if !e.fallback {
			out = append(out, e)
		}
	}
	for _, e := range c.entries {
		if e.fallback {
			out = append(out, e)
		}
	}
	return out
}

// Resolve looks a raw scanned code up across the chain. Order lookups
// receive the platform's shipment form of the code and product lookups its
// catalog form.
//
// Sources that reject the code's format, have no valid token, or find
// nothing are skipped. Any other source error aborts the lookup. When at
// least one source accepted the format and none found it, the placeholder
// resolution is returned. When no source accepted the format, a
// FormatError is returned.
func (c *Chain) Resolve(ctx context.Context, raw string) (*Resolution, error) {
	input := strings.TrimSpace(raw)
	if input == "" {
		return nil, &apperr.FormatError{Input: raw, Reason: "empty code"}
	}

	accepted := false
	for _, e := range c.ordered() {
		id := e.source.ID()
		platform := e.source.Platform()

		if e.orders != nil {
			code, err := barcode.Normalize(input, platform)
			switch {
			case err == nil:
				accepted = true
				res, err := e.orders.ResolveOrder(ctx, code)
				if done, err := c.outcome(id, code, res, err); done {
					return res, err
				}
			case !apperr.IsFormat(err):
				return nil, err
			}
		}
		if e.products != nil {
			code, err := barcode.NormalizeProduct(input, platform)
			switch {
			case err == nil:
				accepted = true
				res, err := e.products.ResolveProduct(ctx, code)
				if done, err := c.outcome(id, code, res, err); done {
					return res, err
				}
			case !apperr.IsFormat(err):
				return nil, err
			}
		}
	}

	if !accepted {
		return nil, &apperr.FormatError{Input: input, Reason: "code matches no supported format"}
	}
	c.logger.Info("code not found in any source", logging.Barcode(input))
	return Placeholder(input), nil
}

// outcome reports whether a resolver call ends the lookup.
func (c *Chain) outcome(sourceID, code string, res *Resolution, err error) (bool, error) {
	switch {
	case err == nil && res != nil:
		if res.Source == "" {
			res.Source = sourceID
		}
		res.Found = true
		return true, nil
	case err == nil, apperr.IsNotFound(err):
		c.logger.Debug("source miss", logging.Source(sourceID), logging.Barcode(code))
		return false, nil
	case apperr.IsAuthentication(err):
		c.logger.Debug("source not connected", logging.Source(sourceID))
		return false, nil
	case errors.Is(err, context.Canceled):
		return true, err
	default:
		c.logger.Warn("source error", logging.Source(sourceID), logging.Barcode(code), zap.Error(err))
		return true, err
	}
}

// Placeholder is the resolution reported for a code no source knows.
func Placeholder(code string) *Resolution {
	return &Resolution{
		Code:     code,
		Platform: PlaceholderPlatform,
		Found:    false,
		Product: Product{
			Name:     "Produto não encontrado (" + code + ")",
			SKU:      PlaceholderSKU,
			Price:    decimal.Zero,
			ImageURL: PlaceholderImage,
		},
	}
}
