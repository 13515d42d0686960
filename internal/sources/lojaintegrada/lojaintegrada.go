// Package lojaintegrada resolves SKUs to catalog products through the Loja
// Integrada API.
package lojaintegrada

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/apperr"
	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/barcode"
	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/logging"
	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/metrics"
	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/sources"
)

const (
	ID           = "loja_integrada"
	platformName = "Loja Integrada"

	// DefaultBaseURL is the production API host.
	DefaultBaseURL = "https://api.awsli.com.br"
)

// Options configures a Source. BaseURL defaults to DefaultBaseURL and a nil
// Logger discards output.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Tokens     sources.TokenProvider
	Logger     *zap.Logger
	Metrics    *metrics.Metrics
}

// Source looks SKUs up in the store catalog.
type Source struct {
	api    *sources.API
	tokens sources.TokenProvider
	logger *zap.Logger
}

var _ sources.ProductResolver = (*Source)(nil)

// New creates a Source that authenticates with tokens from opts.Tokens.
func New(opts Options) *Source {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Source{
		api: &sources.API{
			Platform:   ID,
			BaseURL:    strings.TrimRight(opts.BaseURL, "/"),
			HTTPClient: opts.HTTPClient,
			Metrics:    opts.Metrics,
		},
		tokens: opts.Tokens,
		logger: opts.Logger.Named(ID),
	}
}

func (s *Source) ID() string       { return ID }
func (s *Source) Platform() string { return barcode.LojaIntegrada }

type productList struct {
	Objects []struct {
		ID     json.Number     `json:"id"`
		Nome   string          `json:"nome"`
		SKU    string          `json:"sku"`
		Preco  decimal.Decimal `json:"preco"`
		Imagem string          `json:"imagem"`
	} `json:"objects"`
}

// ResolveProduct returns the first catalog product with the given SKU.
func (s *Source) ResolveProduct(ctx context.Context, sku string) (*sources.Resolution, error) {
	tok, err := s.tokens.Valid(ctx, ID)
	if err != nil {
		return nil, err
	}

	var list productList
	if err := s.api.GetJSON(ctx, tok.AccessToken, "produto", "/v1/produto", url.Values{"sku": {sku}}, &list); err != nil {
		return nil, err
	}
	if len(list.Objects) == 0 {
		return nil, &apperr.NotFoundError{What: "product", Key: sku}
	}

	p := list.Objects[0]
	s.logger.Debug("product resolved", logging.Barcode(sku))

	image := p.Imagem
	if image == "" {
		image = sources.PlaceholderImage
	}
	productSKU := p.SKU
	if productSKU == "" {
		productSKU = sku
	}
	return &sources.Resolution{
		Code:     sku,
		Platform: platformName,
		Source:   ID,
		Found:    true,
		Product: sources.Product{
			ID:       p.ID.String(),
			Name:     p.Nome,
			SKU:      productSKU,
			Price:    p.Preco,
			ImageURL: image,
		},
	}, nil
}
