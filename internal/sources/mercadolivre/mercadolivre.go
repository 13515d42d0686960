// Package mercadolivre resolves shipment labels to orders, and product
// GTINs to catalog listings, through the Mercado Livre API.
package mercadolivre

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
	ID           = "mercadolivre"
	platformName = "Mercado Livre"

	// DefaultBaseURL is the production API host.
	DefaultBaseURL = "https://api.mercadolibre.com"
)

// Options configures a Source.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Tokens     sources.TokenProvider
	Logger     *zap.Logger
	Metrics    *metrics.Metrics
}

// Source looks shipment codes up in the seller's orders.
type Source struct {
	api    *sources.API
	tokens sources.TokenProvider
	logger *zap.Logger
}

var (
	_ sources.OrderResolver   = (*Source)(nil)
	_ sources.ProductResolver = (*Source)(nil)
)

// New creates a Source.
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
func (s *Source) Platform() string { return barcode.MercadoLivre }

type userResponse struct {
	ID json.Number `json:"id"`
}

type searchResponse struct {
	Results []struct {
		ID json.Number `json:"id"`
	} `json:"results"`
}

type listingSearchResponse struct {
	Results []struct {
		ID        string          `json:"id"`
		Title     string          `json:"title"`
		Price     decimal.Decimal `json:"price"`
		Thumbnail string          `json:"thumbnail"`
		Permalink string          `json:"permalink"`
	} `json:"results"`
}

type orderResponse struct {
	ID          json.Number     `json:"id"`
	DateCreated string          `json:"date_created"`
	Status      string          `json:"status"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Buyer       struct {
		Nickname  string `json:"nickname"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	} `json:"buyer"`
	Shipping struct {
		ID json.Number `json:"id"`
	} `json:"shipping"`
	OrderItems []struct {
		Item struct {
			ID                  string      `json:"id"`
			Title               string      `json:"title"`
			SellerSKU           string      `json:"seller_sku"`
			VariationAttributes []attribute `json:"variation_attributes"`
		} `json:"item"`
		Quantity  int             `json:"quantity"`
		UnitPrice decimal.Decimal `json:"unit_price"`
	} `json:"order_items"`
}

type attribute struct {
	ID        string `json:"id"`
	ValueName string `json:"value_name"`
}

type shipmentResponse struct {
	ID             json.Number `json:"id"`
	Status         string      `json:"status"`
	ShippingOption struct {
		Name                  string `json:"name"`
		EstimatedDeliveryTime struct {
			Date string `json:"date"`
		} `json:"estimated_delivery_time"`
	} `json:"shipping_option"`
	ReceiverAddress struct {
		ReceiverName  string `json:"receiver_name"`
		ReceiverPhone string `json:"receiver_phone"`
		AddressLine   string `json:"address_line"`
		ZipCode       string `json:"zip_code"`
		City          struct {
			Name string `json:"name"`
		} `json:"city"`
		State struct {
			Name string `json:"name"`
		} `json:"state"`
	} `json:"receiver_address"`
}

// ResolveOrder finds the seller order whose shipment label is code.
func (s *Source) ResolveOrder(ctx context.Context, code string) (*sources.Resolution, error) {
	tok, err := s.tokens.Valid(ctx, ID)
	if err != nil {
		return nil, err
	}

	sellerID := ""
	if tok.UserID != nil {
		sellerID = *tok.UserID
	}
	if sellerID == "" {
		var me userResponse
		if err := s.api.GetJSON(ctx, tok.AccessToken, "users_me", "/users/me", nil, &me); err != nil {
			return nil, err
		}
		sellerID = me.ID.String()
	}

	var search searchResponse
	query := url.Values{
		"seller": {sellerID},
		"q":      {barcode.StripProviderCode(code)},
	}
	if err := s.api.GetJSON(ctx, tok.AccessToken, "orders_search", "/orders/search", query, &search); err != nil {
		return nil, err
	}
	if len(search.Results) == 0 {
		return nil, &apperr.NotFoundError{What: "order", Key: code}
	}

	orderID := search.Results[0].ID.String()
	var order orderResponse
	if err := s.api.GetJSON(ctx, tok.AccessToken, "orders", "/orders/"+url.PathEscape(orderID), nil, &order); err != nil {
		return nil, err
	}

	var shipment *shipmentResponse
	if shippingID := order.Shipping.ID.String(); shippingID != "" {
		shipment = &shipmentResponse{}
		if err := s.api.GetJSON(ctx, tok.AccessToken, "shipments", "/shipments/"+url.PathEscape(shippingID), nil, shipment); err != nil {
			return nil, err
		}
	}

	s.logger.Debug("order resolved", logging.Barcode(code), logging.OrderID(orderID))
	return assemble(code, &order, shipment), nil
}

// ResolveProduct finds the first marketplace listing matching the GTIN code.
func (s *Source) ResolveProduct(ctx context.Context, code string) (*sources.Resolution, error) {
	tok, err := s.tokens.Valid(ctx, ID)
	if err != nil {
		return nil, err
	}

	var search listingSearchResponse
	query := url.Values{"q": {code}}
	if err := s.api.GetJSON(ctx, tok.AccessToken, "sites_search", "/sites/MLB/search", query, &search); err != nil {
		return nil, err
	}
	if len(search.Results) == 0 {
		return nil, &apperr.NotFoundError{What: "product", Key: code}
	}

	hit := search.Results[0]
	image := hit.Thumbnail
	if image == "" {
		image = sources.PlaceholderImage
	}
	s.logger.Debug("product resolved", logging.Barcode(code), zap.String("listing_id", hit.ID))
	return &sources.Resolution{
		Code:     code,
		Platform: platformName,
		Source:   ID,
		Found:    true,
		Product: sources.Product{
			ID:       hit.ID,
			Name:     hit.Title,
			SKU:      sources.PlaceholderSKU,
			Price:    hit.Price,
			ImageURL: image,
		},
	}, nil
}

func assemble(code string, o *orderResponse, sh *shipmentResponse) *sources.Resolution {
	order := &sources.Order{
		ID:            o.ID.String(),
		DateCreated:   o.DateCreated,
		Status:        o.Status,
		Total:         o.TotalAmount,
		BuyerNickname: o.Buyer.Nickname,
		BuyerName:     strings.TrimSpace(o.Buyer.FirstName + " " + o.Buyer.LastName),
		Items:         make([]sources.Item, 0, len(o.OrderItems)),
	}
	for _, oi := range o.OrderItems {
		order.Items = append(order.Items, sources.Item{
			ID:        oi.Item.ID,
			Title:     oi.Item.Title,
			SKU:       oi.Item.SellerSKU,
			Quantity:  oi.Quantity,
			UnitPrice: oi.UnitPrice,
			Barcode:   gtin(oi.Item.VariationAttributes),
		})
	}
	if sh != nil {
		addr := sh.ReceiverAddress
		order.Shipping = &sources.Shipment{
			ID:                sh.ID.String(),
			Status:            sh.Status,
			Method:            sh.ShippingOption.Name,
			EstimatedDelivery: sh.ShippingOption.EstimatedDeliveryTime.Date,
			ReceiverName:      addr.ReceiverName,
			Address:           joinNonEmpty(", ", addr.AddressLine, addr.City.Name, addr.State.Name, addr.ZipCode),
			Phone:             addr.ReceiverPhone,
		}
	}

	product := sources.Product{
		ID:       order.ID,
		SKU:      sources.PlaceholderSKU,
		Price:    order.Total,
		ImageURL: sources.PlaceholderImage,
	}
	if len(order.Items) > 0 {
		first := order.Items[0]
		product.ID = first.ID
		product.Name = first.Title
		if first.SKU != "" {
			product.SKU = first.SKU
		}
	}

	return &sources.Resolution{
		Code:     code,
		Platform: platformName,
		Source:   ID,
		Found:    true,
		Product:  product,
		Order:    order,
	}
}

func gtin(attrs []attribute) string {
	for _, a := range attrs {
		if strings.EqualFold(a.ID, "GTIN") || strings.EqualFold(a.ID, "EAN") {
			return a.ValueName
		}
	}
	return ""
}

func joinNonEmpty(sep string, parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
