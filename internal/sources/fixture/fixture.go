// Package fixture serves known Mercado Livre shipment codes without any
// network access. It sits last in the source chain.
package fixture

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/apperr"
	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/barcode"
	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/sources"
)

const (
	ID           = "fixture"
	platformName = "Mercado Livre"
)

type record struct {
	name     string
	sku      string
	price    string
	buyer    string
	orderID  string
	imageURL string
}

// records is keyed by canonical shipment code.
var records = map[string]record{
	"MLB4045061874601": {
		name:     "Capa de Almofada Impermeável 45x45 Acquablock Original",
		sku:      "KIT-4-CAPAS-ACQUA-01",
		price:    "119.90",
		buyer:    "João da Silva",
		orderID:  "2000006543210987",
		imageURL: "https://http2.mlstatic.com/D_NQ_NP_898278-MLB74139880956_012024-O.webp",
	},
	"MLB4045061714627": {
		name:     "Kit 4 Capas De Almofada Decorativa Veludo Com Zíper 45x45",
		sku:      "VEL-KIT-4-ALMO-02",
		price:    "89.90",
		buyer:    "Maria Oliveira",
		orderID:  "2000006543210988",
		imageURL: "https://http2.mlstatic.com/D_NQ_NP_983224-MLB73113533689_112023-O.webp",
	},
}

// Source resolves the built-in shipment codes.
type Source struct{}

var (
	_ sources.OrderResolver  = Source{}
	_ sources.FallbackSource = Source{}
)

// New returns the fixture source.
func New() Source { return Source{} }

func (Source) ID() string       { return ID }
func (Source) Platform() string { return barcode.MercadoLivre }
func (Source) IsFallback() bool { return true }

// ResolveOrder returns the fixture order for a canonical shipment code.
func (Source) ResolveOrder(_ context.Context, code string) (*sources.Resolution, error) {
	r, ok := records[code]
	if !ok {
		return nil, &apperr.NotFoundError{What: "fixture order", Key: code}
	}
	price := decimal.RequireFromString(r.price)
	return &sources.Resolution{
		Code:     code,
		Platform: platformName,
		Source:   ID,
		Found:    true,
		Product: sources.Product{
			Name:     r.name,
			SKU:      r.sku,
			Price:    price,
			ImageURL: r.imageURL,
		},
		Order: &sources.Order{
			ID:        r.orderID,
			Total:     price,
			BuyerName: r.buyer,
			Shipping:  &sources.Shipment{ID: barcode.Suffix(code), ReceiverName: r.buyer},
			Items: []sources.Item{{
				Title:     r.name,
				SKU:       r.sku,
				Quantity:  1,
				UnitPrice: price,
			}},
		},
	}, nil
}
