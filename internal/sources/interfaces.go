// Package sources defines the data sources a scanned code is resolved
// against and the chain that tries them in order.
package sources

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Source is the base interface every data source implements. Platform names
// the barcode format the source understands.
type Source interface {
	ID() string
	Platform() string
}

// OrderResolver finds the marketplace order a shipment code belongs to.
type OrderResolver interface {
	ResolveOrder(ctx context.Context, code string) (*Resolution, error)
}

// ProductResolver finds a catalog product by code.
type ProductResolver interface {
	ResolveProduct(ctx context.Context, code string) (*Resolution, error)
}

// FallbackSource is an optional interface for sources consulted only after
// every live source had its turn.
type FallbackSource interface {
	IsFallback() bool
}

// Capability names reported by ListSources.
const (
	CapabilityOrders   = "orders"
	CapabilityProducts = "products"
)

// SourceInfo contains metadata about a registered source.
type SourceInfo struct {
	ID           string   `json:"id"`
	Platform     string   `json:"platform"`
	Capabilities []string `json:"capabilities"`
	Fallback     bool     `json:"fallback"`
}

// Resolution is the outcome of resolving one code.
type Resolution struct {
	Code     string  `json:"code"`
	Platform string  `json:"platform"`
	Source   string  `json:"source"`
	Found    bool    `json:"found"`
	Product  Product `json:"product"`
	Order    *Order  `json:"order,omitempty"`
}

// Product is the catalog view of a resolution.
type Product struct {
	ID       string          `json:"id,omitempty"`
	Name     string          `json:"name"`
	SKU      string          `json:"sku"`
	Price    decimal.Decimal `json:"price"`
	ImageURL string          `json:"image_url"`
}

// Order is a marketplace order with its shipment.
type Order struct {
	ID            string          `json:"id"`
	DateCreated   string          `json:"date_created,omitempty"`
	Status        string          `json:"status,omitempty"`
	Total         decimal.Decimal `json:"total"`
	BuyerNickname string          `json:"buyer_nickname,omitempty"`
	BuyerName     string          `json:"buyer_name,omitempty"`
	Shipping      *Shipment       `json:"shipping,omitempty"`
	Items         []Item          `json:"items"`
}

// Shipment is the logistics side of an order.
type Shipment struct {
	ID                string `json:"id"`
	Status            string `json:"status,omitempty"`
	Method            string `json:"method,omitempty"`
	EstimatedDelivery string `json:"estimated_delivery,omitempty"`
	ReceiverName      string `json:"receiver_name,omitempty"`
	Address           string `json:"address,omitempty"`
	Phone             string `json:"phone,omitempty"`
}

// Item is one order line.
type Item struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	SKU       string          `json:"sku,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Barcode   string          `json:"barcode,omitempty"`
}

// MarshalJSON renders the order total with two decimal places.
func (o Order) MarshalJSON() ([]byte, error) {
	type plain Order
	return json.Marshal(struct {
		plain
		Total string `json:"total"`
	}{plain(o), o.Total.StringFixed(2)})
}

// MarshalJSON renders the unit price with two decimal places.
func (i Item) MarshalJSON() ([]byte, error) {
	type plain Item
	return json.Marshal(struct {
		plain
		UnitPrice string `json:"unit_price"`
	}{plain(i), i.UnitPrice.StringFixed(2)})
}

// DisplayBuyer returns the best available name of the person receiving
// the order.
func (o *Order) DisplayBuyer() string {
	if o == nil {
		return ""
	}
	if o.BuyerName != "" {
		return o.BuyerName
	}
	if o.Shipping != nil && o.Shipping.ReceiverName != "" {
		return o.Shipping.ReceiverName
	}
	return o.BuyerNickname
}
