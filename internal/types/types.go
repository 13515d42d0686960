// Package types defines the API request and response types.
package types

import "github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/sources"

// Response status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// BipRequest is the request body for a scan.
type BipRequest struct {
	Barcode string `json:"barcode"`
}

// BipResponse is the response body for a successful scan.
type BipResponse struct {
	Status string    `json:"status"`
	Data   *ScanData `json:"data"`
}

// ScanData describes a resolved scan.
type ScanData struct {
	ScanID      int64          `json:"scan_id"`
	Barcode     string         `json:"barcode"`
	Platform    string         `json:"platform"`
	Source      string         `json:"source,omitempty"`
	Found       bool           `json:"found"`
	ProductID   string         `json:"product_id,omitempty"`
	ProductName string         `json:"product_name"`
	SKU         string         `json:"sku"`
	Price       string         `json:"price"`
	BuyerName   string         `json:"buyer_name,omitempty"`
	OrderID     string         `json:"order_id,omitempty"`
	ImageURL    string         `json:"image_url"`
	CapturedAt  string         `json:"captured_at"`
	Order       *sources.Order `json:"order,omitempty"`
}

// PlatformInfo describes one marketplace on the setup screen.
type PlatformInfo struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Connected    bool   `json:"connected"`
	Configured   bool   `json:"configured"`
	AuthorizeURL string `json:"authorize_url"`
}

// SetupRequest carries the client registration of a platform.
type SetupRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// SetupResponse is returned after a registration is stored.
type SetupResponse struct {
	Success bool   `json:"success"`
	AuthURL string `json:"auth_url"`
}

// ScanRecord is one stored scan.
type ScanRecord struct {
	ID          int64   `json:"id"`
	Barcode     string  `json:"barcode"`
	Platform    string  `json:"platform"`
	ProductID   *string `json:"product_id"`
	ProductName *string `json:"product_name"`
	SKU         *string `json:"sku"`
	Price       string  `json:"price"`
	BuyerName   *string `json:"buyer_name"`
	OrderID     *string `json:"order_id"`
	ImageURL    *string `json:"image_url"`
	CapturedAt  string  `json:"captured_at"`
}

// DayCount is a scan count for one date.
type DayCount struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// PlatformCount is a scan count for one platform.
type PlatformCount struct {
	Platform string `json:"platform"`
	Count    int    `json:"count"`
}

// ReportsResponse is the dashboard summary.
type ReportsResponse struct {
	ByDay      []DayCount      `json:"bipagensPorDia"`
	ByPlatform []PlatformCount `json:"bipagensPorPlataforma"`
	Recent     []ScanRecord    `json:"recentes"`
}

// DailyReportResponse summarizes one day.
type DailyReportResponse struct {
	Date       string         `json:"date"`
	Total      int            `json:"total_geral"`
	ByPlatform map[string]int `json:"por_plataforma"`
	Scans      []ScanRecord   `json:"bipagens"`
}

// PeriodSummary holds the headline numbers of a period.
type PeriodSummary struct {
	Total       int         `json:"total"`
	Average     int         `json:"average"`
	BestDay     BestDay     `json:"bestDay"`
	TopPlatform TopPlatform `json:"topPlatform"`
}

type BestDay struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type TopPlatform struct {
	Name       string `json:"name"`
	Percentage int    `json:"percentage"`
}

// PeriodDay is one day of a period report.
type PeriodDay struct {
	Date      string         `json:"date"`
	Total     int            `json:"total"`
	Platforms map[string]int `json:"platforms"`
}

// PeriodReportResponse summarizes an inclusive date range.
type PeriodReportResponse struct {
	StartDate string         `json:"start_date"`
	EndDate   string         `json:"end_date"`
	Platform  string         `json:"platform,omitempty"`
	Summary   PeriodSummary  `json:"summary"`
	Daily     []PeriodDay    `json:"daily"`
	Platforms map[string]int `json:"platforms"`
	Hourly    []int          `json:"hourly"`
}

// SourcesResponse lists the registered data sources in lookup order.
type SourcesResponse struct {
	Sources []sources.SourceInfo `json:"sources"`
}

// HealthResponse is the body of the health check.
type HealthResponse struct {
	Status string `json:"status"`
}
