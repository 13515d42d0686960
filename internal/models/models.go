// Package models defines the database entity types.
package models

import "github.com/shopspring/decimal"

// OAuthToken represents the stored credential set for one platform.
type OAuthToken struct {
	Platform     string
	AccessToken  string
	RefreshToken *string
	ExpiresAt    *int64 // unix seconds
	UserID       *string
	UpdatedAt    int64
}

// Connected reports whether the token carries a usable access token.
func (t *OAuthToken) Connected() bool {
	return t != nil && t.AccessToken != ""
}

// PlatformConfig represents the OAuth client registration for a platform.
type PlatformConfig struct {
	Platform     string
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Configured   bool
	UpdatedAt    int64
}

// OAuthState represents an issued anti-forgery value awaiting its callback.
type OAuthState struct {
	State     string
	Platform  string
	CreatedAt int64
}

// Scan represents one logged barcode submission.
type Scan struct {
	ID          int64
	Barcode     string
	Platform    string
	ProductID   *string
	ProductName *string
	SKU         *string
	Price       decimal.Decimal
	BuyerName   *string
	OrderID     *string
	ImageURL    *string
	CapturedAt  int64 // unix milliseconds
}

// DayCount is a scan count for one capture date.
type DayCount struct {
	Day   string
	Count int
}

// PlatformCount is a scan count for one platform name.
type PlatformCount struct {
	Platform string
	Count    int
}
