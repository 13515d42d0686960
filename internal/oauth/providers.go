// Package oauth implements the authorization code flow and token refresh for
// every supported marketplace. Providers are plain data; one flow serves all.
package oauth

import (
	"sort"

	"golang.org/x/oauth2"

	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/models"
)

// Provider describes the OAuth endpoints and API of a marketplace.
type Provider struct {
	ID           string
	Name         string
	AuthURL      string
	TokenURL     string
	APIBaseURL   string
	UserInfoPath string
	Scopes       []string
}

// Config builds the oauth2 client configuration for a registration.
// Client credentials are always sent in the form body.
func (p Provider) Config(pc *models.PlatformConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     pc.ClientID,
		ClientSecret: pc.ClientSecret,
		RedirectURL:  pc.RedirectURI,
		Scopes:       p.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   p.AuthURL,
			TokenURL:  p.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// MercadoLivre returns the production Mercado Livre provider.
func MercadoLivre() Provider {
	return Provider{
		ID:           "mercadolivre",
		Name:         "Mercado Livre",
		AuthURL:      "https://auth.mercadolivre.com.br/authorization",
		TokenURL:     "https://api.mercadolibre.com/oauth/token",
		APIBaseURL:   "https://api.mercadolibre.com",
		UserInfoPath: "/users/me",
	}
}

// LojaIntegrada returns the production Loja Integrada provider.
func LojaIntegrada() Provider {
	return Provider{
		ID:         "loja_integrada",
		Name:       "Loja Integrada",
		AuthURL:    "https://api.awsli.com.br/v1/oauth/authorize",
		TokenURL:   "https://api.awsli.com.br/v1/oauth/token",
		APIBaseURL: "https://api.awsli.com.br",
		Scopes:     []string{"read_products", "read_orders"},
	}
}

// Registry is an immutable set of providers keyed by ID.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry creates a registry. Later providers replace earlier ones with
// the same ID.
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		r.providers[p.ID] = p
	}
	return r
}

// DefaultRegistry holds every production provider.
func DefaultRegistry() *Registry {
	return NewRegistry(MercadoLivre(), LojaIntegrada())
}

// Lookup returns the provider for id.
func (r *Registry) Lookup(id string) (Provider, bool) {
	p, ok := r.providers[id]
	return p, ok
}

// All returns the providers sorted by ID.
func (r *Registry) All() []Provider {
	out := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
