package sources_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/apperr"
	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/barcode"
	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/sources"
	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/sources/fixture"
)

type stubOrders struct {
	id    string
	err   error
	found map[string]string
	calls []string
}

func (s *stubOrders) ID() string       { return s.id }
func (s *stubOrders) Platform() string { return barcode.MercadoLivre }

func (s *stubOrders) ResolveOrder(_ context.Context, code string) (*sources.Resolution, error) {
	s.calls = append(s.calls, code)
	if s.err != nil {
		return nil, s.err
	}
	name, ok := s.found[code]
	if !ok {
		return nil, &apperr.NotFoundError{What: "order", Key: code}
	}
	return &sources.Resolution{Code: code, Platform: "Mercado Livre", Product: sources.Product{Name: name, Price: decimal.RequireFromString("10.00")}}, nil
}

type stubProducts struct {
	err   error
	calls []string
}

func (s *stubProducts) ID() string       { return "loja_integrada" }
func (s *stubProducts) Platform() string { return barcode.LojaIntegrada }

func (s *stubProducts) ResolveProduct(_ context.Context, code string) (*sources.Resolution, error) {
	s.calls = append(s.calls, code)
	if s.err != nil {
		return nil, s.err
	}
	return nil, &apperr.NotFoundError{What: "product", Key: code}
}

type inert struct{}

func (inert) ID() string       { return "inert" }
func (inert) Platform() string { return barcode.MercadoLivre }

func disconnected(platform string) error {
	return &apperr.AuthenticationError{Platform: platform}
}

func TestResolveFallsBackToFixture(t *testing.T) {
	ml := &stubOrders{id: "mercadolivre", err: disconnected("mercadolivre")}
	li := &stubProducts{err: disconnected("loja_integrada")}

	chain := sources.NewChain(nil)
	chain.Register(fixture.New())
	chain.Register(ml)
	chain.Register(li)

	res, err := chain.Resolve(context.Background(), "45061874601")
	require.NoError(t, err)
	require.True(t, res.Found)
	require.Equal(t, fixture.ID, res.Source)
	require.Equal(t, "Mercado Livre", res.Platform)
	require.Equal(t, "119.90", res.Product.Price.StringFixed(2))

	// Live sources are consulted first even when registered later.
	require.Equal(t, []string{"MLB4045061874601"}, ml.calls)
	require.Equal(t, []string{"45061874601"}, li.calls)
}

func TestResolvePrefersLiveSource(t *testing.T) {
	ml := &stubOrders{id: "mercadolivre", found: map[string]string{"MLB4045061874601": "Live product"}}

	chain := sources.NewChain(nil)
	chain.Register(ml)
	chain.Register(fixture.New())

	res, err := chain.Resolve(context.Background(), "MLB4045061874601")
	require.NoError(t, err)
	require.Equal(t, "Live product", res.Product.Name)
	require.Equal(t, "mercadolivre", res.Source)
	require.True(t, res.Found)
}

func TestResolvePlaceholder(t *testing.T) {
	chain := sources.NewChain(nil)
	chain.Register(&stubOrders{id: "mercadolivre", err: disconnected("mercadolivre")})
	chain.Register(&stubProducts{err: disconnected("loja_integrada")})
	chain.Register(fixture.New())

	res, err := chain.Resolve(context.Background(), "99999999999")
	require.NoError(t, err)
	require.False(t, res.Found)
	require.Equal(t, sources.PlaceholderPlatform, res.Platform)
	require.Equal(t, "Produto não encontrado (99999999999)", res.Product.Name)
	require.Equal(t, "N/A", res.Product.SKU)
	require.Equal(t, "0.00", res.Product.Price.StringFixed(2))
}

func TestResolveRejectsUnknownFormat(t *testing.T) {
	chain := sources.NewChain(nil)
	chain.Register(fixture.New())

	_, err := chain.Resolve(context.Background(), "ABC-123")
	require.True(t, apperr.IsFormat(err))

	_, err = chain.Resolve(context.Background(), "   ")
	require.True(t, apperr.IsFormat(err))
}

func TestResolveStopsOnUpstreamError(t *testing.T) {
	upstream := &apperr.UpstreamError{Platform: "mercadolivre", StatusCode: 500}
	chain := sources.NewChain(nil)
	chain.Register(&stubOrders{id: "mercadolivre", err: upstream})
	chain.Register(fixture.New())

	_, err := chain.Resolve(context.Background(), "45061874601")
	require.True(t, errors.Is(err, upstream))
}

func TestRegisterIgnoresSourcesWithoutCapability(t *testing.T) {
	chain := sources.NewChain(nil)
	chain.Register(inert{})
	chain.Register(fixture.New())
	chain.Register(&stubProducts{})

	require.Equal(t, []sources.SourceInfo{
		{ID: "loja_integrada", Platform: barcode.LojaIntegrada, Capabilities: []string{sources.CapabilityProducts}},
		{ID: fixture.ID, Platform: barcode.MercadoLivre, Capabilities: []string{sources.CapabilityOrders}, Fallback: true},
	}, chain.ListSources())
}

type stubCatalog struct {
	stubOrders
	products []string
}

func (s *stubCatalog) ResolveProduct(_ context.Context, code string) (*sources.Resolution, error) {
	s.products = append(s.products, code)
	return &sources.Resolution{Code: code, Platform: "Mercado Livre", Found: true, Product: sources.Product{Name: "Capa"}}, nil
}

func TestResolveNormalizesPerCapability(t *testing.T) {
	src := &stubCatalog{stubOrders: stubOrders{id: "mercadolivre"}}
	chain := sources.NewChain(nil)
	chain.Register(src)

	// A shipment label is searched as an order and never reaches the catalog.
	res, err := chain.Resolve(context.Background(), "45061874601")
	require.NoError(t, err)
	require.False(t, res.Found)
	require.Equal(t, []string{"MLB4045061874601"}, src.calls)
	require.Empty(t, src.products)

	// A GTIN-8 is no shipment label, so only the catalog sees it.
	res, err = chain.Resolve(context.Background(), " 96385074 ")
	require.NoError(t, err)
	require.True(t, res.Found)
	require.Equal(t, "96385074", res.Code)
	require.Equal(t, []string{"96385074"}, src.products)
	require.Len(t, src.calls, 1)

	// A 13 digit code starting with 40 is both; the order lookup runs first.
	_, err = chain.Resolve(context.Background(), "4045061874601")
	require.NoError(t, err)
	require.Equal(t, []string{"MLB4045061874601", "MLB4045061874601"}, src.calls)
	require.Equal(t, []string{"96385074", "4045061874601"}, src.products)
}
