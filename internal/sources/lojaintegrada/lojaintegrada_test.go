package lojaintegrada

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/apperr"
	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/models"
)

type stubTokens struct {
	err error
}

func (s stubTokens) Valid(context.Context, string) (*models.OAuthToken, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.OAuthToken{Platform: ID, AccessToken: "li-token"}, nil
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/produto", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer li-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Query().Get("sku") {
		case "VEL-KIT-4-ALMO-02":
			_, _ = w.Write([]byte(`{"meta":{"total_count":1},"objects":[{"id":98765,"nome":"Kit 4 Capas Veludo","sku":"VEL-KIT-4-ALMO-02","preco":"89.90","imagem":"https://cdn.example.com/vel.jpg"}]}`))
		case "BROKEN":
			http.Error(w, "boom", http.StatusBadGateway)
		default:
			_, _ = w.Write([]byte(`{"meta":{"total_count":0},"objects":[]}`))
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestResolveProduct(t *testing.T) {
	srv := newServer(t)
	src := New(Options{BaseURL: srv.URL, HTTPClient: srv.Client(), Tokens: stubTokens{}})

	res, err := src.ResolveProduct(context.Background(), "VEL-KIT-4-ALMO-02")
	require.NoError(t, err)
	require.Equal(t, "Loja Integrada", res.Platform)
	require.Equal(t, "98765", res.Product.ID)
	require.Equal(t, "Kit 4 Capas Veludo", res.Product.Name)
	require.Equal(t, "89.90", res.Product.Price.StringFixed(2))
	require.Equal(t, "https://cdn.example.com/vel.jpg", res.Product.ImageURL)
	require.Nil(t, res.Order)
}

func TestResolveProductNotFound(t *testing.T) {
	srv := newServer(t)
	src := New(Options{BaseURL: srv.URL, HTTPClient: srv.Client(), Tokens: stubTokens{}})

	_, err := src.ResolveProduct(context.Background(), "UNKNOWN-SKU")
	require.True(t, apperr.IsNotFound(err))
}

func TestResolveProductUpstreamError(t *testing.T) {
	srv := newServer(t)
	src := New(Options{BaseURL: srv.URL, HTTPClient: srv.Client(), Tokens: stubTokens{}})

	_, err := src.ResolveProduct(context.Background(), "BROKEN")
	var upErr *apperr.UpstreamError
	require.ErrorAs(t, err, &upErr)
	require.Equal(t, http.StatusBadGateway, upErr.StatusCode)
}

func TestResolveProductDisconnected(t *testing.T) {
	srv := newServer(t)
	src := New(Options{BaseURL: srv.URL, HTTPClient: srv.Client(), Tokens: stubTokens{err: &apperr.AuthenticationError{Platform: ID}}})

	_, err := src.ResolveProduct(context.Background(), "VEL-KIT-4-ALMO-02")
	require.True(t, apperr.IsAuthentication(err))
}
