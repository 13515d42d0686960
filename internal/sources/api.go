package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/apperr"
	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/metrics"
	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/models"
)

const maxErrorBody = 4096

// TokenProvider hands out a currently valid access token for a platform.
type TokenProvider interface {
	Valid(ctx context.Context, platform string) (*models.OAuthToken, error)
}

// API performs authenticated JSON GET requests against a marketplace.
type API struct {
	Platform   string
	BaseURL    string
	HTTPClient *http.Client
	Metrics    *metrics.Metrics
}

// GetJSON fetches path with a bearer token and decodes the body into out.
// endpoint labels the call in metrics. Non-200 answers become UpstreamError.
func (a *API) GetJSON(ctx context.Context, accessToken, endpoint, path string, query url.Values, out any) error {
	u := a.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	client := a.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		a.Metrics.ObserveUpstream(a.Platform, endpoint, 0, time.Since(start))
		return &apperr.UpstreamError{Platform: a.Platform, Err: err}
	}
	defer resp.Body.Close()
	a.Metrics.ObserveUpstream(a.Platform, endpoint, resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &apperr.UpstreamError{Platform: a.Platform, StatusCode: resp.StatusCode, Body: string(body)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &apperr.UpstreamError{Platform: a.Platform, Err: fmt.Errorf("decode %s: %w", endpoint, err)}
	}
	return nil
}
