// Package client is a small HTTP client for the bipagem API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/types"
)

type Client struct {
	BaseURL    string
	AdminKey   string
	HTTPClient *http.Client
}

func NewClient(baseURL, adminKey string) *Client {
	return &Client{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		AdminKey: adminKey,
	}
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Message)
}

// Bip submits a scanned code.
func (c *Client) Bip(ctx context.Context, code string) (*types.ScanData, error) {
	var resp types.BipResponse
	if err := c.do(ctx, http.MethodPost, "/api/bip", nil, types.BipRequest{Barcode: code}, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) Reports(ctx context.Context) (*types.ReportsResponse, error) {
	var resp types.ReportsResponse
	if err := c.do(ctx, http.MethodGet, "/api/reports", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Daily fetches the report of one YYYY-MM-DD date, or of today when date is
// empty.
func (c *Client) Daily(ctx context.Context, date string) (*types.DailyReportResponse, error) {
	q := url.Values{}
	if date != "" {
		q.Set("date", date)
	}
	var resp types.DailyReportResponse
	if err := c.do(ctx, http.MethodGet, "/api/reports/daily", q, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Period(ctx context.Context, start, end, platform string) (*types.PeriodReportResponse, error) {
	q := url.Values{"start_date": {start}, "end_date": {end}}
	if platform != "" {
		q.Set("platform", platform)
	}
	var resp types.PeriodReportResponse
	if err := c.do(ctx, http.MethodGet, "/api/reports/period", q, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Platforms(ctx context.Context) ([]types.PlatformInfo, error) {
	var resp []types.PlatformInfo
	if err := c.do(ctx, http.MethodGet, "/oauth/platforms", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) PlatformStatus(ctx context.Context) (map[string]bool, error) {
	var resp map[string]bool
	if err := c.do(ctx, http.MethodGet, "/api/platform-status", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Setup stores a platform's client registration and returns the path that
// starts its authorization.
func (c *Client) Setup(ctx context.Context, platform, clientID, clientSecret string) (*types.SetupResponse, error) {
	var resp types.SetupResponse
	body := types.SetupRequest{ClientID: clientID, ClientSecret: clientSecret}
	if err := c.do(ctx, http.MethodPost, "/api/oauth/setup/"+url.PathEscape(platform), nil, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Sources(ctx context.Context) (*types.SourcesResponse, error) {
	var resp types.SourcesResponse
	if err := c.do(ctx, http.MethodGet, "/api/sources", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	target := c.BaseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.AdminKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.AdminKey)
	}

	hc := c.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return parseError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func parseError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{StatusCode: resp.StatusCode}
	}

	var errResp types.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Message == "" {
		return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}
	return &APIError{StatusCode: resp.StatusCode, Message: errResp.Message}
}
