package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/apperr"
	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/logging"
	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/metrics"
	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/models"
)

const maxErrorBody = 4096

// Options wires the stores and collaborators shared by Flow and Refresher.
type Options struct {
	Providers  *Registry
	Tokens     TokenStore
	Configs    ConfigStore
	States     StateStore
	HTTPClient *http.Client
	Logger     *zap.Logger
	Metrics    *metrics.Metrics
	Now        func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Providers == nil {
		o.Providers = DefaultRegistry()
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// CallbackParams carries the query parameters of a provider redirect.
type CallbackParams struct {
	Code             string
	State            string
	Error            string
	ErrorDescription string
}

// PlatformStatus summarizes one provider for the setup screen.
type PlatformStatus struct {
	ID         string
	Name       string
	Configured bool
	Connected  bool
}

// Flow runs the authorization code grant for every registered provider.
type Flow struct {
	opts Options
}

// NewFlow creates a Flow. Tokens, Configs and States are required.
func NewFlow(opts Options) *Flow {
	opts = opts.withDefaults()
	opts.Logger = opts.Logger.Named("oauth")
	return &Flow{opts: opts}
}

// Providers returns the provider registry.
func (f *Flow) Providers() *Registry {
	return f.opts.Providers
}

func (f *Flow) provider(platform string) (Provider, error) {
	p, ok := f.opts.Providers.Lookup(platform)
	if !ok {
		return Provider{}, &apperr.NotFoundError{What: "platform", Key: platform}
	}
	return p, nil
}

func (f *Flow) registration(ctx context.Context, platform string) (*models.PlatformConfig, error) {
	pc, err := f.opts.Configs.GetPlatformConfig(ctx, platform)
	if err != nil {
		return nil, err
	}
	if pc == nil || !pc.Configured {
		return nil, &apperr.NotFoundError{What: "platform configuration", Key: platform}
	}
	return pc, nil
}

// BeginAuthorization issues a state value and returns the consent URL the
// operator must be redirected to.
func (f *Flow) BeginAuthorization(ctx context.Context, platform string) (string, error) {
	p, err := f.provider(platform)
	if err != nil {
		return "", err
	}
	pc, err := f.registration(ctx, platform)
	if err != nil {
		return "", err
	}

	state, err := GenerateState()
	if err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	if err := f.opts.States.SaveState(ctx, &models.OAuthState{
		State:     state,
		Platform:  platform,
		CreatedAt: f.opts.Now().Unix(),
	}); err != nil {
		return "", err
	}

	return p.Config(pc).AuthCodeURL(state), nil
}

// CompleteAuthorization validates a provider callback, exchanges the code
// and stores the resulting token.
func (f *Flow) CompleteAuthorization(ctx context.Context, platform string, params CallbackParams) (*models.OAuthToken, error) {
	p, err := f.provider(platform)
	if err != nil {
		return nil, err
	}
	if err := f.checkState(ctx, platform, params.State); err != nil {
		f.opts.Metrics.ObserveAuthorization(platform, "forged")
		return nil, err
	}
	if params.Error != "" {
		f.opts.Metrics.ObserveAuthorization(platform, "denied")
		return nil, &apperr.AuthorizationError{Platform: platform, Code: params.Error, Description: params.ErrorDescription}
	}
	if params.Code == "" {
		f.opts.Metrics.ObserveAuthorization(platform, "denied")
		return nil, &apperr.AuthorizationError{Platform: platform}
	}

	pc, err := f.registration(ctx, platform)
	if err != nil {
		return nil, err
	}

	now := f.opts.Now()
	exchangeCtx := context.WithValue(ctx, oauth2.HTTPClient, f.opts.HTTPClient)
	tok, err := p.Config(pc).Exchange(exchangeCtx, params.Code)
	if err != nil {
		f.opts.Metrics.ObserveAuthorization(platform, "exchange_failed")
		return nil, exchangeError(platform, err)
	}

	stored := &models.OAuthToken{
		Platform:    platform,
		AccessToken: tok.AccessToken,
		ExpiresAt:   expiresAt(tok, now),
		UpdatedAt:   now.Unix(),
	}
	if tok.RefreshToken != "" {
		rt := tok.RefreshToken
		stored.RefreshToken = &rt
	}
	if uid := extraString(tok, "user_id"); uid != "" {
		stored.UserID = &uid
	}
	if err := f.opts.Tokens.SaveToken(ctx, stored); err != nil {
		return nil, err
	}

	if stored.UserID == nil && p.UserInfoPath != "" {
		uid, err := fetchUserID(ctx, f.opts.HTTPClient, p, stored.AccessToken)
		if err != nil {
			f.opts.Logger.Warn("user info lookup failed", logging.Platform(platform), zap.Error(err))
		} else if uid != "" {
			if err := f.opts.Tokens.SetTokenUserID(ctx, platform, uid); err != nil {
				return nil, err
			}
			stored.UserID = &uid
		}
	}

	f.opts.Metrics.ObserveAuthorization(platform, "connected")
	f.opts.Logger.Info("platform connected", logging.Platform(platform))
	return stored, nil
}

// checkState consumes the state value and verifies it was issued for this
// platform within StateTTL.
func (f *Flow) checkState(ctx context.Context, platform, state string) error {
	if state == "" {
		return &apperr.SecurityError{Platform: platform}
	}
	st, err := f.opts.States.ConsumeState(ctx, state)
	if err != nil {
		return err
	}
	if st == nil || st.Platform != platform {
		return &apperr.SecurityError{Platform: platform}
	}
	issued := time.Unix(st.CreatedAt, 0)
	if f.opts.Now().Sub(issued) > StateTTL {
		return &apperr.SecurityError{Platform: platform}
	}
	return nil
}

// Setup replaces the client registration of a platform.
func (f *Flow) Setup(ctx context.Context, platform, clientID, clientSecret, redirectURI string) error {
	if _, err := f.provider(platform); err != nil {
		return err
	}
	clientID = strings.TrimSpace(clientID)
	clientSecret = strings.TrimSpace(clientSecret)
	if clientID == "" || clientSecret == "" {
		return &apperr.FormatError{Platform: platform, Reason: "client_id and client_secret are required"}
	}
	return f.opts.Configs.SavePlatformConfig(ctx, &models.PlatformConfig{
		Platform:     platform,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURI:  redirectURI,
		Configured:   true,
		UpdatedAt:    f.opts.Now().Unix(),
	})
}

// Seed stores a registration supplied by the environment unless one was
// already configured through Setup. It reports whether anything was written.
func (f *Flow) Seed(ctx context.Context, platform, clientID, clientSecret, redirectURI string) (bool, error) {
	existing, err := f.opts.Configs.GetPlatformConfig(ctx, platform)
	if err != nil {
		return false, err
	}
	if existing != nil && existing.Configured {
		return false, nil
	}
	if err := f.Setup(ctx, platform, clientID, clientSecret, redirectURI); err != nil {
		return false, err
	}
	return true, nil
}

// Status reports configuration and connection state for every provider.
func (f *Flow) Status(ctx context.Context) ([]PlatformStatus, error) {
	providers := f.opts.Providers.All()
	out := make([]PlatformStatus, 0, len(providers))
	for _, p := range providers {
		pc, err := f.opts.Configs.GetPlatformConfig(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		tok, err := f.opts.Tokens.GetToken(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, PlatformStatus{
			ID:         p.ID,
			Name:       p.Name,
			Configured: pc != nil && pc.Configured,
			Connected:  tok.Connected(),
		})
	}
	return out, nil
}

func exchangeError(platform string, err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		return &apperr.TokenExchangeError{
			Platform:   platform,
			StatusCode: re.Response.StatusCode,
			Body:       truncate(string(re.Body)),
			Err:        err,
		}
	}
	return &apperr.TokenExchangeError{Platform: platform, Err: err}
}

// expiresAt computes the absolute expiry from expires_in against now, falling
// back to the expiry oauth2 derived itself. nil means no expiry was given.
func expiresAt(tok *oauth2.Token, now time.Time) *int64 {
	if secs, ok := extraInt(tok, "expires_in"); ok && secs > 0 {
		at := now.Add(time.Duration(secs) * time.Second).Unix()
		return &at
	}
	if !tok.Expiry.IsZero() {
		at := tok.Expiry.Unix()
		return &at
	}
	return nil
}

func extraString(tok *oauth2.Token, key string) string {
	return stringValue(tok.Extra(key))
}

func extraInt(tok *oauth2.Token, key string) (int64, bool) {
	v := stringValue(tok.Extra(key))
	if v == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// stringValue renders JSON scalars (numbers arrive as float64) as strings.
func stringValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case json.Number:
		return x.String()
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	default:
		return fmt.Sprint(x)
	}
}

func fetchUserID(ctx context.Context, client *http.Client, p Provider, accessToken string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.APIBaseURL+p.UserInfoPath, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &apperr.UpstreamError{Platform: p.ID, StatusCode: resp.StatusCode, Body: string(body)}
	}

	var info struct {
		ID any `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", fmt.Errorf("decode user info: %w", err)
	}
	return stringValue(info.ID), nil
}

func truncate(s string) string {
	if len(s) > maxErrorBody {
		return s[:maxErrorBody]
	}
	return s
}
