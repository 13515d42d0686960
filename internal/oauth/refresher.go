package oauth

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/apperr"
	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/logging"
	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/models"
)

// RefreshMargin is how close to expiry a token may get before it is
// refreshed ahead of use.
const RefreshMargin = 5 * time.Minute

// Refresher hands out access tokens, refreshing them when they are close to
// expiry.
type Refresher struct {
	opts Options
}

// NewRefresher creates a Refresher. Tokens and Configs are required.
func NewRefresher(opts Options) *Refresher {
	opts = opts.withDefaults()
	opts.Logger = opts.Logger.Named("refresher")
	return &Refresher{opts: opts}
}

// EnsureValid reports whether platform has a usable access token after any
// needed refresh.
func (r *Refresher) EnsureValid(ctx context.Context, platform string) bool {
	_, err := r.Valid(ctx, platform)
	return err == nil
}

// Valid returns a token for platform that stays valid for at least
// RefreshMargin. Tokens without a recorded expiry are returned as is.
func (r *Refresher) Valid(ctx context.Context, platform string) (*models.OAuthToken, error) {
	tok, err := r.opts.Tokens.GetToken(ctx, platform)
	if err != nil {
		return nil, err
	}
	if !tok.Connected() {
		return nil, &apperr.AuthenticationError{Platform: platform}
	}
	if tok.ExpiresAt == nil {
		return tok, nil
	}

	now := r.opts.Now()
	if time.Unix(*tok.ExpiresAt, 0).Sub(now) > RefreshMargin {
		return tok, nil
	}
	if tok.RefreshToken == nil || *tok.RefreshToken == "" {
		r.opts.Logger.Info("token expiring without refresh token", logging.Platform(platform))
		return nil, &apperr.AuthenticationError{Platform: platform}
	}
	return r.refresh(ctx, tok, now)
}

func (r *Refresher) refresh(ctx context.Context, tok *models.OAuthToken, now time.Time) (*models.OAuthToken, error) {
	platform := tok.Platform
	p, ok := r.opts.Providers.Lookup(platform)
	if !ok {
		return nil, &apperr.AuthenticationError{Platform: platform}
	}
	pc, err := r.opts.Configs.GetPlatformConfig(ctx, platform)
	if err != nil {
		return nil, err
	}
	if pc == nil || !pc.Configured {
		return nil, &apperr.AuthenticationError{Platform: platform}
	}

	// An empty access token forces the token source to run the refresh grant.
	refreshCtx := context.WithValue(ctx, oauth2.HTTPClient, r.opts.HTTPClient)
	fresh, err := p.Config(pc).TokenSource(refreshCtx, &oauth2.Token{RefreshToken: *tok.RefreshToken}).Token()
	if err != nil {
		r.opts.Metrics.ObserveRefresh(platform, "failed")
		r.opts.Logger.Warn("token refresh failed", logging.Platform(platform), zap.Error(exchangeError(platform, err)))
		return nil, &apperr.AuthenticationError{Platform: platform}
	}

	updated := *tok
	updated.AccessToken = fresh.AccessToken
	updated.ExpiresAt = expiresAt(fresh, now)
	updated.UpdatedAt = now.Unix()
	var refreshToken *string
	if fresh.RefreshToken != "" && fresh.RefreshToken != *tok.RefreshToken {
		rt := fresh.RefreshToken
		refreshToken = &rt
		updated.RefreshToken = &rt
	}

	if err := r.opts.Tokens.UpdateRefreshedToken(ctx, platform, updated.AccessToken, refreshToken, updated.ExpiresAt, updated.UpdatedAt); err != nil {
		return nil, err
	}

	r.opts.Metrics.ObserveRefresh(platform, "success")
	r.opts.Logger.Info("token refreshed", logging.Platform(platform))
	return &updated, nil
}
