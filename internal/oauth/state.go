package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/models"
)

// StateTTL bounds how long an issued state value stays redeemable.
const StateTTL = 10 * time.Minute

// stateBytes of entropy encode to a 43 character URL-safe state.
const stateBytes = 32

// GenerateState returns a fresh random anti-forgery value.
func GenerateState() (string, error) {
	b := make([]byte, stateBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// StateStore keeps issued state values until their callback arrives.
// ConsumeState returns nil for unknown or already consumed values.
type StateStore interface {
	SaveState(ctx context.Context, st *models.OAuthState) error
	ConsumeState(ctx context.Context, state string) (*models.OAuthState, error)
}

// TokenStore persists one token per platform. GetToken returns nil when the
// platform has never been connected.
type TokenStore interface {
	GetToken(ctx context.Context, platform string) (*models.OAuthToken, error)
	SaveToken(ctx context.Context, t *models.OAuthToken) error
	UpdateRefreshedToken(ctx context.Context, platform, accessToken string, refreshToken *string, expiresAt *int64, updatedAt int64) error
	SetTokenUserID(ctx context.Context, platform, userID string) error
}

// ConfigStore persists client registrations. GetPlatformConfig returns nil
// when the platform has not been set up.
type ConfigStore interface {
	GetPlatformConfig(ctx context.Context, platform string) (*models.PlatformConfig, error)
	SavePlatformConfig(ctx context.Context, c *models.PlatformConfig) error
}
