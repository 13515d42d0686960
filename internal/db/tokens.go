package db

import (
	"context"
	"database/sql"

	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/models"
)

// SaveToken creates or replaces the token record for a platform.
func SaveToken(ctx context.Context, d *sql.DB, t *models.OAuthToken) error {
	_, err := d.ExecContext(ctx, `
		INSERT INTO oauth_tokens (platform, access_token, refresh_token, expires_at, user_id, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (platform) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expires_at = excluded.expires_at,
			user_id = excluded.user_id,
			updated_at = excluded.updated_at
	`, t.Platform, t.AccessToken, t.RefreshToken, t.ExpiresAt, t.UserID, t.UpdatedAt)
	return err
}

// UpdateRefreshedToken updates a token in place after a refresh exchange.
// A nil refreshToken keeps the stored refresh token.
func UpdateRefreshedToken(ctx context.Context, d *sql.DB, platform, accessToken string, refreshToken *string, expiresAt *int64, updatedAt int64) error {
	_, err := d.ExecContext(ctx, `
		UPDATE oauth_tokens SET
			access_token = ?,
			refresh_token = COALESCE(?, refresh_token),
			expires_at = ?,
			updated_at = ?
		WHERE platform = ?
	`, accessToken, refreshToken, expiresAt, updatedAt, platform)
	return err
}

// SetTokenUserID records the provider user id for a platform token.
func SetTokenUserID(ctx context.Context, d *sql.DB, platform, userID string) error {
	_, err := d.ExecContext(ctx, "UPDATE oauth_tokens SET user_id = ? WHERE platform = ?", userID, platform)
	return err
}

// GetToken returns the token for a platform, or nil if none is stored.
func GetToken(ctx context.Context, d *sql.DB, platform string) (*models.OAuthToken, error) {
	row := d.QueryRowContext(ctx,
		"SELECT platform, access_token, refresh_token, expires_at, user_id, updated_at FROM oauth_tokens WHERE platform = ?",
		platform,
	)
	var t models.OAuthToken
	err := row.Scan(&t.Platform, &t.AccessToken, &t.RefreshToken, &t.ExpiresAt, &t.UserID, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}
