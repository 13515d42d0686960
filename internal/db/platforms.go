package db

import (
	"context"
	"database/sql"

	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/models"
)

// SavePlatformConfig replaces the client registration for a platform.
func SavePlatformConfig(ctx context.Context, d *sql.DB, c *models.PlatformConfig) error {
	configured := 0
	if c.Configured {
		configured = 1
	}
	_, err := d.ExecContext(ctx, `
		INSERT OR REPLACE INTO platform_configs (platform, client_id, client_secret, redirect_uri, is_configured, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, c.Platform, c.ClientID, c.ClientSecret, c.RedirectURI, configured, c.UpdatedAt)
	return err
}

// GetPlatformConfig returns the client registration for a platform, or nil.
func GetPlatformConfig(ctx context.Context, d *sql.DB, platform string) (*models.PlatformConfig, error) {
	row := d.QueryRowContext(ctx,
		"SELECT platform, client_id, client_secret, redirect_uri, is_configured, updated_at FROM platform_configs WHERE platform = ?",
		platform,
	)
	var c models.PlatformConfig
	var configured int
	err := row.Scan(&c.Platform, &c.ClientID, &c.ClientSecret, &c.RedirectURI, &configured, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.Configured = configured != 0
	return &c, nil
}
