package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/models"
)

// Store exposes the package functions as the storage interfaces consumed by
// the oauth and scanlog packages.
type Store struct {
	db *sql.DB
}

// NewStore creates a new Store with the given database connection.
func NewStore(database *sql.DB) *Store {
	return &Store{db: database}
}

// GetToken returns the stored token for a platform, or nil.
func (s *Store) GetToken(ctx context.Context, platform string) (*models.OAuthToken, error) {
	t, err := GetToken(ctx, s.db, platform)
	if err != nil {
		return nil, fmt.Errorf("get token %s: %w", platform, err)
	}
	return t, nil
}

// SaveToken creates or replaces the token for a platform.
func (s *Store) SaveToken(ctx context.Context, t *models.OAuthToken) error {
	if err := SaveToken(ctx, s.db, t); err != nil {
		return fmt.Errorf("save token %s: %w", t.Platform, err)
	}
	return nil
}

// UpdateRefreshedToken updates a token after a refresh exchange.
func (s *Store) UpdateRefreshedToken(ctx context.Context, platform, accessToken string, refreshToken *string, expiresAt *int64, updatedAt int64) error {
	if err := UpdateRefreshedToken(ctx, s.db, platform, accessToken, refreshToken, expiresAt, updatedAt); err != nil {
		return fmt.Errorf("update token %s: %w", platform, err)
	}
	return nil
}

// SetTokenUserID records the provider user id for a platform.
func (s *Store) SetTokenUserID(ctx context.Context, platform, userID string) error {
	if err := SetTokenUserID(ctx, s.db, platform, userID); err != nil {
		return fmt.Errorf("set user id %s: %w", platform, err)
	}
	return nil
}

// GetPlatformConfig returns the client registration for a platform, or nil.
func (s *Store) GetPlatformConfig(ctx context.Context, platform string) (*models.PlatformConfig, error) {
	c, err := GetPlatformConfig(ctx, s.db, platform)
	if err != nil {
		return nil, fmt.Errorf("get platform config %s: %w", platform, err)
	}
	return c, nil
}

// SavePlatformConfig replaces the client registration for a platform.
func (s *Store) SavePlatformConfig(ctx context.Context, c *models.PlatformConfig) error {
	if err := SavePlatformConfig(ctx, s.db, c); err != nil {
		return fmt.Errorf("save platform config %s: %w", c.Platform, err)
	}
	return nil
}

// SaveState stores an issued anti-forgery value.
func (s *Store) SaveState(ctx context.Context, st *models.OAuthState) error {
	if err := CreateState(ctx, s.db, st); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

// ConsumeState removes and returns an issued state, or nil.
func (s *Store) ConsumeState(ctx context.Context, state string) (*models.OAuthState, error) {
	st, err := ConsumeState(ctx, s.db, state)
	if err != nil {
		return nil, fmt.Errorf("consume state: %w", err)
	}
	return st, nil
}

// CreateScan appends a scan record.
func (s *Store) CreateScan(ctx context.Context, scan *models.Scan) (int64, error) {
	id, err := CreateScan(ctx, s.db, scan)
	if err != nil {
		return 0, fmt.Errorf("create scan: %w", err)
	}
	return id, nil
}

// RecentScans returns up to limit scans, newest first.
func (s *Store) RecentScans(ctx context.Context, limit int) ([]models.Scan, error) {
	scans, err := RecentScans(ctx, s.db, limit)
	if err != nil {
		return nil, fmt.Errorf("recent scans: %w", err)
	}
	return scans, nil
}

// ListScansBetween returns scans captured in [from, to), oldest first.
func (s *Store) ListScansBetween(ctx context.Context, from, to int64, platform string) ([]models.Scan, error) {
	scans, err := ListScansBetween(ctx, s.db, from, to, platform)
	if err != nil {
		return nil, fmt.Errorf("list scans: %w", err)
	}
	return scans, nil
}

// CountScansByDay returns scan counts per capture date.
func (s *Store) CountScansByDay(ctx context.Context) ([]models.DayCount, error) {
	counts, err := CountScansByDay(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("count scans by day: %w", err)
	}
	return counts, nil
}

// CountScansByPlatform returns scan counts per platform.
func (s *Store) CountScansByPlatform(ctx context.Context) ([]models.PlatformCount, error) {
	counts, err := CountScansByPlatform(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("count scans by platform: %w", err)
	}
	return counts, nil
}
