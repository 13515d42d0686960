package db

import (
	"context"
	"database/sql"

	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/models"
)

// CreateState stores an issued anti-forgery value.
func CreateState(ctx context.Context, d *sql.DB, s *models.OAuthState) error {
	_, err := d.ExecContext(ctx,
		"INSERT INTO oauth_states (state, platform, created_at) VALUES (?, ?, ?)",
		s.State, s.Platform, s.CreatedAt,
	)
	return err
}

// ConsumeState deletes a state and returns it, or nil if it was never issued
// or was already consumed.
func ConsumeState(ctx context.Context, d *sql.DB, state string) (*models.OAuthState, error) {
	row := d.QueryRowContext(ctx,
		"DELETE FROM oauth_states WHERE state = ? RETURNING state, platform, created_at",
		state,
	)
	var s models.OAuthState
	err := row.Scan(&s.State, &s.Platform, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// PurgeStates removes states created before the cutoff (unix seconds).
func PurgeStates(ctx context.Context, d *sql.DB, before int64) (int64, error) {
	result, err := d.ExecContext(ctx, "DELETE FROM oauth_states WHERE created_at < ?", before)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
