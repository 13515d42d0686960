// Package cache holds Redis-backed stores used when several bipagem
// instances share one deployment.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/models"
	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/oauth"
)

const keyPrefix = "bipagem:oauth_state:"

// RedisStateStore implements oauth.StateStore backed by Redis. Entries
// expire on their own after the configured TTL.
type RedisStateStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

var _ oauth.StateStore = (*RedisStateStore)(nil)

// NewRedisStateStore constructs a Redis-backed state store.
func NewRedisStateStore(client redis.UniversalClient, ttl time.Duration) *RedisStateStore {
	if ttl <= 0 {
		ttl = oauth.StateTTL
	}
	return &RedisStateStore{client: client, ttl: ttl}
}

// Connect parses a redis:// URL and verifies the server answers.
func Connect(ctx context.Context, rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func stateKey(state string) string {
	return keyPrefix + state
}

// SaveState stores the encoded state payload with TTL.
func (s *RedisStateStore) SaveState(ctx context.Context, st *models.OAuthState) error {
	payload, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := s.client.Set(ctx, stateKey(st.State), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("persist state: %w", err)
	}
	return nil
}

// ConsumeState atomically loads and deletes a state. Unknown or expired
// values return nil.
func (s *RedisStateStore) ConsumeState(ctx context.Context, state string) (*models.OAuthState, error) {
	raw, err := s.client.GetDel(ctx, stateKey(state)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("load state: %w", err)
	}
	var st models.OAuthState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	return &st, nil
}
