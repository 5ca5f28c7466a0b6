package cache

import (
	"context"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
)

// SessionRevocations marks sessions whose access tokens must stop working
// before they expire.
type SessionRevocations struct {
	client *redisv9.Client
	ttl    time.Duration
}

// NewSessionRevocations keeps markers for ttl, which should cover the
// lifetime of an access token.
func NewSessionRevocations(client *redisv9.Client, ttl time.Duration) *SessionRevocations {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &SessionRevocations{client: client, ttl: ttl}
}

func (r *SessionRevocations) Revoke(ctx context.Context, sessionID string) error {
	if err := r.client.Set(ctx, r.key(sessionID), "1", r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set session revocation failed: %w", err)
	}
	return nil
}

func (r *SessionRevocations) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	exists, err := r.client.Exists(ctx, r.key(sessionID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis check session revocation failed: %w", err)
	}
	return exists > 0, nil
}

func (r *SessionRevocations) key(sessionID string) string {
	return "session:revoked:" + sessionID
}
