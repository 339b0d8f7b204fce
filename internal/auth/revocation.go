package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedPrefix = "session:revoked:"

// Revocations records logged-out token ids until they would have expired anyway.
type Revocations struct {
	rdb *redis.Client
}

// NewRevocations creates a Redis-backed revocation list.
func NewRevocations(rdb *redis.Client) *Revocations {
	return &Revocations{rdb: rdb}
}

// Revoke marks jti as revoked for ttl.
func (r *Revocations) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" || ttl <= 0 {
		return nil
	}
	if err := r.rdb.Set(ctx, revokedPrefix+jti, 1, ttl).Err(); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// IsRevoked reports whether jti was revoked. Redis errors count as not revoked;
// the backend remains the authority on the session itself.
func (r *Revocations) IsRevoked(ctx context.Context, jti string) bool {
	n, err := r.rdb.Exists(ctx, revokedPrefix+jti).Result()
	return err == nil && n > 0
}
