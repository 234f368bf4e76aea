package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenRevoker records, per user, the moment before which every issued token
// is void. Key format: revoked:<user_id> -> unix seconds. Keys expire after
// ttl, the lifetime of a token, since no older token can still be valid.
type TokenRevoker struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenRevoker creates a TokenRevoker wrapping the given Redis client.
func NewTokenRevoker(client *redis.Client, ttl time.Duration) *TokenRevoker {
	return &TokenRevoker{client: client, ttl: ttl, now: time.Now}
}

// RevokeUser voids every token issued to userID up to now.
func (r *TokenRevoker) RevokeUser(ctx context.Context, userID string) error {
	ts := r.now().Unix()
	if err := r.client.Set(ctx, r.key(userID), ts, r.ttl).Err(); err != nil {
		return fmt.Errorf("revoke tokens: %w", err)
	}
	return nil
}

// IsRevoked reports whether a token issued at issuedAt for userID has been revoked.
func (r *TokenRevoker) IsRevoked(ctx context.Context, userID string, issuedAt time.Time) (bool, error) {
	val, err := r.client.Get(ctx, r.key(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("revocation check: %w", err)
	}

	revokedAt, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return false, fmt.Errorf("revocation check: bad value %q: %w", val, err)
	}
	return revokedAt >= issuedAt.Unix(), nil
}

func (r *TokenRevoker) key(userID string) string {
	return "revoked:" + userID
}
