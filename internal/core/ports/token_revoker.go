package ports

import (
	"context"
	"time"
)

// TokenRevoker invalidates every token issued to a user before a point in time.
type TokenRevoker interface {
	RevokeUser(ctx context.Context, userID string) error
	IsRevoked(ctx context.Context, userID string, issuedAt time.Time) (bool, error)
}
