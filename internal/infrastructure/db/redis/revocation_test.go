package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRevoker(t *testing.T, ttl time.Duration) (*TokenRevoker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewTokenRevoker(client, ttl), mr
}

func TestTokenRevoker_NotRevoked(t *testing.T) {
	r, _ := newTestRevoker(t, time.Hour)

	revoked, err := r.IsRevoked(context.Background(), "u1", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if revoked {
		t.Fatalf("expected token to be valid")
	}
}

func TestTokenRevoker_RevokesOlderTokens(t *testing.T) {
	r, mr := newTestRevoker(t, time.Hour)
	revokedAt := time.Unix(1_700_000_000, 0)
	r.now = func() time.Time { return revokedAt }

	if err := r.RevokeUser(context.Background(), "u1"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if ttl := mr.TTL("revoked:u1"); ttl != time.Hour {
		t.Fatalf("expected 1h ttl, got %v", ttl)
	}

	tests := []struct {
		name     string
		issuedAt time.Time
		want     bool
	}{
		{"issued before", revokedAt.Add(-time.Minute), true},
		{"issued same second", revokedAt, true},
		{"issued after", revokedAt.Add(time.Second), false},
	}
	for _, tt := range tests {
		got, err := r.IsRevoked(context.Background(), "u1", tt.issuedAt)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.name, err)
		}
		if got != tt.want {
			t.Fatalf("%s: expected %v, got %v", tt.name, tt.want, got)
		}
	}

	other, err := r.IsRevoked(context.Background(), "u2", revokedAt.Add(-time.Minute))
	if err != nil || other {
		t.Fatalf("revocation must be per user, got %v %v", other, err)
	}
}

func TestTokenRevoker_RedisDown(t *testing.T) {
	r, mr := newTestRevoker(t, time.Hour)
	mr.Close()

	if _, err := r.IsRevoked(context.Background(), "u1", time.Now()); err == nil {
		t.Fatalf("expected error when redis is unreachable")
	}
	if err := r.RevokeUser(context.Background(), "u1"); err == nil {
		t.Fatalf("expected error when redis is unreachable")
	}
}
