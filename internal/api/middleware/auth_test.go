package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

type stubRevocations struct {
	revoked bool
	err     error
	gotUser string
	gotIat  time.Time
}

func (s *stubRevocations) IsRevoked(_ context.Context, userID string, issuedAt time.Time) (bool, error) {
	s.gotUser = userID
	s.gotIat = issuedAt
	return s.revoked, s.err
}

func signToken(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":   "user-1",
		"email": "alice@example.com",
		"roles": []string{"ROLE_USER", "ROLE_ADMIN"},
		"iat":   time.Unix(1_700_000_000, 0).Unix(),
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
}

func runAuth(t *testing.T, header string, revocations RevocationChecker, next echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := Auth("secret", revocations, zerolog.Nop())(next)
	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func mustNotReach(t *testing.T) echo.HandlerFunc {
	return func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	revocations := &stubRevocations{}
	called := false
	rec := runAuth(t, "Bearer "+signToken(t, validClaims(), "secret"), revocations, func(c echo.Context) error {
		called = true
		if c.Get(CtxUserID) != "user-1" {
			t.Fatalf("user_id not set")
		}
		if c.Get(CtxEmail) != "alice@example.com" {
			t.Fatalf("email not set")
		}
		roles, _ := c.Get(CtxRoles).([]string)
		if len(roles) != 2 || roles[1] != "ROLE_ADMIN" {
			t.Fatalf("roles not set: %v", c.Get(CtxRoles))
		}
		return c.NoContent(http.StatusOK)
	})

	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if revocations.gotUser != "user-1" || revocations.gotIat.Unix() != 1_700_000_000 {
		t.Fatalf("revocation check got %q %v", revocations.gotUser, revocations.gotIat)
	}
}

func TestAuthMiddleware_NilRevocations(t *testing.T) {
	rec := runAuth(t, "Bearer "+signToken(t, validClaims(), "secret"), nil, func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	expired := validClaims()
	expired["exp"] = time.Now().Add(-time.Minute).Unix()

	noSubject := validClaims()
	delete(noSubject, "sub")

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"invalid header format", "Token abc"},
		{"malformed token", "Bearer not-a-token"},
		{"wrong secret", "Bearer " + signToken(t, validClaims(), "other")},
		{"expired", "Bearer " + signToken(t, expired, "secret")},
		{"missing subject", "Bearer " + signToken(t, noSubject, "secret")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := runAuth(t, tt.header, &stubRevocations{}, mustNotReach(t))
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
		})
	}
}

func TestAuthMiddleware_RevokedToken(t *testing.T) {
	rec := runAuth(t, "Bearer "+signToken(t, validClaims(), "secret"), &stubRevocations{revoked: true}, mustNotReach(t))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if got := rec.Header().Get(echo.HeaderRetryAfter); got != "1" {
		t.Fatalf("expected Retry-After 1, got %q", got)
	}
	if !strings.Contains(rec.Body.String(), "sign in again") {
		t.Fatalf("expected a re-login hint, got %s", rec.Body.String())
	}
}

func TestAuthMiddleware_RevocationStoreDown(t *testing.T) {
	rec := runAuth(t, "Bearer "+signToken(t, validClaims(), "secret"), &stubRevocations{err: errors.New("redis down")}, mustNotReach(t))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
