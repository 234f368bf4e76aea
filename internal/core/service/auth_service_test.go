package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/fidcar/user-service/internal/core/domain"
)

func seedUser(t *testing.T, repo *stubUserRepo, email, password string, roles ...string) *domain.User {
	t.Helper()
	u, err := repo.Create(context.Background(), &domain.User{
		Email:        email,
		FirstName:    "Carol",
		LastName:     "Doe",
		PasswordHash: "hashed:" + password,
		Roles:        roles,
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func TestAuthService_Login_Success(t *testing.T) {
	repo := newStubUserRepo()
	seeded := seedUser(t, repo, "carol@example.com", "s3cret", domain.RoleUser, domain.RoleAdmin)
	svc := NewAuthService(repo, &stubHasher{}, "secret", time.Hour, zerolog.Nop())

	token, user, err := svc.Login(context.Background(), " Carol@Example.com", "s3cret")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if token == "" {
		t.Fatalf("expected token, got empty")
	}
	if user == nil || user.ID != seeded.ID {
		t.Fatalf("unexpected user: %+v", user)
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token invalid: %v", err)
	}
	if claims["sub"] != seeded.ID {
		t.Fatalf("expected sub %s, got %v", seeded.ID, claims["sub"])
	}
	roles, ok := claims["roles"].([]interface{})
	if !ok || len(roles) != 2 || roles[1] != domain.RoleAdmin {
		t.Fatalf("unexpected roles claim: %v", claims["roles"])
	}
	if _, ok := claims["iat"]; !ok {
		t.Fatalf("expected iat claim")
	}
}

func TestAuthService_Login_InvalidPassword(t *testing.T) {
	repo := newStubUserRepo()
	seedUser(t, repo, "dave@example.com", "goodpass", domain.RoleUser)
	svc := NewAuthService(repo, &stubHasher{}, "secret", time.Hour, zerolog.Nop())

	if _, _, err := svc.Login(context.Background(), "dave@example.com", "badpass"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	svc := NewAuthService(newStubUserRepo(), &stubHasher{}, "secret", time.Hour, zerolog.Nop())

	if _, _, err := svc.Login(context.Background(), "ghost@example.com", "pass"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_EmptyInput(t *testing.T) {
	svc := NewAuthService(newStubUserRepo(), &stubHasher{}, "secret", time.Hour, zerolog.Nop())

	if _, _, err := svc.Login(context.Background(), "", ""); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_StoreError(t *testing.T) {
	repo := newStubUserRepo()
	repo.findErr = errors.New("db down")
	svc := NewAuthService(repo, &stubHasher{}, "secret", time.Hour, zerolog.Nop())

	_, _, err := svc.Login(context.Background(), "a@b.com", "pw")
	if err == nil || errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected raw store error, got %v", err)
	}
}
