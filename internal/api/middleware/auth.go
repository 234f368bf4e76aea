package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/fidcar/user-service/internal/api/metrics"
)

// Context keys set by Auth.
const (
	CtxUserID   = "user_id"
	CtxEmail    = "email"
	CtxRoles    = "roles"
	CtxIssuedAt = "issued_at"
)

// RevocationChecker reports whether a token issued at issuedAt for userID is void.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, userID string, issuedAt time.Time) (bool, error)
}

// Auth validates the JWT and injects claims into context. When revocations is
// non-nil, tokens issued before the user's last revocation are rejected.
func Auth(jwtSecret string, revocations RevocationChecker, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims := jwt.MapClaims{}
			tkn, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
				if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
					return nil, jwt.ErrTokenSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !tkn.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			userID, _ := claims.GetSubject()
			if userID == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "token missing subject")
			}

			var issuedAt time.Time
			if iat, _ := claims.GetIssuedAt(); iat != nil {
				issuedAt = iat.Time
			}

			if revocations != nil {
				revoked, err := revocations.IsRevoked(c.Request().Context(), userID, issuedAt)
				if err != nil {
					log.Error().Err(err).Str("user_id", userID).Msg("revocation check failed")
					return echo.NewHTTPError(http.StatusServiceUnavailable, "unable to verify token")
				}
				if revoked {
					// revocation has one-second granularity: a token issued in the
					// same second as the revocation is void too, a new login a
					// second later is not
					metrics.RevokedTokensRejectedTotal.Inc()
					c.Response().Header().Set(echo.HeaderRetryAfter, "1")
					return echo.NewHTTPError(http.StatusUnauthorized, "token revoked, sign in again")
				}
			}

			email, _ := claims["email"].(string)

			c.Set(CtxUserID, userID)
			c.Set(CtxEmail, email)
			c.Set(CtxRoles, rolesClaim(claims["roles"]))
			c.Set(CtxIssuedAt, issuedAt)

			return next(c)
		}
	}
}

// rolesClaim converts the decoded JSON array into a string slice, dropping
// anything that is not a string.
func rolesClaim(v any) []string {
	raw, ok := v.([]interface{})
	if !ok {
		return nil
	}
	roles := make([]string, 0, len(raw))
	for _, r := range raw {
		if s, ok := r.(string); ok {
			roles = append(roles, s)
		}
	}
	return roles
}
