package http

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// Roles carried in access tokens.
const (
	RoleAdmin       = "admin"
	RoleCoordinator = "coordinator"
	RoleAgent       = "agent"
)

const claimsContextKey = "auth.claims"

var signingMethod = jwt.SigningMethodHS256

// Claims is the access token body. Subject is the caller id.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// MintToken signs a token for role, valid for ttl.
func MintToken(secret, subject, role string, ttl time.Duration, now time.Time) (string, error) {
	if secret == "" {
		return "", errors.New("jwt secret is required")
	}
	if !slices.Contains([]string{RoleAdmin, RoleCoordinator, RoleAgent}, role) {
		return "", fmt.Errorf("unknown role %q", role)
	}

	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(signingMethod, claims).SignedString([]byte(secret))
}

func parseToken(secret, raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{signingMethod.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// Authenticate requires a valid bearer token and stores its claims on the context.
func Authenticate(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			raw, found := strings.CutPrefix(header, "Bearer ")
			if !found || strings.TrimSpace(raw) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}

			claims, err := parseToken(secret, strings.TrimSpace(raw))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			c.Set(claimsContextKey, claims)
			return next(c)
		}
	}
}

// RequireRoles lets through callers holding one of roles. Admin always passes.
func RequireRoles(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, found := c.Get(claimsContextKey).(*Claims)
			if !found {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}
			if claims.Role != RoleAdmin && !slices.Contains(roles, claims.Role) {
				return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
			}
			return next(c)
		}
	}
}
