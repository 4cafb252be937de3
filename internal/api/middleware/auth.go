package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/primar/console/internal/core/domain"
)

// Context keys populated by Token and Auth.
const (
	PrincipalKey = "principal"
	TokenKey     = "token"
)

// Resolver turns a bearer token into the request actor.
type Resolver interface {
	Resolve(ctx context.Context, token string) (domain.Principal, error)
}

// Token extracts the bearer token into context without resolving it.
func Token() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := bearer(c)
			if err != nil {
				return err
			}
			c.Set(TokenKey, token)
			return next(c)
		}
	}
}

// Auth resolves the bearer token into a principal and injects it into context.
// Sessions whose user holds no role are rejected like unauthenticated ones.
func Auth(resolver Resolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := bearer(c)
			if err != nil {
				return err
			}

			p, err := resolver.Resolve(c.Request().Context(), token)
			if err != nil {
				return err
			}

			c.Set(TokenKey, token)
			c.Set(PrincipalKey, p)

			return next(c)
		}
	}
}

func bearer(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}
