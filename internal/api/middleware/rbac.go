package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/primar/console/internal/core/authz"
	"github.com/primar/console/internal/core/domain"
)

// RBAC enforces role-based access control.
func RBAC(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, _ := c.Get(PrincipalKey).(domain.Principal)
			if _, ok := allowed[p.Role]; !ok {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}

// RequireRoute guards an endpoint with the role set of the console route it backs.
func RequireRoute(route string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, _ := c.Get(PrincipalKey).(domain.Principal)
			switch authz.Guard(p.Role, route) {
			case authz.Allow:
				return next(c)
			case authz.RedirectLogin:
				return domain.ErrUnauthenticated
			case authz.NotFound:
				return domain.ErrRouteNotFound
			default:
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
		}
	}
}
