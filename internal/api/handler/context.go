package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/primar/console/internal/api/middleware"
	"github.com/primar/console/internal/core/authz"
	"github.com/primar/console/internal/core/domain"
)

// ctxPrincipal extracts the actor injected by the Auth middleware and
// performs a fast-fail check before any service call:
//   - the principal must be present (presence proves the middleware ran).
//   - the actor must hold a role; a signed-in user without one is sent back to login.
func ctxPrincipal(c echo.Context) (domain.Principal, error) {
	p, ok := c.Get(middleware.PrincipalKey).(domain.Principal)
	if !ok || p.UserID == "" {
		return domain.Principal{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication")
	}
	if !p.Role.Valid() {
		return domain.Principal{}, domain.ErrUnauthenticated
	}
	return p, nil
}

// ctxToken returns the bearer token stored by the Auth middleware.
func ctxToken(c echo.Context) string {
	token, _ := c.Get(middleware.TokenKey).(string)
	return token
}

// navigationFor returns the sidebar entries role may see.
func navigationFor(role domain.Role) []authz.NavItem {
	return authz.FilterNavigation(role, authz.Navigation())
}
