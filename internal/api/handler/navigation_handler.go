package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/primar/console/internal/core/authz"
	"github.com/primar/console/internal/core/domain"
)

type NavigationHandler struct{}

func NewNavigationHandler() *NavigationHandler {
	return &NavigationHandler{}
}

type navigationResponse struct {
	Role  domain.Role     `json:"role"`
	Items []authz.NavItem `json:"items"`
}

type accessResponse struct {
	Route    string `json:"route"`
	Allowed  bool   `json:"allowed"`
	Decision string `json:"decision"`
	Redirect string `json:"redirect,omitempty"`
}

// Navigation handles GET /v1/navigation.
//
// @Summary      Sidebar entries for the caller's role
// @Tags         navigation
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  navigationResponse
// @Failure      401  {object}  map[string]string
// @Router       /v1/navigation [get]
func (h *NavigationHandler) Navigation(c echo.Context) error {
	actor, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, navigationResponse{Role: actor.Role, Items: navigationFor(actor.Role)})
}

// Access handles GET /v1/access?route=. It answers whether the caller may open
// a console route and where to go instead.
//
// @Summary      Check access to a console route
// @Tags         navigation
// @Produce      json
// @Security     BearerAuth
// @Param        route  query     string  true  "Console route, e.g. /clientes"
// @Success      200    {object}  accessResponse
// @Failure      422    {object}  map[string]string
// @Router       /v1/access [get]
func (h *NavigationHandler) Access(c echo.Context) error {
	actor, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	route := c.QueryParam("route")
	if route == "" {
		return domain.NewValidationError("route", "is required")
	}

	decision := authz.Guard(actor.Role, route)
	resp := accessResponse{Route: route, Allowed: decision == authz.Allow, Decision: decision.String()}
	switch decision {
	case authz.RedirectLogin:
		resp.Redirect = authz.RouteLogin
	case authz.Forbidden:
		resp.Redirect = authz.RouteDashboard
	}
	return c.JSON(http.StatusOK, resp)
}
