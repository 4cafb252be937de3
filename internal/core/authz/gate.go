// Package authz maps roles to the console routes and navigation entries they may reach.
package authz

import (
	"slices"

	"github.com/primar/console/internal/core/domain"
)

// Route paths served by the console.
const (
	RouteHome        = "/"
	RouteLogin       = "/login"
	RouteDashboard   = "/dashboard"
	RouteClients     = "/clientes"
	RouteDocuments   = "/documentos"
	RouteTasks       = "/tarefas"
	RouteAgenda      = "/agenda"
	RouteReports     = "/relatorios"
	RouteMyDocuments = "/meus-documentos"
	RouteRequests    = "/solicitacoes"
	RouteFinance     = "/financeiro"
	RouteMicroSaaS   = "/microsaas"
	RouteStaff       = "/funcionarios"
	RouteSettings    = "/configuracoes"
)

var (
	everyone     = []domain.Role{domain.RoleAdmin, domain.RoleStaff, domain.RoleClient}
	staffOrAdmin = []domain.Role{domain.RoleAdmin, domain.RoleStaff}
	adminOnly    = []domain.Role{domain.RoleAdmin}
	clientOnly   = []domain.Role{domain.RoleClient}
)

// NavItem is one sidebar entry.
type NavItem struct {
	Title string        `json:"title"`
	Href  string        `json:"href"`
	Roles []domain.Role `json:"roles"`
}

// navigation lists the guarded routes in sidebar order. It is also the route table.
var navigation = []NavItem{
	{Title: "Dashboard", Href: RouteDashboard, Roles: everyone},
	{Title: "Clientes", Href: RouteClients, Roles: staffOrAdmin},
	{Title: "Documentos", Href: RouteDocuments, Roles: everyone},
	{Title: "Tarefas", Href: RouteTasks, Roles: staffOrAdmin},
	{Title: "Agenda", Href: RouteAgenda, Roles: staffOrAdmin},
	{Title: "Relatórios", Href: RouteReports, Roles: staffOrAdmin},
	{Title: "Meus Documentos", Href: RouteMyDocuments, Roles: clientOnly},
	{Title: "Solicitações", Href: RouteRequests, Roles: clientOnly},
	{Title: "Financeiro", Href: RouteFinance, Roles: adminOnly},
	{Title: "MicroSaaS", Href: RouteMicroSaaS, Roles: adminOnly},
	{Title: "Funcionários", Href: RouteStaff, Roles: adminOnly},
	{Title: "Configurações", Href: RouteSettings, Roles: staffOrAdmin},
}

var publicRoutes = map[string]bool{
	RouteHome:  true,
	RouteLogin: true,
}

var routeRoles = func() map[string][]domain.Role {
	m := make(map[string][]domain.Role, len(navigation))
	for _, item := range navigation {
		m[item.Href] = item.Roles
	}
	return m
}()

// Decision is the outcome of guarding a route.
type Decision int

const (
	Allow Decision = iota
	RedirectLogin
	Forbidden
	NotFound
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect_login"
	case Forbidden:
		return "forbidden"
	case NotFound:
		return "not_found"
	}
	return "unknown"
}

// CanAccessRoute reports whether role may open route. Public routes are open
// to everyone; unknown routes to no one.
func CanAccessRoute(role domain.Role, route string) bool {
	return Guard(role, route) == Allow
}

// Guard decides what happens when role navigates to route.
func Guard(role domain.Role, route string) Decision {
	if publicRoutes[route] {
		return Allow
	}
	roles, ok := routeRoles[route]
	if !ok {
		return NotFound
	}
	if role == domain.RoleNone {
		return RedirectLogin
	}
	if slices.Contains(roles, role) {
		return Allow
	}
	return Forbidden
}

// IsGuarded reports whether route requires an authenticated session.
func IsGuarded(route string) bool {
	_, ok := routeRoles[route]
	return ok
}

// Navigation returns a copy of the full sidebar in declared order.
func Navigation() []NavItem {
	out := make([]NavItem, len(navigation))
	for i, item := range navigation {
		item.Roles = slices.Clone(item.Roles)
		out[i] = item
	}
	return out
}

// FilterNavigation keeps the items whose role set contains role, preserving order.
func FilterNavigation(role domain.Role, items []NavItem) []NavItem {
	out := make([]NavItem, 0, len(items))
	if role == domain.RoleNone {
		return out
	}
	for _, item := range items {
		if slices.Contains(item.Roles, role) {
			out = append(out, item)
		}
	}
	return out
}
