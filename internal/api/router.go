package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/primar/console/internal/api/handler"
	"github.com/primar/console/internal/api/middleware"
	"github.com/primar/console/internal/core/authz"
	"github.com/primar/console/internal/core/domain"
	"github.com/primar/console/internal/core/ports"
	"github.com/primar/console/pkg/logger"
)

// Deps are the services the router exposes.
type Deps struct {
	Logger    zerolog.Logger
	Auth      ports.AuthService
	Tasks     ports.TaskService
	Clients   ports.ClientService
	Directory ports.DirectoryService

	StrictTransitions bool
	// Location is used to read agenda dates. Defaults to UTC.
	Location *time.Location
	// HealthChecks are pinged by the readiness check, keyed by dependency name.
	HealthChecks map[string]handler.PingFunc
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogStatus:    true,
		LogMethod:    true,
		LogURI:       true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := logger.AccessEvent(deps.Logger, v.Status).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID)
			if v.Error != nil {
				ev = ev.Err(v.Error)
			}
			ev.Msg("request")
			return nil
		},
	}))
	e.Use(echoprometheus.NewMiddleware("primar"))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	navHandler := handler.NewNavigationHandler()
	taskHandler := handler.NewTaskHandler(deps.Tasks)
	boardHandler := handler.NewBoardHandler(deps.Tasks, deps.StrictTransitions, deps.Location)
	clientHandler := handler.NewClientHandler(deps.Clients)
	dirHandler := handler.NewDirectoryHandler(deps.Directory)

	authenticated := middleware.Auth(deps.Auth)

	// --- Auth routes ---
	e.POST("/auth/signup", authHandler.SignUp)
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/logout", authHandler.Logout, middleware.Token())
	e.POST("/auth/refresh", authHandler.Refresh, middleware.Token())
	e.GET("/auth/session", authHandler.Session, middleware.Token())

	v1 := e.Group("/v1", authenticated)

	// --- Any role ---
	v1.GET("/navigation", navHandler.Navigation)
	v1.GET("/access", navHandler.Access)
	v1.PATCH("/profile", dirHandler.UpdateProfile)

	// --- Clientes ---
	clients := v1.Group("/clients", middleware.RequireRoute(authz.RouteClients))
	clients.GET("", clientHandler.List)
	clients.POST("", clientHandler.Create)
	clients.GET("/stats", clientHandler.Stats)
	clients.PATCH("/:id", clientHandler.Update)
	clients.DELETE("/:id", clientHandler.Deactivate)

	// --- Funcionários ---
	staff := middleware.RequireRoute(authz.RouteStaff)
	v1.GET("/staff", dirHandler.Staff, staff)
	v1.PUT("/users/:user_id/role", dirHandler.AssignRole, staff, middleware.RBAC(domain.RoleAdmin))

	// --- Tarefas ---
	tasksRoute := middleware.RequireRoute(authz.RouteTasks)
	v1.GET("/assignees", dirHandler.Assignees, tasksRoute)
	tasks := v1.Group("/tasks", tasksRoute)
	tasks.GET("", taskHandler.List)
	tasks.POST("", taskHandler.Create)
	tasks.GET("/:id", taskHandler.Get)
	tasks.PATCH("/:id", taskHandler.Update)
	tasks.DELETE("/:id", taskHandler.Delete)
	tasks.POST("/:id/unblock", taskHandler.Unblock, middleware.RBAC(domain.RoleAdmin))
	tasks.POST("/:id/complete", taskHandler.Complete)

	v1.GET("/board", boardHandler.Board, tasksRoute)
	v1.POST("/board/drop", boardHandler.Drop, tasksRoute)

	// --- Agenda ---
	agenda := v1.Group("/agenda", middleware.RequireRoute(authz.RouteAgenda))
	agenda.GET("", boardHandler.Month)
	agenda.GET("/day", boardHandler.Day)

	// --- Solicitações ---
	v1.GET("/requests", taskHandler.Requests, middleware.RequireRoute(authz.RouteRequests))

	// --- Financeiro ---
	v1.GET("/finance/summary", clientHandler.Finance, middleware.RequireRoute(authz.RouteFinance))

	// --- Health checks, metrics and docs (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.HealthChecks)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
