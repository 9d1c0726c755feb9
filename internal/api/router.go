package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/99minutos/multirole-auth/docs"
	"github.com/99minutos/multirole-auth/internal/api/handler"
	"github.com/99minutos/multirole-auth/internal/api/metrics"
	"github.com/99minutos/multirole-auth/internal/api/middleware"
	"github.com/99minutos/multirole-auth/internal/core/ports"
)

// Deps carries everything the router needs. Registry defaults to the global
// Prometheus registry; tests pass a fresh one so routers can be built twice.
type Deps struct {
	AuthService ports.AuthService
	Authorizer  ports.Authorizer
	Readiness   map[string]handler.DependencyCheck
	Log         zerolog.Logger
	Registry    *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if d.Registry != nil {
		registerer, gatherer = d.Registry, d.Registry
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.CORS())
	e.Use(requestLogger(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  metrics.Namespace,
		Registerer: registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || strings.HasPrefix(c.Path(), "/swagger")
		},
	}))

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(d.AuthService, d.Log)
	accessHandler := handler.NewAccessHandler(d.AuthService, d.Authorizer)
	basicAuth := middleware.BasicAuth(d.AuthService, d.Log)

	// --- Auth routes (public) ---
	auth := e.Group("/api/auth")
	auth.GET("/public/health", authHandler.PublicHealth)
	auth.POST("/logout", authHandler.Logout)
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	// --- Role-protected resources ---
	admin := e.Group("/api/admin", basicAuth)
	admin.GET("/dashboard", accessHandler.AdminDashboard)
	admin.GET("/users", accessHandler.AdminUsers)
	admin.GET("/statistics", accessHandler.AdminStatistics)
	admin.PUT("/users/:id/roles", accessHandler.UpdateUserRoles)

	manager := e.Group("/api/manager", basicAuth)
	manager.GET("/dashboard", accessHandler.ManagerDashboard)
	manager.GET("/team", accessHandler.ManagerTeam)
	manager.GET("/reports", accessHandler.ManagerReports)

	user := e.Group("/api/user", basicAuth)
	user.GET("/profile", accessHandler.UserProfile)
	user.GET("/dashboard", accessHandler.UserDashboard)
	user.GET("/settings", accessHandler.UserSettings)

	// --- Health probes, metrics and docs (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(d.Readiness)

	e.GET("/health", healthHandler.Liveness)           // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// requestLogger feeds echo's request logger into zerolog.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				evt = log.Error().Err(v.Error)
			}
			evt.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
