package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/fleetdesk/portal/docs"
	"github.com/fleetdesk/portal/internal/api/handler"
	"github.com/fleetdesk/portal/internal/api/middleware"
	"github.com/fleetdesk/portal/internal/core/domain"
	"github.com/fleetdesk/portal/internal/core/ports"
)

// Services are the application services the router exposes.
type Services struct {
	Auth           ports.AuthService
	Users          ports.ResourceService[domain.User]
	Cars           ports.ResourceService[domain.Car]
	FuelPrices     ports.ResourceService[domain.FuelPrice]
	TravelPurposes ports.ResourceService[domain.TravelPurposeDictionary]
	Laws           ports.ResourceService[domain.Law]
	Addresses      ports.ResourceService[domain.Address]
}

type Options struct {
	SessionSecret string
	Cookie        handler.CookieConfig
	// Checks are run by GET /health/ready, keyed by dependency name.
	Checks map[string]handler.Check
	// Registry receives the HTTP metrics. Nil means the default registry.
	Registry *prometheus.Registry
	Log      zerolog.Logger
}

// NewRouter builds the Echo instance with all routes registered.
//
// @title        Fleetdesk portal API
// @version      1.0
// @description  Session-backed front end for the fleetdesk company management backend.
// @BasePath     /
func NewRouter(svc Services, opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(opts.Log)

	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if opts.Registry != nil {
		registerer, gatherer = opts.Registry, opts.Registry
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(opts.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "portal",
		Subsystem:  "http",
		Registerer: registerer,
	}))
	e.Use(middleware.Session(opts.SessionSecret, opts.Cookie.Name, svc.Auth, opts.Log))

	// --- Operational routes ---
	health := handler.NewHealthHandler(opts.Checks)
	e.GET("/health", health.Liveness)
	e.GET("/health/ready", health.Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Auth ---
	auth := handler.NewAuthHandler(svc.Auth, opts.Cookie)
	e.POST("/auth/login", auth.Login)
	e.POST("/auth/logout", auth.Logout)
	e.GET("/auth/me", auth.Me)

	// --- Resources ---
	g := e.Group("/api")
	handler.NewResourceHandler(svc.Users).Register(g, middleware.RBAC(domain.RoleAdmin))
	handler.NewResourceHandler(svc.Cars).Register(g)
	handler.NewResourceHandler(svc.FuelPrices).Register(g)
	handler.NewResourceHandler(svc.TravelPurposes).Register(g)
	handler.NewResourceHandler(svc.Laws).Register(g)
	handler.NewResourceHandler(svc.Addresses).Register(g)

	return e
}
