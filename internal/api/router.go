package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/schoolcanteen/canteen-system/docs"
	"github.com/schoolcanteen/canteen-system/internal/api/handler"
	"github.com/schoolcanteen/canteen-system/internal/api/middleware"
	"github.com/schoolcanteen/canteen-system/internal/core/domain"
	"github.com/schoolcanteen/canteen-system/internal/core/ports"
)

// Dependencies are the services the HTTP layer is built on.
type Dependencies struct {
	Auth     ports.AuthService
	Shop     ports.ShopService
	Accounts ports.AccountService
	Catalog  ports.CatalogService
	History  ports.HistoryService
	Cards    ports.CardService

	// HealthChecks are run by the readiness probe, keyed by dependency name.
	HealthChecks map[string]handler.HealthCheck

	JWTSecret string
	Log       zerolog.Logger

	// Registerer receives the HTTP metrics; nil means the default registry.
	Registerer prometheus.Registerer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = handler.NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(deps.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "canteen",
		Registerer: deps.Registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || c.Path() == "/health" || c.Path() == "/health/ready"
		},
	}))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Auth, deps.Shop)
	walletHandler := handler.NewWalletHandler(deps.Shop)
	cartHandler := handler.NewCartHandler(deps.Shop)
	checkoutHandler := handler.NewCheckoutHandler(deps.Shop)
	historyHandler := handler.NewHistoryHandler(deps.History)
	catalogHandler := handler.NewCatalogHandler(deps.Catalog)
	cardHandler := handler.NewCardHandler(deps.Cards)
	adminHandler := handler.NewAdminHandler(deps.Accounts)
	healthHandler := handler.NewHealthHandler(deps.HealthChecks)

	authMiddleware := middleware.Auth(deps.JWTSecret)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/logout", authHandler.Logout, authMiddleware)

	// --- Student routes ---
	v1 := e.Group("/v1", authMiddleware)
	v1.GET("/products", catalogHandler.List)
	v1.GET("/products/:id", catalogHandler.Get)

	v1.GET("/wallet", walletHandler.GetWallet)
	v1.POST("/wallet/top-up", walletHandler.TopUp)

	v1.GET("/cart", cartHandler.GetCart)
	v1.POST("/cart/items", cartHandler.AddItem)
	v1.DELETE("/cart/items/:line_id", cartHandler.RemoveItem)
	v1.DELETE("/cart", cartHandler.Clear)

	v1.POST("/checkout", checkoutHandler.Checkout)
	v1.GET("/purchases", historyHandler.List)

	v1.GET("/cards", cardHandler.List)
	v1.POST("/cards", cardHandler.Add)
	v1.DELETE("/cards/:id", cardHandler.Remove)

	// --- Admin routes ---
	admin := v1.Group("/admin", middleware.RBAC(domain.RoleAdmin))
	admin.GET("/accounts", adminHandler.ListAccounts)
	admin.PATCH("/accounts/:id", adminHandler.UpdateAccount)
	admin.PUT("/accounts/:id/wallet", adminHandler.SetWallet)

	// --- Health probes (no auth required) ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)

	// --- Ops ---
	if deps.Registerer == nil {
		e.GET("/metrics", echoprometheus.NewHandler())
	} else if g, ok := deps.Registerer.(prometheus.Gatherer); ok {
		e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: g}))
	}
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
