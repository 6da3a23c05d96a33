package router

import (
	"log/slog"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	pkgAuth "github.com/polkiloo/atelier/internal/pkg/auth"
	"github.com/polkiloo/atelier/internal/server/http/handlers"
	"github.com/polkiloo/atelier/internal/server/http/middleware"
)

// Params lists router dependencies.
type Params struct {
	fx.In

	Facade handlers.AtelierFacade
	Health handlers.HealthChecker
	Tokens pkgAuth.Strategy
	Admin  pkgAuth.AdminVerifier
	Logger *slog.Logger
}

// Setup configures gin router with handlers and middleware.
func Setup(p Params) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(p.Logger))
	engine.Use(middleware.DecompressRequest())
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	reservationHandler := handlers.NewReservationHandler(p.Facade)
	orderHandler := handlers.NewOrderHandler(p.Facade)
	itemHandler := handlers.NewItemHandler(p.Facade)
	healthHandler := handlers.NewHealthHandler(p.Health)

	identity := middleware.Identity(p.Tokens)
	adminRequired := middleware.AdminRequired(p.Admin)
	adminOptional := middleware.AdminOptional(p.Admin)

	engine.GET("/healthz", healthHandler.Check)

	api := engine.Group("/api")

	reservations := api.Group("/reservations")
	reservations.POST("/cleanup-expired", adminRequired, reservationHandler.CleanupExpired)

	holds := reservations.Group("")
	holds.Use(identity)
	holds.POST("/hold", reservationHandler.Hold)
	holds.DELETE("/hold", reservationHandler.Release)
	holds.POST("/validate-item", reservationHandler.ValidateItem)
	holds.POST("/validate-cart", reservationHandler.ValidateCart)
	holds.GET("/my-holds", reservationHandler.MyHolds)
	holds.DELETE("/release-all", reservationHandler.ReleaseAll)

	orders := api.Group("/orders")
	orders.GET("/:id", identity, adminOptional, orderHandler.Get)
	orders.GET("/:id/history", identity, adminOptional, orderHandler.History)

	ordersAdmin := orders.Group("")
	ordersAdmin.Use(adminRequired)
	ordersAdmin.POST("", orderHandler.Create)
	ordersAdmin.PUT("/:id/status", orderHandler.UpdateStatus)
	ordersAdmin.POST("/:id/cancel", orderHandler.Cancel)
	ordersAdmin.POST("/:id/mark-paid", orderHandler.MarkPaid)

	api.POST("/items/:id/sale-state", adminRequired, itemHandler.SaleStateChanged)

	return engine
}
