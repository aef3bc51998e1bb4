package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/erp/shipping/internal/infrastructure/auth"
	"github.com/erp/shipping/internal/infrastructure/config"
	"github.com/erp/shipping/internal/infrastructure/logger"
	"github.com/erp/shipping/internal/interfaces/http/handler"
	"github.com/erp/shipping/internal/interfaces/http/middleware"
)

// Handlers bundles everything the router mounts
type Handlers struct {
	Shipments *handler.ShipmentHandler
	Rates     *handler.RateHandler
	Tracking  *handler.TrackingHandler
	Webhooks  *handler.WebhookHandler
	Carriers  *handler.CarrierAdminHandler
	System    *handler.SystemHandler
}

// New builds the gin engine with all middleware and routes mounted.
// Public tracking and carrier webhooks are unauthenticated; everything
// under /admin requires an admin JWT.
func New(cfg *config.Config, jwtService *auth.JWTService, h Handlers, log *zap.Logger) *gin.Engine {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		_ = engine.SetTrustedProxies(cfg.HTTP.TrustedProxies)
	}

	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.CORS(),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)

	engine.GET("/health", h.System.Health)

	if cfg.Swagger.Enabled {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := engine.Group("/api/v1")

	// Public surface: customer tracking lookup and carrier webhooks
	api.GET("/track/:number", h.Tracking.Track)
	api.POST("/webhooks/courier/:code", h.Webhooks.Receive)

	// Internal surface: booking and shipment lifecycle
	shipments := api.Group("/shipments")
	{
		shipments.POST("", h.Shipments.Create)
		shipments.GET("", h.Shipments.List)
		shipments.POST("/rates", h.Rates.Compare)
		shipments.GET("/:id", h.Shipments.Get)
		shipments.GET("/:id/tracking", h.Shipments.Timeline)
		shipments.GET("/:id/label", h.Shipments.Label)
		shipments.PUT("/:id/status", h.Shipments.UpdateStatus)
		shipments.POST("/:id/cancel", h.Shipments.Cancel)
		shipments.POST("/:id/pickup", h.Shipments.SchedulePickup)
	}

	// Admin surface: carrier configuration and operational controls
	admin := api.Group("/admin")
	admin.Use(middleware.JWTAuth(jwtService), middleware.RequireAdmin())
	{
		admin.GET("/carriers", h.Carriers.List)
		admin.PUT("/carriers", h.Carriers.Save)
		admin.GET("/carriers/:code", h.Carriers.Get)
		admin.DELETE("/carriers/:code", h.Carriers.Delete)
		admin.POST("/carriers/:code/enable", h.Carriers.Enable)
		admin.POST("/carriers/:code/disable", h.Carriers.Disable)
		admin.POST("/tracking/refresh", h.System.RefreshTracking)
	}

	return engine
}
