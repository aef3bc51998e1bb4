package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	appshipping "github.com/erp/shipping/internal/application/shipping"
	"github.com/erp/shipping/internal/infrastructure/auth"
	"github.com/erp/shipping/internal/infrastructure/cache"
	"github.com/erp/shipping/internal/infrastructure/config"
	"github.com/erp/shipping/internal/infrastructure/courier"
	"github.com/erp/shipping/internal/infrastructure/event"
	"github.com/erp/shipping/internal/infrastructure/gateway"
	"github.com/erp/shipping/internal/infrastructure/logger"
	"github.com/erp/shipping/internal/infrastructure/persistence"
	"github.com/erp/shipping/internal/infrastructure/scheduler"
	"github.com/erp/shipping/internal/interfaces/http/handler"
	"github.com/erp/shipping/internal/interfaces/http/router"
)

// version is set at build time via -ldflags
var version = "dev"

//	@title			Shipping Service API
//	@version		1.0
//	@description	Multi-carrier shipment booking and tracking service

//	@contact.name	API Support
//	@contact.url	https://github.com/erp/shipping

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting shipping service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	// Database connection with a GORM logger backed by zap
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Repositories
	shipmentRepo := persistence.NewGormShipmentRepository(db.DB)
	trackingEventRepo := persistence.NewGormTrackingEventRepository(db.DB)
	carrierConfigRepo := persistence.NewGormCarrierConfigRepository(db.DB)

	// Webhook deduplication store (Redis, in-memory fallback for dev)
	idempotencyStore, err := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	).CreateStore()
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	// Outbound gateways to the order and notification services
	fulfillmentGateway := gateway.NewHTTPFulfillmentGateway(cfg.Fulfillment)
	customerNotifier := gateway.NewHTTPCustomerNotifier(cfg.Notification.Endpoint, cfg.Notification.APIKey, log)

	// Event bus and handlers
	eventBus := event.NewInMemoryEventBus(log)

	// Terminal shipment outcomes -> order service + customer notification
	outcomeHandler := appshipping.NewShipmentOutcomeHandler(shipmentRepo, fulfillmentGateway, customerNotifier, log)
	eventBus.Subscribe(outcomeHandler)
	log.Info("Event handlers registered",
		zap.Strings("shipment_outcome_events", outcomeHandler.EventTypes()),
	)

	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Carrier adapter registry, backed by the carrier config repository
	registry := courier.NewRegistry(carrierConfigRepo, log)

	// Application services
	trackingService := appshipping.NewTrackingService(shipmentRepo, trackingEventRepo, registry, idempotencyStore, eventBus, log)
	bookingService := appshipping.NewBookingService(shipmentRepo, trackingEventRepo, carrierConfigRepo, registry, fulfillmentGateway, eventBus, log)
	lookupService := appshipping.NewLookupService(shipmentRepo, trackingEventRepo, registry, trackingService, log)
	rateService := appshipping.NewRateService(registry, log)
	carrierService := appshipping.NewCarrierService(carrierConfigRepo, log)
	pollService := appshipping.NewPollService(shipmentRepo, trackingService, log,
		appshipping.WithStaleness(cfg.Tracking.Staleness),
		appshipping.WithBatchSize(cfg.Tracking.BatchSize),
	)

	// Tracking poll scheduler: the safety net for carriers without webhooks.
	// Always constructed so the admin refresh endpoint works; the loop only
	// starts when polling is enabled.
	pollScheduler := scheduler.NewTrackingPollScheduler(scheduler.TrackingPollSchedulerConfig{
		Enabled:      cfg.Tracking.PollEnabled,
		PollInterval: cfg.Tracking.PollInterval,
		SweepTimeout: 10 * time.Minute,
	}, pollService, log)
	if cfg.Tracking.PollEnabled {
		if err := pollScheduler.Start(context.Background()); err != nil {
			log.Fatal("Failed to start tracking poll scheduler", zap.Error(err))
		}
		defer func() {
			if err := pollScheduler.Stop(context.Background()); err != nil {
				log.Error("Error stopping tracking poll scheduler", zap.Error(err))
			}
		}()
		log.Info("Tracking poll scheduler started",
			zap.Duration("poll_interval", cfg.Tracking.PollInterval),
			zap.Duration("staleness", cfg.Tracking.Staleness),
			zap.Int("batch_size", cfg.Tracking.BatchSize),
		)
	}

	// HTTP layer
	jwtService := auth.NewJWTService(cfg.JWT)
	handlers := router.Handlers{
		Shipments: handler.NewShipmentHandler(bookingService, log),
		Rates:     handler.NewRateHandler(rateService, log),
		Tracking:  handler.NewTrackingHandler(lookupService, log),
		Webhooks:  handler.NewWebhookHandler(trackingService, log),
		Carriers:  handler.NewCarrierAdminHandler(carrierService, log),
		System:    handler.NewSystemHandler(db, pollScheduler, version, log),
	}
	engine := router.New(cfg, jwtService, handlers, log)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
