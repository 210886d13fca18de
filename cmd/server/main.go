package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ikkim/udonggeum-storefront/config"
	"github.com/ikkim/udonggeum-storefront/internal/app/controller"
	"github.com/ikkim/udonggeum-storefront/internal/app/repository"
	"github.com/ikkim/udonggeum-storefront/internal/app/service"
	"github.com/ikkim/udonggeum-storefront/internal/kvstore"
	"github.com/ikkim/udonggeum-storefront/internal/middleware"
	"github.com/ikkim/udonggeum-storefront/internal/router"
	"github.com/ikkim/udonggeum-storefront/internal/scheduler"
	"github.com/ikkim/udonggeum-storefront/internal/websocket"
	"github.com/ikkim/udonggeum-storefront/pkg/apiclient"
	"github.com/ikkim/udonggeum-storefront/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      cfg.Server.LogFormat,
		EnableColor: cfg.Server.LogFormat == "console",
	})

	logger.Info("Starting UDONGGEUM Storefront", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"storage":     cfg.Storage.Driver,
		"api":         cfg.API.BaseURL,
		"log_level":   logLevel,
	})
	if cfg.EphemeralStorage() {
		logger.Warn("STORAGE_DRIVER is memory; guest carts and sessions are lost on restart", map[string]interface{}{
			"environment": cfg.Server.Environment,
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Open key-value store
	store, closeStore, err := kvstore.NewFactory(cfg).Create(ctx)
	if err != nil {
		logger.Fatal("Failed to open key-value store", err)
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Error("Failed to close key-value store", err)
		}
	}()

	// Initialize repositories
	sessionRepo := repository.NewSessionRepository(store)
	apiClient, err := apiclient.NewClient(apiclient.Config{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.API.Timeout,
		UserAgent: "udonggeum-storefront",
	}, sessionRepo)
	if err != nil {
		logger.Fatal("Failed to create commerce API client", err)
	}

	cartRepo := repository.NewCartRepository(store)
	wishlistRepo := repository.NewWishlistRepository(store)
	checkoutRepo := repository.NewCheckoutRepository(store)
	serverCartRepo := repository.NewServerCartRepository(apiClient)
	serverWishlistRepo := repository.NewServerWishlistRepository(apiClient)
	authRepo := repository.NewAuthRepository(apiClient)
	orderRepo := repository.NewOrderRepository(apiClient)

	// Event hub
	hub := websocket.NewHub()
	go hub.Run(ctx)

	// Initialize services
	cartService := service.NewCartService(cartRepo, serverCartRepo, sessionRepo, hub)
	wishlistService := service.NewWishlistService(wishlistRepo, serverWishlistRepo, sessionRepo, hub)
	migrationService := service.NewMigrationService(cartRepo, wishlistRepo, serverCartRepo, serverWishlistRepo)
	sessionService := service.NewSessionService(
		sessionRepo,
		authRepo,
		wishlistRepo,
		migrationService,
		cartService,
		wishlistService,
		hub,
	)
	checkoutService := service.NewCheckoutService(checkoutRepo, orderRepo, cartService, sessionRepo)

	// Warm the in-memory views
	if err := cartService.Load(ctx); err != nil {
		logger.Warn("Failed to load cart on startup", map[string]interface{}{
			"error": err.Error(),
		})
	}
	if err := wishlistService.Load(ctx); err != nil {
		logger.Warn("Failed to load wishlist on startup", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// Initialize controllers
	cartController := controller.NewCartController(cartService)
	wishlistController := controller.NewWishlistController(wishlistService)
	sessionController := controller.NewSessionController(sessionService, migrationService)
	checkoutController := controller.NewCheckoutController(checkoutService)
	eventsController := controller.NewEventsController(
		hub,
		cfg.CORS.AllowedOrigins,
		cartService,
		wishlistService,
		sessionService,
	)

	// Initialize middleware
	sessionMiddleware := middleware.NewSessionMiddleware(sessionService)

	// Setup router
	r := router.NewRouter(
		cartController,
		wishlistController,
		sessionController,
		checkoutController,
		eventsController,
		sessionMiddleware,
		cfg,
	)
	engine := r.Setup()

	// Start migration sweep
	sweeper := scheduler.NewMigrationScheduler(cfg.Migration.SweepSchedule, sessionService, migrationService)
	if err := sweeper.Start(); err != nil {
		logger.Fatal("Failed to start migration sweep", err)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: engine,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")

	sweeper.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}
	cancel()

	logger.Info("Server stopped successfully")
}
