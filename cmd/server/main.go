// cmd/server/main.go
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

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/storefront-backend/internal/config"
	"github.com/javajoker/storefront-backend/internal/database"
	"github.com/javajoker/storefront-backend/internal/i18n"
	"github.com/javajoker/storefront-backend/internal/router"
	"github.com/javajoker/storefront-backend/internal/services"
)

const cartSweepInterval = 5 * time.Minute

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	setupLogging(cfg)

	// Initialize i18n
	if err := i18n.Initialize(cfg.I18n.DefaultLocale); err != nil {
		logrus.WithError(err).Fatal("Failed to initialize i18n")
	}

	repos, db, err := openRepositories(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize database")
	}
	if db != nil {
		defer database.Close(db)
	}

	storage, err := services.NewStorageService(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize snapshot storage")
	}

	var gateway services.PaymentGateway
	if cfg.Payment.StripeSecretKey != "" {
		gateway = services.NewStripeGateway(cfg.Payment.StripeSecretKey)
	} else {
		logrus.Warn("STRIPE_SECRET_KEY not set, card payments are disabled")
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router
	srvDeps := router.Dependencies{Repositories: repos, Storage: storage, Gateway: gateway}
	app := router.Initialize(cfg, srvDeps)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	seedCatalog(ctx, repos.Catalog, app.Snapshots)

	go app.Carts.RunSweeper(ctx, cartSweepInterval)
	go app.RateLimiter.RunCleanup(ctx)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      app.Engine,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logrus.WithField("addr", srv.Addr).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server")
	stop()

	// Create a deadline for shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Server forced to shutdown")
	}

	logrus.Info("Server exited")
}

func setupLogging(cfg *config.Config) {
	if cfg.Environment == "production" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
		logrus.SetLevel(logrus.InfoLevel)
		return
	}
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logrus.SetLevel(logrus.DebugLevel)
}

func openRepositories(cfg *config.Config) (router.Repositories, *gorm.DB, error) {
	if cfg.Database.InMemory() {
		logrus.Warn("Using the in-memory database, data is lost on restart")
		store := database.NewMemoryStore()
		return router.Repositories{Catalog: store, Carts: store, Orders: store, Pages: store}, nil, nil
	}

	db, err := database.Initialize(cfg.Database)
	if err != nil {
		return router.Repositories{}, nil, err
	}

	// Run database migrations
	if err := database.RunMigrations(db); err != nil {
		database.Close(db)
		return router.Repositories{}, nil, err
	}

	return router.Repositories{
		Catalog: database.NewCatalogRepository(db),
		Carts:   database.NewCartRepository(db),
		Orders:  database.NewOrderRepository(db),
		Pages:   database.NewPageRepository(db),
	}, db, nil
}

// seedCatalog imports the default snapshot when the catalog is empty.
func seedCatalog(ctx context.Context, catalog services.CatalogRepository, snapshots *services.SnapshotService) {
	products, err := catalog.ListProducts(ctx)
	if err != nil {
		logrus.WithError(err).Warn("Could not inspect catalog before seeding")
		return
	}
	if len(products) > 0 {
		return
	}

	result, err := snapshots.Import(ctx, &services.ImportRequest{})
	if err != nil {
		if errors.Is(err, services.ErrSnapshotNotFound) {
			logrus.Warn("No catalog snapshot found, starting with an empty catalog")
			return
		}
		logrus.WithError(err).Error("Failed to seed catalog")
		return
	}
	logrus.WithField("products", result.Products).Info("Catalog seeded from snapshot")
}
