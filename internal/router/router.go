// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/javajoker/storefront-backend/internal/config"
	"github.com/javajoker/storefront-backend/internal/handlers"
	"github.com/javajoker/storefront-backend/internal/middleware"
	"github.com/javajoker/storefront-backend/internal/services"
	"github.com/javajoker/storefront-backend/internal/utils"
)

// Repositories are the stores the services read and write.
type Repositories struct {
	Catalog services.CatalogRepository
	Carts   services.CartRepository
	Orders  services.OrderRepository
	Pages   services.PageRepository
}

// Dependencies are built by the caller so tests can swap them.
type Dependencies struct {
	Repositories
	Storage *services.StorageService
	// Gateway may be nil, which disables card payments.
	Gateway services.PaymentGateway
}

// Server is the routed engine plus the services with background work.
type Server struct {
	Engine      *gin.Engine
	Carts       *services.CartService
	Snapshots   *services.SnapshotService
	RateLimiter *middleware.RateLimiter
}

func Initialize(cfg *config.Config, deps Dependencies) *Server {
	// Initialize services
	productService := services.NewProductService(deps.Catalog, cfg)
	cartService := services.NewCartService(deps.Carts, productService, cfg)
	paymentService := services.NewPaymentService(cartService, productService, deps.Orders, deps.Gateway, cfg)
	paymentService.SetNotifier(services.NewNotificationService(cfg))
	pageService := services.NewPageService(deps.Pages, productService)
	snapshotService := services.NewSnapshotService(deps.Storage, deps.Catalog, pageService)

	// Initialize handlers
	productHandler := handlers.NewProductHandler(productService, cartService)
	cartHandler := handlers.NewCartHandler(cartService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	pageHandler := handlers.NewPageHandler(pageService, cartService)
	adminHandler := handlers.NewAdminHandler(snapshotService, paymentService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	limiter := middleware.NewRateLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	r.Use(middleware.I18nMiddleware(cfg.I18n.DefaultLocale))
	r.Use(limiter.Middleware())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Catalog routes
		products := v1.Group("/products")
		products.Use(middleware.OptionalSession())
		{
			products.GET("", productHandler.GetProducts)
			products.GET("/:id", productHandler.GetProduct)
			products.POST("/:id/resolve", productHandler.Resolve)
			products.POST("/:id/select", productHandler.Select)
			products.POST("/:id/quantity", productHandler.StepQuantity)
		}

		v1.GET("/categories", productHandler.GetCategories)
		v1.GET("/catalog/price-range", productHandler.GetPriceRange)
		v1.GET("/pages/:slug", middleware.OptionalSession(), pageHandler.GetPage)

		// Cart session routes
		v1.POST("/sessions", cartHandler.StartSession)

		cart := v1.Group("/cart")
		cart.Use(middleware.SessionRequired())
		{
			cart.GET("", cartHandler.GetCart)
			cart.DELETE("", cartHandler.ClearCart)
			cart.POST("/lines", cartHandler.AddLine)
			cart.PUT("/lines/:id", cartHandler.SetLineQuantity)
			cart.DELETE("/lines/:id", cartHandler.RemoveLine)
			cart.POST("/lines/:id/increment", cartHandler.IncrementLine)
			cart.POST("/lines/:id/decrement", cartHandler.DecrementLine)
			cart.PUT("/lines/:id/variants", cartHandler.UpdateLineVariants)
			cart.POST("/checkout", paymentHandler.Checkout)
		}

		orders := v1.Group("/orders")
		orders.Use(middleware.SessionRequired())
		{
			orders.GET("/:id", paymentHandler.GetOrder)
			orders.POST("/:id/confirm", paymentHandler.ConfirmPayment)
		}

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AdminRequired(cfg.Admin.ImportTokenHash))
		{
			admin.POST("/snapshots/import", adminHandler.ImportSnapshot)
			admin.PUT("/snapshots/current", adminHandler.UploadSnapshot)
			admin.GET("/orders", adminHandler.GetOrders)
			admin.GET("/orders/:id", adminHandler.GetOrder)
		}
	}

	return &Server{
		Engine:      r,
		Carts:       cartService,
		Snapshots:   snapshotService,
		RateLimiter: limiter,
	}
}
