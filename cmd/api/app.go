package main

import (
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/internal/cache"
	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/internal/config"
	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/internal/handler"
	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/internal/middleware"
	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/internal/pkg/clock"
	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/internal/repository"
	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/internal/service"
	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/internal/sse"
	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/internal/utils"
	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/pkg/catalog"
)

// Handlers groups every HTTP handler the router needs.
type Handlers struct {
	Health   *handler.HealthHandler
	Auth     *handler.AuthHandler
	Category *handler.CategoryHandler
	Product  *handler.ProductHandler
	SSE      *handler.SSEHandler
}

// App is the assembled HTTP application.
type App struct {
	Router  *gin.Engine
	Hub     *sse.Hub
	limiter *middleware.InvalidAuthRateLimiter
}

// Close releases background resources owned by the app.
func (a *App) Close() {
	a.limiter.Close()
}

// buildApp wires repositories, services and handlers. redisClient may be nil,
// which disables list caching and token revocation. categories is shared with
// the reload worker.
func buildApp(cfg *config.Config, db *sqlx.DB, redisClient *cache.RedisClient, categories *catalog.Loader, clk clock.Clock) *App {
	// Repositories
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)

	// Shared infrastructure
	jwtManager := utils.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)
	hub := sse.NewHub()
	limiter := middleware.NewInvalidAuthRateLimiter(middleware.DefaultMaxFailures, middleware.DefaultFailureWindow)

	var (
		revoker   service.TokenRevoker
		revoked   middleware.RevocationChecker
		redisPing handler.Pinger
	)
	productSvc := service.NewProductService(db, productRepo, categories, clk)
	productSvc.SetNotifier(sse.NewHubNotifier(hub))
	if redisClient != nil {
		blacklist := cache.NewTokenBlacklist(redisClient)
		revoker, revoked, redisPing = blacklist, blacklist, redisClient
		productSvc.SetListCache(cache.NewProductListCache(redisClient, cfg.Redis.ListCacheTTL))
	}
	authSvc := service.NewAuthService(userRepo, jwtManager, revoker, clk)

	jwtMiddleware := middleware.NewJWTMiddleware(jwtManager, revoked)

	handlers := &Handlers{
		Health:   handler.NewHealthHandler(db, redisPing),
		Auth:     handler.NewAuthHandler(authSvc, limiter),
		Category: handler.NewCategoryHandler(categories),
		Product: handler.NewProductHandler(productSvc, service.PageDefaults{
			PerPage:    cfg.Pagination.PerPage,
			MaxPerPage: cfg.Pagination.MaxPerPage,
		}),
		SSE: handler.NewSSEHandler(hub, jwtMiddleware),
	}

	metrics := middleware.NewMetrics()
	metrics.Registerer().MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "product_api_sse_clients",
		Help: "Connected product event stream clients.",
	}, func() float64 { return float64(hub.ClientCount()) }))

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(metrics.Handle())
	router.Use(middleware.SecureHeaders(cfg.Env == "production"))
	router.Use(middleware.CORSMiddleware(cfg.CORSAllowedHosts))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	setupRoutes(router, handlers, jwtMiddleware, limiter)

	return &App{Router: router, Hub: hub, limiter: limiter}
}

func setupRoutes(router *gin.Engine, handlers *Handlers, jwtMiddleware *middleware.JWTMiddleware, limiter *middleware.InvalidAuthRateLimiter) {
	v1 := router.Group("/api/v1")

	v1.GET("/health", handlers.Health.GetHealth)
	v1.GET("/product-categories", handlers.Category.Index)

	// Auth routes
	auth := v1.Group("/auth")
	{
		auth.POST("/register", handlers.Auth.Register)
		auth.POST("/login", limiter.Guard(), handlers.Auth.Login)
		auth.POST("/logout", jwtMiddleware.Handle(), handlers.Auth.Logout)
		auth.GET("/me", jwtMiddleware.Handle(), handlers.Auth.Me)
	}

	// SSE authenticates through the token query parameter.
	v1.GET("/products/events", handlers.SSE.Stream)

	products := v1.Group("/products")
	products.Use(jwtMiddleware.Handle())
	{
		products.GET("", handlers.Product.Index)
		products.POST("", handlers.Product.Store)
		products.GET("/:id", handlers.Product.Show)
		products.PUT("/:id", handlers.Product.Update)
		products.PATCH("/:id", handlers.Product.Update)
		products.DELETE("/:id", handlers.Product.Destroy)
	}
}
