package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/internal/cache"
	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/internal/config"
	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/internal/database"
	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/internal/pkg/clock"
	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/internal/worker"
	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/pkg/catalog"
)

// main is the entrypoint of the product catalog API.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Msg("starting product api")

	// 3. Prime the category catalog; a broken file stops startup
	categories := catalog.NewLoader(cfg.CategoryCatalogPath)
	primed, err := categories.Reload()
	if err != nil {
		log.Error().Err(err).Msg("category catalog is invalid")
		fmt.Fprintf(os.Stderr, "category catalog is invalid: %v\n", err)
		os.Exit(1)
	}
	log.Info().Int("categories", primed.Len()).Msg("category catalog loaded")

	// 4. Connect database
	db, err := database.Connect(&cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// 4a. Run migrations
	if err := database.Migrate(db); err != nil {
		log.Error().Err(err).Msg("migration failed")
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}
	log.Info().Msg("migrations completed successfully")

	// 5. Connect to Redis when configured
	var redisClient *cache.RedisClient
	if cfg.Redis.Enabled() {
		redisClient, err = cache.NewRedisClient(&cfg.Redis)
		if err != nil {
			log.Error().Err(err).Msg("redis connection failed")
			fmt.Fprintf(os.Stderr, "redis connection failed: %v\n", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		log.Info().Msg("redis connected successfully")
	} else {
		log.Warn().Msg("REDIS_HOST not set - list caching and token revocation disabled")
	}

	// 6. Build the application
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	app := buildApp(cfg, db, redisClient, categories, clock.NewRealClock())
	defer app.Close()

	// 6a. Start background workers
	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()
	if cfg.CatalogReloadInterval > 0 {
		go worker.NewCatalogReloadWorker(categories, cfg.CatalogReloadInterval).Start(workerCtx)
	}

	// 7. Start HTTP server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 8. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	cancelWorkers()
	app.Hub.Close()

	// 9. Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
