package main

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	brainrotmarket "brainrot-market-backend"
	"brainrot-market-backend/internal/bot"
	"brainrot-market-backend/internal/common/cache"
	"brainrot-market-backend/internal/common/config"
	"brainrot-market-backend/internal/common/logger"
	"brainrot-market-backend/internal/common/middleware"
	brainrotHTTP "brainrot-market-backend/internal/features/brainrot/delivery/http"
	brainrotRepo "brainrot-market-backend/internal/features/brainrot/repository/postgres"
	brainrotService "brainrot-market-backend/internal/features/brainrot/service"
	giveawayHTTP "brainrot-market-backend/internal/features/giveaway/delivery/http"
	giveawayRepo "brainrot-market-backend/internal/features/giveaway/repository/postgres"
	giveawayService "brainrot-market-backend/internal/features/giveaway/service"
	pricingService "brainrot-market-backend/internal/features/pricing/service"
	"brainrot-market-backend/internal/platform/postgres"
	"brainrot-market-backend/internal/platform/redis"
	"brainrot-market-backend/internal/utils/random"
)

// @title           Brainrot Market API
// @version         1.0
// @description     Admin API for the brainrot marketplace Discord bot: giveaways, catalog listings and crypto price quotes.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey AdminToken
// @in header
// @name Authorization
// @description Bearer token for the admin panel

// @tag.name giveaways
// @tag.description Giveaway administration - creation, ending, rerolls

// @tag.name brainrots
// @tag.description Catalog administration - listings and price quotes

func main() {
	cfg := config.Load()

	logger.Init("brainrot-market-backend", cfg.Debug)
	log := logger.Component("main")

	log.Info().Bool("debug", cfg.Debug).Msg("Starting brainrot market backend")

	migrations, err := fs.Sub(brainrotmarket.MigrationsFS, "migrations")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open embedded migrations")
	}
	if err := postgres.RunMigrations(cfg.GetMigrateURL(), migrations); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	postgresClient, err := postgres.NewClient(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer postgresClient.Close()

	redisClient, err := redis.NewClient(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()

	priceCache := cache.NewRedisCache(redisClient)

	giveawayRepository := giveawayRepo.NewPostgresRepository(postgresClient.GetDB())
	brainrotRepository := brainrotRepo.NewPostgresRepository(postgresClient.GetDB())

	clock := clockwork.NewRealClock()

	giveawaySvc := giveawayService.NewGiveawayService(
		giveawayRepository, clock, random.NewSource(), logger.Component("giveaway"))
	scheduler := giveawayService.NewScheduler(
		giveawaySvc, giveawayRepository, clock, logger.Component("scheduler"))
	giveawaySvc.SetScheduler(scheduler)

	brainrotSvc := brainrotService.NewBrainrotService(
		brainrotRepository, logger.Component("brainrot"))
	oracle := pricingService.NewPriceService(
		cfg.Pricing.CoinGeckoURL, cfg.Pricing.CoinCapURL,
		priceCache, cfg.Pricing.CacheTTL, logger.Component("pricing"))

	discordBot, err := bot.New(cfg, giveawaySvc, scheduler, brainrotSvc, oracle, logger.Component("bot"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create discord bot")
	}
	scheduler.SetNotifier(discordBot)

	// Catch up on endings missed while the process was down, before any
	// traffic or timers run.
	reconcileCtx, cancelReconcile := context.WithTimeout(context.Background(), 30*time.Second)
	if err := scheduler.Reconcile(reconcileCtx); err != nil {
		log.Error().Err(err).Msg("Startup reconciliation failed")
	}
	cancelReconcile()
	scheduler.Start()
	defer scheduler.Stop()

	if err := discordBot.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Discord")
	}
	defer discordBot.Stop()

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.ErrorHandler(log))
	router.Use(middleware.HandleErrors(log))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.Origin}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization", "Accept"}
	router.Use(cors.New(corsConfig))

	setupRoutes(router, cfg, giveawaySvc, brainrotSvc, oracle, postgresClient, redisClient)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

func setupRoutes(
	router *gin.Engine,
	cfg *config.Config,
	giveawaySvc giveawayService.GiveawayService,
	brainrotSvc brainrotService.BrainrotService,
	oracle pricingService.PriceOracle,
	postgresClient *postgres.Client,
	redisClient goredis.UniversalClient,
) {
	v1 := router.Group("/api/v1")
	v1.Use(middleware.AdminAuth(cfg.Server.AdminToken, logger.Component("auth")))
	{
		giveawayHTTP.NewGiveawayHandler(giveawaySvc).RegisterRoutes(v1)
		brainrotHTTP.NewBrainrotHandler(brainrotSvc, oracle).RegisterRoutes(v1)
	}

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   "brainrot-market-backend",
		})
	})

	router.GET("/live", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := postgresClient.HealthCheck(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "postgres": err.Error()})
			return
		}
		if err := redisClient.Ping(ctx).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "redis": err.Error()})
			return
		}
		c.Status(http.StatusOK)
	})
}
