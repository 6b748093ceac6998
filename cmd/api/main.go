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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/TreasureHunt-org/backend/internal/data"
	"github.com/TreasureHunt-org/backend/internal/handler"
	"github.com/TreasureHunt-org/backend/internal/infrastructure"
	"github.com/TreasureHunt-org/backend/internal/judge"
	"github.com/TreasureHunt-org/backend/internal/languages"
	"github.com/TreasureHunt-org/backend/internal/lock"
	"github.com/TreasureHunt-org/backend/internal/middleware"
	"github.com/TreasureHunt-org/backend/internal/repository"
	"github.com/TreasureHunt-org/backend/internal/service"
)

func main() {
	// Load configuration
	config := infrastructure.LoadConfig()

	// Initialize logger
	logger, err := infrastructure.NewLogger(config.Server.Environment)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer infrastructure.SyncLogger(logger)

	logger.Info("Starting TreasureHunt submission API",
		zap.String("environment", config.Server.Environment),
		zap.Int("port", config.Server.Port),
	)

	// Initialize context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize telemetry
	telemetry, err := infrastructure.NewTelemetry(ctx, &config.Telemetry, config.Server.Environment, logger)
	if err != nil {
		logger.Error("Failed to initialize telemetry", zap.Error(err))
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		telemetry.Shutdown(shutdownCtx)
	}()

	metrics, err := telemetry.CreateMetrics()
	if err != nil {
		logger.Error("Failed to create metrics", zap.Error(err))
		os.Exit(1)
	}

	// Initialize database
	database, err := infrastructure.NewDatabase(&config.Database, logger)
	if err != nil {
		logger.Error("Failed to connect to database", zap.Error(err))
		os.Exit(1)
	}
	defer database.Close()

	if err := database.AutoMigrate(); err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		os.Exit(1)
	}

	if config.Server.SeedDemoData {
		seeder := data.NewSeeder(database.DB, logger)
		if err := seeder.SeedDemoHunt(); err != nil {
			logger.Error("Failed to seed demo hunt", zap.Error(err))
			os.Exit(1)
		}
	}

	// Language catalogue, reloaded when the file changes
	catalog, err := languages.NewCatalog(config.Languages.File, logger)
	if err != nil {
		logger.Error("Failed to load language catalogue", zap.Error(err))
		os.Exit(1)
	}
	if config.Languages.File != "" {
		go catalog.Watch(ctx, config.Languages.ReloadInterval)
	}

	// Award lock, shared across replicas when Redis is configured
	var locker lock.Locker = lock.NewLocalLocker()
	var redisClient *redis.Client
	if config.Redis.Enabled {
		redisClient, err = infrastructure.NewRedisClient(ctx, &config.Redis, logger)
		if err != nil {
			logger.Error("Failed to connect to redis", zap.Error(err))
			os.Exit(1)
		}
		defer redisClient.Close()
		locker = lock.NewRedisLocker(redisClient, config.Redis.LockTTL, config.Redis.LockWait, logger)
	} else {
		logger.Warn("Redis disabled, award lock is process-local")
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(database.DB)
	huntRepo := repository.NewHuntRepository(database.DB)
	challengeRepo := repository.NewChallengeRepository(database.DB)
	submissionRepo := repository.NewSubmissionRepository(database.DB)
	awardRepo := repository.NewAwardRepository(database.DB)

	// Initialize services
	sandbox := judge.NewClient(&config.Judge, telemetry.Tracer, metrics, logger)
	evaluator := service.NewEvaluator(sandbox, catalog, config.Judge.MaxConcurrency, telemetry.Tracer, logger)
	submissionService := service.NewSubmissionService(challengeRepo, submissionRepo, userRepo, evaluator, metrics, telemetry.Tracer, logger)
	scoringService := service.NewScoringService(challengeRepo, huntRepo, submissionRepo, userRepo, awardRepo, locker, metrics, telemetry.Tracer, logger)
	identityService := service.NewIdentityService(&config.JWT)

	// Initialize handlers
	challengeHandler := handler.NewChallengeHandler(submissionService, scoringService)
	huntHandler := handler.NewHuntHandler(scoringService)
	submissionHandler := handler.NewSubmissionHandler(submissionService)
	languageHandler := handler.NewLanguageHandler(catalog)
	userHandler := handler.NewUserHandler(scoringService)

	// Setup Gin router
	if config.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.CORSMiddleware(middleware.NewCORSConfig(config.Server.AllowedOrigins)))
	router.Use(middleware.TracingMiddleware(telemetry.Tracer))
	router.Use(middleware.MetricsMiddleware(metrics, "/health", "/metrics"))

	router.GET("/health", func(c *gin.Context) {
		if err := database.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database connection failed",
			})
			return
		}
		if redisClient != nil {
			if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status": "unhealthy",
					"error":  "redis connection failed",
				})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": config.Telemetry.ServiceVersion,
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		api.GET("/languages", languageHandler.ListLanguages)

		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(identityService))
		{
			challenges := protected.Group("/challenges")
			{
				challenges.POST("/:id/validate", challengeHandler.ValidateSolution)
				challenges.POST("/:id/submissions", challengeHandler.SubmitSolution)
				challenges.POST("/:id/game-on", challengeHandler.GameOn)
				challenges.GET("/:id/tally", challengeHandler.GetTally)
			}

			protected.GET("/hunts/:id/challenges/info", huntHandler.GetChallengesInfo)

			submissions := protected.Group("/submissions")
			{
				submissions.GET("", submissionHandler.ListSubmissions)
				submissions.GET("/:id", submissionHandler.GetSubmission)
			}

			users := protected.Group("/users")
			{
				users.GET("/me/score", userHandler.GetScore)
				users.POST("/me/score/reconcile", userHandler.ReconcileScore)
			}
		}
	}

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port),
		Handler:      router,
		ReadTimeout:  config.Server.ReadTimeout,
		WriteTimeout: config.Server.WriteTimeout,
	}

	go func() {
		logger.Info("HTTP server starting",
			zap.String("address", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	cancel()

	// In-flight evaluations can take several sandbox round trips
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
