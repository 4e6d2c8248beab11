package main

import (
	"context"
	"errors"
	"fitformula/api/internal/api"
	"fitformula/api/internal/cache"
	"fitformula/api/internal/clock"
	"fitformula/api/internal/config"
	"fitformula/api/internal/identity"
	"fitformula/api/internal/logger"
	"fitformula/api/internal/plangen"
	"fitformula/api/internal/repository"
	"fitformula/api/internal/repository/memory"
	"fitformula/api/internal/repository/mongo"
	"fitformula/api/internal/service"
	"fitformula/api/internal/storage"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// @title FitFormula API
// @version 1.0
// @description Plan generation and plan history for the FitFormula.AI web client.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}

	logg, err := logger.New(cfg.Logger.Level)
	if err != nil {
		log.Fatalf("FATAL: Could not build logger: %v", err)
	}
	defer func() { _ = logg.Sync() }()
	logg.Info("Starting FitFormula API", zap.String("address", cfg.Server.Address), zap.String("db_driver", cfg.Database.Driver))

	// createdAt is assigned here, never by clients
	serverClock := clock.NewMonotonic(clock.SystemClock{})

	// --- Repositories ---
	var (
		historyRepo repository.PlanHistoryRepository
		userRepo    repository.UserRepository
	)
	switch cfg.Database.Driver {
	case "memory":
		logg.Warn("Using in-memory repositories; data is lost on restart")
		historyRepo = memory.NewPlanHistoryRepository(serverClock)
		userRepo = memory.NewUserRepository(serverClock)
	default:
		dbClient, err := mongo.ConnectDB(cfg.Database.URI)
		if err != nil {
			logg.Fatal("Could not connect to MongoDB", zap.Error(err))
		}
		defer func() {
			logg.Info("Disconnecting MongoDB...")
			if err := mongo.DisconnectDB(dbClient); err != nil {
				logg.Error("Failed to disconnect MongoDB", zap.Error(err))
			}
		}()
		appDB := dbClient.Database(cfg.Database.Name)
		logg.Info("Database connection established", zap.String("database", cfg.Database.Name))

		go func() { // Run index creation in the background
			ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
			defer cancel()
			if err := mongo.EnsureIndexes(ctx, appDB); err != nil {
				logg.Error("Index creation failed", zap.Error(err))
				return
			}
			logg.Info("Index creation process completed")
		}()

		historyRepo = mongo.NewMongoPlanHistoryRepository(appDB, serverClock)
		userRepo = mongo.NewMongoUserRepository(appDB, serverClock)
	}

	// --- Caches ---
	var (
		denylist cache.TokenDenylist
		trials   cache.TrialTracker
	)
	if cfg.Redis.Addr != "" {
		rdb, err := cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logg.Fatal("Could not connect to Redis", zap.Error(err))
		}
		defer func() { _ = rdb.Close() }()
		denylist = cache.NewRedisDenylist(rdb)
		trials = cache.NewRedisTrialTracker(rdb)
		logg.Info("Redis connection established", zap.String("addr", cfg.Redis.Addr))
	} else {
		logg.Warn("redis.addr not set; token revocation and free trials are tracked per instance")
		denylist = cache.NewMemoryDenylist(clock.SystemClock{})
		trials = cache.NewMemoryTrialTracker(clock.SystemClock{})
	}

	// --- Optional integrations ---
	var fileStorage storage.FileStorage
	if cfg.S3.BucketName != "" {
		initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		fileStorage, err = storage.NewS3Storage(initCtx, cfg.S3, logg)
		cancel()
		if err != nil {
			logg.Fatal("Failed to initialize S3 storage", zap.Error(err))
		}
	} else {
		logg.Warn("s3.bucket_name not set; plan export is disabled")
	}

	var googleVerifier identity.GoogleVerifier
	if cfg.Google.ClientID != "" {
		googleVerifier = identity.NewGoogleVerifier(cfg.Google.ClientID)
	} else {
		logg.Warn("google.client_id not set; Google sign-in is disabled")
	}

	planClient, err := plangen.NewClient(cfg.PlanGen.BaseURL, cfg.PlanGen.Timeout)
	if err != nil {
		logg.Fatal("Invalid plan API configuration", zap.Error(err))
	}

	// --- Services ---
	authService := service.NewAuthService(userRepo, denylist, googleVerifier, cfg.JWT.Secret, cfg.JWT.Expiration)
	historyService := service.NewPlanHistoryService(historyRepo)
	generationService := service.NewPlanGenerationService(planClient, historyService, trials, cfg.Trial.Window, logg)
	exportService := service.NewExportService(historyService, fileStorage)

	// --- Gin Engine ---
	gin.SetMode(cfg.Server.Mode)
	router, err := api.NewRouter(cfg.Server.TrustedProxies)
	if err != nil {
		logg.Fatal("Could not build router", zap.Error(err))
	}
	api.SetupRoutes(router, logg, cfg.Server.AllowedOrigins, authService, historyService, generationService, exportService)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: router,
		// Plan generation can take well over a minute upstream
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.PlanGen.Timeout + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Fatal("ListenAndServe error", zap.Error(err))
		}
	}()
	logg.Info("Server started", zap.String("address", cfg.Server.Address))

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logg.Info("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logg.Error("Server forced to shutdown", zap.Error(err))
	}

	logg.Info("Server exiting")
}
