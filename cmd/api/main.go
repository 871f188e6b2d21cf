package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/router"
	"github.com/pageza/foodgram/backend/internal/server"
	"github.com/pageza/foodgram/backend/internal/service"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Initialize configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(config.GetEnvironment())
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
	logger.Info("server stopped")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	db, err := database.New(cfg, logger)
	if err != nil {
		return err
	}
	if err := database.RunMigrations(db, logger); err != nil {
		return err
	}

	// Redis is optional: without it tokens are not revocable and rate limits
	// are kept in process.
	redisClient, err := database.NewRedisClient(cfg, logger)
	if err != nil {
		logger.Warn("redis unavailable, continuing without it", zap.Error(err))
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	images, err := newImageStore(cfg, logger)
	if err != nil {
		return err
	}

	// Initialize services
	authService := service.NewAuthService(db, cfg.JWTSecret, cfg.TokenTTL, tokenStore(redisClient), logger)
	userService := service.NewUserService(db, logger)
	catalogService := service.NewCatalogService(db, logger)
	recipeService := service.NewRecipeService(db, service.NewImageService(images, logger), logger)

	engine, err := router.SetupRouter(router.Dependencies{
		DB:            db,
		Auth:          authService,
		Users:         userService,
		Catalog:       catalogService,
		Recipes:       recipeService,
		RecipeLimiter: middleware.NewRecipeCreationLimiter(redisClient, cfg.RecipeCreateLimit),
		CORSOrigins:   cfg.CORSOrigins,
		MediaDir:      localMediaDir(cfg),
		MediaURL:      cfg.MediaURL,
		PageSize:      cfg.PageSize,
		Log:           logger,
	})
	if err != nil {
		return err
	}

	srv := server.New(cfg, engine, logger)

	// Channel to listen for errors coming from the server
	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	// Channel to listen for an interrupt or terminate signal from the OS
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-quit:
		logger.Info("received signal", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(ctx)
}

// newImageStore uploads to S3 when a bucket is configured and to the local
// media directory otherwise.
func newImageStore(cfg *config.Config, logger *zap.Logger) (service.ImageStore, error) {
	if cfg.S3Bucket == "" {
		logger.Info("storing images locally", zap.String("dir", cfg.MediaDir))
		return service.NewLocalStore(cfg.MediaDir, cfg.MediaURL), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s3Config, err := config.NewS3Config(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("storing images in s3", zap.String("bucket", s3Config.BucketName))
	return service.NewS3Store(s3Config), nil
}

func localMediaDir(cfg *config.Config) string {
	if cfg.S3Bucket != "" {
		return ""
	}
	return cfg.MediaDir
}

func tokenStore(client *redis.Client) service.TokenStore {
	if client == nil {
		return nil
	}
	return service.NewRedisTokenStore(client)
}
