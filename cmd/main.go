package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/spaceventure/server/adapters"
	"github.com/spaceventure/server/adapters/httpfetch"
	adaptermongo "github.com/spaceventure/server/adapters/mongo"
	"github.com/spaceventure/server/adapters/storage"
	"github.com/spaceventure/server/domain/repositories"
	"github.com/spaceventure/server/internal/api"
	"github.com/spaceventure/server/internal/auth"
	"github.com/spaceventure/server/usecase"
)

func main() {
	// Load .env if present; real deployments set the environment directly
	_ = godotenv.Load()

	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit("6M"))

	// Account repository: MongoDB when configured, in-memory otherwise
	accounts := newAccountRepository(logger)

	// Object storage and remote fetch adapters
	cloudinary, err := storage.NewCloudinaryStorage(storage.NewCloudinaryConfigFromEnv(), logger)
	if err != nil {
		logger.Fatal("Object storage configuration invalid", zap.Error(err))
	}
	fetcher := httpfetch.NewFetcher(logger)

	// Core services
	hasher := auth.NewPasswordHasher(envInt("BCRYPT_COST", 10))
	ingestor := usecase.NewImageIngestor(cloudinary, fetcher, logger)
	registration := usecase.NewRegistrationService(accounts, ingestor, hasher, logger)
	issuer := auth.NewTokenIssuer([]byte(mustEnv("JWT_SECRET_KEY", logger)), envDuration("JWT_EXPIRE", 7*24*time.Hour))

	// Initialize API routes
	api.InitRoutes(e, registration, issuer, logger)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("port", port))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

// newAccountRepository picks the document store backing from the environment
func newAccountRepository(logger *zap.Logger) repositories.AccountRepository {
	if os.Getenv("MONGODB_URI") == "" {
		logger.Warn("MONGODB_URI not set, using in-memory account repository")
		return adapters.NewMemoryAccountRepository()
	}

	client, err := adaptermongo.NewClient(logger)
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	accounts, err := adaptermongo.NewAccountRepository(client.Database)
	if err != nil {
		logger.Fatal("Failed to initialize account repository", zap.Error(err))
	}
	return accounts
}

func mustEnv(key string, logger *zap.Logger) string {
	v := os.Getenv(key)
	if v == "" {
		logger.Fatal("Required environment variable is not set", zap.String("key", key))
	}
	return v
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
