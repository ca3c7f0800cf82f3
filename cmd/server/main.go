package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ludoteca/catalog-api/internal/api"
	"github.com/ludoteca/catalog-api/internal/config"
	"github.com/ludoteca/catalog-api/internal/oidc"
	"github.com/ludoteca/catalog-api/internal/queue"
	"github.com/ludoteca/catalog-api/internal/repository/postgres"
	redisstore "github.com/ludoteca/catalog-api/internal/repository/redis"
	"github.com/ludoteca/catalog-api/internal/service"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Environment)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	// Initialize database
	db, err := postgres.NewConnection(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}

	// Initialize Redis
	redisClient, err := redisstore.NewClient(cfg.RedisURL)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()

	// Initialize repositories and stores
	repos := postgres.NewRepositories(db)
	cache := redisstore.NewCache(redisClient, "cache")
	ledger := redisstore.NewLedger(redisClient, "idempotency")
	jobQueue := redisstore.NewQueue(redisClient, "queue")

	// Initialize services
	services := service.NewServices(repos, cache, ledger, jobQueue, cfg, logger)

	// Start the batch worker
	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	worker := queue.NewWorker(jobQueue, repos.BoardGame, cfg.WorkerConcurrency, logger)
	go worker.Run(workerCtx)

	// Initialize authorization server
	provider := oidc.NewProvider(redisClient, cfg, logger)

	// Initialize router
	router := api.NewRouter(services, provider, logger)

	// Create server
	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	stopWorker()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

func newLogger(environment string) (*zap.Logger, error) {
	if environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
