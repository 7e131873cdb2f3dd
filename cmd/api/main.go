package main

import (
	"context"
	"log"
	"net/http"
	"time"

	v1 "go-parley/cmd/api/router/v1"
	cacheAdapter "go-parley/internal/infrastructure/cache/adapter"
	"go-parley/internal/infrastructure/database"
	identityAdapter "go-parley/internal/infrastructure/identity/adapter"
	queueAdapter "go-parley/internal/infrastructure/queue/adapter"
	"go-parley/internal/pkg/chat/application/task"
	chat "go-parley/internal/pkg/chat/domain"
	"go-parley/internal/pkg/chat/provider"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}

	// Connect to the database on startup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := database.NewPoolFromEnv(ctx)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	store, err := cacheAdapter.NewRedisAdapter()
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer store.Close()

	ident, err := identityAdapter.NewJWTIdentityFromEnv()
	if err != nil {
		log.Fatalf("failed to configure identity: %v", err)
	}

	// Schedule the hourly retention sweep; the worker binary executes it.
	queueClient, err := queueAdapter.NewAsynqClientFromEnv()
	if err != nil {
		log.Fatalf("failed to connect to task queue: %v", err)
	}
	defer queueClient.Close()
	task.KickoffSweep(ctx, queueClient)

	providers := provider.NewRegistry(chat.ProviderGenerative)
	providers.Register(provider.NewGenerative())
	providers.Register(provider.NewIntent())
	providers.Register(provider.NewMock())

	r := gin.Default()

	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "OK",
		})
	})

	v1.RegisterRoutes(r, pool, store, ident, providers)

	// Start HTTP server (blocks until shutdown)
	_ = r.Run()
}
