package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go-parley/internal/infrastructure/database"
	queueAdapter "go-parley/internal/infrastructure/queue/adapter"
	"go-parley/internal/pkg/chat/application/task"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := database.NewPoolFromEnv(connectCtx)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer pool.Close()

	client, err := queueAdapter.NewAsynqClientFromEnv()
	if err != nil {
		log.Fatalf("failed to connect to task queue: %v", err)
	}
	defer client.Close()

	srv, err := queueAdapter.NewAsynqServer()
	if err != nil {
		log.Fatalf("failed to start task server: %v", err)
	}

	task.RegisterExpireConversationsTask(srv, client, pool)
	task.KickoffSweep(ctx, client)

	if err := srv.Run(ctx); err != nil {
		log.Fatalf("worker stopped: %v", err)
	}
}
