package task

import (
	"context"
	"log"
	"time"

	qport "go-parley/internal/infrastructure/queue/port"
	repoAdapter "go-parley/internal/pkg/chat/persistence/repository/adapter"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ExpireConversationsTaskType is the queue task name for the retention
// sweep. Conversations carry a fixed expiry stamped at creation; this task
// deletes the ones whose window has passed, messages included.
const ExpireConversationsTaskType = "chat:expire_conversations"

const sweepInterval = time.Hour

// RegisterExpireConversationsTask binds the sweep handler to the server.
// The handler re-enqueues itself so the sweep keeps running at a fixed
// cadence; UniqueTTL keeps overlapping schedules from stacking up.
func RegisterExpireConversationsTask(srv qport.Server, client qport.Client, pool *pgxpool.Pool) {
	srv.Register(ExpireConversationsTaskType, func(ctx context.Context, t qport.Task) error {
		repo := repoAdapter.NewPgChatRepository(pool)

		ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		n, err := repo.DeleteExpired(ctx, time.Now())
		if err != nil {
			return err
		}
		if n > 0 {
			log.Printf("retention sweep: deleted %d expired conversations", n)
		}

		if _, err := client.Enqueue(ctx, qport.Task{Type: ExpireConversationsTaskType}, qport.EnqueueOption{
			Queue:     "maintenance",
			ProcessIn: sweepInterval,
			UniqueTTL: sweepInterval,
		}); err != nil {
			log.Printf("retention sweep: re-enqueue: %v", err)
		}
		return nil
	})
}

// KickoffSweep schedules the first sweep. Safe to call on every startup; the
// uniqueness window swallows duplicates.
func KickoffSweep(ctx context.Context, client qport.Client) {
	if _, err := client.Enqueue(ctx, qport.Task{Type: ExpireConversationsTaskType}, qport.EnqueueOption{
		Queue:     "maintenance",
		UniqueTTL: sweepInterval,
	}); err != nil {
		log.Printf("retention sweep: kickoff: %v", err)
	}
}
