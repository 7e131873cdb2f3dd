package repository

import (
	"context"
	"time"

	chat "go-parley/internal/pkg/chat/domain"
)

// ChatRepository defines persistence operations for conversations and their
// append-only message logs. All cross-request coordination goes through this
// layer; use cases hold no conversation state between requests.
type ChatRepository interface {
	CreateConversation(ctx context.Context, c chat.Conversation) (string, error)
	FindConversation(ctx context.Context, id string) (*chat.Conversation, error)

	// SetSummary persists a new rolling summary and bumps lastActiveAt.
	SetSummary(ctx context.Context, conversationID string, summary string) error

	// ClearSummary resets the summary; the conversation row survives.
	ClearSummary(ctx context.Context, conversationID string) error

	// Touch updates lastActiveAt after a completed exchange.
	Touch(ctx context.Context, conversationID string) error

	SaveMessage(ctx context.Context, m chat.Message) (string, error)

	// ListMessages returns the full log in creation order (oldest first).
	ListMessages(ctx context.Context, conversationID string) ([]chat.Message, error)

	// DeleteMessages removes the whole log for a conversation.
	DeleteMessages(ctx context.Context, conversationID string) error

	// MonthlyTokenUsage sums estimated token counts across all of the
	// user's messages created at or after since.
	MonthlyTokenUsage(ctx context.Context, userID string, since time.Time) (int64, error)

	// DeleteExpired removes conversations (and their messages) whose
	// expiry has passed, returning the number deleted.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
