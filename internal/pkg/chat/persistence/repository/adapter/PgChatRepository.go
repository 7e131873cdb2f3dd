package adapter

import (
	"context"
	"errors"
	"time"

	chat "go-parley/internal/pkg/chat/domain"
	repository "go-parley/internal/pkg/chat/persistence/repository/port"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgChatRepository struct {
	pool *pgxpool.Pool
}

var _ repository.ChatRepository = (*PgChatRepository)(nil)

func NewPgChatRepository(pool *pgxpool.Pool) *PgChatRepository {
	return &PgChatRepository{pool: pool}
}

func (r *PgChatRepository) CreateConversation(ctx context.Context, c chat.Conversation) (string, error) {
	if r == nil || r.pool == nil {
		return "", errors.New("PgChatRepository: nil pool")
	}
	var id string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO chat.conversation (
			user_id, title, provider, model, system_prompt, summary, last_active_at, created_at, expires_at
		) VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id::text
	`, c.UserID, c.Title, c.Provider, c.Model, c.SystemPrompt, c.Summary, c.LastActiveAt, c.CreatedAt, c.ExpiresAt).Scan(&id)
	return id, err
}

func (r *PgChatRepository) FindConversation(ctx context.Context, id string) (*chat.Conversation, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}
	var c chat.Conversation
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, user_id::text, title, provider, model, system_prompt, summary, last_active_at, created_at, expires_at
		FROM chat.conversation
		WHERE id = $1::uuid
	`, id).Scan(&c.ID, &c.UserID, &c.Title, &c.Provider, &c.Model, &c.SystemPrompt, &c.Summary, &c.LastActiveAt, &c.CreatedAt, &c.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, chat.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PgChatRepository) SetSummary(ctx context.Context, conversationID string, summary string) error {
	if r == nil || r.pool == nil {
		return errors.New("PgChatRepository: nil pool")
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE chat.conversation
		SET summary = $2, last_active_at = now()
		WHERE id = $1::uuid
	`, conversationID, summary)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return chat.ErrNotFound
	}
	return nil
}

func (r *PgChatRepository) ClearSummary(ctx context.Context, conversationID string) error {
	if r == nil || r.pool == nil {
		return errors.New("PgChatRepository: nil pool")
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE chat.conversation
		SET summary = NULL
		WHERE id = $1::uuid
	`, conversationID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return chat.ErrNotFound
	}
	return nil
}

func (r *PgChatRepository) Touch(ctx context.Context, conversationID string) error {
	if r == nil || r.pool == nil {
		return errors.New("PgChatRepository: nil pool")
	}
	_, err := r.pool.Exec(ctx, `
		UPDATE chat.conversation
		SET last_active_at = now()
		WHERE id = $1::uuid
	`, conversationID)
	return err
}

func (r *PgChatRepository) SaveMessage(ctx context.Context, m chat.Message) (string, error) {
	if r == nil || r.pool == nil {
		return "", errors.New("PgChatRepository: nil pool")
	}
	var id string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO chat.message (
			conversation_id, role, content, token_count, provider, model, latency_ms, created_at
		) VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id::text
	`, m.ConversationID, string(m.Role), m.Content, m.TokenCount, m.Provider, m.Model, m.LatencyMs, m.CreatedAt).Scan(&id)
	return id, err
}

func (r *PgChatRepository) ListMessages(ctx context.Context, conversationID string) ([]chat.Message, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, conversation_id::text, role, content, token_count, provider, model, latency_ms, created_at
		FROM chat.message
		WHERE conversation_id = $1::uuid
		ORDER BY created_at ASC, id ASC
	`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []chat.Message
	for rows.Next() {
		var (
			msg  chat.Message
			role string
		)
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &role, &msg.Content, &msg.TokenCount, &msg.Provider, &msg.Model, &msg.LatencyMs, &msg.CreatedAt); err != nil {
			return nil, err
		}
		msg.Role = chat.Role(role)
		msgs = append(msgs, msg)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return msgs, nil
}

func (r *PgChatRepository) DeleteMessages(ctx context.Context, conversationID string) error {
	if r == nil || r.pool == nil {
		return errors.New("PgChatRepository: nil pool")
	}
	_, err := r.pool.Exec(ctx, `
		DELETE FROM chat.message WHERE conversation_id = $1::uuid
	`, conversationID)
	return err
}

func (r *PgChatRepository) MonthlyTokenUsage(ctx context.Context, userID string, since time.Time) (int64, error) {
	if r == nil || r.pool == nil {
		return 0, errors.New("PgChatRepository: nil pool")
	}
	var total int64
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(m.token_count), 0)
		FROM chat.message m
		JOIN chat.conversation c ON c.id = m.conversation_id
		WHERE c.user_id = $1::uuid AND m.created_at >= $2
	`, userID, since).Scan(&total)
	return total, err
}

func (r *PgChatRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	if r == nil || r.pool == nil {
		return 0, errors.New("PgChatRepository: nil pool")
	}
	// chat.message rows go with the conversation via ON DELETE CASCADE.
	ct, err := r.pool.Exec(ctx, `
		DELETE FROM chat.conversation WHERE expires_at <= $1
	`, now)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}
