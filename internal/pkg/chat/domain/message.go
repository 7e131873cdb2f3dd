package chat

import (
	"strings"
	"time"
)

// Role identifies the author of a message turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one immutable entry in a conversation's append-only log.
// TokenCount is an estimate, nil until computed. Provider/Model record the
// backend that produced an assistant turn; LatencyMs is assistant-only.
type Message struct {
	ID             string    `db:"id" json:"id"`
	ConversationID string    `db:"conversation_id" json:"conversationId"`
	Role           Role      `db:"role" json:"role"`
	Content        string    `db:"content" json:"content"`
	TokenCount     *int      `db:"token_count" json:"tokenCount,omitempty"`
	Provider       *string   `db:"provider" json:"provider,omitempty"`
	Model          *string   `db:"model" json:"model,omitempty"`
	LatencyMs      *int64    `db:"latency_ms" json:"latencyMs,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
}

// NewMessage validates and normalizes a message prior to persistence.
func NewMessage(m Message) (*Message, error) {
	if m.ConversationID == "" {
		return nil, ErrValidation
	}
	switch m.Role {
	case RoleUser, RoleAssistant, RoleSystem:
	default:
		return nil, ErrValidation
	}
	m.Content = strings.TrimSpace(m.Content)
	if m.Content == "" {
		return nil, ErrValidation
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	return &m, nil
}
