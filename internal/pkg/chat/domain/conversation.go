package chat

import "time"

// Provider names form a closed set. Unknown names fall back to the default
// at the registry, never here.
const (
	ProviderGenerative = "generative"
	ProviderIntent     = "intent"
	ProviderMock       = "mock"
)

// DefaultModelFor returns the model used when the caller names a provider
// but no model.
func DefaultModelFor(provider string) string {
	switch provider {
	case ProviderIntent:
		return "default-agent"
	case ProviderMock:
		return "echo"
	default:
		return "gpt-4o-mini"
	}
}

// RetentionWindow is the fixed lifetime of a conversation, counted from
// creation. Activity does not extend it.
const RetentionWindow = 7 * 24 * time.Hour

// Conversation is a chat session scoped to one owner and one provider/model
// pairing. Summary holds the latest compacted representation of history
// beyond what is replayed verbatim.
type Conversation struct {
	ID           string     `db:"id" json:"id"`
	UserID       string     `db:"user_id" json:"userId"`
	Title        string     `db:"title" json:"title"`
	Provider     string     `db:"provider" json:"provider"`
	Model        string     `db:"model" json:"model"`
	SystemPrompt *string    `db:"system_prompt" json:"systemPrompt,omitempty"`
	Summary      *string    `db:"summary" json:"summary,omitempty"`
	LastActiveAt time.Time  `db:"last_active_at" json:"lastActiveAt"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	ExpiresAt    time.Time  `db:"expires_at" json:"expiresAt"`
}

// NewConversation applies defaults and stamps timestamps. UserID is required;
// provider/model are defaulted so a conversation always carries both.
func NewConversation(c Conversation) (*Conversation, error) {
	if c.UserID == "" {
		return nil, ErrValidation
	}
	if c.Provider == "" {
		c.Provider = ProviderGenerative
	}
	if c.Model == "" {
		c.Model = DefaultModelFor(c.Provider)
	}
	if c.Title == "" {
		c.Title = "New Conversation"
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	c.LastActiveAt = c.CreatedAt
	c.ExpiresAt = c.CreatedAt.Add(RetentionWindow)
	return &c, nil
}
