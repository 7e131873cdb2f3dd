package usecase

import (
	"context"
	"errors"
	"fmt"

	chat "go-parley/internal/pkg/chat/domain"
	repository "go-parley/internal/pkg/chat/persistence/repository/port"
	"go-parley/internal/pkg/chat/provider"
)

// assembleContext builds the ordered provider context for one exchange:
// optional system prompt, optional synthetic "summary so far" entry, the
// prior log in creation order, then the new user turn.
func assembleContext(conv *chat.Conversation, prior []chat.Message, userText string) []provider.Turn {
	turns := make([]provider.Turn, 0, len(prior)+3)
	if conv.SystemPrompt != nil && *conv.SystemPrompt != "" {
		turns = append(turns, provider.Turn{Role: "system", Content: *conv.SystemPrompt})
	}
	if conv.Summary != nil && *conv.Summary != "" {
		turns = append(turns, provider.Turn{Role: "system", Content: "Summary so far: " + *conv.Summary})
	}
	for _, m := range prior {
		turns = append(turns, provider.Turn{Role: string(m.Role), Content: m.Content})
	}
	turns = append(turns, provider.Turn{Role: "user", Content: userText})
	return turns
}

// resolveConversation loads the target conversation or creates one when no
// id was given. A given-but-unknown id is ErrNotFound rather than an
// implicit create, so clients cannot mint conversations by typo. Ownership
// mismatch is ErrForbidden with no side effects.
func resolveConversation(ctx context.Context, repo repository.ChatRepository, userID, conversationID, providerName, model string) (*chat.Conversation, error) {
	if conversationID != "" {
		conv, err := repo.FindConversation(ctx, conversationID)
		if errors.Is(err, chat.ErrNotFound) {
			return nil, chat.ErrNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		if conv.UserID != userID {
			return nil, chat.ErrForbidden
		}
		return conv, nil
	}

	conv, err := chat.NewConversation(chat.Conversation{
		UserID:   userID,
		Provider: providerName,
		Model:    model,
	})
	if err != nil {
		return nil, err
	}
	id, err := repo.CreateConversation(ctx, *conv)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	conv.ID = id
	return conv, nil
}

// findOwned loads a conversation for a read-style operation. Both a missing
// id and a foreign owner come back as ErrNotFound.
func findOwned(ctx context.Context, repo repository.ChatRepository, userID, conversationID string) (*chat.Conversation, error) {
	conv, err := repo.FindConversation(ctx, conversationID)
	if errors.Is(err, chat.ErrNotFound) {
		return nil, chat.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if conv.UserID != userID {
		return nil, chat.ErrNotFound
	}
	return conv, nil
}
