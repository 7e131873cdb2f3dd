package usecase

import (
	"context"
	"fmt"

	chat "go-parley/internal/pkg/chat/domain"
	repository "go-parley/internal/pkg/chat/persistence/repository/port"
)

// CreateSessionInput carries the data needed to open a new conversation.
type CreateSessionInput struct {
	UserID       string
	Provider     string
	Model        string
	SystemPrompt string
}

// CreateSessionUseCase creates a conversation for the caller with defaulted
// provider/model when none are named.
type CreateSessionUseCase struct {
	Repo repository.ChatRepository
}

func NewCreateSessionUseCase(repo repository.ChatRepository) *CreateSessionUseCase {
	return &CreateSessionUseCase{Repo: repo}
}

func (uc *CreateSessionUseCase) Execute(ctx context.Context, in CreateSessionInput) (*chat.Conversation, error) {
	c := chat.Conversation{
		UserID:   in.UserID,
		Provider: in.Provider,
		Model:    in.Model,
	}
	if in.SystemPrompt != "" {
		c.SystemPrompt = &in.SystemPrompt
	}

	conv, err := chat.NewConversation(c)
	if err != nil {
		return nil, err
	}

	id, err := uc.Repo.CreateConversation(ctx, *conv)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	conv.ID = id
	return conv, nil
}
