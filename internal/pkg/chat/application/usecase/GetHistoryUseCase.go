package usecase

import (
	"context"
	"fmt"

	chat "go-parley/internal/pkg/chat/domain"
	repository "go-parley/internal/pkg/chat/persistence/repository/port"
)

// History bundles a conversation with its full message log in creation
// order.
type History struct {
	Conversation *chat.Conversation `json:"conversation"`
	Messages     []chat.Message     `json:"messages"`
}

// GetHistoryUseCase returns a conversation and its log; missing or foreign
// conversations are ErrNotFound.
type GetHistoryUseCase struct {
	Repo repository.ChatRepository
}

func NewGetHistoryUseCase(repo repository.ChatRepository) *GetHistoryUseCase {
	return &GetHistoryUseCase{Repo: repo}
}

func (uc *GetHistoryUseCase) Execute(ctx context.Context, userID, conversationID string) (*History, error) {
	conv, err := findOwned(ctx, uc.Repo, userID, conversationID)
	if err != nil {
		return nil, err
	}

	msgs, err := uc.Repo.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if msgs == nil {
		msgs = []chat.Message{}
	}
	return &History{Conversation: conv, Messages: msgs}, nil
}
