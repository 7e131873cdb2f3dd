package usecase

import (
	"context"
	"fmt"

	repository "go-parley/internal/pkg/chat/persistence/repository/port"
)

// ClearSessionUseCase truncates a conversation's message log and resets its
// summary, leaving the conversation row itself intact.
type ClearSessionUseCase struct {
	Repo repository.ChatRepository
}

func NewClearSessionUseCase(repo repository.ChatRepository) *ClearSessionUseCase {
	return &ClearSessionUseCase{Repo: repo}
}

func (uc *ClearSessionUseCase) Execute(ctx context.Context, userID, conversationID string) error {
	if _, err := findOwned(ctx, uc.Repo, userID, conversationID); err != nil {
		return err
	}

	if err := uc.Repo.DeleteMessages(ctx, conversationID); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if err := uc.Repo.ClearSummary(ctx, conversationID); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}
