package usecase

import (
	"context"
	"fmt"

	repository "go-parley/internal/pkg/chat/persistence/repository/port"
	"go-parley/internal/pkg/chat/provider"
	"go-parley/internal/pkg/chat/summarizer"
)

// SummarizeSessionUseCase forces summarization of a conversation regardless
// of history length.
type SummarizeSessionUseCase struct {
	Repo       repository.ChatRepository
	Summarizer *summarizer.Engine
}

func NewSummarizeSessionUseCase(repo repository.ChatRepository, sum *summarizer.Engine) *SummarizeSessionUseCase {
	return &SummarizeSessionUseCase{Repo: repo, Summarizer: sum}
}

func (uc *SummarizeSessionUseCase) Execute(ctx context.Context, userID, conversationID string) (string, error) {
	conv, err := findOwned(ctx, uc.Repo, userID, conversationID)
	if err != nil {
		return "", err
	}

	msgs, err := uc.Repo.ListMessages(ctx, conversationID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	history := make([]provider.Turn, 0, len(msgs))
	for _, m := range msgs {
		history = append(history, provider.Turn{Role: string(m.Role), Content: m.Content})
	}

	return uc.Summarizer.SummarizeIfNeeded(ctx, conv, history, true), nil
}
