package usecase

import (
	"context"

	repository "go-parley/internal/pkg/chat/persistence/repository/port"
)

// ExportConversationUseCase serializes a conversation and its log for
// download. The shape is the same History bundle getHistory returns; the
// controller adds the attachment headers.
type ExportConversationUseCase struct {
	history *GetHistoryUseCase
}

func NewExportConversationUseCase(repo repository.ChatRepository) *ExportConversationUseCase {
	return &ExportConversationUseCase{history: NewGetHistoryUseCase(repo)}
}

func (uc *ExportConversationUseCase) Execute(ctx context.Context, userID, conversationID string) (*History, error) {
	return uc.history.Execute(ctx, userID, conversationID)
}
