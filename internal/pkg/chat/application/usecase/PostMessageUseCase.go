package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	chat "go-parley/internal/pkg/chat/domain"
	repository "go-parley/internal/pkg/chat/persistence/repository/port"
	"go-parley/internal/pkg/chat/provider"
	"go-parley/internal/pkg/chat/summarizer"
	"go-parley/internal/pkg/chat/tokens"
)

// PostMessageInput mirrors StreamMessageInput for the non-streaming path.
type PostMessageInput struct {
	UserID         string
	ConversationID string
	Message        string
	Provider       string
	Model          string
}

// PostMessageResult is the complete exchange returned in one response.
type PostMessageResult struct {
	ConversationID   string       `json:"conversationId"`
	UserMessage      chat.Message `json:"userMessage"`
	AssistantMessage chat.Message `json:"assistantMessage"`
	TokensRemaining  int64        `json:"tokensRemaining"`
}

// PostMessageUseCase runs the same exchange pipeline as the streaming
// controller but waits for the full completion instead of relaying tokens.
type PostMessageUseCase struct {
	Repo       repository.ChatRepository
	Users      repository.UserRepository
	Providers  *provider.Registry
	Summarizer *summarizer.Engine
}

func NewPostMessageUseCase(repo repository.ChatRepository, users repository.UserRepository, providers *provider.Registry, sum *summarizer.Engine) *PostMessageUseCase {
	return &PostMessageUseCase{Repo: repo, Users: users, Providers: providers, Summarizer: sum}
}

func (uc *PostMessageUseCase) Execute(ctx context.Context, in PostMessageInput) (*PostMessageResult, error) {
	text := strings.TrimSpace(in.Message)
	if text == "" {
		return nil, chat.ErrValidation
	}

	conv, err := resolveConversation(ctx, uc.Repo, in.UserID, in.ConversationID, in.Provider, in.Model)
	if err != nil {
		return nil, err
	}

	providerName := conv.Provider
	if in.Provider != "" {
		providerName = in.Provider
	}
	model := conv.Model
	if in.Model != "" {
		model = in.Model
	}

	prior, err := uc.Repo.ListMessages(ctx, conv.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	history := assembleContext(conv, prior, text)

	userEstimate := tokens.Estimate(text)
	userMsg, err := chat.NewMessage(chat.Message{
		ConversationID: conv.ID,
		Role:           chat.RoleUser,
		Content:        text,
		TokenCount:     &userEstimate,
		Provider:       &providerName,
		Model:          &model,
	})
	if err != nil {
		return nil, err
	}
	userID, err := uc.Repo.SaveMessage(ctx, *userMsg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	userMsg.ID = userID

	svc := uc.Providers.Get(providerName)
	if svc == nil {
		return nil, fmt.Errorf("provider %q unresolved", providerName)
	}

	t0 := time.Now()
	reply, err := svc.Chat(ctx, history, provider.Options{Model: model, Temperature: 0.7})
	if err != nil {
		return nil, err
	}
	latencyMs := time.Since(t0).Milliseconds()

	assistantEstimate := tokens.Estimate(reply)
	asstMsg, err := chat.NewMessage(chat.Message{
		ConversationID: conv.ID,
		Role:           chat.RoleAssistant,
		Content:        reply,
		TokenCount:     &assistantEstimate,
		Provider:       &providerName,
		Model:          &model,
		LatencyMs:      &latencyMs,
	})
	if err != nil {
		return nil, err
	}
	asstID, err := uc.Repo.SaveMessage(ctx, *asstMsg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	asstMsg.ID = asstID

	remaining, err := uc.Users.DeductTokens(ctx, conv.UserID, int64(userEstimate+assistantEstimate))
	if err != nil {
		log.Printf("post: conversation %s: token deduction: %v", conv.ID, err)
	}

	if err := uc.Repo.Touch(ctx, conv.ID); err != nil {
		log.Printf("post: conversation %s: touch: %v", conv.ID, err)
	}

	uc.Summarizer.SummarizeIfNeeded(ctx, conv, history, false)

	return &PostMessageResult{
		ConversationID:   conv.ID,
		UserMessage:      *userMsg,
		AssistantMessage: *asstMsg,
		TokensRemaining:  remaining,
	}, nil
}
