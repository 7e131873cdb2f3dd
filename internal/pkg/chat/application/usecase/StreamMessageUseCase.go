package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	chat "go-parley/internal/pkg/chat/domain"
	repository "go-parley/internal/pkg/chat/persistence/repository/port"
	"go-parley/internal/pkg/chat/provider"
	"go-parley/internal/pkg/chat/summarizer"
	"go-parley/internal/pkg/chat/tokens"
)

// EventSink is the outbound push channel of one streaming session. Send must
// be safe for concurrent use: the heartbeat goroutine and the relay loop
// both write. A Send error means the client is gone.
type EventSink interface {
	Send(event string, data any) error
}

const (
	defaultHeartbeatInterval = 15 * time.Second
	defaultStreamTimeout     = 120 * time.Second
)

// StreamMessageInput carries one user message into a streaming session.
type StreamMessageInput struct {
	UserID         string
	ConversationID string
	Message        string
	Provider       string // optional override
	Model          string // optional override
}

// StreamMessageUseCase orchestrates a streaming exchange: resolve the
// conversation, persist the user turn, relay provider tokens to the sink
// under a heartbeat, then finalize persistence, budget accounting and
// opportunistic summarization.
//
// Event order per session: [ping]* ([token]|[tokens])* (end|error), with the
// terminal event last and exactly once.
type StreamMessageUseCase struct {
	Repo       repository.ChatRepository
	Users      repository.UserRepository
	Providers  *provider.Registry
	Summarizer *summarizer.Engine

	// HeartbeatInterval and StreamTimeout fall back to defaults when zero.
	HeartbeatInterval time.Duration
	StreamTimeout     time.Duration
}

func NewStreamMessageUseCase(repo repository.ChatRepository, users repository.UserRepository, providers *provider.Registry, sum *summarizer.Engine) *StreamMessageUseCase {
	return &StreamMessageUseCase{
		Repo:       repo,
		Users:      users,
		Providers:  providers,
		Summarizer: sum,
	}
}

// Execute runs one streaming session against sink. Errors occurring before
// the session opens (validation, authorization, conversation resolution) are
// returned synchronously and nothing is written to the sink. From the moment
// the session is open, failures are delivered as a terminal "error" event
// and Execute returns nil.
func (uc *StreamMessageUseCase) Execute(ctx context.Context, in StreamMessageInput, sink EventSink) error {
	text := strings.TrimSpace(in.Message)
	if text == "" {
		return chat.ErrValidation
	}

	conv, err := resolveConversation(ctx, uc.Repo, in.UserID, in.ConversationID, in.Provider, in.Model)
	if err != nil {
		return err
	}

	providerName := conv.Provider
	if in.Provider != "" {
		providerName = in.Provider
	}
	model := conv.Model
	if in.Model != "" {
		model = in.Model
	}

	// The session is open from here on; report failures through the sink.
	prior, err := uc.Repo.ListMessages(ctx, conv.ID)
	if err != nil {
		return uc.fail(sink, conv.ID, "history unavailable", err)
	}
	history := assembleContext(conv, prior, text)

	// Persist the user turn before the provider call so the input is never
	// lost, even if the stream fails.
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
		return uc.fail(sink, conv.ID, "invalid message", err)
	}
	if _, err := uc.Repo.SaveMessage(ctx, *userMsg); err != nil {
		return uc.fail(sink, conv.ID, "could not persist message", err)
	}

	svc := uc.Providers.Get(providerName)
	if svc == nil {
		return uc.fail(sink, conv.ID, "no provider available", fmt.Errorf("provider %q unresolved", providerName))
	}

	streamCtx, cancel := context.WithTimeout(ctx, uc.streamTimeout())
	defer cancel()

	heartbeat := uc.startHeartbeat(streamCtx, sink, cancel)
	defer heartbeat.stop()

	t0 := time.Now()
	events, err := svc.StreamChat(streamCtx, history, provider.Options{Model: model, Temperature: 0.7})
	if err != nil {
		heartbeat.stop()
		return uc.fail(sink, conv.ID, "provider unavailable", err)
	}

	var acc strings.Builder
	for ev := range events {
		switch {
		case ev.Err != nil:
			heartbeat.stop()
			return uc.fail(sink, conv.ID, "stream failed", ev.Err)

		case ev.Done:
			heartbeat.stop()
			uc.finalize(ctx, sink, conv, history, text, acc.String(), providerName, model, time.Since(t0))
			return nil

		default:
			acc.WriteString(ev.Token)
			if err := sink.Send("token", map[string]any{"t": ev.Token}); err != nil {
				// Client dropped mid-stream: discard the partial text,
				// persist nothing further, deduct nothing.
				heartbeat.stop()
				cancel()
				drain(events)
				log.Printf("stream: conversation %s: client disconnected: %v", conv.ID, err)
				return nil
			}
		}
	}

	// Closed without a terminal event; the provider broke its contract.
	heartbeat.stop()
	return uc.fail(sink, conv.ID, "stream ended unexpectedly", fmt.Errorf("no terminal event"))
}

// finalize persists the assistant turn, meters the exchange against the
// user's allowance, and runs opportunistic summarization. Summarization is
// awaited before the terminal event, so a slow summary call delays "end";
// its failures are swallowed by the engine.
func (uc *StreamMessageUseCase) finalize(ctx context.Context, sink EventSink, conv *chat.Conversation, history []provider.Turn, userText, assistantText, providerName, model string, latency time.Duration) {
	latencyMs := latency.Milliseconds()
	assistantEstimate := tokens.Estimate(assistantText)

	asstMsg, err := chat.NewMessage(chat.Message{
		ConversationID: conv.ID,
		Role:           chat.RoleAssistant,
		Content:        assistantText,
		TokenCount:     &assistantEstimate,
		Provider:       &providerName,
		Model:          &model,
		LatencyMs:      &latencyMs,
	})
	if err != nil {
		_ = uc.fail(sink, conv.ID, "empty response", err)
		return
	}
	if _, err := uc.Repo.SaveMessage(ctx, *asstMsg); err != nil {
		_ = uc.fail(sink, conv.ID, "could not persist response", err)
		return
	}

	total := int64(tokens.Estimate(userText) + assistantEstimate)
	remaining, err := uc.Users.DeductTokens(ctx, conv.UserID, total)
	if err != nil {
		log.Printf("stream: conversation %s: token deduction: %v", conv.ID, err)
	} else {
		_ = sink.Send("tokens", map[string]any{"remaining": remaining})
	}

	if err := uc.Repo.Touch(ctx, conv.ID); err != nil {
		log.Printf("stream: conversation %s: touch: %v", conv.ID, err)
	}

	uc.Summarizer.SummarizeIfNeeded(ctx, conv, history, false)

	_ = sink.Send("end", map[string]any{"ok": true})
}

// fail emits the terminal error event with a short non-leaking message and
// logs the underlying cause.
func (uc *StreamMessageUseCase) fail(sink EventSink, conversationID, message string, cause error) error {
	log.Printf("stream: conversation %s: %s: %v", conversationID, message, cause)
	_ = sink.Send("error", map[string]any{"message": message})
	return nil
}

func (uc *StreamMessageUseCase) heartbeatInterval() time.Duration {
	if uc.HeartbeatInterval > 0 {
		return uc.HeartbeatInterval
	}
	return defaultHeartbeatInterval
}

func (uc *StreamMessageUseCase) streamTimeout() time.Duration {
	if uc.StreamTimeout > 0 {
		return uc.StreamTimeout
	}
	return defaultStreamTimeout
}

type heartbeat struct {
	once sync.Once
	done chan struct{}
	wg   sync.WaitGroup
}

func (h *heartbeat) stop() {
	h.once.Do(func() { close(h.done) })
	h.wg.Wait()
}

// startHeartbeat emits a periodic ping event so idle-timeout proxies keep
// the channel open. A failed ping means the client is gone; the stream
// context is canceled so the provider call unwinds.
func (uc *StreamMessageUseCase) startHeartbeat(ctx context.Context, sink EventSink, cancel context.CancelFunc) *heartbeat {
	h := &heartbeat{done: make(chan struct{})}
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		ticker := time.NewTicker(uc.heartbeatInterval())
		defer ticker.Stop()
		for {
			select {
			case <-h.done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := sink.Send("ping", map[string]any{"t": time.Now().UnixMilli()}); err != nil {
					cancel()
					return
				}
			}
		}
	}()
	return h
}

func drain(events <-chan provider.StreamEvent) {
	for range events {
	}
}
