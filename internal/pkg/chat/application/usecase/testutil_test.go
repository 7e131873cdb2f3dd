package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	chat "go-parley/internal/pkg/chat/domain"
	"go-parley/internal/pkg/chat/provider"
	"go-parley/internal/pkg/chat/summarizer"
)

// memRepo is an in-memory ChatRepository used across the use case tests.
type memRepo struct {
	mu            sync.Mutex
	conversations map[string]*chat.Conversation
	messages      map[string][]chat.Message
	nextID        int

	failSaveMessage bool
	saveCount       int
}

func newMemRepo() *memRepo {
	return &memRepo{
		conversations: make(map[string]*chat.Conversation),
		messages:      make(map[string][]chat.Message),
	}
}

func (r *memRepo) id(prefix string) string {
	r.nextID++
	return fmt.Sprintf("%s-%d", prefix, r.nextID)
}

func (r *memRepo) CreateConversation(ctx context.Context, c chat.Conversation) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = r.id("conv")
	r.conversations[c.ID] = &c
	return c.ID, nil
}

func (r *memRepo) FindConversation(ctx context.Context, id string) (*chat.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conversations[id]
	if !ok {
		return nil, chat.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *memRepo) SetSummary(ctx context.Context, id, summary string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conversations[id]
	if !ok {
		return chat.ErrNotFound
	}
	c.Summary = &summary
	c.LastActiveAt = time.Now()
	return nil
}

func (r *memRepo) ClearSummary(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conversations[id]
	if !ok {
		return chat.ErrNotFound
	}
	c.Summary = nil
	return nil
}

func (r *memRepo) Touch(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.conversations[id]; ok {
		c.LastActiveAt = time.Now()
	}
	return nil
}

func (r *memRepo) SaveMessage(ctx context.Context, m chat.Message) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saveCount++
	if r.failSaveMessage {
		return "", errors.New("storage unavailable")
	}
	m.ID = r.id("msg")
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	r.messages[m.ConversationID] = append(r.messages[m.ConversationID], m)
	return m.ID, nil
}

func (r *memRepo) ListMessages(ctx context.Context, id string) ([]chat.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]chat.Message, len(r.messages[id]))
	copy(out, r.messages[id])
	return out, nil
}

func (r *memRepo) DeleteMessages(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.messages, id)
	return nil
}

func (r *memRepo) MonthlyTokenUsage(ctx context.Context, userID string, since time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total int64
	for _, c := range r.conversations {
		if c.UserID != userID {
			continue
		}
		for _, m := range r.messages[c.ID] {
			if m.TokenCount != nil && !m.CreatedAt.Before(since) {
				total += int64(*m.TokenCount)
			}
		}
	}
	return total, nil
}

func (r *memRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, c := range r.conversations {
		if !c.ExpiresAt.After(now) {
			delete(r.conversations, id)
			delete(r.messages, id)
			n++
		}
	}
	return n, nil
}

// memUsers is an in-memory UserRepository.
type memUsers struct {
	mu      sync.Mutex
	balance map[string]int64
	deducts []int64
}

func newMemUsers(userID string, balance int64) *memUsers {
	return &memUsers{balance: map[string]int64{userID: balance}}
}

func (u *memUsers) FindByID(ctx context.Context, id string) (*chat.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	b, ok := u.balance[id]
	if !ok {
		return nil, chat.ErrNotFound
	}
	return &chat.User{ID: id, TokensRemaining: b}, nil
}

func (u *memUsers) DeductTokens(ctx context.Context, id string, amount int64) (int64, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	b, ok := u.balance[id]
	if !ok {
		return 0, chat.ErrNotFound
	}
	b -= amount
	if b < 0 {
		b = 0
	}
	u.balance[id] = b
	u.deducts = append(u.deducts, amount)
	return b, nil
}

// streamProvider replays a scripted token sequence, then a terminal event.
type streamProvider struct {
	name      string
	tokens    []string
	streamErr error
	chatReply string
	chatErr   error
	summary   string
}

func (p *streamProvider) Name() string { return p.name }

func (p *streamProvider) Chat(ctx context.Context, history []provider.Turn, opts provider.Options) (string, error) {
	return p.chatReply, p.chatErr
}

func (p *streamProvider) StreamChat(ctx context.Context, history []provider.Turn, opts provider.Options) (<-chan provider.StreamEvent, error) {
	ch := make(chan provider.StreamEvent)
	go func() {
		defer close(ch)
		for _, tok := range p.tokens {
			select {
			case <-ctx.Done():
				ch <- provider.StreamEvent{Err: ctx.Err()}
				return
			case ch <- provider.StreamEvent{Token: tok}:
			}
		}
		if p.streamErr != nil {
			ch <- provider.StreamEvent{Err: p.streamErr}
			return
		}
		ch <- provider.StreamEvent{Done: true, Meta: provider.Metadata{Provider: p.name}}
	}()
	return ch, nil
}

func (p *streamProvider) Summarize(ctx context.Context, transcript string, opts provider.Options) (string, error) {
	return p.summary, nil
}

// slowProvider delays the stream open so heartbeat behavior is observable.
type slowProvider struct {
	inner *streamProvider
	delay time.Duration
}

func (p *slowProvider) Name() string { return "slowmock" }

func (p *slowProvider) Chat(ctx context.Context, history []provider.Turn, opts provider.Options) (string, error) {
	return p.inner.Chat(ctx, history, opts)
}

func (p *slowProvider) StreamChat(ctx context.Context, history []provider.Turn, opts provider.Options) (<-chan provider.StreamEvent, error) {
	time.Sleep(p.delay)
	return p.inner.StreamChat(ctx, history, opts)
}

func (p *slowProvider) Summarize(ctx context.Context, transcript string, opts provider.Options) (string, error) {
	return p.inner.Summarize(ctx, transcript, opts)
}

// recordSink captures the outbound event sequence of one session.
type recordSink struct {
	mu     sync.Mutex
	events []sinkEvent

	failAfterTokens int // fail Sends once this many token events were accepted; -1 disables
	accepted        int
}

type sinkEvent struct {
	name string
	data any
}

func newRecordSink() *recordSink {
	return &recordSink{failAfterTokens: -1}
}

func (s *recordSink) Send(event string, data any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if event == "token" {
		if s.failAfterTokens >= 0 && s.accepted >= s.failAfterTokens {
			return errors.New("client gone")
		}
		s.accepted++
	}
	s.events = append(s.events, sinkEvent{name: event, data: data})
	return nil
}

func (s *recordSink) names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.events))
	for i, e := range s.events {
		out[i] = e.name
	}
	return out
}

func (s *recordSink) last() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.events) == 0 {
		return ""
	}
	return s.events[len(s.events)-1].name
}

func (s *recordSink) count(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.events {
		if e.name == name {
			n++
		}
	}
	return n
}

func newStreamUC(repo *memRepo, users *memUsers, p provider.Provider) *StreamMessageUseCase {
	reg := provider.NewRegistry("mock")
	reg.Register(p)
	uc := NewStreamMessageUseCase(repo, users, reg, summarizer.New(reg, repo))
	uc.HeartbeatInterval = time.Hour // keep pings out of scripted sequences
	return uc
}
