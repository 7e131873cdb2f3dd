package summarizer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	chat "go-parley/internal/pkg/chat/domain"
	"go-parley/internal/pkg/chat/provider"
)

type scriptedProvider struct {
	name    string
	summary string
	err     error
	calls   int
	lastIn  string
}

func (p *scriptedProvider) Name() string { return p.name }

func (p *scriptedProvider) Chat(ctx context.Context, history []provider.Turn, opts provider.Options) (string, error) {
	return p.summary, p.err
}

func (p *scriptedProvider) StreamChat(ctx context.Context, history []provider.Turn, opts provider.Options) (<-chan provider.StreamEvent, error) {
	ch := make(chan provider.StreamEvent)
	close(ch)
	return ch, nil
}

func (p *scriptedProvider) Summarize(ctx context.Context, transcript string, opts provider.Options) (string, error) {
	p.calls++
	p.lastIn = transcript
	return p.summary, p.err
}

type summaryRepo struct {
	stored string
	err    error
}

func (r *summaryRepo) SetSummary(ctx context.Context, id string, summary string) error {
	if r.err != nil {
		return r.err
	}
	r.stored = summary
	return nil
}

func (r *summaryRepo) CreateConversation(ctx context.Context, c chat.Conversation) (string, error) {
	return "", nil
}
func (r *summaryRepo) FindConversation(ctx context.Context, id string) (*chat.Conversation, error) {
	return nil, chat.ErrNotFound
}
func (r *summaryRepo) ClearSummary(ctx context.Context, id string) error { return nil }
func (r *summaryRepo) Touch(ctx context.Context, id string) error        { return nil }
func (r *summaryRepo) SaveMessage(ctx context.Context, m chat.Message) (string, error) {
	return "", nil
}
func (r *summaryRepo) ListMessages(ctx context.Context, id string) ([]chat.Message, error) {
	return nil, nil
}
func (r *summaryRepo) DeleteMessages(ctx context.Context, id string) error { return nil }
func (r *summaryRepo) MonthlyTokenUsage(ctx context.Context, userID string, since time.Time) (int64, error) {
	return 0, nil
}
func (r *summaryRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

func newEngine(p *scriptedProvider, repo *summaryRepo) *Engine {
	reg := provider.NewRegistry(p.name)
	reg.Register(p)
	return New(reg, repo)
}

func conv() *chat.Conversation {
	return &chat.Conversation{ID: "c1", UserID: "u1", Provider: "mock", Model: "echo"}
}

func turns(n int, content string) []provider.Turn {
	out := make([]provider.Turn, n)
	for i := range out {
		out[i] = provider.Turn{Role: "user", Content: content}
	}
	return out
}

func TestBelowThresholdNotForcedSkips(t *testing.T) {
	p := &scriptedProvider{name: "mock", summary: "new summary"}
	repo := &summaryRepo{}
	e := newEngine(p, repo)

	c := conv()
	prev := "old summary"
	c.Summary = &prev

	got := e.SummarizeIfNeeded(context.Background(), c, turns(2, "short"), false)
	if got != "old summary" {
		t.Fatalf("summary = %q, want stored summary unchanged", got)
	}
	if p.calls != 0 {
		t.Fatalf("provider called %d times below threshold", p.calls)
	}
	if repo.stored != "" {
		t.Fatal("no write expected below threshold")
	}
}

func TestForcedSummarizesRegardlessOfLength(t *testing.T) {
	p := &scriptedProvider{name: "mock", summary: "forced summary"}
	repo := &summaryRepo{}
	e := newEngine(p, repo)

	got := e.SummarizeIfNeeded(context.Background(), conv(), turns(1, "hi"), true)
	if got != "forced summary" {
		t.Fatalf("summary = %q", got)
	}
	if p.calls != 1 {
		t.Fatalf("provider calls = %d, want 1", p.calls)
	}
	if repo.stored != "forced summary" {
		t.Fatalf("stored = %q", repo.stored)
	}
}

func TestThresholdCrossingSummarizes(t *testing.T) {
	p := &scriptedProvider{name: "mock", summary: "long summary"}
	repo := &summaryRepo{}
	e := newEngine(p, repo)

	// 5 turns x 1000 chars clears the 4000-char threshold.
	got := e.SummarizeIfNeeded(context.Background(), conv(), turns(5, strings.Repeat("x", 1000)), false)
	if got != "long summary" {
		t.Fatalf("summary = %q", got)
	}
	if p.calls != 1 {
		t.Fatalf("provider calls = %d, want 1", p.calls)
	}
}

func TestEmptyHistoryForcedReturnsPlaceholderWithoutProviderCall(t *testing.T) {
	p := &scriptedProvider{name: "mock", summary: "should not appear"}
	e := newEngine(p, &summaryRepo{})

	got := e.SummarizeIfNeeded(context.Background(), conv(), nil, true)
	if got != "No messages yet — nothing to summarize." {
		t.Fatalf("summary = %q", got)
	}
	if p.calls != 0 {
		t.Fatal("provider must not be called for an empty history")
	}
}

func TestProviderFailureKeepsPreviousSummary(t *testing.T) {
	p := &scriptedProvider{name: "mock", err: errors.New("backend down")}
	repo := &summaryRepo{}
	e := newEngine(p, repo)

	c := conv()
	prev := "previous"
	c.Summary = &prev

	got := e.SummarizeIfNeeded(context.Background(), c, turns(1, "hi"), true)
	if got != "previous" {
		t.Fatalf("summary = %q, want previous summary on failure", got)
	}
	if repo.stored != "" {
		t.Fatal("failed summarization must not write")
	}
}

func TestProviderFailureWithoutPreviousSummary(t *testing.T) {
	p := &scriptedProvider{name: "mock", err: errors.New("backend down")}
	e := newEngine(p, &summaryRepo{})

	got := e.SummarizeIfNeeded(context.Background(), conv(), turns(1, "hi"), true)
	if got != "Summary unavailable due to an error." {
		t.Fatalf("summary = %q", got)
	}
}

func TestTranscriptFormat(t *testing.T) {
	p := &scriptedProvider{name: "mock", summary: "s"}
	e := newEngine(p, &summaryRepo{})

	history := []provider.Turn{
		{Role: "user", Content: "hello"},
		{Role: "assistant", Content: "hi there"},
	}
	e.SummarizeIfNeeded(context.Background(), conv(), history, true)

	want := "[user] hello\n[assistant] hi there"
	if p.lastIn != want {
		t.Fatalf("transcript = %q, want %q", p.lastIn, want)
	}
}
