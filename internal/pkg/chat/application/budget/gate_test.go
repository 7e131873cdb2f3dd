package budget

import (
	"context"
	"errors"
	"testing"
	"time"

	cache "go-parley/internal/infrastructure/cache/port"
	chat "go-parley/internal/pkg/chat/domain"
)

type usageRepo struct {
	used  int64
	err   error
	since time.Time
	calls int
}

func (r *usageRepo) MonthlyTokenUsage(ctx context.Context, userID string, since time.Time) (int64, error) {
	r.since = since
	r.calls++
	return r.used, r.err
}

func (r *usageRepo) CreateConversation(ctx context.Context, c chat.Conversation) (string, error) {
	return "", nil
}
func (r *usageRepo) FindConversation(ctx context.Context, id string) (*chat.Conversation, error) {
	return nil, chat.ErrNotFound
}
func (r *usageRepo) SetSummary(ctx context.Context, id, summary string) error { return nil }
func (r *usageRepo) ClearSummary(ctx context.Context, id string) error        { return nil }
func (r *usageRepo) Touch(ctx context.Context, id string) error               { return nil }
func (r *usageRepo) SaveMessage(ctx context.Context, m chat.Message) (string, error) {
	return "", nil
}
func (r *usageRepo) ListMessages(ctx context.Context, id string) ([]chat.Message, error) {
	return nil, nil
}
func (r *usageRepo) DeleteMessages(ctx context.Context, id string) error { return nil }
func (r *usageRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

func TestGateBoundary(t *testing.T) {
	repo := &usageRepo{}
	g := NewGate(repo, 1000)

	repo.used = 999
	if err := g.Allow(context.Background(), "u1"); err != nil {
		t.Fatalf("one token below cap must be admitted: %v", err)
	}

	repo.used = 1000
	if err := g.Allow(context.Background(), "u1"); !errors.Is(err, chat.ErrBudgetExceeded) {
		t.Fatalf("exactly at cap must be rejected, got %v", err)
	}

	repo.used = 5000
	if err := g.Allow(context.Background(), "u1"); !errors.Is(err, chat.ErrBudgetExceeded) {
		t.Fatalf("over cap must be rejected, got %v", err)
	}
}

func TestGateWindowStartsAtCalendarMonth(t *testing.T) {
	repo := &usageRepo{}
	g := NewGate(repo, 1000)
	_ = g.Allow(context.Background(), "u1")

	now := time.Now().UTC()
	if repo.since.Day() != 1 || repo.since.Month() != now.Month() || repo.since.Year() != now.Year() {
		t.Fatalf("aggregate window starts at %v, want first of current month", repo.since)
	}
	if h, m, s := repo.since.Clock(); h != 0 || m != 0 || s != 0 {
		t.Fatalf("window start not at midnight: %v", repo.since)
	}
}

func TestGatePropagatesAggregateErrors(t *testing.T) {
	repo := &usageRepo{err: errors.New("db down")}
	g := NewGate(repo, 1000)
	if err := g.Allow(context.Background(), "u1"); err == nil || errors.Is(err, chat.ErrBudgetExceeded) {
		t.Fatalf("aggregate failure should surface as a generic error, got %v", err)
	}
}

// memStore is an in-memory cache.Cache for gate tests.
type memStore struct {
	values map[string]string
	err    error
	sets   int
}

func newMemStore() *memStore {
	return &memStore{values: make(map[string]string)}
}

func (s *memStore) Get(ctx context.Context, key string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	v, ok := s.values[key]
	if !ok {
		return "", cache.ErrMiss
	}
	return v, nil
}

func (s *memStore) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if s.err != nil {
		return s.err
	}
	s.sets++
	s.values[key] = value
	return nil
}

func (s *memStore) IncrWindow(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	return 0, errors.New("not used")
}
func (s *memStore) Ping(ctx context.Context) error { return nil }
func (s *memStore) Close() error                   { return nil }

func TestGateCacheHitSkipsAggregate(t *testing.T) {
	repo := &usageRepo{used: 0}
	store := newMemStore()
	key := usageKey("u1", monthStart(time.Now().UTC()))
	store.values[key] = "500"

	g := NewGate(repo, 1000).WithCache(store)
	if err := g.Allow(context.Background(), "u1"); err != nil {
		t.Fatalf("cached usage under cap must be admitted: %v", err)
	}
	if repo.calls != 0 {
		t.Fatalf("aggregate queried %d times despite cache hit", repo.calls)
	}

	store.values[key] = "1000"
	if err := g.Allow(context.Background(), "u1"); !errors.Is(err, chat.ErrBudgetExceeded) {
		t.Fatalf("cached usage at cap must be rejected, got %v", err)
	}
}

func TestGateCacheMissPopulatesStore(t *testing.T) {
	repo := &usageRepo{used: 750}
	store := newMemStore()

	g := NewGate(repo, 1000).WithCache(store)
	if err := g.Allow(context.Background(), "u1"); err != nil {
		t.Fatalf("usage under cap must be admitted: %v", err)
	}
	if repo.calls != 1 {
		t.Fatalf("aggregate queried %d times, want 1", repo.calls)
	}
	key := usageKey("u1", monthStart(time.Now().UTC()))
	if store.values[key] != "750" {
		t.Fatalf("cached value = %q, want aggregate result", store.values[key])
	}
}

func TestGateCacheFailureFallsBackToAggregate(t *testing.T) {
	repo := &usageRepo{used: 2000}
	store := newMemStore()
	store.err = errors.New("redis down")

	g := NewGate(repo, 1000).WithCache(store)
	if err := g.Allow(context.Background(), "u1"); !errors.Is(err, chat.ErrBudgetExceeded) {
		t.Fatalf("gate must still enforce the cap on cache failure, got %v", err)
	}
	if repo.calls != 1 {
		t.Fatalf("aggregate queried %d times, want 1", repo.calls)
	}
}
