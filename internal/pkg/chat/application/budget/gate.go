// Package budget enforces the monthly per-user token cap ahead of any
// provider traffic.
package budget

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	cache "go-parley/internal/infrastructure/cache/port"
	chat "go-parley/internal/pkg/chat/domain"
	repository "go-parley/internal/pkg/chat/persistence/repository/port"
)

// DefaultMonthlyCap matches the initial allowance granted to new users.
const DefaultMonthlyCap = 200000

// usageCacheTTL bounds how stale the cached aggregate may be. The gate is
// an admission check, not an account ledger; a short window of staleness
// only delays rejection by a few requests.
const usageCacheTTL = 30 * time.Second

// Gate admits or rejects a streaming request based on the user's aggregate
// estimated token consumption this calendar month. The aggregate is
// recomputed from the message log, with an optional short-lived cache in
// front so a chatty client does not hit the aggregate query per request.
type Gate struct {
	repo  repository.ChatRepository
	store cache.Cache
	cap   int64
}

func NewGate(repo repository.ChatRepository, cap int64) *Gate {
	if cap <= 0 {
		cap = DefaultMonthlyCap
	}
	return &Gate{repo: repo, cap: cap}
}

// WithCache fronts the usage aggregate with store. Cache failures fall
// back to the repository.
func (g *Gate) WithCache(store cache.Cache) *Gate {
	g.store = store
	return g
}

// NewGateFromEnv reads the cap from USER_BUDGET_MONTHLY_TOKENS.
func NewGateFromEnv(repo repository.ChatRepository) *Gate {
	cap := int64(DefaultMonthlyCap)
	if v := os.Getenv("USER_BUDGET_MONTHLY_TOKENS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cap = n
		}
	}
	return NewGate(repo, cap)
}

// Allow returns nil when the user is under the cap, ErrBudgetExceeded when
// usage meets or exceeds it. No side effects either way.
func (g *Gate) Allow(ctx context.Context, userID string) error {
	used, err := g.usage(ctx, userID)
	if err != nil {
		return fmt.Errorf("budget: aggregate usage: %w", err)
	}
	if used >= g.cap {
		return chat.ErrBudgetExceeded
	}
	return nil
}

func (g *Gate) usage(ctx context.Context, userID string) (int64, error) {
	since := monthStart(time.Now().UTC())
	key := usageKey(userID, since)

	if g.store != nil {
		if v, err := g.store.Get(ctx, key); err == nil {
			if n, perr := strconv.ParseInt(v, 10, 64); perr == nil {
				return n, nil
			}
		} else if !errors.Is(err, cache.ErrMiss) {
			log.Printf("budget: usage cache read: %v", err)
		}
	}

	used, err := g.repo.MonthlyTokenUsage(ctx, userID, since)
	if err != nil {
		return 0, err
	}

	if g.store != nil {
		if err := g.store.Set(ctx, key, strconv.FormatInt(used, 10), usageCacheTTL); err != nil {
			log.Printf("budget: usage cache write: %v", err)
		}
	}
	return used, nil
}

func usageKey(userID string, since time.Time) string {
	return fmt.Sprintf("budget:u:%s:%s", userID, since.Format("2006-01"))
}

func monthStart(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
}
