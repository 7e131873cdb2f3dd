// Package summarizer condenses long conversation histories into a rolling
// summary so the context handed to providers stays bounded.
package summarizer

import (
	"context"
	"fmt"
	"log"
	"strings"

	chat "go-parley/internal/pkg/chat/domain"
	repository "go-parley/internal/pkg/chat/persistence/repository/port"
	"go-parley/internal/pkg/chat/provider"
)

// compactionThreshold is the total history character length past which a
// conversation gets summarized. A cheap proxy for "context getting large",
// not an exact token count.
const compactionThreshold = 4000

// Fallback summaries used when no provider call is possible or it failed.
const (
	summaryEmpty       = "No messages yet."
	summaryEmptyForced = "No messages yet — nothing to summarize."
	summaryUnavailable = "Summary unavailable due to an error."
)

// Engine decides whether history should be compacted, asks the
// conversation's provider for a summary, and persists the result.
type Engine struct {
	registry *provider.Registry
	repo     repository.ChatRepository
}

func New(registry *provider.Registry, repo repository.ChatRepository) *Engine {
	return &Engine{registry: registry, repo: repo}
}

// SummarizeIfNeeded compacts the history when forced, or when its total
// content length crosses the threshold. Below threshold and not forced it
// returns the stored summary untouched, with no provider call and no write.
//
// Failures never propagate: the caller gets the previous summary (or a
// placeholder) and the error stays in the server log.
func (e *Engine) SummarizeIfNeeded(ctx context.Context, conv *chat.Conversation, history []provider.Turn, force bool) string {
	if len(history) == 0 {
		if force {
			return summaryEmptyForced
		}
		return e.existing(conv, summaryEmpty)
	}

	length := 0
	for _, t := range history {
		length += len(t.Content)
	}
	if !force && length < compactionThreshold {
		return e.existing(conv, "")
	}

	svc := e.registry.Get(conv.Provider)
	if svc == nil {
		log.Printf("summarizer: no provider available for %q", conv.Provider)
		return e.existing(conv, summaryUnavailable)
	}

	summary, err := svc.Summarize(ctx, formatTranscript(history), provider.Options{Model: conv.Model})
	if err != nil {
		log.Printf("summarizer: conversation %s: %v", conv.ID, err)
		return e.existing(conv, summaryUnavailable)
	}

	if err := e.repo.SetSummary(ctx, conv.ID, summary); err != nil {
		log.Printf("summarizer: persist summary for %s: %v", conv.ID, err)
		return e.existing(conv, summaryUnavailable)
	}
	conv.Summary = &summary
	return summary
}

func (e *Engine) existing(conv *chat.Conversation, fallback string) string {
	if conv.Summary != nil && *conv.Summary != "" {
		return *conv.Summary
	}
	return fallback
}

// formatTranscript renders history as one "[role] content" line per turn,
// the shape the summarize prompt expects.
func formatTranscript(history []provider.Turn) string {
	var b strings.Builder
	for i, t := range history {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "[%s] %s", t.Role, t.Content)
	}
	return b.String()
}
