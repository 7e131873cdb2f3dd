package provider

import (
	"context"
	"fmt"
	"strings"
)

// Mock is a deterministic offline provider. It echoes the last user turn,
// which makes it useful for local development and for exercising the full
// streaming pipeline in tests without network access.
type Mock struct{}

var _ Provider = (*Mock)(nil)

func NewMock() *Mock { return &Mock{} }

func (p *Mock) Name() string { return "mock" }

func (p *Mock) Chat(ctx context.Context, history []Turn, opts Options) (string, error) {
	var last string
	for _, t := range history {
		if t.Role == "user" {
			last = t.Content
		}
	}
	if last == "" {
		return "", nil
	}
	return fmt.Sprintf("You said: %s", last), nil
}

func (p *Mock) StreamChat(ctx context.Context, history []Turn, opts Options) (<-chan StreamEvent, error) {
	events := make(chan StreamEvent)

	go func() {
		defer close(events)

		text, err := p.Chat(ctx, history, opts)
		if err != nil {
			events <- StreamEvent{Err: err}
			return
		}
		for _, w := range strings.Fields(text) {
			select {
			case <-ctx.Done():
				events <- StreamEvent{Err: &Error{Provider: p.Name(), Err: ctx.Err()}}
				return
			case events <- StreamEvent{Token: w + " "}:
			}
		}
		events <- StreamEvent{Done: true, Meta: Metadata{Provider: p.Name(), Model: "echo"}}
	}()

	return events, nil
}

func (p *Mock) Summarize(ctx context.Context, transcript string, opts Options) (string, error) {
	// Deterministic stand-in: first line of the transcript, truncated.
	line := transcript
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	if len(line) > 120 {
		line = line[:120]
	}
	return "Summary: " + line, nil
}
