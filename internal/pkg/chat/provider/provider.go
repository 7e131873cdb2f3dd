// Package provider abstracts the AI backends behind a uniform capability
// interface: synchronous completion, token streaming, and transcript
// summarization. Concrete adapters translate the generic role vocabulary
// into whatever the backend requires.
package provider

import (
	"context"
	"fmt"
)

// Turn is one entry of the conversation context handed to a backend.
// Role is one of "user", "assistant", "system".
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options tunes a single backend call. Zero values mean adapter defaults.
type Options struct {
	Model       string
	Temperature float32
	MaxTokens   int
}

// StreamEvent is one item of a streamed completion. A stream yields zero or
// more token events followed by exactly one terminal event — either Done
// with metadata or Err — after which the channel is closed. Never both,
// never neither.
type StreamEvent struct {
	Token string
	Done  bool
	Meta  Metadata
	Err   error
}

// Metadata accompanies the terminal Done event.
type Metadata struct {
	Provider string
	Model    string
}

// Provider is the capability contract a backend adapter satisfies.
type Provider interface {
	// Name returns the registry name of the provider.
	Name() string

	// Chat returns a single completed response for the given context.
	// An empty history must not fail; adapters return a best-effort or
	// empty result.
	Chat(ctx context.Context, history []Turn, opts Options) (string, error)

	// StreamChat opens a completion stream. Adapters without native
	// incremental output synthesize one from a completed response.
	StreamChat(ctx context.Context, history []Turn, opts Options) (<-chan StreamEvent, error)

	// Summarize reduces a conversation transcript to a shorter factual
	// summary. The anti-fabrication constraint is a prompting contract
	// passed to the model, not enforced in code.
	Summarize(ctx context.Context, transcript string, opts Options) (string, error)
}

// Error tags a backend failure with the provider that produced it. Raw
// backend detail stays server-side; callers surface only a short message.
type Error struct {
	Provider string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// summarizeInstruction is the fixed prompt wrapped around every summarize
// call. It forbids fabricating content absent from the transcript.
const summarizeInstruction = `You are a safe summarization engine.
Summarize the conversation factually using ONLY details that appear in the text.
Do NOT invent names, tasks, projects, motivations, or events.
Do NOT add fictional characters or assumptions.
The summary must be concise, neutral, and strictly accurate.
If the conversation is short or casual, summarize it simply.`

// summarizeTurns builds the two-turn context used by adapters that implement
// Summarize on top of Chat.
func summarizeTurns(transcript string) []Turn {
	return []Turn{
		{Role: "system", Content: summarizeInstruction},
		{Role: "user", Content: transcript},
	}
}
