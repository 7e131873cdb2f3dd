package provider

import (
	"context"
	"errors"
	"io"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

// Generative is the generative-model adapter, backed by an OpenAI-compatible
// chat completion API. It streams natively.
type Generative struct {
	client *openai.Client
	model  string
}

var _ Provider = (*Generative)(nil)

// NewGenerative constructs the adapter from OPENAI_API_KEY and optional
// OPENAI_BASE_URL / OPENAI_MODEL environment variables. A missing key is
// tolerated at construction; calls will fail with a provider error.
func NewGenerative() *Generative {
	cfg := openai.DefaultConfig(os.Getenv("OPENAI_API_KEY"))
	if base := os.Getenv("OPENAI_BASE_URL"); base != "" {
		cfg.BaseURL = base
	}
	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &Generative{client: openai.NewClientWithConfig(cfg), model: model}
}

func (p *Generative) Name() string { return "generative" }

func (p *Generative) request(history []Turn, opts Options, stream bool) openai.ChatCompletionRequest {
	msgs := make([]openai.ChatCompletionMessage, 0, len(history))
	for _, t := range history {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    mapRole(t.Role),
			Content: t.Content,
		})
	}
	model := opts.Model
	if model == "" {
		model = p.model
	}
	temp := opts.Temperature
	if temp == 0 {
		temp = 0.7
	}
	return openai.ChatCompletionRequest{
		Model:       model,
		Messages:    msgs,
		Temperature: temp,
		MaxTokens:   opts.MaxTokens,
		Stream:      stream,
	}
}

// mapRole translates the generic vocabulary to the completion API's. The
// names align, so this is a passthrough with a safe default for anything
// unexpected.
func mapRole(role string) string {
	switch role {
	case "assistant":
		return openai.ChatMessageRoleAssistant
	case "system":
		return openai.ChatMessageRoleSystem
	default:
		return openai.ChatMessageRoleUser
	}
}

func (p *Generative) Chat(ctx context.Context, history []Turn, opts Options) (string, error) {
	if len(history) == 0 {
		return "", nil
	}
	resp, err := p.client.CreateChatCompletion(ctx, p.request(history, opts, false))
	if err != nil {
		return "", &Error{Provider: p.Name(), Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &Error{Provider: p.Name(), Err: errors.New("empty completion response")}
	}
	return resp.Choices[0].Message.Content, nil
}

func (p *Generative) StreamChat(ctx context.Context, history []Turn, opts Options) (<-chan StreamEvent, error) {
	req := p.request(history, opts, true)
	events := make(chan StreamEvent)

	go func() {
		defer close(events)

		stream, err := p.client.CreateChatCompletionStream(ctx, req)
		if err != nil {
			events <- StreamEvent{Err: &Error{Provider: p.Name(), Err: err}}
			return
		}
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				events <- StreamEvent{Done: true, Meta: Metadata{Provider: p.Name(), Model: req.Model}}
				return
			}
			if err != nil {
				events <- StreamEvent{Err: &Error{Provider: p.Name(), Err: err}}
				return
			}
			if len(resp.Choices) > 0 {
				if delta := resp.Choices[0].Delta.Content; delta != "" {
					events <- StreamEvent{Token: delta}
				}
			}
		}
	}()

	return events, nil
}

func (p *Generative) Summarize(ctx context.Context, transcript string, opts Options) (string, error) {
	return p.Chat(ctx, summarizeTurns(transcript), opts)
}
