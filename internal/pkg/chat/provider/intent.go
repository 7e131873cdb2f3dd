package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Intent is the intent-matching adapter. It talks to a detect-intent style
// REST agent that answers one user utterance at a time and has no native
// streaming, so StreamChat synthesizes a word-granularity token stream from
// the completed response.
type Intent struct {
	baseURL    string
	token      string
	httpClient *http.Client
	tokenDelay time.Duration
}

var _ Provider = (*Intent)(nil)

// wordDelay paces the synthesized stream so clients render it like a live
// completion.
const wordDelay = 40 * time.Millisecond

// NewIntent constructs the adapter from INTENT_AGENT_URL and
// INTENT_API_TOKEN environment variables.
func NewIntent() *Intent {
	return &Intent{
		baseURL:    strings.TrimRight(os.Getenv("INTENT_AGENT_URL"), "/"),
		token:      os.Getenv("INTENT_API_TOKEN"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		tokenDelay: wordDelay,
	}
}

func (p *Intent) Name() string { return "intent" }

type detectIntentRequest struct {
	QueryInput struct {
		Text struct {
			Text         string `json:"text"`
			LanguageCode string `json:"languageCode"`
		} `json:"text"`
	} `json:"queryInput"`
}

type detectIntentResponse struct {
	QueryResult struct {
		FulfillmentText string `json:"fulfillmentText"`
		Intent          struct {
			DisplayName string `json:"displayName"`
		} `json:"intent"`
	} `json:"queryResult"`
}

// Chat sends the most recent user turn to the agent. History beyond that is
// dropped: intent agents keep their own session state and accept a single
// utterance per call.
func (p *Intent) Chat(ctx context.Context, history []Turn, opts Options) (string, error) {
	if p.baseURL == "" {
		return "", &Error{Provider: p.Name(), Err: errors.New("INTENT_AGENT_URL is not set")}
	}

	var last string
	for _, t := range history {
		if t.Role == "user" {
			last = t.Content
		}
	}
	if last == "" {
		return "", nil
	}

	var req detectIntentRequest
	req.QueryInput.Text.Text = last
	req.QueryInput.Text.LanguageCode = "en-US"

	body, err := json.Marshal(req)
	if err != nil {
		return "", &Error{Provider: p.Name(), Err: err}
	}

	url := fmt.Sprintf("%s/sessions/%s:detectIntent", p.baseURL, uuid.NewString())
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", &Error{Provider: p.Name(), Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.token)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return "", &Error{Provider: p.Name(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &Error{Provider: p.Name(), Err: fmt.Errorf("detect intent: status %d", resp.StatusCode)}
	}

	var out detectIntentResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &Error{Provider: p.Name(), Err: fmt.Errorf("detect intent: decode response: %w", err)}
	}

	text := out.QueryResult.FulfillmentText
	if text == "" {
		text = out.QueryResult.Intent.DisplayName
	}
	return text, nil
}

// StreamChat simulates streaming by completing the call first and replaying
// the result word by word with a fixed delay.
func (p *Intent) StreamChat(ctx context.Context, history []Turn, opts Options) (<-chan StreamEvent, error) {
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
			select {
			case <-ctx.Done():
				events <- StreamEvent{Err: &Error{Provider: p.Name(), Err: ctx.Err()}}
				return
			case <-time.After(p.tokenDelay):
			}
		}
		events <- StreamEvent{Done: true, Meta: Metadata{Provider: p.Name(), Model: opts.Model}}
	}()

	return events, nil
}

func (p *Intent) Summarize(ctx context.Context, transcript string, opts Options) (string, error) {
	return p.Chat(ctx, summarizeTurns(transcript), opts)
}
