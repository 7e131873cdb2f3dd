package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestIntent(t *testing.T, handler http.HandlerFunc) *Intent {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &Intent{
		baseURL:    srv.URL,
		token:      "test-token",
		httpClient: srv.Client(),
		tokenDelay: 0,
	}
}

func TestIntentChatSendsLastUserTurn(t *testing.T) {
	var gotText, gotAuth string
	p := newTestIntent(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		var req detectIntentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		gotText = req.QueryInput.Text.Text

		var resp detectIntentResponse
		resp.QueryResult.FulfillmentText = "Booking confirmed."
		_ = json.NewEncoder(w).Encode(resp)
	})

	out, err := p.Chat(context.Background(), []Turn{
		{Role: "system", Content: "be helpful"},
		{Role: "user", Content: "first question"},
		{Role: "assistant", Content: "first answer"},
		{Role: "user", Content: "book a table"},
	}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if out != "Booking confirmed." {
		t.Fatalf("out = %q", out)
	}
	if gotText != "book a table" {
		t.Fatalf("agent received %q, want the last user turn", gotText)
	}
	if gotAuth != "Bearer test-token" {
		t.Fatalf("auth header = %q", gotAuth)
	}
}

func TestIntentChatFallsBackToIntentName(t *testing.T) {
	p := newTestIntent(t, func(w http.ResponseWriter, r *http.Request) {
		var resp detectIntentResponse
		resp.QueryResult.Intent.DisplayName = "order.pizza"
		_ = json.NewEncoder(w).Encode(resp)
	})

	out, err := p.Chat(context.Background(), []Turn{{Role: "user", Content: "pizza"}}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if out != "order.pizza" {
		t.Fatalf("out = %q", out)
	}
}

func TestIntentChatServerError(t *testing.T) {
	p := newTestIntent(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := p.Chat(context.Background(), []Turn{{Role: "user", Content: "x"}}, Options{})
	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("want *provider.Error, got %v", err)
	}
	if perr.Provider != "intent" {
		t.Fatalf("error provider = %q", perr.Provider)
	}
}

func TestIntentStreamSynthesizesTokens(t *testing.T) {
	p := newTestIntent(t, func(w http.ResponseWriter, r *http.Request) {
		var resp detectIntentResponse
		resp.QueryResult.FulfillmentText = "three word reply"
		_ = json.NewEncoder(w).Encode(resp)
	})

	events, err := p.StreamChat(context.Background(), []Turn{{Role: "user", Content: "hi"}}, Options{})
	if err != nil {
		t.Fatal(err)
	}

	var toks []string
	done := false
	for ev := range events {
		switch {
		case ev.Err != nil:
			t.Fatalf("stream error: %v", ev.Err)
		case ev.Done:
			done = true
		default:
			toks = append(toks, ev.Token)
		}
	}
	if !done {
		t.Fatal("stream ended without a Done event")
	}
	if len(toks) != 3 {
		t.Fatalf("tokens = %d (%q), want 3 word-granularity chunks", len(toks), toks)
	}
	if strings.TrimSpace(strings.Join(toks, "")) != "three word reply" {
		t.Fatalf("reassembled = %q", strings.Join(toks, ""))
	}
}

func TestIntentStreamErrorIsTerminal(t *testing.T) {
	p := newTestIntent(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	events, err := p.StreamChat(context.Background(), []Turn{{Role: "user", Content: "hi"}}, Options{})
	if err != nil {
		t.Fatal(err)
	}

	sawErr := false
	n := 0
	for ev := range events {
		n++
		if ev.Err != nil {
			sawErr = true
		}
	}
	if !sawErr || n != 1 {
		t.Fatalf("want exactly one terminal error event, got %d events (err=%v)", n, sawErr)
	}
}
