package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAnthropic_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "test-key" {
			t.Error("Missing API key header")
		}
		if r.Header.Get("anthropic-version") != anthropicAPIVersion {
			t.Error("Missing anthropic-version header")
		}

		var req anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if req.System != "summarize" {
			t.Errorf("System = %q, want %q", req.System, "summarize")
		}
		if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
			t.Errorf("expected a single user message, got %+v", req.Messages)
		}

		resp := anthropicResponse{
			Content: []anthropicBlock{
				{Type: "text", Text: "Adds "},
				{Type: "tool_use"},
				{Type: "text", Text: "a flag."},
			},
			Usage: anthropicUsage{InputTokens: 100, OutputTokens: 10},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	a := &Anthropic{
		apiKey:  "test-key",
		model:   "claude-sonnet-4-20250514",
		baseURL: server.URL,
		client:  server.Client(),
	}

	resp, err := a.Complete(context.Background(), CompletionRequest{
		Messages:  testMessages(),
		MaxTokens: 10,
	})
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	if resp.Content != "Adds a flag." {
		t.Errorf("Content = %q, want %q", resp.Content, "Adds a flag.")
	}
	if resp.TokensUsed != 110 {
		t.Errorf("TokensUsed = %d, want 110", resp.TokensUsed)
	}
}

func TestAnthropic_AuthError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(401)
		w.Write([]byte(`{"error":"unauthorized"}`))
	}))
	defer server.Close()

	a := &Anthropic{
		apiKey:  "bad-key",
		model:   "claude-sonnet-4-20250514",
		baseURL: server.URL,
		client:  server.Client(),
	}

	_, err := a.Complete(context.Background(), CompletionRequest{Messages: testMessages()})
	if err == nil {
		t.Fatal("Expected auth error")
	}
	if !IsAuthError(err) {
		t.Errorf("Expected auth error, got: %v", err)
	}
}

func TestAnthropic_ServerErrorIsNotRetried(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(503)
		w.Write([]byte(`overloaded`))
	}))
	defer server.Close()

	a := &Anthropic{apiKey: "k", model: "m", baseURL: server.URL, client: server.Client()}
	_, err := a.Complete(context.Background(), CompletionRequest{Messages: testMessages()})
	if !IsServerError(err) {
		t.Errorf("Expected server error, got: %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected exactly 1 attempt, got %d", attempts)
	}
}

func TestAnthropic_EmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(anthropicResponse{Content: []anthropicBlock{}})
	}))
	defer server.Close()

	a := &Anthropic{apiKey: "k", model: "m", baseURL: server.URL, client: server.Client()}
	if _, err := a.Complete(context.Background(), CompletionRequest{Messages: testMessages()}); err == nil {
		t.Error("Expected error for empty content")
	}
}

func TestAnthropic_Name(t *testing.T) {
	a := &Anthropic{model: "test"}
	if a.Name() != "anthropic" {
		t.Errorf("Name() = %q, want %q", a.Name(), "anthropic")
	}
}
