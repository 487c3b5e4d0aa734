package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/zoobzio/dendrite"
)

const messagesJSON = `{
	"content": [{"type": "text", "text": "{\"trunk_length\": 12}"}],
	"usage": {"input_tokens": 40, "output_tokens": 12}
}`

func TestCall(t *testing.T) {
	var received map[string]any
	var headers http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		headers = r.Header.Clone()
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		w.Write([]byte(messagesJSON))
	}))
	defer server.Close()

	provider := New(Config{APIKey: "test-key", Model: "claude-sonnet-4-20250514", BaseURL: server.URL})
	resp, err := provider.Call(context.Background(), []dendrite.Message{
		{Role: dendrite.RoleSystem, Content: "you infer parameters"},
		{Role: dendrite.RoleUser, Content: "a tall pine"},
	}, 0.4)
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}

	if resp.Content != `{"trunk_length": 12}` {
		t.Errorf("Unexpected content: %s", resp.Content)
	}
	if resp.Usage.Prompt != 40 || resp.Usage.Completion != 12 || resp.Usage.Total != 52 {
		t.Errorf("Unexpected usage: %+v", resp.Usage)
	}

	if headers.Get("x-api-key") != "test-key" {
		t.Error("Expected API key header")
	}
	if headers.Get("anthropic-version") == "" {
		t.Error("Expected anthropic-version header")
	}

	// System messages fold into the system field, not the message list.
	if received["system"] != "you infer parameters" {
		t.Errorf("Unexpected system field: %v", received["system"])
	}
	msgs, ok := received["messages"].([]any)
	if !ok || len(msgs) != 1 {
		t.Fatalf("Expected 1 conversation message, got %v", received["messages"])
	}
	if received["model"] != "claude-sonnet-4-20250514" {
		t.Errorf("Unexpected model: %v", received["model"])
	}
}

func TestAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"type": "rate_limit_error", "message": "slow down"}}`))
	}))
	defer server.Close()

	provider := New(Config{APIKey: "k", BaseURL: server.URL})
	_, err := provider.Call(context.Background(), nil, 0.4)
	if err == nil {
		t.Fatal("Expected error")
	}
	if got := err.Error(); got != "anthropic error (429, rate_limit_error): slow down" {
		t.Errorf("Unexpected error: %s", got)
	}
}

func TestEmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"content": [], "usage": {"input_tokens": 1, "output_tokens": 0}}`))
	}))
	defer server.Close()

	provider := New(Config{APIKey: "k", BaseURL: server.URL})
	if _, err := provider.Call(context.Background(), nil, 0.4); err == nil {
		t.Error("Expected error for empty content")
	}
}

func TestName(t *testing.T) {
	if New(Config{}).Name() != "anthropic" {
		t.Error("Unexpected provider name")
	}
}
