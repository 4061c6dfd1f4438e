package minimax

import (
	"context"
	"testing"

	"github.com/dshills/llmcore/llm"
	"github.com/dshills/llmcore/llm/transport"
)

func TestClient_Chat_ParsesResponseAndSetsAPIKeyHeaders(t *testing.T) {
	mt := &transport.MockTransport{JSONResponses: [][]byte{
		[]byte(`{"content":[{"type":"text","text":"hi from minimax"}]}`),
	}}
	c := New(llm.LLMConfig{APIKey: "mm-test", BaseURL: DefaultBaseURL, Model: DefaultModel}, mt)

	resp, err := c.Chat(context.Background(), []llm.ChatMessage{{Role: llm.RoleUser, ContentText: "hi"}}, c.cfg, nil)
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if resp.Text != "hi from minimax" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if mt.LastHeaders["x-api-key"] != "mm-test" {
		t.Fatalf("expected x-api-key header, got %+v", mt.LastHeaders)
	}
}

func TestHeaders_PrefersMinimaxOptionOverAnthropicFallback(t *testing.T) {
	cfg := llm.LLMConfig{
		APIKey: "mm-test",
		ProviderOptions: map[string]map[string]any{
			"anthropic": {"extraHeaders": map[string]string{"x-trace": "anthropic-value"}},
			"minimax":   {"extraHeaders": map[string]string{"x-trace": "minimax-value"}},
		},
	}
	c := New(cfg, &transport.MockTransport{})
	h := c.headers(nil)
	if h["x-trace"] != "minimax-value" {
		t.Fatalf("expected minimax namespace to win, got %q", h["x-trace"])
	}
}

func TestHeaders_FallsBackToAnthropicWhenMinimaxUnset(t *testing.T) {
	cfg := llm.LLMConfig{
		APIKey: "mm-test",
		ProviderOptions: map[string]map[string]any{
			"anthropic": {"extraHeaders": map[string]string{"x-trace": "anthropic-value"}},
		},
	}
	c := New(cfg, &transport.MockTransport{})
	h := c.headers(nil)
	if h["x-trace"] != "anthropic-value" {
		t.Fatalf("expected anthropic fallback, got %q", h["x-trace"])
	}
}
