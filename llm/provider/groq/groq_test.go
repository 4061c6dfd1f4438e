package groq

import (
	"context"
	"testing"

	"github.com/dshills/llmcore/llm"
	"github.com/dshills/llmcore/llm/transport"
)

func TestClient_Chat_ParsesResponse(t *testing.T) {
	mt := &transport.MockTransport{JSONResponses: [][]byte{
		[]byte(`{"choices":[{"message":{"role":"assistant","content":"yo"}}]}`),
	}}
	c := New(llm.LLMConfig{APIKey: "gsk-test", BaseURL: DefaultBaseURL, Model: DefaultModel}, mt)

	resp, err := c.Chat(context.Background(), []llm.ChatMessage{{Role: llm.RoleUser, ContentText: "hi"}}, c.cfg, nil)
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if resp.Text != "yo" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if mt.LastHeaders["Authorization"] != "Bearer gsk-test" {
		t.Fatalf("expected bearer auth header, got %+v", mt.LastHeaders)
	}
}
