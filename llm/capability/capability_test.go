package capability

import (
	"context"
	"testing"

	"github.com/dshills/llmcore/llm"
)

// mockChatProvider implements ChatCapability with a fixed, canned response,
// and declares support for exactly one capability.
type mockChatProvider struct {
	supported Capability
}

func (m mockChatProvider) Supports(c Capability) bool {
	return c == m.supported
}

func (m mockChatProvider) Chat(ctx context.Context, messages []llm.ChatMessage, cfg llm.LLMConfig, cancel *llm.CancelToken) (llm.ChatResponseWithAssistantMessage, error) {
	return llm.ChatResponseWithAssistantMessage{
		ChatResponse: llm.ChatResponse{Text: "hello"},
	}, nil
}

func TestCapability_String(t *testing.T) {
	cases := map[Capability]string{
		Chat:                  "chat",
		ChatStream:            "chat_stream",
		ChatStreamParts:       "chat_stream_parts",
		PromptChat:            "prompt_chat",
		PromptChatStream:      "prompt_chat_stream",
		PromptChatStreamParts: "prompt_chat_stream_parts",
		Embedding:             "embedding",
		Rerank:                "rerank",
		ImageGen:              "image_gen",
		Tts:                   "tts",
		Stt:                   "stt",
		ModelListing:          "model_listing",
		Moderation:            "moderation",
	}
	for cap, want := range cases {
		if got := cap.String(); got != want {
			t.Errorf("Capability(%d).String() = %q, want %q", cap, got, want)
		}
	}
	if got := Capability(999).String(); got != "unknown" {
		t.Errorf("unknown capability should stringify to %q, got %q", "unknown", got)
	}
}

func TestChatCapability_InterfaceContract(t *testing.T) {
	var _ ChatCapability = mockChatProvider{supported: Chat}
}

func TestSupports_IsBestEffort(t *testing.T) {
	m := mockChatProvider{supported: Chat}

	if !m.Supports(Chat) {
		t.Error("expected Supports(Chat) to be true")
	}
	if m.Supports(Embedding) {
		t.Error("expected Supports(Embedding) to be false for a chat-only provider")
	}

	// A false Supports result must not prevent the caller from attempting
	// the operation it IS declared for.
	resp, err := m.Chat(context.Background(), nil, llm.LLMConfig{}, llm.NewCancelToken())
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if resp.Text != "hello" {
		t.Errorf("unexpected response text: %q", resp.Text)
	}
}

func TestRerankResult_Fields(t *testing.T) {
	r := RerankResult{Doc: "doc a", Score: 0.91, Index: 0, OriginalIndex: 2}
	if r.Doc != "doc a" || r.Score != 0.91 || r.Index != 0 || r.OriginalIndex != 2 {
		t.Errorf("unexpected RerankResult: %+v", r)
	}
}

func TestEmbeddingResult_Fields(t *testing.T) {
	r := EmbeddingResult{Index: 1, Embedding: []float64{0.1, 0.2, 0.3}}
	if r.Index != 1 || len(r.Embedding) != 3 {
		t.Errorf("unexpected EmbeddingResult: %+v", r)
	}
}
