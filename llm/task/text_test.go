package task

import (
	"context"
	"testing"

	"github.com/dshills/llmcore/llm"
	"github.com/dshills/llmcore/llm/capability"
)

type stubChat struct {
	gotMessages []llm.ChatMessage
	resp        llm.ChatResponseWithAssistantMessage
}

func (s *stubChat) Supports(c capability.Capability) bool { return true }

func (s *stubChat) Chat(ctx context.Context, messages []llm.ChatMessage, cfg llm.LLMConfig, cancel *llm.CancelToken) (llm.ChatResponseWithAssistantMessage, error) {
	s.gotMessages = messages
	return s.resp, nil
}

type stubStreamChat struct {
	gotMessages []llm.ChatMessage
}

func (s *stubStreamChat) Supports(c capability.Capability) bool { return true }

func (s *stubStreamChat) ChatStreamParts(ctx context.Context, messages []llm.ChatMessage, cfg llm.LLMConfig, cancel *llm.CancelToken) (llm.StreamParts, error) {
	s.gotMessages = messages
	out := make(chan llm.Part, 1)
	out <- llm.Part{Kind: llm.PartFinish, Response: &llm.ChatResponse{Text: "ok"}}
	close(out)
	return out, nil
}

func TestGenerateText_ResolvesPromptAndForwards(t *testing.T) {
	chat := &stubChat{resp: llm.ChatResponseWithAssistantMessage{ChatResponse: llm.ChatResponse{Text: "hi there"}}}
	prompt := "say hi"

	resp, err := GenerateText(context.Background(), TextInput{Prompt: &prompt}, llm.LLMConfig{}, chat, nil)
	if err != nil {
		t.Fatalf("GenerateText failed: %v", err)
	}
	if resp.Text != "hi there" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if len(chat.gotMessages) != 1 || chat.gotMessages[0].Role != llm.RoleUser {
		t.Fatalf("unexpected messages forwarded: %+v", chat.gotMessages)
	}
}

func TestGenerateText_RejectsAmbiguousInput(t *testing.T) {
	p := "hi"
	_, err := GenerateText(context.Background(), TextInput{Prompt: &p, Messages: []llm.ChatMessage{{Role: llm.RoleUser}}}, llm.LLMConfig{}, &stubChat{}, nil)
	if err == nil {
		t.Fatal("expected error for ambiguous input")
	}
}

func TestStreamText_ForwardsPartsFromMessages(t *testing.T) {
	chat := &stubStreamChat{}
	parts, err := StreamText(context.Background(), TextInput{Messages: []llm.ChatMessage{{Role: llm.RoleUser, ContentText: "hi"}}}, llm.LLMConfig{}, chat, nil)
	if err != nil {
		t.Fatalf("StreamText failed: %v", err)
	}
	var got []llm.Part
	for p := range parts {
		got = append(got, p)
	}
	if len(got) != 1 || got[0].Kind != llm.PartFinish {
		t.Fatalf("unexpected parts: %+v", got)
	}
	if len(chat.gotMessages) != 1 {
		t.Fatalf("expected messages forwarded verbatim, got %+v", chat.gotMessages)
	}
}
