package openaicompat

import (
	"testing"

	"github.com/dshills/llmcore/llm"
)

func TestParseResponse_BasicText(t *testing.T) {
	body := []byte(`{
		"id": "chatcmpl-1",
		"model": "gpt-4o",
		"choices": [{"message": {"role": "assistant", "content": "hello there"}, "finish_reason": "stop"}],
		"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
	}`)

	resp, err := ParseResponse("openai", body)
	if err != nil {
		t.Fatalf("ParseResponse failed: %v", err)
	}
	if resp.Text != "hello there" {
		t.Errorf("unexpected text: %q", resp.Text)
	}
	if resp.Usage == nil || resp.Usage.TotalTokens != 15 {
		t.Errorf("unexpected usage: %+v", resp.Usage)
	}
	if resp.ProviderMetadata["openai"]["finish_reason"] != "stop" {
		t.Errorf("unexpected provider metadata: %+v", resp.ProviderMetadata)
	}
}

func TestParseResponse_PromotesReasoningField(t *testing.T) {
	body := []byte(`{
		"choices": [{"message": {"content": "answer", "reasoning": "because..."}, "finish_reason": "stop"}]
	}`)

	resp, err := ParseResponse("deepseek", body)
	if err != nil {
		t.Fatalf("ParseResponse failed: %v", err)
	}
	if resp.Thinking != "because..." {
		t.Errorf("expected reasoning promoted to thinking, got %q", resp.Thinking)
	}
}

func TestParseResponse_ExtractsThinkTag(t *testing.T) {
	body := []byte(`{
		"choices": [{"message": {"content": "<think>pondering</think>final answer"}, "finish_reason": "stop"}]
	}`)

	resp, err := ParseResponse("groq-openai", body)
	if err != nil {
		t.Fatalf("ParseResponse failed: %v", err)
	}
	if resp.Thinking != "pondering" {
		t.Errorf("expected extracted thinking, got %q", resp.Thinking)
	}
	if resp.Text != "final answer" {
		t.Errorf("expected stripped text, got %q", resp.Text)
	}
}

func TestParseResponse_ToolCalls(t *testing.T) {
	body := []byte(`{
		"choices": [{"message": {"content": null, "tool_calls": [
			{"id": "call_1", "function": {"name": "add", "arguments": "{\"a\":1}"}}
		]}, "finish_reason": "tool_calls"}]
	}`)

	resp, err := ParseResponse("openai", body)
	if err != nil {
		t.Fatalf("ParseResponse failed: %v", err)
	}
	if len(resp.ToolCalls) != 1 || resp.ToolCalls[0].Function.Name != "add" {
		t.Fatalf("unexpected tool calls: %+v", resp.ToolCalls)
	}
	if resp.AssistantMessage.TypedBody == nil || resp.AssistantMessage.TypedBody.Kind != llm.BodyToolUse {
		t.Errorf("expected assistant message typed body BodyToolUse, got %+v", resp.AssistantMessage.TypedBody)
	}
}

func TestParseResponse_NoChoicesIsResponseFormatError(t *testing.T) {
	_, err := ParseResponse("openai", []byte(`{"choices": []}`))
	if err == nil {
		t.Fatal("expected error for empty choices")
	}
}
