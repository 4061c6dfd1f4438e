package prompt

import (
	"testing"

	"github.com/dshills/llmcore/llm"
)

func TestPrompt_Validate(t *testing.T) {
	t.Run("rejects empty message", func(t *testing.T) {
		p := Prompt{Messages: []PromptMessage{{Role: llm.RoleUser}}}
		if err := p.Validate(); !llm.IsKind(err, llm.KindInvalidRequest) {
			t.Fatalf("expected InvalidRequest, got %v", err)
		}
	})

	t.Run("rejects non-text system parts", func(t *testing.T) {
		p := Prompt{Messages: []PromptMessage{{
			Role:  llm.RoleSystem,
			Parts: []Part{{Kind: PartImageURL, URL: "https://example.com/x.png"}},
		}}}
		if err := p.Validate(); !llm.IsKind(err, llm.KindInvalidRequest) {
			t.Fatalf("expected InvalidRequest, got %v", err)
		}
	})

	t.Run("rejects tool_call outside assistant role", func(t *testing.T) {
		p := Prompt{Messages: []PromptMessage{{
			Role:  llm.RoleUser,
			Parts: []Part{{Kind: PartToolCall, ToolCallID: "1", FunctionName: "f"}},
		}}}
		if err := p.Validate(); !llm.IsKind(err, llm.KindInvalidRequest) {
			t.Fatalf("expected InvalidRequest, got %v", err)
		}
	})

	t.Run("accepts well-formed prompt", func(t *testing.T) {
		p := Prompt{Messages: []PromptMessage{
			{Role: llm.RoleSystem, Parts: []Part{{Kind: PartText, Text: "be helpful"}}},
			{Role: llm.RoleUser, Parts: []Part{{Kind: PartText, Text: "hi"}}},
		}}
		if err := p.Validate(); err != nil {
			t.Fatalf("expected valid prompt, got %v", err)
		}
	})
}

func TestPrompt_ToChatMessages_TextRoundTrip(t *testing.T) {
	p := Prompt{Messages: []PromptMessage{
		{Role: llm.RoleUser, Parts: []Part{{Kind: PartText, Text: "hello there"}}},
	}}

	msgs, err := p.ToChatMessages()
	if err != nil {
		t.Fatalf("ToChatMessages failed: %v", err)
	}
	if len(msgs) != 1 || msgs[0].ContentText != "hello there" {
		t.Fatalf("unexpected chat messages: %+v", msgs)
	}

	back, err := FromChatMessage(msgs[0])
	if err != nil {
		t.Fatalf("FromChatMessage failed: %v", err)
	}
	if len(back.Parts) != 1 || back.Parts[0].Text != "hello there" {
		t.Fatalf("round trip mismatch: %+v", back)
	}
}

func TestPrompt_ToChatMessages_ToolCallMerging(t *testing.T) {
	p := Prompt{Messages: []PromptMessage{
		{
			Role: llm.RoleAssistant,
			Parts: []Part{
				{Kind: PartReasoning, Text: "thinking..."},
				{Kind: PartToolCall, ToolCallID: "call_1", CallType: "function", FunctionName: "add", ArgumentsJSON: `{"a":1,"b":2}`},
			},
		},
	}}

	msgs, err := p.ToChatMessages()
	if err != nil {
		t.Fatalf("ToChatMessages failed: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected reasoning+tool_call to merge into 1 message, got %d", len(msgs))
	}
	body := msgs[0].TypedBody
	if body == nil || body.Kind != llm.BodyToolUse {
		t.Fatalf("expected BodyToolUse, got %+v", body)
	}
	if body.Text != "thinking..." {
		t.Errorf("expected thinking text preserved, got %q", body.Text)
	}
	if len(body.ToolCalls) != 1 || body.ToolCalls[0].Function.Name != "add" {
		t.Fatalf("unexpected tool calls: %+v", body.ToolCalls)
	}
}

func TestPrompt_ToChatMessages_ToolResult(t *testing.T) {
	p := Prompt{Messages: []PromptMessage{
		{
			Role: llm.RoleTool,
			Parts: []Part{
				{Kind: PartToolResult, ToolResultCallID: "call_1", ToolResultContent: "42"},
			},
		},
	}}

	msgs, err := p.ToChatMessages()
	if err != nil {
		t.Fatalf("ToChatMessages failed: %v", err)
	}
	if len(msgs) != 1 || msgs[0].TypedBody.Kind != llm.BodyToolResult {
		t.Fatalf("expected single tool-result message, got %+v", msgs)
	}
	if msgs[0].TypedBody.ToolResults[0].Content != "42" {
		t.Errorf("unexpected tool result content: %+v", msgs[0].TypedBody.ToolResults)
	}
}

func TestFromChatMessage_UnrepresentableRejected(t *testing.T) {
	_, err := FromChatMessage(llm.ChatMessage{Role: llm.RoleUser})
	if !llm.IsKind(err, llm.KindInvalidRequest) {
		t.Fatalf("expected InvalidRequest for empty chat message, got %v", err)
	}
}

func TestPrompt_ToChatMessages_URLFileRejected(t *testing.T) {
	p := Prompt{Messages: []PromptMessage{
		{Role: llm.RoleUser, Parts: []Part{{Kind: PartURLFile, URL: "https://example.com/f.pdf", MIME: "application/pdf"}}},
	}}

	_, err := p.ToChatMessages()
	if !llm.IsKind(err, llm.KindInvalidRequest) {
		t.Fatalf("expected InvalidRequest for url_file, got %v", err)
	}
}

func TestFromChatMessages(t *testing.T) {
	msgs := []llm.ChatMessage{
		{Role: llm.RoleUser, ContentText: "hi", TypedBody: &llm.TypedBody{Kind: llm.BodyText, Text: "hi"}},
	}
	p, err := FromChatMessages(msgs)
	if err != nil {
		t.Fatalf("FromChatMessages failed: %v", err)
	}
	if len(p.Messages) != 1 {
		t.Fatalf("expected 1 prompt message, got %d", len(p.Messages))
	}
}
