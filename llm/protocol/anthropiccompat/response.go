package anthropiccompat

import (
	"github.com/tidwall/gjson"

	"github.com/dshills/llmcore/llm"
)

// ParseResponse parses a non-streaming Messages API response into the
// unified ChatResponse, preserving the original content blocks in
// ProtocolPayloads so a later tool-loop turn can replay them verbatim
// (required for thinking-block signatures).
func ParseResponse(providerID string, body []byte) (llm.ChatResponseWithAssistantMessage, error) {
	root := gjson.ParseBytes(body)

	content := root.Get("content")
	if !content.Exists() || !content.IsArray() || len(content.Array()) == 0 {
		return llm.ChatResponseWithAssistantMessage{}, llm.NewError(llm.KindResponseFormat, "response has no content blocks").WithProvider(providerID)
	}

	var text, thinking string
	var toolCalls []llm.ToolCall

	for _, block := range content.Array() {
		switch block.Get("type").String() {
		case "text":
			text += block.Get("text").String()
		case "thinking":
			thinking += block.Get("thinking").String()
		case "redacted_thinking":
			// Opaque; preserved only via ProtocolPayloads for replay.
		case "tool_use":
			toolCalls = append(toolCalls, llm.ToolCall{
				ID:       block.Get("id").String(),
				CallType: "function",
				Function: llm.ToolCallFunction{
					Name:          block.Get("name").String(),
					ArgumentsJSON: block.Get("input").Raw,
				},
			})
		case "server_tool_use", "web_search_tool_result", "web_fetch_tool_result":
			// Surfaced only through provider metadata, never as a local tool call.
		}
	}

	resp := llm.ChatResponse{
		Text:      text,
		Thinking:  thinking,
		ToolCalls: toolCalls,
		ProviderMetadata: map[string]map[string]any{
			providerID: {
				"id":            root.Get("id").String(),
				"model":         root.Get("model").String(),
				"stop_reason":   root.Get("stop_reason").String(),
				"contentBlocks": content.Value(),
			},
		},
	}

	if usage := root.Get("usage"); usage.Exists() {
		resp.Usage = &llm.Usage{
			InputTokens:  int(usage.Get("input_tokens").Int()),
			OutputTokens: int(usage.Get("output_tokens").Int()),
			TotalTokens:  int(usage.Get("input_tokens").Int() + usage.Get("output_tokens").Int()),
		}
	}

	assistant := llm.ChatMessage{
		Role:        llm.RoleAssistant,
		ContentText: text,
		ProtocolPayloads: map[string]any{
			providerID: map[string]any{"contentBlocks": content.Value()},
		},
	}
	if len(toolCalls) > 0 {
		assistant.TypedBody = &llm.TypedBody{Kind: llm.BodyToolUse, Text: thinking, ToolCalls: toolCalls}
	} else {
		assistant.TypedBody = &llm.TypedBody{Kind: llm.BodyText, Text: text}
	}

	return llm.ChatResponseWithAssistantMessage{ChatResponse: resp, AssistantMessage: assistant}, nil
}
