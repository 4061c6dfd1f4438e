package openaicompat

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/dshills/llmcore/llm"
)

// ParseResponse decodes a full (non-streaming) chat/completions response
// body into a ChatResponseWithAssistantMessage.
func ParseResponse(providerID string, body []byte) (llm.ChatResponseWithAssistantMessage, error) {
	root := gjson.ParseBytes(body)
	if !root.Get("choices.0").Exists() {
		return llm.ChatResponseWithAssistantMessage{}, llm.NewError(llm.KindResponseFormat, "response has no choices").WithProvider(providerID)
	}

	choice := root.Get("choices.0")
	msg := choice.Get("message")

	text := msg.Get("content").String()
	thinking := firstNonEmpty(msg.Get("reasoning").String(), msg.Get("thinking").String(), msg.Get("reasoning_content").String())
	text, extractedThinking := extractThinkTag(text)
	if thinking == "" {
		thinking = extractedThinking
	}

	toolCalls := parseToolCalls(msg.Get("tool_calls"))

	resp := llm.ChatResponse{
		Text:      text,
		Thinking:  thinking,
		ToolCalls: toolCalls,
		ProviderMetadata: map[string]map[string]any{
			providerID: {
				"id":                root.Get("id").String(),
				"model":             root.Get("model").String(),
				"system_fingerprint": root.Get("system_fingerprint").String(),
				"finish_reason":     choice.Get("finish_reason").String(),
			},
		},
	}

	if usage := root.Get("usage"); usage.Exists() {
		resp.Usage = &llm.Usage{
			InputTokens:  int(usage.Get("prompt_tokens").Int()),
			OutputTokens: int(usage.Get("completion_tokens").Int()),
			TotalTokens:  int(usage.Get("total_tokens").Int()),
		}
	}

	assistant := llm.ChatMessage{
		Role:        llm.RoleAssistant,
		ContentText: text,
	}
	if len(toolCalls) > 0 {
		assistant.TypedBody = &llm.TypedBody{Kind: llm.BodyToolUse, Text: thinking, ToolCalls: toolCalls}
	} else {
		assistant.TypedBody = &llm.TypedBody{Kind: llm.BodyText, Text: text}
	}

	return llm.ChatResponseWithAssistantMessage{ChatResponse: resp, AssistantMessage: assistant}, nil
}

func parseToolCalls(arr gjson.Result) []llm.ToolCall {
	if !arr.IsArray() {
		return nil
	}
	var out []llm.ToolCall
	for _, tc := range arr.Array() {
		out = append(out, llm.ToolCall{
			ID:       tc.Get("id").String(),
			CallType: "function",
			Function: llm.ToolCallFunction{
				Name:          tc.Get("function.name").String(),
				ArgumentsJSON: tc.Get("function.arguments").String(),
			},
		})
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// extractThinkTag strips a leading <think>...</think> wrapper some
// providers embed directly in the text content, returning the remaining
// text and the extracted thinking content.
func extractThinkTag(text string) (string, string) {
	const open, close = "<think>", "</think>"
	start := strings.Index(text, open)
	if start != 0 {
		return text, ""
	}
	end := strings.Index(text, close)
	if end < 0 {
		return text, ""
	}
	thinking := text[len(open):end]
	rest := strings.TrimSpace(text[end+len(close):])
	return rest, thinking
}
