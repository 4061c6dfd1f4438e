package google

import (
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/dshills/llmcore/llm"
)

// parseResponse parses a non-streaming generateContent response into the
// unified ChatResponse.
func parseResponse(body []byte) (llm.ChatResponseWithAssistantMessage, error) {
	root := gjson.ParseBytes(body)

	candidates := root.Get("candidates")
	if !candidates.Exists() || len(candidates.Array()) == 0 {
		return llm.ChatResponseWithAssistantMessage{}, llm.NewError(llm.KindResponseFormat, "response has no candidates").WithProvider(ProviderID)
	}
	candidate := candidates.Array()[0]

	var text, thinking string
	var toolCalls []llm.ToolCall
	for i, part := range candidate.Get("content.parts").Array() {
		switch {
		case part.Get("functionCall").Exists():
			fc := part.Get("functionCall")
			toolCalls = append(toolCalls, llm.ToolCall{
				ID:       fc.Get("name").String() + "_" + strconv.Itoa(i),
				CallType: "function",
				Function: llm.ToolCallFunction{
					Name:          fc.Get("name").String(),
					ArgumentsJSON: fc.Get("args").Raw,
				},
			})
		case part.Get("thought").Bool():
			thinking += part.Get("text").String()
		default:
			text += part.Get("text").String()
		}
	}

	resp := llm.ChatResponse{Text: text, Thinking: thinking, ToolCalls: toolCalls}
	if usage := root.Get("usageMetadata"); usage.Exists() {
		resp.Usage = &llm.Usage{
			InputTokens:  int(usage.Get("promptTokenCount").Int()),
			OutputTokens: int(usage.Get("candidatesTokenCount").Int()),
			TotalTokens:  int(usage.Get("totalTokenCount").Int()),
		}
	}

	msg := llm.ChatMessage{Role: llm.RoleAssistant, ContentText: text}
	if len(toolCalls) > 0 {
		msg.TypedBody = &llm.TypedBody{Kind: llm.BodyToolUse, Text: thinking, ToolCalls: toolCalls}
	} else {
		msg.TypedBody = &llm.TypedBody{Kind: llm.BodyText, Text: text}
	}

	return llm.ChatResponseWithAssistantMessage{ChatResponse: resp, AssistantMessage: msg}, nil
}
