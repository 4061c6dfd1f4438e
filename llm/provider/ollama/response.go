package ollama

import (
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/dshills/llmcore/llm"
)

// parseResponse parses a non-streaming /api/chat response (stream:false
// collapses the JSONL sequence into a single terminal object).
func parseResponse(body []byte) (llm.ChatResponseWithAssistantMessage, error) {
	root := gjson.ParseBytes(body)

	message := root.Get("message")
	if !message.Exists() {
		return llm.ChatResponseWithAssistantMessage{}, llm.NewError(llm.KindResponseFormat, "response missing message").WithProvider(ProviderID)
	}

	text := message.Get("content").String()
	var toolCalls []llm.ToolCall
	for i, tc := range message.Get("tool_calls").Array() {
		toolCalls = append(toolCalls, llm.ToolCall{
			ID:       "ollama_call_" + strconv.Itoa(i),
			CallType: "function",
			Function: llm.ToolCallFunction{
				Name:          tc.Get("function.name").String(),
				ArgumentsJSON: tc.Get("function.arguments").Raw,
			},
		})
	}

	resp := llm.ChatResponse{
		Text:      text,
		ToolCalls: toolCalls,
	}
	if root.Get("eval_count").Exists() {
		resp.Usage = &llm.Usage{
			InputTokens:  int(root.Get("prompt_eval_count").Int()),
			OutputTokens: int(root.Get("eval_count").Int()),
			TotalTokens:  int(root.Get("prompt_eval_count").Int() + root.Get("eval_count").Int()),
		}
	}

	msg := llm.ChatMessage{Role: llm.RoleAssistant, ContentText: text}
	if len(toolCalls) > 0 {
		msg.TypedBody = &llm.TypedBody{Kind: llm.BodyToolUse, ToolCalls: toolCalls}
	} else {
		msg.TypedBody = &llm.TypedBody{Kind: llm.BodyText, Text: text}
	}

	return llm.ChatResponseWithAssistantMessage{ChatResponse: resp, AssistantMessage: msg}, nil
}
