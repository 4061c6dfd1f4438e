package task

import (
	"context"

	"github.com/dshills/llmcore/llm"
	"github.com/dshills/llmcore/llm/capability"
)

// GenerateText performs one non-agentic chat completion. Callers that need
// the model to execute local tools across multiple turns should drive the
// toolloop package instead; this facade never loops.
func GenerateText(ctx context.Context, in TextInput, cfg llm.LLMConfig, chat capability.ChatCapability, cancel *llm.CancelToken) (llm.ChatResponseWithAssistantMessage, error) {
	messages, err := in.resolveMessages()
	if err != nil {
		return llm.ChatResponseWithAssistantMessage{}, err
	}
	return chat.Chat(ctx, messages, cfg, cancel)
}

// StreamText performs one streaming chat completion and yields the unified
// part sequence.
func StreamText(ctx context.Context, in TextInput, cfg llm.LLMConfig, chat capability.ChatStreamPartsCapability, cancel *llm.CancelToken) (llm.StreamParts, error) {
	messages, err := in.resolveMessages()
	if err != nil {
		return nil, err
	}
	return chat.ChatStreamParts(ctx, messages, cfg, cancel)
}
