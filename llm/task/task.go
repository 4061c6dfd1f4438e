// Package task is the provider-agnostic task facade: generate_text,
// stream_text, generate_object, embed, rerank, generate_speech,
// stream_speech, transcribe, translate_audio, and generate_image. Every
// function takes a concrete capability instance and plain arguments; none
// import a provider package.
package task

import (
	"github.com/dshills/llmcore/llm"
	"github.com/dshills/llmcore/llm/prompt"
)

// TextInput standardizes the three accepted prompt shapes for a single,
// non-agentic model call: exactly one of Prompt, Messages, or PromptIR must
// be set. System, if set, is prepended as a system message when one is not
// already present.
type TextInput struct {
	Prompt   *string
	Messages []llm.ChatMessage
	PromptIR *prompt.Prompt
	System   string
}

func (in TextInput) resolveMessages() ([]llm.ChatMessage, error) {
	set := 0
	if in.Prompt != nil {
		set++
	}
	if in.Messages != nil {
		set++
	}
	if in.PromptIR != nil {
		set++
	}
	if set != 1 {
		return nil, llm.NewError(llm.KindInvalidRequest, "exactly one of prompt, messages, or promptIr must be set")
	}

	var messages []llm.ChatMessage
	switch {
	case in.Prompt != nil:
		messages = []llm.ChatMessage{{Role: llm.RoleUser, ContentText: *in.Prompt}}
	case in.Messages != nil:
		messages = append([]llm.ChatMessage(nil), in.Messages...)
	case in.PromptIR != nil:
		if err := in.PromptIR.Validate(); err != nil {
			return nil, err
		}
		converted, err := in.PromptIR.ToChatMessages()
		if err != nil {
			return nil, err
		}
		messages = converted
	}

	if in.System != "" {
		hasSystem := false
		for _, m := range messages {
			if m.Role == llm.RoleSystem {
				hasSystem = true
				break
			}
		}
		if !hasSystem {
			messages = append([]llm.ChatMessage{{Role: llm.RoleSystem, ContentText: in.System}}, messages...)
		}
	}

	return messages, nil
}
