// Package prompt implements the structured Prompt intermediate
// representation (Prompt IR) and its lossless/lossy bridges to the legacy
// flat llm.ChatMessage model.
package prompt

import (
	"fmt"

	"github.com/dshills/llmcore/llm"
)

// PartKind discriminates the closed Part union of a PromptMessage.
type PartKind int

const (
	PartText PartKind = iota
	PartImage
	PartImageURL
	PartFile
	PartURLFile
	PartReasoning
	PartToolCall
	PartToolResult
)

// ImageMIME enumerates the image formats the IR can carry inline.
type ImageMIME string

const (
	MIMEJPEG ImageMIME = "image/jpeg"
	MIMEPNG  ImageMIME = "image/png"
	MIMEGIF  ImageMIME = "image/gif"
	MIMEWebP ImageMIME = "image/webp"
)

// Part is one element of a PromptMessage's content. Only fields relevant to
// Kind are populated.
type Part struct {
	Kind PartKind

	// PartText / PartReasoning
	Text string

	// PartImage / PartFile
	MIME  string
	Bytes []byte

	// PartImageURL / PartURLFile
	URL string

	// PartToolCall
	ToolCallID    string
	CallType      string
	FunctionName  string
	ArgumentsJSON string

	// PartToolResult
	ToolResultCallID string
	ToolResultContent string
	IsError          bool

	// ProviderOptions is keyed by provider id; values are free-form and
	// must be ignored by providers that don't recognize the keys.
	ProviderOptions map[string]map[string]any
}

// PromptMessage is one turn of a Prompt: a role plus an ordered, non-empty
// list of Parts.
type PromptMessage struct {
	Role            llm.Role
	Parts           []Part
	Name            string
	ProviderOptions map[string]map[string]any
}

// Prompt is an ordered sequence of PromptMessage — the structured,
// provider-agnostic representation callers build conversations in.
type Prompt struct {
	Messages []PromptMessage
}

// Validate enforces the invariants from the data model: system messages
// carry only Text parts, ToolCall requires assistant role, ToolResult
// requires user/tool role, and every message has at least one part.
func (p Prompt) Validate() error {
	for i, msg := range p.Messages {
		if len(msg.Parts) == 0 {
			return llm.NewError(llm.KindInvalidRequest, "message %d has no parts", i)
		}
		for _, part := range msg.Parts {
			if msg.Role == llm.RoleSystem && part.Kind != PartText {
				return llm.NewError(llm.KindInvalidRequest, "message %d: system messages may only contain text parts", i)
			}
			if part.Kind == PartToolCall && msg.Role != llm.RoleAssistant {
				return llm.NewError(llm.KindInvalidRequest, "message %d: tool_call parts require assistant role", i)
			}
			if part.Kind == PartToolResult && msg.Role != llm.RoleUser && msg.Role != llm.RoleTool {
				return llm.NewError(llm.KindInvalidRequest, "message %d: tool_result parts require user or tool role", i)
			}
		}
	}
	return nil
}

// ToChatMessages lowers the Prompt into the legacy flat ChatMessage model,
// merging consecutive Reasoning+ToolCall parts of one assistant message into
// a single ChatMessage and ToolResult parts into a single user-role
// tool-result message, per the conversion contract in the design.
func (p Prompt) ToChatMessages() ([]llm.ChatMessage, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	out := make([]llm.ChatMessage, 0, len(p.Messages))
	for _, msg := range p.Messages {
		converted, err := messageToChatMessages(msg)
		if err != nil {
			return nil, err
		}
		out = append(out, converted...)
	}
	return out, nil
}

// messageToChatMessages converts one PromptMessage. A message mixing
// ToolCall parts with Text/Reasoning parts yields one assistant
// ChatMessage carrying all of it; a message made only of ToolResult parts
// yields one tool-result ChatMessage; any other combination of parts
// requires a single representable shape (text, or a single media part), and
// anything unrepresentable in the flat model fails with InvalidRequest.
func messageToChatMessages(msg PromptMessage) ([]llm.ChatMessage, error) {
	var (
		text      string
		thinking  string
		toolCalls []llm.ToolCall
		toolResults []llm.ToolResult
		media     *llm.TypedBody
		mediaParts int
	)

	for _, part := range msg.Parts {
		switch part.Kind {
		case PartText:
			text += part.Text
		case PartReasoning:
			thinking += part.Text
		case PartToolCall:
			toolCalls = append(toolCalls, llm.ToolCall{
				ID:       part.ToolCallID,
				CallType: part.CallType,
				Function: llm.ToolCallFunction{
					Name:          part.FunctionName,
					ArgumentsJSON: part.ArgumentsJSON,
				},
				ProviderOptions: part.ProviderOptions,
			})
		case PartToolResult:
			toolResults = append(toolResults, llm.ToolResult{
				ToolCallID:      part.ToolResultCallID,
				Content:         part.ToolResultContent,
				IsError:         part.IsError,
				ProviderOptions: part.ProviderOptions,
			})
		case PartImage:
			media = &llm.TypedBody{Kind: llm.BodyImage, MIME: part.MIME, Bytes: part.Bytes}
			mediaParts++
		case PartImageURL:
			media = &llm.TypedBody{Kind: llm.BodyImageURL, URL: part.URL}
			mediaParts++
		case PartFile:
			media = &llm.TypedBody{Kind: llm.BodyFile, MIME: part.MIME, Bytes: part.Bytes}
			mediaParts++
		case PartURLFile:
			return nil, llm.NewError(llm.KindInvalidRequest, "url_file parts are not representable in the legacy message model")
		default:
			return nil, llm.NewError(llm.KindInvalidRequest, "unknown prompt part kind %d", part.Kind)
		}
	}

	if mediaParts > 1 ||
		len(toolResults) > 0 && (text != "" || thinking != "" || len(toolCalls) > 0 || media != nil) ||
		len(toolCalls) > 0 && media != nil ||
		len(toolCalls) == 0 && thinking != "" {
		return nil, llm.NewError(llm.KindInvalidRequest, "prompt message mixes parts that are not representable in the legacy message model")
	}

	if len(toolResults) > 0 {
		return []llm.ChatMessage{{
			Role:            msg.Role,
			Name:            msg.Name,
			ProviderOptions: msg.ProviderOptions,
			TypedBody:       &llm.TypedBody{Kind: llm.BodyToolResult, ToolResults: toolResults},
		}}, nil
	}

	if len(toolCalls) > 0 {
		return []llm.ChatMessage{{
			Role:            msg.Role,
			ContentText:     text,
			Name:            msg.Name,
			ProviderOptions: msg.ProviderOptions,
			TypedBody:       &llm.TypedBody{Kind: llm.BodyToolUse, Text: thinking, ToolCalls: toolCalls},
		}}, nil
	}

	if media != nil {
		return []llm.ChatMessage{{
			Role:            msg.Role,
			ContentText:     text,
			Name:            msg.Name,
			ProviderOptions: msg.ProviderOptions,
			TypedBody:       media,
		}}, nil
	}

	return []llm.ChatMessage{{
		Role:            msg.Role,
		ContentText:     text,
		Name:            msg.Name,
		ProviderOptions: msg.ProviderOptions,
		TypedBody:       &llm.TypedBody{Kind: llm.BodyText, Text: text},
	}}, nil
}

// FromChatMessage lifts one legacy ChatMessage back into a PromptMessage,
// preserving per-part provider options. This is the inverse used when a
// provider adapter hands back an assistant message that must re-enter a
// Prompt-IR conversation.
func FromChatMessage(msg llm.ChatMessage) (PromptMessage, error) {
	out := PromptMessage{
		Role:            msg.Role,
		Name:            msg.Name,
		ProviderOptions: msg.ProviderOptions,
	}

	if msg.TypedBody == nil {
		if msg.ContentText == "" {
			return PromptMessage{}, llm.NewError(llm.KindInvalidRequest, "chat message has no body")
		}
		out.Parts = []Part{{Kind: PartText, Text: msg.ContentText, ProviderOptions: msg.ProviderOptions}}
		return out, nil
	}

	switch msg.TypedBody.Kind {
	case llm.BodyText:
		out.Parts = []Part{{Kind: PartText, Text: msg.TypedBody.Text, ProviderOptions: msg.ProviderOptions}}
	case llm.BodyImage:
		out.Parts = []Part{{Kind: PartImage, MIME: msg.TypedBody.MIME, Bytes: msg.TypedBody.Bytes, ProviderOptions: msg.ProviderOptions}}
	case llm.BodyImageURL:
		out.Parts = []Part{{Kind: PartImageURL, URL: msg.TypedBody.URL, ProviderOptions: msg.ProviderOptions}}
	case llm.BodyFile:
		out.Parts = []Part{{Kind: PartFile, MIME: msg.TypedBody.MIME, Bytes: msg.TypedBody.Bytes, ProviderOptions: msg.ProviderOptions}}
	case llm.BodyToolUse:
		var parts []Part
		if msg.ContentText != "" {
			parts = append(parts, Part{Kind: PartText, Text: msg.ContentText, ProviderOptions: msg.ProviderOptions})
		}
		if msg.TypedBody.Text != "" {
			parts = append(parts, Part{Kind: PartReasoning, Text: msg.TypedBody.Text, ProviderOptions: msg.ProviderOptions})
		}
		for _, tc := range msg.TypedBody.ToolCalls {
			parts = append(parts, Part{
				Kind:            PartToolCall,
				ToolCallID:      tc.ID,
				CallType:        tc.CallType,
				FunctionName:    tc.Function.Name,
				ArgumentsJSON:   tc.Function.ArgumentsJSON,
				ProviderOptions: tc.ProviderOptions,
			})
		}
		out.Parts = parts
	case llm.BodyToolResult:
		var parts []Part
		for _, tr := range msg.TypedBody.ToolResults {
			parts = append(parts, Part{
				Kind:              PartToolResult,
				ToolResultCallID:  tr.ToolCallID,
				ToolResultContent: tr.Content,
				IsError:           tr.IsError,
				ProviderOptions:   tr.ProviderOptions,
			})
		}
		out.Parts = parts
	default:
		return PromptMessage{}, llm.NewError(llm.KindInvalidRequest, "unknown typed body kind %d", msg.TypedBody.Kind)
	}

	if len(out.Parts) == 0 {
		return PromptMessage{}, llm.NewError(llm.KindInvalidRequest, "chat message %v converted to zero prompt parts", msg.Role)
	}
	return out, nil
}

// ToPromptMessage is the method-style alias of FromChatMessage, matching the
// design's ChatMessage::to_prompt_message() naming.
func ToPromptMessage(msg llm.ChatMessage) (PromptMessage, error) {
	return FromChatMessage(msg)
}

// FromChatMessages lifts a full legacy message slice into a Prompt.
func FromChatMessages(msgs []llm.ChatMessage) (Prompt, error) {
	out := make([]PromptMessage, 0, len(msgs))
	for i, msg := range msgs {
		converted, err := FromChatMessage(msg)
		if err != nil {
			return Prompt{}, fmt.Errorf("message %d: %w", i, err)
		}
		out = append(out, converted)
	}
	return Prompt{Messages: out}, nil
}
