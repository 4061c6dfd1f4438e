package openaicompat

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/dshills/llmcore/llm"
	"github.com/dshills/llmcore/llm/streaming"
)

// toolCallAccumulator tracks one in-progress tool call across SSE chunks,
// keyed by its stable index. The id and name usually arrive on the first
// delta only; arguments arrive incrementally and must be concatenated.
type toolCallAccumulator struct {
	id        string
	name      string
	arguments strings.Builder
	started   bool
}

// StreamState is the per-call decoder for an OpenAI-compatible SSE chat
// completion stream. It must never be shared between concurrent
// invocations.
type StreamState struct {
	providerID string
	sse        *streaming.SSEEventParser

	textStarted      bool
	reasoningStarted bool
	text             strings.Builder
	thinking         strings.Builder
	toolCalls        map[int64]*toolCallAccumulator
	toolOrder        []int64

	finished     bool
	finishReason string
	model        string
	id           string
	usage        *llm.Usage

	// finishedResponse is the ChatResponse carried by the already-emitted
	// Finish part, kept so a later usage-only chunk (the common
	// stream_options.include_usage case) can fold its usage in directly
	// instead of trailing a separate part after Finish.
	finishedResponse *llm.ChatResponse
}

// NewStreamState returns a fresh decoder for one streaming call.
func NewStreamState(providerID string) *StreamState {
	return &StreamState{
		providerID: providerID,
		sse:        streaming.NewSSEEventParser(),
		toolCalls:  make(map[int64]*toolCallAccumulator),
	}
}

// Push feeds a raw chunk of the HTTP response body and returns the unified
// stream parts it produces, in order. Malformed JSON within a single SSE
// event is reported as a PartError without terminating the stream.
func (s *StreamState) Push(chunk string) []llm.Part {
	var parts []llm.Part
	for _, ev := range s.sse.Push(chunk) {
		parts = append(parts, s.handleEvent(ev)...)
	}
	return parts
}

func (s *StreamState) handleEvent(ev streaming.SSEEvent) []llm.Part {
	if !gjson.Valid(ev.Data) {
		return []llm.Part{{Kind: llm.PartError, Err: llm.NewError(llm.KindJSON, "malformed SSE chunk").WithProvider(s.providerID)}}
	}

	root := gjson.Parse(ev.Data)
	var parts []llm.Part

	if id := root.Get("id").String(); id != "" {
		s.id = id
	}
	if model := root.Get("model").String(); model != "" {
		s.model = model
	}

	if usage := root.Get("usage"); usage.Exists() {
		s.usage = &llm.Usage{
			InputTokens:  int(usage.Get("prompt_tokens").Int()),
			OutputTokens: int(usage.Get("completion_tokens").Int()),
			TotalTokens:  int(usage.Get("total_tokens").Int()),
		}
		if s.finishedResponse != nil {
			s.finishedResponse.Usage = s.usage
		}
	}

	if s.finished {
		// The stream already hit finish_reason and emitted its one
		// terminal Finish; any further chunk can only carry trailing
		// usage, already folded in above. Nothing more to emit.
		return parts
	}

	choice := root.Get("choices.0")
	delta := choice.Get("delta")

	if text := delta.Get("content").String(); text != "" {
		if !s.textStarted {
			parts = append(parts, llm.Part{Kind: llm.PartTextStart})
			s.textStarted = true
		}
		parts = append(parts, llm.Part{Kind: llm.PartTextDelta, Delta: text})
		s.text.WriteString(text)
	}

	thinking := firstNonEmpty(delta.Get("reasoning").String(), delta.Get("reasoning_content").String())
	if thinking != "" {
		if !s.reasoningStarted {
			parts = append(parts, llm.Part{Kind: llm.PartReasoningStart})
			s.reasoningStarted = true
		}
		parts = append(parts, llm.Part{Kind: llm.PartReasoningDelta, Delta: thinking})
		s.thinking.WriteString(thinking)
	}

	if tcs := delta.Get("tool_calls"); tcs.IsArray() {
		parts = append(parts, s.handleToolCallDeltas(tcs)...)
	}

	if fr := choice.Get("finish_reason"); fr.Exists() && fr.String() != "" {
		s.finishReason = fr.String()
		parts = append(parts, s.finalize()...)
	}

	return parts
}

func (s *StreamState) handleToolCallDeltas(tcs gjson.Result) []llm.Part {
	var parts []llm.Part
	for _, tc := range tcs.Array() {
		idx := tc.Get("index").Int()
		acc, ok := s.toolCalls[idx]
		if !ok {
			acc = &toolCallAccumulator{}
			s.toolCalls[idx] = acc
			s.toolOrder = append(s.toolOrder, idx)
		}
		if id := tc.Get("id").String(); id != "" {
			acc.id = id
		}
		if name := tc.Get("function.name").String(); name != "" {
			acc.name = name
		}
		if !acc.started && acc.id != "" {
			parts = append(parts, llm.Part{Kind: llm.PartToolCallStart, ToolCallID: acc.id})
			acc.started = true
		}
		if args := tc.Get("function.arguments").String(); args != "" {
			acc.arguments.WriteString(args)
			if acc.started {
				parts = append(parts, llm.Part{Kind: llm.PartToolCallDelta, ToolCallID: acc.id, Delta: args})
			}
		}
	}
	return parts
}

// finalize emits End parts for any open text/reasoning/tool-call blocks
// and the terminal Finish, from accumulated state.
func (s *StreamState) finalize() []llm.Part {
	if s.finished {
		return nil
	}
	s.finished = true

	var parts []llm.Part
	if s.textStarted {
		parts = append(parts, llm.Part{Kind: llm.PartTextEnd, FullText: s.text.String()})
	}
	if s.reasoningStarted {
		parts = append(parts, llm.Part{Kind: llm.PartReasoningEnd, FullText: s.thinking.String()})
	}

	var toolCalls []llm.ToolCall
	for _, idx := range s.toolOrder {
		acc := s.toolCalls[idx]
		parts = append(parts, llm.Part{Kind: llm.PartToolCallEnd, ToolCallID: acc.id})
		toolCalls = append(toolCalls, llm.ToolCall{
			ID:       acc.id,
			CallType: "function",
			Function: llm.ToolCallFunction{Name: acc.name, ArgumentsJSON: acc.arguments.String()},
		})
	}

	resp := &llm.ChatResponse{
		Text:      s.text.String(),
		Thinking:  s.thinking.String(),
		ToolCalls: toolCalls,
		Usage:     s.usage,
		ProviderMetadata: map[string]map[string]any{
			s.providerID: {"id": s.id, "model": s.model, "finish_reason": s.finishReason},
		},
	}
	s.finishedResponse = resp
	parts = append(parts, llm.Part{Kind: llm.PartFinish, Response: resp})
	return parts
}

// Close flushes a best-effort Finish if the stream ended without an
// explicit finish_reason (e.g. the connection dropped).
func (s *StreamState) Close() []llm.Part {
	if s.finished {
		return nil
	}
	return s.finalize()
}
