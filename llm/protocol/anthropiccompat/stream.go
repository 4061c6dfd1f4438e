package anthropiccompat

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/dshills/llmcore/llm"
	"github.com/dshills/llmcore/llm/streaming"
)

// blockAccumulator tracks one in-progress content block, keyed by its
// index and typed by content_block_start.content_block.type.
type blockAccumulator struct {
	blockType string
	id        string // tool_use / server_tool_use id
	name      string // tool_use / server_tool_use name
	text      strings.Builder
	thinking  strings.Builder
	input     strings.Builder // input_json_delta, concatenated until content_block_stop
	raw       any             // web_search_tool_result / web_fetch_tool_result: the full block, no deltas
}

// StreamState is the per-call decoder for an Anthropic Messages API SSE
// stream. It must never be shared between concurrent invocations.
type StreamState struct {
	providerID string
	sse        *streaming.SSEEventParser

	blocks     map[int64]*blockAccumulator
	blockOrder []int64

	finished   bool
	id         string
	model      string
	stopReason string
	usage      *llm.Usage
}

// NewStreamState returns a fresh decoder for one streaming call.
func NewStreamState(providerID string) *StreamState {
	return &StreamState{
		providerID: providerID,
		sse:        streaming.NewSSEEventParser(),
		blocks:     make(map[int64]*blockAccumulator),
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
	if ev.Data == "" {
		return nil
	}
	if !gjson.Valid(ev.Data) {
		return []llm.Part{{Kind: llm.PartError, Err: llm.NewError(llm.KindJSON, "malformed SSE chunk").WithProvider(s.providerID)}}
	}

	root := gjson.Parse(ev.Data)
	switch root.Get("type").String() {
	case "message_start":
		msg := root.Get("message")
		s.id = msg.Get("id").String()
		s.model = msg.Get("model").String()
		return nil
	case "content_block_start":
		return s.handleBlockStart(root)
	case "content_block_delta":
		return s.handleBlockDelta(root)
	case "content_block_stop":
		return s.handleBlockStop(root)
	case "message_delta":
		if sr := root.Get("delta.stop_reason"); sr.Exists() {
			s.stopReason = sr.String()
		}
		if usage := root.Get("usage"); usage.Exists() {
			s.accumulateUsage(usage)
		}
		return nil
	case "message_stop":
		return s.finalize()
	case "ping":
		return nil
	default:
		return nil
	}
}

func (s *StreamState) accumulateUsage(usage gjson.Result) {
	in := int(usage.Get("input_tokens").Int())
	out := int(usage.Get("output_tokens").Int())
	if s.usage == nil {
		s.usage = &llm.Usage{}
	}
	if in > 0 {
		s.usage.InputTokens = in
	}
	s.usage.OutputTokens = out
	s.usage.TotalTokens = s.usage.InputTokens + s.usage.OutputTokens
}

func (s *StreamState) handleBlockStart(root gjson.Result) []llm.Part {
	idx := root.Get("index").Int()
	block := root.Get("content_block")
	acc := &blockAccumulator{blockType: block.Get("type").String()}
	s.blocks[idx] = acc
	s.blockOrder = append(s.blockOrder, idx)

	switch acc.blockType {
	case "tool_use", "server_tool_use":
		acc.id = block.Get("id").String()
		acc.name = block.Get("name").String()
		if acc.blockType == "tool_use" {
			return []llm.Part{{Kind: llm.PartToolCallStart, ToolCallID: acc.id}}
		}
		return nil
	case "web_search_tool_result", "web_fetch_tool_result":
		// Arrives fully formed, with no input_json_delta stream.
		acc.raw = block.Value()
		return nil
	case "thinking":
		return []llm.Part{{Kind: llm.PartReasoningStart}}
	case "text":
		return []llm.Part{{Kind: llm.PartTextStart}}
	default:
		return nil
	}
}

func (s *StreamState) handleBlockDelta(root gjson.Result) []llm.Part {
	idx := root.Get("index").Int()
	acc, ok := s.blocks[idx]
	if !ok {
		return nil
	}
	delta := root.Get("delta")

	switch delta.Get("type").String() {
	case "text_delta":
		text := delta.Get("text").String()
		acc.text.WriteString(text)
		return []llm.Part{{Kind: llm.PartTextDelta, Delta: text}}
	case "thinking_delta":
		think := delta.Get("thinking").String()
		acc.thinking.WriteString(think)
		return []llm.Part{{Kind: llm.PartReasoningDelta, Delta: think}}
	case "signature_delta":
		return nil
	case "input_json_delta":
		partial := delta.Get("partial_json").String()
		acc.input.WriteString(partial)
		if acc.blockType == "tool_use" {
			return []llm.Part{{Kind: llm.PartToolCallDelta, ToolCallID: acc.id, Delta: partial}}
		}
		return nil
	default:
		return nil
	}
}

func (s *StreamState) handleBlockStop(root gjson.Result) []llm.Part {
	idx := root.Get("index").Int()
	acc, ok := s.blocks[idx]
	if !ok {
		return nil
	}

	switch acc.blockType {
	case "tool_use":
		return []llm.Part{{Kind: llm.PartToolCallEnd, ToolCallID: acc.id}}
	case "thinking":
		return []llm.Part{{Kind: llm.PartReasoningEnd, FullText: acc.thinking.String()}}
	case "text":
		return []llm.Part{{Kind: llm.PartTextEnd, FullText: acc.text.String()}}
	default:
		return nil
	}
}

// finalize builds the terminal Finish part from accumulated block state.
// Idempotent: a second call returns nil.
func (s *StreamState) finalize() []llm.Part {
	if s.finished {
		return nil
	}
	s.finished = true

	var text, thinking strings.Builder
	var toolCalls []llm.ToolCall
	var contentBlocks []any
	var serverToolBlocks []any

	for _, idx := range s.blockOrder {
		acc := s.blocks[idx]
		switch acc.blockType {
		case "text":
			text.WriteString(acc.text.String())
			contentBlocks = append(contentBlocks, map[string]any{"type": "text", "text": acc.text.String()})
		case "thinking":
			thinking.WriteString(acc.thinking.String())
			contentBlocks = append(contentBlocks, map[string]any{"type": "thinking", "thinking": acc.thinking.String()})
		case "tool_use":
			toolCalls = append(toolCalls, llm.ToolCall{
				ID:       acc.id,
				CallType: "function",
				Function: llm.ToolCallFunction{Name: acc.name, ArgumentsJSON: acc.input.String()},
			})
			contentBlocks = append(contentBlocks, map[string]any{"type": "tool_use", "id": acc.id, "name": acc.name, "input": acc.input.String()})
		case "server_tool_use":
			var input any
			if acc.input.Len() > 0 {
				_ = json.Unmarshal([]byte(acc.input.String()), &input)
			}
			block := map[string]any{"type": "server_tool_use", "id": acc.id, "name": acc.name, "input": input}
			contentBlocks = append(contentBlocks, block)
			serverToolBlocks = append(serverToolBlocks, block)
		case "web_search_tool_result", "web_fetch_tool_result":
			contentBlocks = append(contentBlocks, acc.raw)
			serverToolBlocks = append(serverToolBlocks, acc.raw)
		}
	}

	metadata := map[string]any{"id": s.id, "model": s.model, "stop_reason": s.stopReason, "contentBlocks": contentBlocks}
	if len(serverToolBlocks) > 0 {
		metadata["webSearchCalls"] = serverToolBlocks
	}

	resp := &llm.ChatResponse{
		Text:      text.String(),
		Thinking:  thinking.String(),
		ToolCalls: toolCalls,
		Usage:     s.usage,
		ProviderMetadata: map[string]map[string]any{
			s.providerID: metadata,
		},
	}
	return []llm.Part{{Kind: llm.PartFinish, Response: resp}}
}

// Close flushes a best-effort Finish if the stream ended without a
// message_stop event (e.g. the connection dropped).
func (s *StreamState) Close() []llm.Part {
	if s.finished {
		return nil
	}
	return s.finalize()
}
