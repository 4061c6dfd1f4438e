package ollama

import (
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/dshills/llmcore/llm"
	"github.com/dshills/llmcore/llm/streaming"
)

// streamState accumulates a /api/chat JSONL stream into unified Parts.
// Ollama emits whole tool calls in a single line rather than incremental
// argument deltas, so each tool call gets one ToolCallStart immediately
// followed by one ToolCallEnd.
type streamState struct {
	parser    *streaming.JSONLParser
	textOpen  bool
	text      string
	toolCalls []llm.ToolCall
	usage     *llm.Usage
	finished  bool
}

func newStreamState() *streamState {
	return &streamState{parser: streaming.NewJSONLParser()}
}

func (s *streamState) Push(chunk string) []llm.Part {
	var out []llm.Part
	for _, line := range s.parser.Push(chunk) {
		if line.Warning != "" {
			out = append(out, llm.Part{Kind: llm.PartError, Err: llm.NewError(llm.KindResponseFormat, line.Warning).WithProvider(ProviderID)})
			continue
		}
		out = append(out, s.handleLine(line.Raw)...)
	}
	return out
}

func (s *streamState) handleLine(raw string) []llm.Part {
	root := gjson.Parse(raw)
	var out []llm.Part

	if content := root.Get("message.content"); content.Exists() && content.String() != "" {
		if !s.textOpen {
			out = append(out, llm.Part{Kind: llm.PartTextStart})
			s.textOpen = true
		}
		s.text += content.String()
		out = append(out, llm.Part{Kind: llm.PartTextDelta, Delta: content.String()})
	}

	for _, tc := range root.Get("message.tool_calls").Array() {
		id := "ollama_call_" + strconv.Itoa(len(s.toolCalls))
		call := llm.ToolCall{
			ID:       id,
			CallType: "function",
			Function: llm.ToolCallFunction{
				Name:          tc.Get("function.name").String(),
				ArgumentsJSON: tc.Get("function.arguments").Raw,
			},
		}
		s.toolCalls = append(s.toolCalls, call)
		out = append(out,
			llm.Part{Kind: llm.PartToolCallStart, ToolCallID: id},
			llm.Part{Kind: llm.PartToolCallEnd, ToolCallID: id},
		)
	}

	if root.Get("done").Bool() {
		if root.Get("eval_count").Exists() {
			s.usage = &llm.Usage{
				InputTokens:  int(root.Get("prompt_eval_count").Int()),
				OutputTokens: int(root.Get("eval_count").Int()),
				TotalTokens:  int(root.Get("prompt_eval_count").Int() + root.Get("eval_count").Int()),
			}
		}
		out = append(out, s.finalize()...)
	}

	return out
}

func (s *streamState) finalize() []llm.Part {
	if s.finished {
		return nil
	}
	s.finished = true

	var out []llm.Part
	if s.textOpen {
		out = append(out, llm.Part{Kind: llm.PartTextEnd, FullText: s.text})
		s.textOpen = false
	}
	out = append(out, llm.Part{Kind: llm.PartFinish, Response: &llm.ChatResponse{
		Text:      s.text,
		ToolCalls: s.toolCalls,
		Usage:     s.usage,
	}})
	return out
}

// Close flushes a best-effort terminal Finish if the stream ended without a
// done:true line.
func (s *streamState) Close() []llm.Part {
	return s.finalize()
}
