package google

import (
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/dshills/llmcore/llm"
	"github.com/dshills/llmcore/llm/streaming"
)

// streamState accumulates a streamGenerateContent SSE stream (?alt=sse)
// into unified Parts. Each SSE event's data is one full GenerateContentResponse
// chunk (Gemini does not send incremental per-token deltas as separate
// fields the way OpenAI/Anthropic do; each chunk already carries the
// incremental text for this step), so text/thinking parts are emitted as a
// start/delta/end triple spanning the whole stream.
type streamState struct {
	parser       *streaming.SSEEventParser
	textOpen     bool
	reasoningOpen bool
	text         string
	thinking     string
	toolCalls    []llm.ToolCall
	usage        *llm.Usage
	finished     bool
}

func newStreamState() *streamState {
	return &streamState{parser: streaming.NewSSEEventParser()}
}

func (s *streamState) Push(chunk string) []llm.Part {
	var out []llm.Part
	for _, ev := range s.parser.Push(chunk) {
		if ev.Data == "" {
			continue
		}
		if !gjson.Valid(ev.Data) {
			out = append(out, llm.Part{Kind: llm.PartError, Err: llm.NewError(llm.KindResponseFormat, "malformed streamGenerateContent chunk").WithProvider(ProviderID)})
			continue
		}
		out = append(out, s.handleChunk(gjson.Parse(ev.Data))...)
	}
	return out
}

func (s *streamState) handleChunk(root gjson.Result) []llm.Part {
	var out []llm.Part

	candidates := root.Get("candidates")
	if candidates.Exists() && len(candidates.Array()) > 0 {
		candidate := candidates.Array()[0]
		for i, part := range candidate.Get("content.parts").Array() {
			switch {
			case part.Get("functionCall").Exists():
				fc := part.Get("functionCall")
				id := fc.Get("name").String() + "_" + strconv.Itoa(len(s.toolCalls)+i)
				call := llm.ToolCall{
					ID:       id,
					CallType: "function",
					Function: llm.ToolCallFunction{Name: fc.Get("name").String(), ArgumentsJSON: fc.Get("args").Raw},
				}
				s.toolCalls = append(s.toolCalls, call)
				out = append(out,
					llm.Part{Kind: llm.PartToolCallStart, ToolCallID: id},
					llm.Part{Kind: llm.PartToolCallEnd, ToolCallID: id},
				)
			case part.Get("thought").Bool():
				if !s.reasoningOpen {
					out = append(out, llm.Part{Kind: llm.PartReasoningStart})
					s.reasoningOpen = true
				}
				delta := part.Get("text").String()
				s.thinking += delta
				out = append(out, llm.Part{Kind: llm.PartReasoningDelta, Delta: delta})
			default:
				if s.reasoningOpen {
					out = append(out, llm.Part{Kind: llm.PartReasoningEnd, FullText: s.thinking})
					s.reasoningOpen = false
				}
				if !s.textOpen {
					out = append(out, llm.Part{Kind: llm.PartTextStart})
					s.textOpen = true
				}
				delta := part.Get("text").String()
				s.text += delta
				out = append(out, llm.Part{Kind: llm.PartTextDelta, Delta: delta})
			}
		}
	}

	if usage := root.Get("usageMetadata"); usage.Exists() {
		s.usage = &llm.Usage{
			InputTokens:  int(usage.Get("promptTokenCount").Int()),
			OutputTokens: int(usage.Get("candidatesTokenCount").Int()),
			TotalTokens:  int(usage.Get("totalTokenCount").Int()),
		}
	}

	if candidates.Exists() && len(candidates.Array()) > 0 && candidates.Array()[0].Get("finishReason").Exists() {
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
	if s.reasoningOpen {
		out = append(out, llm.Part{Kind: llm.PartReasoningEnd, FullText: s.thinking})
		s.reasoningOpen = false
	}
	if s.textOpen {
		out = append(out, llm.Part{Kind: llm.PartTextEnd, FullText: s.text})
		s.textOpen = false
	}
	out = append(out, llm.Part{Kind: llm.PartFinish, Response: &llm.ChatResponse{
		Text:      s.text,
		Thinking:  s.thinking,
		ToolCalls: s.toolCalls,
		Usage:     s.usage,
	}})
	return out
}

// Close flushes a best-effort terminal Finish if the stream ended without a
// finishReason on the last chunk.
func (s *streamState) Close() []llm.Part {
	return s.finalize()
}
