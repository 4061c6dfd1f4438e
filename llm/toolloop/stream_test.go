package toolloop

import (
	"context"
	"errors"
	"testing"

	"github.com/dshills/llmcore/llm"
	"github.com/dshills/llmcore/llm/capability"
	"github.com/dshills/llmcore/llm/tool"
)

// scriptedStreamChat emits a pre-built sequence of parts (including its own
// Finish) per call, in order.
type scriptedStreamChat struct {
	partsPerCall [][]llm.Part
	calls        int
}

func (s *scriptedStreamChat) Supports(c capability.Capability) bool { return true }

func (s *scriptedStreamChat) ChatStreamParts(ctx context.Context, messages []llm.ChatMessage, cfg llm.LLMConfig, cancel *llm.CancelToken) (llm.StreamParts, error) {
	parts := s.partsPerCall[s.calls]
	s.calls++
	out := make(chan llm.Part, len(parts))
	for _, p := range parts {
		out <- p
	}
	close(out)
	return out, nil
}

func drain(parts llm.StreamParts) []llm.Part {
	var all []llm.Part
	for p := range parts {
		all = append(all, p)
	}
	return all
}

func TestStreamToolLoopParts_TextOnlySingleFinish(t *testing.T) {
	chat := &scriptedStreamChat{partsPerCall: [][]llm.Part{
		{
			{Kind: llm.PartTextStart},
			{Kind: llm.PartTextDelta, Delta: "hi"},
			{Kind: llm.PartTextEnd},
			{Kind: llm.PartFinish, Response: &llm.ChatResponse{Text: "hi"}},
		},
	}}
	prompt := "hello"

	parts, err := StreamToolLoopParts(context.Background(), Input{Prompt: &prompt}, llm.LLMConfig{}, chat, Config{MaxSteps: 3}, nil)
	if err != nil {
		t.Fatalf("StreamToolLoopParts failed: %v", err)
	}

	all := drain(parts)
	finishCount := 0
	for _, p := range all {
		if p.Kind == llm.PartFinish {
			finishCount++
		}
	}
	if finishCount != 1 {
		t.Fatalf("expected exactly one Finish part, got %d in %+v", finishCount, all)
	}
}

func TestStreamToolLoopParts_SwallowsIntermediateFinishAndEmitsToolResult(t *testing.T) {
	tc := llm.ToolCall{ID: "call_1", Function: llm.ToolCallFunction{Name: "add", ArgumentsJSON: "{}"}}
	chat := &scriptedStreamChat{partsPerCall: [][]llm.Part{
		{
			{Kind: llm.PartToolCallStart, ToolCallID: "call_1"},
			{Kind: llm.PartToolCallEnd, ToolCallID: "call_1"},
			{Kind: llm.PartFinish, Response: &llm.ChatResponse{ToolCalls: []llm.ToolCall{tc}}},
		},
		{
			{Kind: llm.PartTextStart},
			{Kind: llm.PartTextDelta, Delta: "done"},
			{Kind: llm.PartTextEnd},
			{Kind: llm.PartFinish, Response: &llm.ChatResponse{Text: "done"}},
		},
	}}
	prompt := "go"

	parts, err := StreamToolLoopParts(context.Background(), Input{Prompt: &prompt}, llm.LLMConfig{}, chat, Config{
		Tools:    []llm.FunctionTool{{Name: "add"}},
		Handlers: tool.NewSet(&tool.MockHandler{ToolName: "add", Responses: []any{"3"}}),
		MaxSteps: 3,
	}, nil)
	if err != nil {
		t.Fatalf("StreamToolLoopParts failed: %v", err)
	}

	all := drain(parts)
	finishCount, toolResultCount := 0, 0
	for _, p := range all {
		switch p.Kind {
		case llm.PartFinish:
			finishCount++
		case llm.PartToolResult:
			toolResultCount++
		}
	}
	if finishCount != 1 {
		t.Fatalf("expected exactly one terminal Finish, got %d in %+v", finishCount, all)
	}
	if toolResultCount != 1 {
		t.Fatalf("expected one ToolResult part between steps, got %d", toolResultCount)
	}
}

func TestStreamToolLoopParts_ApprovalBlockEmitsTerminalError(t *testing.T) {
	tc := llm.ToolCall{ID: "call_1", Function: llm.ToolCallFunction{Name: "delete_file", ArgumentsJSON: "{}"}}
	chat := &scriptedStreamChat{partsPerCall: [][]llm.Part{
		{
			{Kind: llm.PartToolCallStart, ToolCallID: "call_1"},
			{Kind: llm.PartToolCallEnd, ToolCallID: "call_1"},
			{Kind: llm.PartFinish, Response: &llm.ChatResponse{ToolCalls: []llm.ToolCall{tc}}},
		},
	}}
	prompt := "rm -rf"

	parts, err := StreamToolLoopParts(context.Background(), Input{Prompt: &prompt}, llm.LLMConfig{}, chat, Config{
		Tools:    []llm.FunctionTool{{Name: "delete_file"}},
		Handlers: tool.NewSet(&tool.MockHandler{ToolName: "delete_file"}),
		Approval: func(llm.ToolCall) bool { return true },
		MaxSteps: 3,
	}, nil)
	if err != nil {
		t.Fatalf("StreamToolLoopParts failed: %v", err)
	}

	all := drain(parts)
	if len(all) != 3 || all[2].Kind != llm.PartError {
		t.Fatalf("expected forwarded ToolCallStart/End followed by one terminal PartError, got %+v", all)
	}
	var approvalErr *ToolApprovalRequiredError
	if !errors.As(all[2].Err, &approvalErr) {
		t.Fatalf("expected ToolApprovalRequiredError, got %v", all[2].Err)
	}
	if len(approvalErr.NeedingApproval) != 1 {
		t.Fatalf("unexpected needing-approval set: %+v", approvalErr.NeedingApproval)
	}
}
