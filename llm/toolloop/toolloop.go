// Package toolloop drives the agentic call/execute-tools/call-again cycle
// on top of a chat capability: it calls the model, executes any requested
// local tools, feeds results back, and repeats until the model stops
// requesting tools, an approval gate blocks progress, or max_steps is
// exceeded.
package toolloop

import (
	"context"
	"encoding/json"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/llmcore/llm"
	"github.com/dshills/llmcore/llm/capability"
	"github.com/dshills/llmcore/llm/emit"
	"github.com/dshills/llmcore/llm/prompt"
	"github.com/dshills/llmcore/llm/tool"
	"github.com/dshills/llmcore/llm/toolname"
)

// Input standardizes the three accepted prompt shapes: exactly one of
// Prompt, Messages, or PromptIR must be set. System, if set, is prepended
// as a system message (or merged into the Prompt IR's leading system
// message).
type Input struct {
	Prompt   *string
	Messages []llm.ChatMessage
	PromptIR *prompt.Prompt
	System   string
}

func (in Input) resolveMessages() ([]llm.ChatMessage, error) {
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

// ApprovalFunc decides whether a tool call must be approved before
// execution. A true return blocks the loop.
type ApprovalFunc func(call llm.ToolCall) bool

// Config configures one tool-loop run.
type Config struct {
	Tools    []llm.FunctionTool
	Handlers tool.Set

	// Approval, if set, applies to every tool call. PerToolApproval
	// overrides it for a named tool.
	Approval        ApprovalFunc
	PerToolApproval map[string]ApprovalFunc

	MaxSteps            int
	ContinueOnToolError bool
	Parallel            bool

	// NativeToolNames lists provider-injected tool names (e.g. "web_search")
	// that local tool names must not collide with on the wire.
	NativeToolNames []string

	CallID  string
	Emitter emit.Emitter
}

func (c Config) needsApproval(call llm.ToolCall) bool {
	if fn, ok := c.PerToolApproval[call.Function.Name]; ok {
		return fn(call)
	}
	if c.Approval != nil {
		return c.Approval(call)
	}
	return false
}

func (c Config) emit(step int, msg string, meta map[string]any) {
	if c.Emitter == nil {
		return
	}
	c.Emitter.Emit(emit.Event{CallID: c.CallID, Step: step, Msg: msg, Meta: meta})
}

// Status discriminates the Outcome of a tool-loop run.
type Status int

const (
	Completed Status = iota
	Blocked
)

// Step records one model-call/tool-execution round.
type Step struct {
	Index            int
	AssistantMessage llm.ChatMessage
	ToolCalls        []llm.ToolCall
	ToolResults      []llm.ToolResult
}

// Outcome is the result of RunToolLoop.
type Outcome struct {
	Status Status

	// Completed-only fields.
	Response llm.ChatResponse

	// Blocked-only fields.
	BlockedStepIndex int
	BlockedResult    *Step
	NeedingApproval  []llm.ToolCall

	Steps    []Step
	Messages []llm.ChatMessage
}

// RunToolLoop drives the non-streaming tool loop to completion, to a
// max_steps failure, or to an approval block.
func RunToolLoop(ctx context.Context, input Input, cfg llm.LLMConfig, chat capability.ChatCapability, loopCfg Config, cancel *llm.CancelToken) (Outcome, error) {
	messages, err := input.resolveMessages()
	if err != nil {
		return Outcome{}, err
	}

	maxSteps := loopCfg.MaxSteps
	if maxSteps < 1 {
		maxSteps = 1
	}

	names := make([]string, 0, len(loopCfg.Tools))
	for _, t := range loopCfg.Tools {
		names = append(names, t.Name)
	}
	mapping := toolname.NewMapping(names, loopCfg.NativeToolNames)

	callCfg := cfg
	callCfg.Tools = rewriteTools(loopCfg.Tools, mapping)

	var steps []Step

	for stepIdx := 0; stepIdx < maxSteps; stepIdx++ {
		if cancel != nil {
			if err := cancel.Err(); err != nil {
				return Outcome{}, err
			}
		}

		loopCfg.emit(stepIdx, "tool_loop_step_start", nil)

		resp, err := chat.Chat(ctx, messages, callCfg, cancel)
		if err != nil {
			return Outcome{}, err
		}
		rewriteToolCallsToLocal(resp.ChatResponse.ToolCalls, mapping)

		if len(resp.ChatResponse.ToolCalls) == 0 {
			messages = append(messages, resp.AssistantMessage)
			steps = append(steps, Step{Index: stepIdx, AssistantMessage: resp.AssistantMessage})
			loopCfg.emit(stepIdx, "tool_loop_completed", nil)
			return Outcome{Status: Completed, Response: resp.ChatResponse, Steps: steps, Messages: messages}, nil
		}

		var needingApproval []llm.ToolCall
		for _, call := range resp.ChatResponse.ToolCalls {
			if loopCfg.needsApproval(call) {
				needingApproval = append(needingApproval, call)
			}
		}
		if len(needingApproval) > 0 {
			messages = append(messages, resp.AssistantMessage)
			blockedStep := Step{Index: stepIdx, AssistantMessage: resp.AssistantMessage, ToolCalls: resp.ChatResponse.ToolCalls}
			steps = append(steps, blockedStep)
			loopCfg.emit(stepIdx, "tool_loop_blocked", map[string]any{"needing_approval": len(needingApproval)})
			return Outcome{
				Status:           Blocked,
				BlockedStepIndex: stepIdx,
				BlockedResult:    &blockedStep,
				NeedingApproval:  needingApproval,
				Steps:            steps,
				Messages:         messages,
			}, nil
		}

		results, execErr := executeToolCalls(ctx, resp.ChatResponse.ToolCalls, loopCfg, cancel)
		messages = append(messages, resp.AssistantMessage, llm.ChatMessage{
			Role:      llm.RoleTool,
			TypedBody: &llm.TypedBody{Kind: llm.BodyToolResult, ToolResults: results},
		})
		steps = append(steps, Step{Index: stepIdx, AssistantMessage: resp.AssistantMessage, ToolCalls: resp.ChatResponse.ToolCalls, ToolResults: results})
		loopCfg.emit(stepIdx, "tool_loop_tools_executed", map[string]any{"count": len(results)})

		if execErr != nil && !loopCfg.ContinueOnToolError {
			return Outcome{Status: Completed, Steps: steps, Messages: messages}, execErr
		}
	}

	return Outcome{}, llm.NewError(llm.KindInvalidRequest, "maxSteps exceeded")
}

// executeToolCalls runs every requested tool call, sequentially unless
// cfg.Parallel requests concurrent execution for pure handlers. A missing
// handler, invalid argument JSON, a handler error and a handler panic each
// surface as an is_error tool result, and the first such error is also
// returned; the loop stops on it unless cfg.ContinueOnToolError is set.
func executeToolCalls(ctx context.Context, calls []llm.ToolCall, cfg Config, cancel *llm.CancelToken) ([]llm.ToolResult, error) {
	results := make([]llm.ToolResult, len(calls))
	var (
		firstErrMu sync.Mutex
		firstErr   error
	)
	setFirstErr := func(err error) {
		firstErrMu.Lock()
		defer firstErrMu.Unlock()
		if firstErr == nil {
			firstErr = err
		}
	}

	run := func(i int) {
		call := calls[i]
		defer func() {
			if r := recover(); r != nil {
				perr := llm.NewError(llm.KindGeneric, "tool %q panicked: %v", call.Function.Name, r)
				results[i] = llm.ToolResult{ToolCallID: call.ID, Content: perr.Error(), IsError: true}
				setFirstErr(perr)
			}
		}()
		cfg.emit(0, "tool_invoked", map[string]any{"tool": call.Function.Name})

		handler, ok := cfg.Handlers[call.Function.Name]
		if !ok {
			results[i] = llm.ToolResult{ToolCallID: call.ID, Content: "no handler registered for tool", IsError: true}
			setFirstErr(llm.NewError(llm.KindInvalidRequest, "no handler registered for tool %q", call.Function.Name))
			return
		}

		var args map[string]any
		if call.Function.ArgumentsJSON != "" {
			if err := json.Unmarshal([]byte(call.Function.ArgumentsJSON), &args); err != nil {
				results[i] = llm.ToolResult{ToolCallID: call.ID, Content: "invalid tool arguments JSON", IsError: true}
				setFirstErr(err)
				return
			}
		}

		out, err := handler.Call(ctx, args)
		if err != nil {
			results[i] = llm.ToolResult{ToolCallID: call.ID, Content: err.Error(), IsError: true}
			setFirstErr(err)
			return
		}

		content, encErr := encodeResult(out)
		if encErr != nil {
			results[i] = llm.ToolResult{ToolCallID: call.ID, Content: encErr.Error(), IsError: true}
			setFirstErr(encErr)
			return
		}
		results[i] = llm.ToolResult{ToolCallID: call.ID, Content: content}
	}

	if cfg.Parallel && len(calls) > 1 {
		var g errgroup.Group
		for i := range calls {
			g.Go(func() error {
				run(i)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i := range calls {
			run(i)
			if firstErr != nil && !cfg.ContinueOnToolError {
				break
			}
		}
	}

	return results, firstErr
}

// encodeResult renders a handler's output to the string form fed back to
// the model: strings pass through, numbers/bools are formatted, everything
// else is JSON-encoded.
func encodeResult(out any) (string, error) {
	switch v := out.(type) {
	case string:
		return v, nil
	case nil:
		return "", nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}

func rewriteTools(tools []llm.FunctionTool, mapping *toolname.Mapping) []llm.FunctionTool {
	out := make([]llm.FunctionTool, len(tools))
	for i, t := range tools {
		out[i] = t
		out[i].Name = mapping.ToWire(t.Name)
	}
	return out
}

func rewriteToolCallsToLocal(calls []llm.ToolCall, mapping *toolname.Mapping) {
	for i := range calls {
		if local, ok := mapping.ToLocal(calls[i].Function.Name); ok {
			calls[i].Function.Name = local
		}
	}
}
