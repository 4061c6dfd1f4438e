package toolloop

import (
	"context"

	"github.com/dshills/llmcore/llm"
	"github.com/dshills/llmcore/llm/capability"
	"github.com/dshills/llmcore/llm/toolname"
)

// ToolApprovalRequiredError is carried by the terminal PartError emitted
// when a streaming tool loop blocks on an unapproved tool call.
type ToolApprovalRequiredError struct {
	StepIndex       int
	NeedingApproval []llm.ToolCall
	Steps           []Step
	Messages        []llm.ChatMessage
}

func (e *ToolApprovalRequiredError) Error() string {
	return "tool call requires approval"
}

// StreamToolLoopParts drives the streaming tool loop. It forwards every
// part from the underlying provider unchanged except it swallows
// intermediate Finish parts (one per step) and emits exactly one terminal
// Finish when the loop completes; between steps it emits a ToolResult part
// per executed tool. On an approval block it emits a single terminal
// Error(ToolApprovalRequiredError).
func StreamToolLoopParts(ctx context.Context, input Input, cfg llm.LLMConfig, chat capability.ChatStreamPartsCapability, loopCfg Config, cancel *llm.CancelToken) (llm.StreamParts, error) {
	messages, err := input.resolveMessages()
	if err != nil {
		return nil, err
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

	out := make(chan llm.Part)

	go func() {
		defer close(out)

		var steps []Step

		for stepIdx := 0; stepIdx < maxSteps; stepIdx++ {
			if cancel != nil {
				if cerr := cancel.Err(); cerr != nil {
					out <- llm.Part{Kind: llm.PartError, Err: cerr}
					return
				}
			}

			parts, serr := chat.ChatStreamParts(ctx, messages, callCfg, cancel)
			if serr != nil {
				out <- llm.Part{Kind: llm.PartError, Err: serr}
				return
			}

			var finish *llm.ChatResponse
			for p := range parts {
				if p.Kind == llm.PartFinish {
					finish = p.Response
					continue // swallow intermediate Finish; loop decides the terminal one
				}
				if p.Kind == llm.PartError {
					out <- p
					return
				}
				// Tool-call name rewriting happens only at the Finish below:
				// ToolCallStart/Delta/End carry just the call id, never the
				// function name, so there is nothing to rewrite mid-stream.
				out <- p
			}
			if finish == nil {
				out <- llm.Part{Kind: llm.PartError, Err: llm.NewError(llm.KindResponseFormat, "stream ended without a Finish part")}
				return
			}
			rewriteToolCallsToLocal(finish.ToolCalls, mapping)

			assistant := assistantMessageFromFinish(*finish)

			if len(finish.ToolCalls) == 0 {
				messages = append(messages, assistant)
				steps = append(steps, Step{Index: stepIdx, AssistantMessage: assistant})
				out <- llm.Part{Kind: llm.PartFinish, Response: finish}
				return
			}

			var needingApproval []llm.ToolCall
			for _, call := range finish.ToolCalls {
				if loopCfg.needsApproval(call) {
					needingApproval = append(needingApproval, call)
				}
			}
			if len(needingApproval) > 0 {
				messages = append(messages, assistant)
				blockedStep := Step{Index: stepIdx, AssistantMessage: assistant, ToolCalls: finish.ToolCalls}
				steps = append(steps, blockedStep)
				out <- llm.Part{Kind: llm.PartError, Err: &ToolApprovalRequiredError{
					StepIndex:       stepIdx,
					NeedingApproval: needingApproval,
					Steps:           steps,
					Messages:        messages,
				}}
				return
			}

			results, execErr := executeToolCalls(ctx, finish.ToolCalls, loopCfg, cancel)
			for _, r := range results {
				res := r
				out <- llm.Part{Kind: llm.PartToolResult, Result: &res}
			}
			messages = append(messages, assistant, llm.ChatMessage{
				Role:      llm.RoleTool,
				TypedBody: &llm.TypedBody{Kind: llm.BodyToolResult, ToolResults: results},
			})
			steps = append(steps, Step{Index: stepIdx, AssistantMessage: assistant, ToolCalls: finish.ToolCalls, ToolResults: results})

			if execErr != nil && !loopCfg.ContinueOnToolError {
				out <- llm.Part{Kind: llm.PartError, Err: execErr}
				return
			}
		}

		out <- llm.Part{Kind: llm.PartError, Err: llm.NewError(llm.KindInvalidRequest, "maxSteps exceeded")}
	}()

	return out, nil
}

// assistantMessageFromFinish reconstructs the assistant turn fed back into
// history from a terminal ChatResponse. It carries forward any provider-native
// content blocks found under ProviderMetadata[provider]["contentBlocks"] as
// ProtocolPayloads, the same shape the non-streaming protocol layers produce,
// so a later turn can still replay provider-native blocks (e.g. Anthropic
// thinking signatures) verbatim.
func assistantMessageFromFinish(resp llm.ChatResponse) llm.ChatMessage {
	msg := llm.ChatMessage{Role: llm.RoleAssistant, ContentText: resp.Text}
	if len(resp.ToolCalls) > 0 {
		msg.TypedBody = &llm.TypedBody{Kind: llm.BodyToolUse, Text: resp.Thinking, ToolCalls: resp.ToolCalls}
	} else {
		msg.TypedBody = &llm.TypedBody{Kind: llm.BodyText, Text: resp.Text}
	}

	if len(resp.ProviderMetadata) > 0 {
		payloads := make(map[string]any, len(resp.ProviderMetadata))
		for providerID, meta := range resp.ProviderMetadata {
			if blocks, ok := meta["contentBlocks"]; ok {
				payloads[providerID] = map[string]any{"contentBlocks": blocks}
			}
		}
		if len(payloads) > 0 {
			msg.ProtocolPayloads = payloads
		}
	}

	return msg
}
