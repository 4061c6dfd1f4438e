// Command llmcore-probe is a smoke-test harness: it wires a real provider
// and the tool-loop engine end to end against a live API key, or falls
// back to a canned mock chat capability when no key is set so the wiring
// can still be exercised offline.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/dshills/llmcore/llm"
	"github.com/dshills/llmcore/llm/capability"
	"github.com/dshills/llmcore/llm/provider/anthropic"
	"github.com/dshills/llmcore/llm/provider/google"
	"github.com/dshills/llmcore/llm/provider/openai"
	"github.com/dshills/llmcore/llm/registry"
	"github.com/dshills/llmcore/llm/tool"
	"github.com/dshills/llmcore/llm/toolloop"
	"github.com/dshills/llmcore/llm/transport"
)

func main() {
	ctx := context.Background()

	fmt.Println("=== Provider registration ===")
	reg := buildRegistry()
	for _, id := range reg.IDs() {
		fmt.Printf("registered: %s\n", id)
	}

	fmt.Println("\n=== Basic chat probe ===")
	if err := basicChatProbe(ctx, reg); err != nil {
		log.Printf("basic chat probe failed: %v", err)
	}

	fmt.Println("\n=== Tool-loop probe ===")
	if err := toolLoopProbe(ctx, reg); err != nil {
		log.Printf("tool-loop probe failed: %v", err)
	}
}

// buildRegistry registers the OpenAI, Anthropic, and Google adapters against
// one shared HTTP transport built with default options (no client-side rate
// limit).
func buildRegistry() *registry.Registry {
	t := transport.NewHTTPTransport(llm.TransportOptions{})
	reg := registry.NewRegistry()

	for _, f := range []registry.ProviderFactory{
		openai.Factory(t),
		anthropic.Factory(t),
		google.Factory(t),
	} {
		if err := reg.Register(f); err != nil {
			log.Printf("register %s: %v", f.ID, err)
		}
	}
	return reg
}

// basicChatProbe drives a single-turn chat call against whichever provider
// has an API key set, falling back to a mock capability otherwise.
func basicChatProbe(ctx context.Context, reg *registry.Registry) error {
	messages := []llm.ChatMessage{
		{Role: llm.RoleUser, ContentText: "What is the capital of France?"},
	}

	chat, providerName, err := selectChatCapability(reg)
	if err != nil {
		return err
	}
	fmt.Printf("using provider: %s\n", providerName)

	cfg, err := configFor(reg, providerName)
	if err != nil {
		return err
	}

	out, err := chat.Chat(ctx, messages, cfg, nil)
	if err != nil {
		return fmt.Errorf("chat: %w", err)
	}
	fmt.Printf("response: %s\n", out.ChatResponse.Text)
	return nil
}

// toolLoopProbe exercises the tool-loop engine against a local calculator
// handler, using a mock chat capability so the probe runs without an API
// key on every machine.
func toolLoopProbe(ctx context.Context, reg *registry.Registry) error {
	calculator := tool.HandlerFunc{
		ToolName: "calculator",
		Func: func(_ context.Context, args map[string]any) (any, error) {
			op, _ := args["operation"].(string)
			a, _ := args["a"].(float64)
			b, _ := args["b"].(float64)
			switch op {
			case "add":
				return a + b, nil
			case "subtract":
				return a - b, nil
			case "multiply":
				return a * b, nil
			case "divide":
				if b == 0 {
					return nil, fmt.Errorf("division by zero")
				}
				return a / b, nil
			default:
				return nil, fmt.Errorf("unknown operation %q", op)
			}
		},
	}

	tools := []llm.FunctionTool{{
		Name:        "calculator",
		Description: "Performs basic arithmetic operations",
		ParametersSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"operation": map[string]any{"type": "string", "enum": []string{"add", "subtract", "multiply", "divide"}},
				"a":         map[string]any{"type": "number"},
				"b":         map[string]any{"type": "number"},
			},
			"required": []string{"operation", "a", "b"},
		},
	}}

	chat, providerName, err := selectChatCapability(reg)
	if err != nil {
		return err
	}
	fmt.Printf("using provider: %s\n", providerName)

	cfg, err := configFor(reg, providerName)
	if err != nil {
		return err
	}

	prompt := "What is 15 multiplied by 7? Use the calculator tool."
	outcome, err := toolloop.RunToolLoop(ctx, toolloop.Input{Prompt: &prompt}, cfg, chat, toolloop.Config{
		Tools:    tools,
		Handlers: tool.NewSet(calculator),
		MaxSteps: 4,
	}, nil)
	if err != nil {
		return fmt.Errorf("tool loop: %w", err)
	}

	switch outcome.Status {
	case toolloop.Completed:
		fmt.Printf("final answer: %s\n", outcome.Response.Text)
	case toolloop.Blocked:
		fmt.Printf("blocked awaiting approval for %d tool call(s)\n", len(outcome.NeedingApproval))
	}
	return nil
}

// selectChatCapability picks the first provider with an API key set in the
// environment, falling back to a mock capability so the probe always has
// something to drive.
func selectChatCapability(reg *registry.Registry) (capability.ChatCapability, string, error) {
	for _, probe := range []struct {
		providerID string
		envKey     string
	}{
		{"openai", "OPENAI_API_KEY"},
		{"anthropic", "ANTHROPIC_API_KEY"},
		{"google", "GOOGLE_API_KEY"},
	} {
		key := os.Getenv(probe.envKey)
		if key == "" {
			fmt.Printf("skipping %s (no %s set)\n", probe.providerID, probe.envKey)
			continue
		}
		inst, err := reg.Create(llm.LLMConfig{ProviderID: probe.providerID, APIKey: key})
		if err != nil {
			return nil, "", fmt.Errorf("create %s: %w", probe.providerID, err)
		}
		chat, ok := inst.(capability.ChatCapability)
		if !ok {
			return nil, "", fmt.Errorf("provider %q does not implement ChatCapability", probe.providerID)
		}
		return chat, probe.providerID, nil
	}

	fmt.Println("no provider api keys set, using mock chat capability")
	return mockChat{}, "mock", nil
}

// mockChat is a canned ChatCapability used when no provider API key is
// available, so the probe's wiring can still be exercised offline.
type mockChat struct{}

func (mockChat) Supports(capability.Capability) bool { return true }

func (mockChat) Chat(_ context.Context, _ []llm.ChatMessage, _ llm.LLMConfig, _ *llm.CancelToken) (llm.ChatResponseWithAssistantMessage, error) {
	return llm.ChatResponseWithAssistantMessage{
		ChatResponse:     llm.ChatResponse{Text: "42"},
		AssistantMessage: llm.ChatMessage{Role: llm.RoleAssistant, ContentText: "42"},
	}, nil
}

func configFor(reg *registry.Registry, providerID string) (llm.LLMConfig, error) {
	if providerID == "mock" {
		return llm.LLMConfig{ProviderID: "mock"}, nil
	}
	f, ok := reg.Lookup(providerID)
	if !ok {
		return llm.LLMConfig{}, fmt.Errorf("provider %q not registered", providerID)
	}
	return llm.LLMConfig{
		ProviderID: providerID,
		APIKey:     os.Getenv(envKeyFor(providerID)),
		Model:      f.DefaultModel,
	}, nil
}

func envKeyFor(providerID string) string {
	switch providerID {
	case "openai":
		return "OPENAI_API_KEY"
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	case "google":
		return "GOOGLE_API_KEY"
	default:
		return ""
	}
}
