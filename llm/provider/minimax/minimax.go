// Package minimax adapts MiniMax's Anthropic-compatible Messages endpoint,
// reusing llm/protocol/anthropiccompat for request/response shape.
package minimax

import (
	"context"

	"github.com/dshills/llmcore/llm"
	"github.com/dshills/llmcore/llm/capability"
	"github.com/dshills/llmcore/llm/protocol/anthropiccompat"
	"github.com/dshills/llmcore/llm/registry"
	"github.com/dshills/llmcore/llm/transport"
)

const (
	ProviderID     = "minimax"
	DefaultBaseURL = "https://api.minimax.io/anthropic/v1"
	DefaultModel   = "MiniMax-M1"
	APIVersion     = "2023-06-01"
)

// Client implements the chat capabilities over MiniMax's Anthropic-compatible
// Messages API.
type Client struct {
	cfg       llm.LLMConfig
	transport transport.Transport
}

// New builds a Client from a resolved LLMConfig and Transport collaborator.
func New(cfg llm.LLMConfig, t transport.Transport) *Client {
	return &Client{cfg: cfg, transport: t}
}

// Factory returns the registry.ProviderFactory for this provider, bound to
// the given Transport.
func Factory(t transport.Transport) registry.ProviderFactory {
	return registry.ProviderFactory{
		ID:                     ProviderID,
		DisplayName:            "MiniMax",
		RequiredAPIKey:         true,
		DefaultBaseURL:         DefaultBaseURL,
		DefaultModel:           DefaultModel,
		BestEffortCapabilities: []capability.Capability{capability.Chat, capability.ChatStreamParts},
		Create:                 func(cfg llm.LLMConfig) (any, error) { return New(cfg, t), nil },
	}
}

func (c *Client) Supports(want capability.Capability) bool {
	return want == capability.Chat || want == capability.ChatStreamParts
}

func (c *Client) headers(betas []string) map[string]string {
	h := map[string]string{
		"x-api-key":         c.cfg.APIKey,
		"anthropic-version": APIVersion,
	}
	if len(betas) > 0 {
		h["anthropic-beta"] = joinComma(betas)
	}
	if extra, ok := minimaxOrAnthropicOption[map[string]string](c.cfg, "extraHeaders"); ok {
		for k, v := range extra {
			h[k] = v
		}
	}
	return h
}

func joinComma(items []string) string {
	out := ""
	for i, s := range items {
		if i > 0 {
			out += ","
		}
		out += s
	}
	return out
}

func (c *Client) endpoint(path string) string {
	prefix := c.cfg.EndpointPrefix
	if prefix == "" {
		prefix = c.cfg.BaseURL
	}
	return prefix + path
}

// minimaxOrAnthropicOption reads a provider option under the "minimax"
// namespace first, falling back to "anthropic" so configs written against
// the generic Anthropic-compatible surface still apply.
func minimaxOrAnthropicOption[T any](cfg llm.LLMConfig, key string) (T, bool) {
	if v, ok := llm.GetProviderOption[T](cfg, "minimax", key); ok {
		return v, true
	}
	return llm.GetProviderOption[T](cfg, "anthropic", key)
}

func (c *Client) Chat(ctx context.Context, messages []llm.ChatMessage, cfg llm.LLMConfig, cancel *llm.CancelToken) (llm.ChatResponseWithAssistantMessage, error) {
	body, betas, err := anthropiccompat.BuildRequestBody(cfg, messages, false)
	if err != nil {
		return llm.ChatResponseWithAssistantMessage{}, err
	}
	resp, err := c.transport.PostJSON(ctx, c.endpoint("/messages"), c.headers(betas), body, cancel)
	if err != nil {
		return llm.ChatResponseWithAssistantMessage{}, wrapProviderErr(err)
	}
	return anthropiccompat.ParseResponse(ProviderID, resp)
}

func (c *Client) ChatStreamParts(ctx context.Context, messages []llm.ChatMessage, cfg llm.LLMConfig, cancel *llm.CancelToken) (llm.StreamParts, error) {
	body, betas, err := anthropiccompat.BuildRequestBody(cfg, messages, true)
	if err != nil {
		return nil, err
	}
	rc, err := c.transport.PostStream(ctx, c.endpoint("/messages"), c.headers(betas), body, cancel)
	if err != nil {
		return nil, wrapProviderErr(err)
	}
	return transport.PumpParts(rc, anthropiccompat.NewStreamState(ProviderID)), nil
}

func wrapProviderErr(err error) error {
	e, ok := err.(*llm.Error)
	if !ok {
		return err
	}
	if e.Provider == "" {
		return e.WithProvider(ProviderID)
	}
	return e
}
