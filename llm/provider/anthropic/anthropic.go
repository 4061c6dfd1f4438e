// Package anthropic adapts the Anthropic Messages API to the chat
// capability interfaces, built on llm/protocol/anthropiccompat for
// request/response shape and a Transport collaborator for the HTTP
// boundary (§6).
package anthropic

import (
	"context"

	"github.com/dshills/llmcore/llm"
	"github.com/dshills/llmcore/llm/capability"
	"github.com/dshills/llmcore/llm/protocol/anthropiccompat"
	"github.com/dshills/llmcore/llm/registry"
	"github.com/dshills/llmcore/llm/transport"
)

const (
	ProviderID     = "anthropic"
	DefaultBaseURL = "https://api.anthropic.com/v1"
	DefaultModel   = "claude-sonnet-4-5"
	APIVersion     = "2023-06-01"
)

// Client implements the chat capabilities over Anthropic's Messages API.
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
		DisplayName:            "Anthropic",
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
	for k, v := range anthropiccompat.ExtraHeaders(c.cfg) {
		h[k] = v
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
