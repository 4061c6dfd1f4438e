// Package deepseek adapts DeepSeek's OpenAI-compatible chat completions
// endpoint, reusing llm/protocol/openaicompat for request/response shape.
package deepseek

import (
	"context"

	"github.com/dshills/llmcore/llm"
	"github.com/dshills/llmcore/llm/capability"
	"github.com/dshills/llmcore/llm/protocol/openaicompat"
	"github.com/dshills/llmcore/llm/registry"
	"github.com/dshills/llmcore/llm/transport"
)

const (
	ProviderID     = "deepseek"
	DefaultBaseURL = "https://api.deepseek.com/v1"
	DefaultModel   = "deepseek-chat"
)

// Client implements the chat capabilities over DeepSeek's REST API.
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
		DisplayName:            "DeepSeek",
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

func (c *Client) headers() map[string]string {
	h := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}
	for k, v := range openaicompat.ExtraHeaders(c.cfg) {
		h[k] = v
	}
	return h
}

func (c *Client) endpoint(path string) string {
	prefix := c.cfg.EndpointPrefix
	if prefix == "" {
		prefix = c.cfg.BaseURL
	}
	return prefix + path
}

func (c *Client) Chat(ctx context.Context, messages []llm.ChatMessage, cfg llm.LLMConfig, cancel *llm.CancelToken) (llm.ChatResponseWithAssistantMessage, error) {
	body, err := openaicompat.BuildRequestBody(cfg, messages, false)
	if err != nil {
		return llm.ChatResponseWithAssistantMessage{}, err
	}
	resp, err := c.transport.PostJSON(ctx, c.endpoint("/chat/completions"), c.headers(), body, cancel)
	if err != nil {
		return llm.ChatResponseWithAssistantMessage{}, wrapProviderErr(err)
	}
	return openaicompat.ParseResponse(ProviderID, resp)
}

func (c *Client) ChatStreamParts(ctx context.Context, messages []llm.ChatMessage, cfg llm.LLMConfig, cancel *llm.CancelToken) (llm.StreamParts, error) {
	body, err := openaicompat.BuildRequestBody(cfg, messages, true)
	if err != nil {
		return nil, err
	}
	rc, err := c.transport.PostStream(ctx, c.endpoint("/chat/completions"), c.headers(), body, cancel)
	if err != nil {
		return nil, wrapProviderErr(err)
	}
	return transport.PumpParts(rc, openaicompat.NewStreamState(ProviderID)), nil
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
