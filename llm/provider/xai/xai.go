// Package xai adapts xAI's OpenAI-compatible chat completions and
// embeddings endpoints, reusing llm/protocol/openaicompat for
// request/response shape.
package xai

import (
	"context"
	"encoding/json"

	"github.com/tidwall/gjson"

	"github.com/dshills/llmcore/llm"
	"github.com/dshills/llmcore/llm/capability"
	"github.com/dshills/llmcore/llm/protocol/openaicompat"
	"github.com/dshills/llmcore/llm/registry"
	"github.com/dshills/llmcore/llm/transport"
)

const (
	ProviderID     = "xai"
	DefaultBaseURL = "https://api.x.ai/v1"
	DefaultModel   = "grok-4"
)

// Client implements the chat/embedding capabilities over xAI's REST API.
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
		DisplayName:            "xAI",
		RequiredAPIKey:         true,
		DefaultBaseURL:         DefaultBaseURL,
		DefaultModel:           DefaultModel,
		BestEffortCapabilities: []capability.Capability{capability.Chat, capability.ChatStreamParts, capability.Embedding},
		Create:                 func(cfg llm.LLMConfig) (any, error) { return New(cfg, t), nil },
	}
}

func (c *Client) Supports(want capability.Capability) bool {
	switch want {
	case capability.Chat, capability.ChatStreamParts, capability.Embedding:
		return true
	default:
		return false
	}
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

// Chat builds the request body via openaicompat, additionally wiring xAI's
// live-search escape hatch when enabled via providerOptions.
func (c *Client) Chat(ctx context.Context, messages []llm.ChatMessage, cfg llm.LLMConfig, cancel *llm.CancelToken) (llm.ChatResponseWithAssistantMessage, error) {
	body, err := c.buildBody(cfg, messages, false)
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
	body, err := c.buildBody(cfg, messages, true)
	if err != nil {
		return nil, err
	}
	rc, err := c.transport.PostStream(ctx, c.endpoint("/chat/completions"), c.headers(), body, cancel)
	if err != nil {
		return nil, wrapProviderErr(err)
	}
	return transport.PumpParts(rc, openaicompat.NewStreamState(ProviderID)), nil
}

func (c *Client) buildBody(cfg llm.LLMConfig, messages []llm.ChatMessage, stream bool) ([]byte, error) {
	body, err := openaicompat.BuildRequestBody(cfg, messages, stream)
	if err != nil {
		return nil, err
	}
	if enabled, ok := llm.GetProviderOption[bool](cfg, "xai", "liveSearch"); ok && enabled {
		params := map[string]any{"mode": "auto"}
		if override, ok := llm.GetProviderOption[map[string]any](cfg, "xai", "searchParameters"); ok {
			for k, v := range override {
				params[k] = v
			}
		}
		var merged map[string]any
		if err := json.Unmarshal(body, &merged); err != nil {
			return nil, llm.NewError(llm.KindJSON, "decode request body for live search merge: %v", err).WithCause(err)
		}
		merged["search_parameters"] = params
		return json.Marshal(merged)
	}
	return body, nil
}

func (c *Client) Embed(ctx context.Context, inputs []string, cfg llm.LLMConfig, cancel *llm.CancelToken) ([]capability.EmbeddingResult, *llm.Usage, error) {
	body := map[string]any{"model": cfg.Model, "input": inputs}
	if enc, ok := llm.GetProviderOption[string](cfg, "xai", "embeddingEncodingFormat"); ok {
		body["encoding_format"] = enc
	}
	if dims, ok := llm.GetProviderOption[int](cfg, "xai", "embeddingDimensions"); ok {
		body["dimensions"] = dims
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, nil, llm.NewError(llm.KindJSON, "encode request body: %v", err).WithCause(err)
	}
	resp, err := c.transport.PostJSON(ctx, c.endpoint("/embeddings"), c.headers(), payload, cancel)
	if err != nil {
		return nil, nil, wrapProviderErr(err)
	}

	data := gjson.GetBytes(resp, "data")
	results := make([]capability.EmbeddingResult, 0, len(data.Array()))
	for _, item := range data.Array() {
		vec := item.Get("embedding").Array()
		floats := make([]float64, len(vec))
		for i, v := range vec {
			floats[i] = v.Float()
		}
		results = append(results, capability.EmbeddingResult{Index: int(item.Get("index").Int()), Embedding: floats})
	}

	var usage *llm.Usage
	if u := gjson.GetBytes(resp, "usage"); u.Exists() {
		usage = &llm.Usage{
			InputTokens: int(u.Get("prompt_tokens").Int()),
			TotalTokens: int(u.Get("total_tokens").Int()),
		}
	}
	return results, usage, nil
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
