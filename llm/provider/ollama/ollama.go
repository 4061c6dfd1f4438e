// Package ollama adapts a local or remote Ollama server's JSONL chat,
// embeddings, and tags endpoints (§6). Ollama has no HTTP SDK to
// reuse, and its wire format is JSONL rather than SSE, so this package
// builds requests and parses responses directly rather than going through
// llm/protocol/openaicompat or anthropiccompat.
package ollama

import (
	"context"
	"encoding/json"

	"github.com/tidwall/gjson"

	"github.com/dshills/llmcore/llm"
	"github.com/dshills/llmcore/llm/capability"
	"github.com/dshills/llmcore/llm/registry"
	"github.com/dshills/llmcore/llm/transport"
)

const (
	ProviderID     = "ollama"
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "llama3.2"
)

// Client implements the chat/embedding/model-listing capabilities over a
// local Ollama server. Ollama requires no API key and no bearer scheme.
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
		ID:             ProviderID,
		DisplayName:    "Ollama",
		RequiredAPIKey: false,
		DefaultBaseURL: DefaultBaseURL,
		DefaultModel:   DefaultModel,
		BestEffortCapabilities: []capability.Capability{
			capability.Chat, capability.ChatStreamParts, capability.Embedding, capability.ModelListing,
		},
		Create: func(cfg llm.LLMConfig) (any, error) { return New(cfg, t), nil },
	}
}

func (c *Client) Supports(want capability.Capability) bool {
	switch want {
	case capability.Chat, capability.ChatStreamParts, capability.Embedding, capability.ModelListing:
		return true
	default:
		return false
	}
}

func (c *Client) endpoint(path string) string {
	prefix := c.cfg.EndpointPrefix
	if prefix == "" {
		prefix = c.cfg.BaseURL
	}
	return prefix + path
}

func (c *Client) headers() map[string]string {
	if extra, ok := llm.GetProviderOption[map[string]string](c.cfg, "ollama", "extraHeaders"); ok {
		return extra
	}
	return nil
}

func (c *Client) Chat(ctx context.Context, messages []llm.ChatMessage, cfg llm.LLMConfig, cancel *llm.CancelToken) (llm.ChatResponseWithAssistantMessage, error) {
	body, err := buildRequestBody(cfg, messages, false)
	if err != nil {
		return llm.ChatResponseWithAssistantMessage{}, err
	}
	resp, err := c.transport.PostJSON(ctx, c.endpoint("/api/chat"), c.headers(), body, cancel)
	if err != nil {
		return llm.ChatResponseWithAssistantMessage{}, wrapProviderErr(err)
	}
	return parseResponse(resp)
}

func (c *Client) ChatStreamParts(ctx context.Context, messages []llm.ChatMessage, cfg llm.LLMConfig, cancel *llm.CancelToken) (llm.StreamParts, error) {
	body, err := buildRequestBody(cfg, messages, true)
	if err != nil {
		return nil, err
	}
	rc, err := c.transport.PostStream(ctx, c.endpoint("/api/chat"), c.headers(), body, cancel)
	if err != nil {
		return nil, wrapProviderErr(err)
	}
	return transport.PumpParts(rc, newStreamState()), nil
}

func (c *Client) Embed(ctx context.Context, inputs []string, cfg llm.LLMConfig, cancel *llm.CancelToken) ([]capability.EmbeddingResult, *llm.Usage, error) {
	results := make([]capability.EmbeddingResult, 0, len(inputs))
	for i, input := range inputs {
		body, err := json.Marshal(map[string]any{"model": cfg.Model, "prompt": input})
		if err != nil {
			return nil, nil, llm.NewError(llm.KindJSON, "encode embeddings request: %v", err).WithCause(err)
		}
		resp, err := c.transport.PostJSON(ctx, c.endpoint("/api/embeddings"), c.headers(), body, cancel)
		if err != nil {
			return nil, nil, wrapProviderErr(err)
		}
		vec := gjson.GetBytes(resp, "embedding").Array()
		floats := make([]float64, len(vec))
		for j, v := range vec {
			floats[j] = v.Float()
		}
		results = append(results, capability.EmbeddingResult{Index: i, Embedding: floats})
	}
	return results, nil, nil
}

func (c *Client) ListModels(ctx context.Context, cfg llm.LLMConfig, cancel *llm.CancelToken) ([]capability.ModelInfo, error) {
	resp, err := c.transport.GetJSON(ctx, c.endpoint("/api/tags"), c.headers(), nil, cancel)
	if err != nil {
		return nil, wrapProviderErr(err)
	}
	var models []capability.ModelInfo
	for _, item := range gjson.GetBytes(resp, "models").Array() {
		models = append(models, capability.ModelInfo{ID: item.Get("name").String()})
	}
	return models, nil
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
