// Package google adapts Google's native Gemini generateContent,
// streamGenerateContent, and batchEmbedContents wire protocols (§6). Gemini has
// no protocol-reuse layer of its own in this module (see
// llm/provider/googleopenai for the OpenAI-compatible route), so requests
// and responses are built directly against the Transport collaborator.
package google

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
	ProviderID     = "google"
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "gemini-2.0-flash"
)

// Client implements the chat/embedding capabilities over Gemini's native
// REST API. Authentication is an API-key query parameter rather than a
// header.
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
		DisplayName:            "Google Gemini",
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
	if extra, ok := llm.GetProviderOption[map[string]string](c.cfg, "google", "extraHeaders"); ok {
		return extra
	}
	return nil
}

func (c *Client) endpointWithKey(path string) string {
	prefix := c.cfg.EndpointPrefix
	if prefix == "" {
		prefix = c.cfg.BaseURL
	}
	sep := "?"
	if containsQuery(path) {
		sep = "&"
	}
	return prefix + path + sep + "key=" + c.cfg.APIKey
}

func containsQuery(path string) bool {
	for i := 0; i < len(path); i++ {
		if path[i] == '?' {
			return true
		}
	}
	return false
}

func (c *Client) Chat(ctx context.Context, messages []llm.ChatMessage, cfg llm.LLMConfig, cancel *llm.CancelToken) (llm.ChatResponseWithAssistantMessage, error) {
	body, err := buildRequestBody(cfg, messages)
	if err != nil {
		return llm.ChatResponseWithAssistantMessage{}, err
	}
	path := "/models/" + cfg.Model + ":generateContent"
	resp, err := c.transport.PostJSON(ctx, c.endpointWithKey(path), c.headers(), body, cancel)
	if err != nil {
		return llm.ChatResponseWithAssistantMessage{}, wrapProviderErr(err)
	}
	return parseResponse(resp)
}

func (c *Client) ChatStreamParts(ctx context.Context, messages []llm.ChatMessage, cfg llm.LLMConfig, cancel *llm.CancelToken) (llm.StreamParts, error) {
	body, err := buildRequestBody(cfg, messages)
	if err != nil {
		return nil, err
	}
	path := "/models/" + cfg.Model + ":streamGenerateContent?alt=sse"
	rc, err := c.transport.PostStream(ctx, c.endpointWithKey(path), c.headers(), body, cancel)
	if err != nil {
		return nil, wrapProviderErr(err)
	}
	return transport.PumpParts(rc, newStreamState()), nil
}

func (c *Client) Embed(ctx context.Context, inputs []string, cfg llm.LLMConfig, cancel *llm.CancelToken) ([]capability.EmbeddingResult, *llm.Usage, error) {
	requests := make([]map[string]any, 0, len(inputs))
	for _, input := range inputs {
		req := map[string]any{
			"model":   "models/" + cfg.Model,
			"content": map[string]any{"parts": []map[string]any{{"text": input}}},
		}
		if taskType, ok := llm.GetProviderOption[string](cfg, "google", "embeddingTaskType"); ok {
			req["taskType"] = taskType
		}
		if title, ok := llm.GetProviderOption[string](cfg, "google", "embeddingTitle"); ok {
			req["title"] = title
		}
		if dims, ok := llm.GetProviderOption[int](cfg, "google", "embeddingDimensions"); ok {
			req["outputDimensionality"] = dims
		}
		requests = append(requests, req)
	}
	body, err := json.Marshal(map[string]any{"requests": requests})
	if err != nil {
		return nil, nil, llm.NewError(llm.KindJSON, "encode embedContent request: %v", err).WithCause(err)
	}
	path := "/models/" + cfg.Model + ":batchEmbedContents"
	resp, err := c.transport.PostJSON(ctx, c.endpointWithKey(path), c.headers(), body, cancel)
	if err != nil {
		return nil, nil, wrapProviderErr(err)
	}

	embeddings := gjson.GetBytes(resp, "embeddings")
	if !embeddings.Exists() {
		return nil, nil, llm.NewError(llm.KindResponseFormat, "batchEmbedContents response missing embeddings").WithProvider(ProviderID)
	}
	results := make([]capability.EmbeddingResult, 0, len(embeddings.Array()))
	for i, item := range embeddings.Array() {
		vec := item.Get("values").Array()
		floats := make([]float64, len(vec))
		for j, v := range vec {
			floats[j] = v.Float()
		}
		results = append(results, capability.EmbeddingResult{Index: i, Embedding: floats})
	}
	return results, nil, nil
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
