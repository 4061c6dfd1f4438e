// Package openai adapts the OpenAI Chat Completions/Embeddings/Images/Audio
// REST surface to the capability interfaces, built on
// llm/protocol/openaicompat for request/response shape and a Transport
// collaborator for the HTTP boundary (§6).
package openai

import (
	"context"
	"encoding/json"

	"github.com/dshills/llmcore/llm"
	"github.com/dshills/llmcore/llm/capability"
	"github.com/dshills/llmcore/llm/protocol/openaicompat"
	"github.com/dshills/llmcore/llm/registry"
	"github.com/dshills/llmcore/llm/transport"
	"github.com/tidwall/gjson"
)

const (
	ProviderID     = "openai"
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o"
)

// Client implements the chat/embedding/image/audio capabilities over
// OpenAI's REST API.
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
		DisplayName:    "OpenAI",
		RequiredAPIKey: true,
		DefaultBaseURL: DefaultBaseURL,
		DefaultModel:   DefaultModel,
		BestEffortCapabilities: []capability.Capability{
			capability.Chat, capability.ChatStreamParts, capability.Embedding,
			capability.ImageGen, capability.Tts, capability.Stt, capability.ModelListing,
		},
		Create: func(cfg llm.LLMConfig) (any, error) { return New(cfg, t), nil },
	}
}

func (c *Client) Supports(want capability.Capability) bool {
	switch want {
	case capability.Chat, capability.ChatStreamParts, capability.Embedding,
		capability.ImageGen, capability.Tts, capability.Stt, capability.ModelListing:
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

func (c *Client) Embed(ctx context.Context, inputs []string, cfg llm.LLMConfig, cancel *llm.CancelToken) ([]capability.EmbeddingResult, *llm.Usage, error) {
	body := map[string]any{"model": cfg.Model, "input": inputs}
	if enc, ok := llm.GetProviderOption[string](cfg, "openai", "embeddingEncodingFormat"); ok {
		body["encoding_format"] = enc
	}
	if dims, ok := llm.GetProviderOption[int](cfg, "openai", "embeddingDimensions"); ok {
		body["dimensions"] = dims
	}
	payload, err := jsonMarshal(body)
	if err != nil {
		return nil, nil, err
	}
	resp, err := c.transport.PostJSON(ctx, c.endpoint("/embeddings"), c.headers(), payload, cancel)
	if err != nil {
		return nil, nil, wrapProviderErr(err)
	}

	data := gjson.GetBytes(resp, "data")
	if !data.Exists() {
		return nil, nil, llm.NewError(llm.KindResponseFormat, "embeddings response missing data").WithProvider(ProviderID)
	}
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
			InputTokens:  int(u.Get("prompt_tokens").Int()),
			OutputTokens: int(u.Get("total_tokens").Int() - u.Get("prompt_tokens").Int()),
			TotalTokens:  int(u.Get("total_tokens").Int()),
		}
	}
	return results, usage, nil
}

func (c *Client) GenerateImage(ctx context.Context, prompt string, cfg llm.LLMConfig, cancel *llm.CancelToken) ([]capability.GeneratedImage, error) {
	body := map[string]any{"model": cfg.Model, "prompt": prompt}
	payload, err := jsonMarshal(body)
	if err != nil {
		return nil, err
	}
	resp, err := c.transport.PostJSON(ctx, c.endpoint("/images/generations"), c.headers(), payload, cancel)
	if err != nil {
		return nil, wrapProviderErr(err)
	}

	var images []capability.GeneratedImage
	for _, item := range gjson.GetBytes(resp, "data").Array() {
		images = append(images, capability.GeneratedImage{
			MIME: "image/png",
			URL:  item.Get("url").String(),
		})
	}
	return images, nil
}

func (c *Client) GenerateSpeech(ctx context.Context, text string, cfg llm.LLMConfig, cancel *llm.CancelToken) (capability.GeneratedAudio, error) {
	voice, _ := llm.GetProviderOption[string](cfg, "openai", "voice")
	if voice == "" {
		voice = "alloy"
	}
	body := map[string]any{"model": cfg.Model, "input": text, "voice": voice}
	payload, err := jsonMarshal(body)
	if err != nil {
		return capability.GeneratedAudio{}, err
	}
	audio, err := c.transport.PostRawBytes(ctx, c.endpoint("/audio/speech"), c.headers(), payload, cancel)
	if err != nil {
		return capability.GeneratedAudio{}, wrapProviderErr(err)
	}
	return capability.GeneratedAudio{MIME: "audio/mpeg", Bytes: audio}, nil
}

func (c *Client) StreamSpeech(ctx context.Context, text string, cfg llm.LLMConfig, cancel *llm.CancelToken) (<-chan []byte, error) {
	audio, err := c.GenerateSpeech(ctx, text, cfg, cancel)
	if err != nil {
		return nil, err
	}
	out := make(chan []byte, 1)
	out <- audio.Bytes
	close(out)
	return out, nil
}

func (c *Client) Transcribe(ctx context.Context, audio []byte, mimeType string, cfg llm.LLMConfig, cancel *llm.CancelToken) (capability.Transcription, error) {
	return c.transcribeVia(ctx, "/audio/transcriptions", audio, mimeType, cfg, cancel)
}

func (c *Client) TranslateAudio(ctx context.Context, audio []byte, mimeType string, cfg llm.LLMConfig, cancel *llm.CancelToken) (capability.Transcription, error) {
	return c.transcribeVia(ctx, "/audio/translations", audio, mimeType, cfg, cancel)
}

func (c *Client) transcribeVia(ctx context.Context, path string, audio []byte, mimeType string, cfg llm.LLMConfig, cancel *llm.CancelToken) (capability.Transcription, error) {
	model := cfg.Model
	if model == "" {
		model = "whisper-1"
	}
	resp, err := c.transport.PostForm(ctx, c.endpoint(path), c.headers(), map[string]string{"model": model}, "file", "audio"+extFromMIME(mimeType), audio, cancel)
	if err != nil {
		return capability.Transcription{}, wrapProviderErr(err)
	}
	return capability.Transcription{Text: gjson.GetBytes(resp, "text").String(), Language: gjson.GetBytes(resp, "language").String()}, nil
}

func extFromMIME(mimeType string) string {
	switch mimeType {
	case "audio/mpeg":
		return ".mp3"
	case "audio/wav", "audio/x-wav":
		return ".wav"
	default:
		return ".bin"
	}
}

func (c *Client) ListModels(ctx context.Context, cfg llm.LLMConfig, cancel *llm.CancelToken) ([]capability.ModelInfo, error) {
	resp, err := c.transport.GetJSON(ctx, c.endpoint("/models"), c.headers(), nil, cancel)
	if err != nil {
		return nil, wrapProviderErr(err)
	}
	var models []capability.ModelInfo
	for _, item := range gjson.GetBytes(resp, "data").Array() {
		models = append(models, capability.ModelInfo{ID: item.Get("id").String(), Created: item.Get("created").Int()})
	}
	return models, nil
}

func wrapProviderErr(err error) error {
	var e *llm.Error
	if as, ok := err.(*llm.Error); ok {
		e = as
	} else {
		return err
	}
	if e.Provider == "" {
		return e.WithProvider(ProviderID)
	}
	return e
}

func jsonMarshal(v map[string]any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, llm.NewError(llm.KindJSON, "encode request body: %v", err).WithCause(err)
	}
	return b, nil
}
