// Package elevenlabs adapts ElevenLabs's text-to-speech and speech-to-text
// REST surface (§6) to the Tts/Stt capability interfaces.
package elevenlabs

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
	ProviderID      = "elevenlabs"
	DefaultBaseURL  = "https://api.elevenlabs.io/v1"
	DefaultModel    = "eleven_multilingual_v2"
	DefaultSTTModel = "scribe_v1"
	defaultVoiceID  = "21m00Tcm4TlvDq8ikWAM" // ElevenLabs' public "Rachel" demo voice
)

// Client implements the Tts/Stt capabilities over ElevenLabs's REST API.
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
		DisplayName:            "ElevenLabs",
		RequiredAPIKey:         true,
		DefaultBaseURL:         DefaultBaseURL,
		DefaultModel:           DefaultModel,
		BestEffortCapabilities: []capability.Capability{capability.Tts, capability.Stt},
		Create:                 func(cfg llm.LLMConfig) (any, error) { return New(cfg, t), nil },
	}
}

func (c *Client) Supports(want capability.Capability) bool {
	return want == capability.Tts || want == capability.Stt
}

func (c *Client) headers() map[string]string {
	h := map[string]string{"xi-api-key": c.cfg.APIKey}
	if extra, ok := llm.GetProviderOption[map[string]string](c.cfg, "elevenlabs", "extraHeaders"); ok {
		for k, v := range extra {
			h[k] = v
		}
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

func (c *Client) voiceID() string {
	if v, ok := llm.GetProviderOption[string](c.cfg, "elevenlabs", "voiceId"); ok && v != "" {
		return v
	}
	return defaultVoiceID
}

func (c *Client) voiceSettings() map[string]any {
	settings := map[string]any{}
	if v, ok := llm.GetProviderOption[float64](c.cfg, "elevenlabs", "stability"); ok {
		settings["stability"] = v
	}
	if v, ok := llm.GetProviderOption[float64](c.cfg, "elevenlabs", "similarityBoost"); ok {
		settings["similarity_boost"] = v
	}
	if v, ok := llm.GetProviderOption[float64](c.cfg, "elevenlabs", "style"); ok {
		settings["style"] = v
	}
	if v, ok := llm.GetProviderOption[bool](c.cfg, "elevenlabs", "useSpeakerBoost"); ok {
		settings["use_speaker_boost"] = v
	}
	if len(settings) == 0 {
		return nil
	}
	return settings
}

func (c *Client) GenerateSpeech(ctx context.Context, text string, cfg llm.LLMConfig, cancel *llm.CancelToken) (capability.GeneratedAudio, error) {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	body := map[string]any{"text": text, "model_id": model}
	if settings := c.voiceSettings(); settings != nil {
		body["voice_settings"] = settings
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return capability.GeneratedAudio{}, llm.NewError(llm.KindJSON, "encode tts request: %v", err).WithCause(err)
	}
	audio, err := c.transport.PostRawBytes(ctx, c.endpoint("/text-to-speech/"+c.voiceID()), c.headers(), payload, cancel)
	if err != nil {
		return capability.GeneratedAudio{}, wrapProviderErr(err)
	}
	return capability.GeneratedAudio{MIME: "audio/mpeg", Bytes: audio}, nil
}

func (c *Client) StreamSpeech(ctx context.Context, text string, cfg llm.LLMConfig, cancel *llm.CancelToken) (<-chan []byte, error) {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	body := map[string]any{"text": text, "model_id": model}
	if settings := c.voiceSettings(); settings != nil {
		body["voice_settings"] = settings
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, llm.NewError(llm.KindJSON, "encode tts request: %v", err).WithCause(err)
	}
	rc, err := c.transport.PostStream(ctx, c.endpoint("/text-to-speech/"+c.voiceID()+"/stream"), c.headers(), payload, cancel)
	if err != nil {
		return nil, wrapProviderErr(err)
	}

	out := make(chan []byte)
	go func() {
		defer close(out)
		defer rc.Close()
		buf := make([]byte, 4096)
		for {
			n, err := rc.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				out <- chunk
			}
			if err != nil {
				return
			}
		}
	}()
	return out, nil
}

func (c *Client) Transcribe(ctx context.Context, audio []byte, mimeType string, cfg llm.LLMConfig, cancel *llm.CancelToken) (capability.Transcription, error) {
	model := cfg.Model
	if model == "" {
		model = DefaultSTTModel
	}
	resp, err := c.transport.PostForm(ctx, c.endpoint("/speech-to-text"), c.headers(), map[string]string{"model_id": model}, "file", "audio"+extFromMIME(mimeType), audio, cancel)
	if err != nil {
		return capability.Transcription{}, wrapProviderErr(err)
	}
	return capability.Transcription{
		Text:     gjson.GetBytes(resp, "text").String(),
		Language: gjson.GetBytes(resp, "language_code").String(),
	}, nil
}

// TranslateAudio is not offered by ElevenLabs's REST surface; it has no
// dedicated translation endpoint alongside speech-to-text.
func (c *Client) TranslateAudio(ctx context.Context, audio []byte, mimeType string, cfg llm.LLMConfig, cancel *llm.CancelToken) (capability.Transcription, error) {
	return capability.Transcription{}, llm.NewError(llm.KindUnsupportedCapability, "elevenlabs has no audio translation endpoint").WithProvider(ProviderID)
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
