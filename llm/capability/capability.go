// Package capability declares the polymorphic interfaces a provider
// implementation supports. A provider exposes the subset of capabilities
// its backing API offers; callers query support on a best-effort basis
// and must not rely on it to gate requests — the backing API remains the
// source of truth for what actually works.
package capability

import (
	"context"

	"github.com/dshills/llmcore/llm"
	"github.com/dshills/llmcore/llm/prompt"
)

// Capability identifies one entry in the capability set a provider may
// declare support for via Supports.
type Capability int

const (
	Chat Capability = iota
	ChatStream
	ChatStreamParts
	PromptChat
	PromptChatStream
	PromptChatStreamParts
	Embedding
	Rerank
	ImageGen
	Tts
	Stt
	ModelListing
	Moderation
)

// String names a Capability for logging and diagnostics.
func (c Capability) String() string {
	switch c {
	case Chat:
		return "chat"
	case ChatStream:
		return "chat_stream"
	case ChatStreamParts:
		return "chat_stream_parts"
	case PromptChat:
		return "prompt_chat"
	case PromptChatStream:
		return "prompt_chat_stream"
	case PromptChatStreamParts:
		return "prompt_chat_stream_parts"
	case Embedding:
		return "embedding"
	case Rerank:
		return "rerank"
	case ImageGen:
		return "image_gen"
	case Tts:
		return "tts"
	case Stt:
		return "stt"
	case ModelListing:
		return "model_listing"
	case Moderation:
		return "moderation"
	default:
		return "unknown"
	}
}

// Supporter is implemented by every provider capability instance. Supports
// is a best-effort query: a false return means the provider does not
// advertise the capability, not that the call is guaranteed to fail, and a
// true return is not a guarantee of success either. Callers should attempt
// the operation and handle llm.KindUnsupportedCapability on failure rather
// than branching solely on Supports.
type Supporter interface {
	Supports(c Capability) bool
}

// Chat performs a single, non-streaming completion over the legacy flat
// ChatMessage model.
type ChatCapability interface {
	Supporter
	Chat(ctx context.Context, messages []llm.ChatMessage, cfg llm.LLMConfig, cancel *llm.CancelToken) (llm.ChatResponseWithAssistantMessage, error)
}

// ChatStreamCapability performs a streaming completion and returns only the
// final accumulated response; it exists for callers that want streaming
// transport without part-by-part consumption.
type ChatStreamCapability interface {
	Supporter
	ChatStream(ctx context.Context, messages []llm.ChatMessage, cfg llm.LLMConfig, cancel *llm.CancelToken) (llm.ChatResponseWithAssistantMessage, error)
}

// ChatStreamPartsCapability performs a streaming completion and yields the
// unified sequence of stream parts as they arrive. The returned channel is
// lazy, finite, non-restartable, and single-consumer.
type ChatStreamPartsCapability interface {
	Supporter
	ChatStreamParts(ctx context.Context, messages []llm.ChatMessage, cfg llm.LLMConfig, cancel *llm.CancelToken) (llm.StreamParts, error)
}

// PromptChatCapability is the Chat capability over the structured Prompt IR
// instead of the legacy flat message model.
type PromptChatCapability interface {
	Supporter
	PromptChat(ctx context.Context, p prompt.Prompt, cfg llm.LLMConfig, cancel *llm.CancelToken) (llm.ChatResponseWithAssistantMessage, error)
}

// PromptChatStreamCapability is ChatStreamCapability over the Prompt IR.
type PromptChatStreamCapability interface {
	Supporter
	PromptChatStream(ctx context.Context, p prompt.Prompt, cfg llm.LLMConfig, cancel *llm.CancelToken) (llm.ChatResponseWithAssistantMessage, error)
}

// PromptChatStreamPartsCapability is ChatStreamPartsCapability over the
// Prompt IR.
type PromptChatStreamPartsCapability interface {
	Supporter
	PromptChatStreamParts(ctx context.Context, p prompt.Prompt, cfg llm.LLMConfig, cancel *llm.CancelToken) (llm.StreamParts, error)
}

// EmbeddingResult holds one input's embedding vector alongside its source
// index in the request.
type EmbeddingResult struct {
	Index     int
	Embedding []float64
}

// EmbeddingCapability computes vector embeddings for a batch of text inputs.
type EmbeddingCapability interface {
	Supporter
	Embed(ctx context.Context, inputs []string, cfg llm.LLMConfig, cancel *llm.CancelToken) ([]EmbeddingResult, *llm.Usage, error)
}

// RerankResult holds one document's relevance score against a query,
// alongside its original and post-sort positions.
type RerankResult struct {
	Doc            string
	Score          float64
	Index          int
	OriginalIndex  int
}

// RerankCapability scores a set of documents against a query, most relevant
// first.
type RerankCapability interface {
	Supporter
	Rerank(ctx context.Context, query string, documents []string, cfg llm.LLMConfig, cancel *llm.CancelToken) ([]RerankResult, error)
}

// GeneratedImage is one image produced by an ImageGenCapability call.
type GeneratedImage struct {
	MIME  string
	Bytes []byte
	URL   string
}

// ImageGenCapability generates images from a text prompt.
type ImageGenCapability interface {
	Supporter
	GenerateImage(ctx context.Context, prompt string, cfg llm.LLMConfig, cancel *llm.CancelToken) ([]GeneratedImage, error)
}

// GeneratedAudio is the raw output of a TtsCapability call.
type GeneratedAudio struct {
	MIME  string
	Bytes []byte
}

// TtsCapability synthesizes speech audio from text.
type TtsCapability interface {
	Supporter
	GenerateSpeech(ctx context.Context, text string, cfg llm.LLMConfig, cancel *llm.CancelToken) (GeneratedAudio, error)
	StreamSpeech(ctx context.Context, text string, cfg llm.LLMConfig, cancel *llm.CancelToken) (<-chan []byte, error)
}

// Transcription is the result of a speech-to-text call.
type Transcription struct {
	Text     string
	Language string
}

// SttCapability performs speech recognition and translation.
type SttCapability interface {
	Supporter
	Transcribe(ctx context.Context, audio []byte, mimeType string, cfg llm.LLMConfig, cancel *llm.CancelToken) (Transcription, error)
	TranslateAudio(ctx context.Context, audio []byte, mimeType string, cfg llm.LLMConfig, cancel *llm.CancelToken) (Transcription, error)
}

// ModelInfo describes one model entry returned by ModelListingCapability.
type ModelInfo struct {
	ID      string
	Created int64
}

// ModelListingCapability lists the models a provider currently exposes.
type ModelListingCapability interface {
	Supporter
	ListModels(ctx context.Context, cfg llm.LLMConfig, cancel *llm.CancelToken) ([]ModelInfo, error)
}

// ModerationResult is the outcome of a single moderation check.
type ModerationResult struct {
	Flagged    bool
	Categories map[string]bool
}

// ModerationCapability screens text content for policy violations.
type ModerationCapability interface {
	Supporter
	Moderate(ctx context.Context, input string, cfg llm.LLMConfig, cancel *llm.CancelToken) (ModerationResult, error)
}
