package task

import (
	"context"

	"github.com/dshills/llmcore/llm"
	"github.com/dshills/llmcore/llm/capability"
)

// GenerateSpeech synthesizes speech audio from text.
func GenerateSpeech(ctx context.Context, text string, cfg llm.LLMConfig, tts capability.TtsCapability, cancel *llm.CancelToken) (capability.GeneratedAudio, error) {
	return tts.GenerateSpeech(ctx, text, cfg, cancel)
}

// StreamSpeech synthesizes speech audio from text as a byte-chunk stream.
func StreamSpeech(ctx context.Context, text string, cfg llm.LLMConfig, tts capability.TtsCapability, cancel *llm.CancelToken) (<-chan []byte, error) {
	return tts.StreamSpeech(ctx, text, cfg, cancel)
}

// Transcribe performs speech-to-text recognition in the audio's own
// language.
func Transcribe(ctx context.Context, audio []byte, mimeType string, cfg llm.LLMConfig, stt capability.SttCapability, cancel *llm.CancelToken) (capability.Transcription, error) {
	return stt.Transcribe(ctx, audio, mimeType, cfg, cancel)
}

// TranslateAudio performs speech-to-text recognition with translation into
// the target language implied by cfg (provider-specific).
func TranslateAudio(ctx context.Context, audio []byte, mimeType string, cfg llm.LLMConfig, stt capability.SttCapability, cancel *llm.CancelToken) (capability.Transcription, error) {
	return stt.TranslateAudio(ctx, audio, mimeType, cfg, cancel)
}
