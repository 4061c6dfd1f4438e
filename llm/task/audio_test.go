package task

import (
	"context"
	"testing"

	"github.com/dshills/llmcore/llm"
	"github.com/dshills/llmcore/llm/capability"
)

type stubAudio struct {
	speech  capability.GeneratedAudio
	trans   capability.Transcription
	gotMIME string
}

func (s *stubAudio) Supports(c capability.Capability) bool { return true }

func (s *stubAudio) GenerateSpeech(ctx context.Context, text string, cfg llm.LLMConfig, cancel *llm.CancelToken) (capability.GeneratedAudio, error) {
	return s.speech, nil
}

func (s *stubAudio) StreamSpeech(ctx context.Context, text string, cfg llm.LLMConfig, cancel *llm.CancelToken) (<-chan []byte, error) {
	out := make(chan []byte, 1)
	out <- []byte(text)
	close(out)
	return out, nil
}

func (s *stubAudio) Transcribe(ctx context.Context, audio []byte, mimeType string, cfg llm.LLMConfig, cancel *llm.CancelToken) (capability.Transcription, error) {
	s.gotMIME = mimeType
	return s.trans, nil
}

func (s *stubAudio) TranslateAudio(ctx context.Context, audio []byte, mimeType string, cfg llm.LLMConfig, cancel *llm.CancelToken) (capability.Transcription, error) {
	return s.trans, nil
}

func TestGenerateSpeech_ReturnsGeneratedAudio(t *testing.T) {
	a := &stubAudio{speech: capability.GeneratedAudio{MIME: "audio/mpeg", Bytes: []byte{1, 2, 3}}}
	got, err := GenerateSpeech(context.Background(), "hello", llm.LLMConfig{}, a, nil)
	if err != nil || got.MIME != "audio/mpeg" {
		t.Fatalf("unexpected result: %+v, %v", got, err)
	}
}

func TestTranscribe_ForwardsMIMEType(t *testing.T) {
	a := &stubAudio{trans: capability.Transcription{Text: "hello world"}}
	got, err := Transcribe(context.Background(), []byte{0xff}, "audio/wav", llm.LLMConfig{}, a, nil)
	if err != nil || got.Text != "hello world" {
		t.Fatalf("unexpected result: %+v, %v", got, err)
	}
	if a.gotMIME != "audio/wav" {
		t.Fatalf("expected mime type forwarded, got %q", a.gotMIME)
	}
}
