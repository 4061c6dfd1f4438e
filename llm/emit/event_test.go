package emit

import (
	"testing"
)

func TestEvent_Struct(t *testing.T) {
	t.Run("complete event with all fields", func(t *testing.T) {
		event := Event{
			CallID:   "call-001",
			Step:     3,
			Provider: "openai",
			Msg:      "stream_part",
			Meta: map[string]any{
				"duration_ms": 125,
				"part_type":   "TextDelta",
			},
		}

		if event.CallID != "call-001" {
			t.Errorf("expected CallID = 'call-001', got %q", event.CallID)
		}
		if event.Step != 3 {
			t.Errorf("expected Step = 3, got %d", event.Step)
		}
		if event.Provider != "openai" {
			t.Errorf("expected Provider = 'openai', got %q", event.Provider)
		}
		if event.Msg != "stream_part" {
			t.Errorf("expected Msg = 'stream_part', got %q", event.Msg)
		}
		if event.Meta["duration_ms"] != 125 {
			t.Errorf("expected Meta['duration_ms'] = 125, got %v", event.Meta["duration_ms"])
		}
	})

	t.Run("minimal event", func(t *testing.T) {
		event := Event{
			CallID: "call-002",
			Msg:    "request_built",
		}

		if event.Step != 0 {
			t.Errorf("expected Step = 0 (zero value), got %d", event.Step)
		}
		if event.Provider != "" {
			t.Errorf("expected Provider = \"\" (zero value), got %q", event.Provider)
		}
		if event.Meta != nil {
			t.Error("expected Meta = nil (zero value)")
		}
	})

	t.Run("zero value event", func(t *testing.T) {
		var event Event

		if event.CallID != "" {
			t.Errorf("expected zero value CallID, got %q", event.CallID)
		}
		if event.Step != 0 {
			t.Errorf("expected zero value Step, got %d", event.Step)
		}
		if event.Provider != "" {
			t.Errorf("expected zero value Provider, got %q", event.Provider)
		}
		if event.Msg != "" {
			t.Errorf("expected zero value Msg, got %q", event.Msg)
		}
		if event.Meta != nil {
			t.Error("expected zero value Meta to be nil")
		}
	})
}

func TestEvent_UseCases(t *testing.T) {
	t.Run("request built event", func(t *testing.T) {
		event := Event{
			CallID:   "call-001",
			Provider: "anthropic",
			Msg:      "request_built",
			Meta: map[string]any{
				"model": "claude-sonnet-4",
			},
		}

		if event.Meta["model"] != "claude-sonnet-4" {
			t.Errorf("expected model = 'claude-sonnet-4', got %v", event.Meta["model"])
		}
	})

	t.Run("tool invoked event", func(t *testing.T) {
		event := Event{
			CallID:   "call-001",
			Step:     2,
			Provider: "openai",
			Msg:      "tool_invoked",
			Meta: map[string]any{
				"tool": "get_weather",
			},
		}

		if event.Meta["tool"] != "get_weather" {
			t.Errorf("expected tool = 'get_weather', got %v", event.Meta["tool"])
		}
	})

	t.Run("error event", func(t *testing.T) {
		event := Event{
			CallID: "call-001",
			Step:   1,
			Msg:    "tool_loop_blocked",
			Meta: map[string]any{
				"error": "approval required",
			},
		}

		if event.Meta["error"] != "approval required" {
			t.Errorf("expected error = 'approval required', got %v", event.Meta["error"])
		}
	})
}
