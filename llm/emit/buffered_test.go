package emit

import (
	"context"
	"testing"
	"time"
)

func TestBufferedEmitter_StoresEvents(t *testing.T) {
	t.Run("stores single event", func(t *testing.T) {
		emitter := NewBufferedEmitter()

		event := Event{
			CallID:   "call-001",
			Step:     1,
			Provider: "openai",
			Msg:      "request_built",
		}

		emitter.Emit(event)

		history := emitter.GetHistory("call-001")
		if len(history) != 1 {
			t.Fatalf("expected 1 event, got %d", len(history))
		}
		if history[0].Provider != "openai" {
			t.Errorf("expected Provider = 'openai', got %q", history[0].Provider)
		}
	})

	t.Run("stores multiple events", func(t *testing.T) {
		emitter := NewBufferedEmitter()

		events := []Event{
			{CallID: "call-001", Step: 0, Provider: "openai", Msg: "request_built"},
			{CallID: "call-001", Step: 0, Provider: "openai", Msg: "stream_part"},
			{CallID: "call-001", Step: 1, Provider: "openai", Msg: "tool_invoked"},
		}

		for _, event := range events {
			emitter.Emit(event)
		}

		history := emitter.GetHistory("call-001")
		if len(history) != 3 {
			t.Fatalf("expected 3 events, got %d", len(history))
		}
	})

	t.Run("isolates events by callID", func(t *testing.T) {
		emitter := NewBufferedEmitter()

		emitter.Emit(Event{CallID: "call-001", Msg: "event1"})
		emitter.Emit(Event{CallID: "call-002", Msg: "event2"})
		emitter.Emit(Event{CallID: "call-001", Msg: "event3"})

		history1 := emitter.GetHistory("call-001")
		history2 := emitter.GetHistory("call-002")

		if len(history1) != 2 {
			t.Errorf("expected 2 events for call-001, got %d", len(history1))
		}
		if len(history2) != 1 {
			t.Errorf("expected 1 event for call-002, got %d", len(history2))
		}
	})

	t.Run("returns empty slice for unknown callID", func(t *testing.T) {
		emitter := NewBufferedEmitter()

		history := emitter.GetHistory("unknown-call")
		if history == nil {
			t.Error("expected empty slice, got nil")
		}
		if len(history) != 0 {
			t.Errorf("expected 0 events, got %d", len(history))
		}
	})

	t.Run("emit batch records in order", func(t *testing.T) {
		emitter := NewBufferedEmitter()

		events := []Event{
			{CallID: "call-001", Msg: "a"},
			{CallID: "call-001", Msg: "b"},
		}
		if err := emitter.EmitBatch(context.Background(), events); err != nil {
			t.Fatalf("EmitBatch failed: %v", err)
		}

		history := emitter.GetHistory("call-001")
		if len(history) != 2 || history[0].Msg != "a" || history[1].Msg != "b" {
			t.Fatalf("expected events in order, got %+v", history)
		}
	})
}

func TestBufferedEmitter_GetHistoryWithFilter(t *testing.T) {
	t.Run("filters by provider", func(t *testing.T) {
		emitter := NewBufferedEmitter()

		events := []Event{
			{CallID: "call-001", Provider: "openai", Msg: "event1"},
			{CallID: "call-001", Provider: "anthropic", Msg: "event2"},
			{CallID: "call-001", Provider: "openai", Msg: "event3"},
		}

		for _, event := range events {
			emitter.Emit(event)
		}

		filter := HistoryFilter{Provider: "openai"}
		history := emitter.GetHistoryWithFilter("call-001", filter)

		if len(history) != 2 {
			t.Fatalf("expected 2 events, got %d", len(history))
		}
		for _, event := range history {
			if event.Provider != "openai" {
				t.Errorf("expected Provider = 'openai', got %q", event.Provider)
			}
		}
	})

	t.Run("filters by message", func(t *testing.T) {
		emitter := NewBufferedEmitter()

		events := []Event{
			{CallID: "call-001", Msg: "stream_part"},
			{CallID: "call-001", Msg: "tool_invoked"},
			{CallID: "call-001", Msg: "stream_part"},
		}

		for _, event := range events {
			emitter.Emit(event)
		}

		filter := HistoryFilter{Msg: "stream_part"}
		history := emitter.GetHistoryWithFilter("call-001", filter)

		if len(history) != 2 {
			t.Fatalf("expected 2 events, got %d", len(history))
		}
		for _, event := range history {
			if event.Msg != "stream_part" {
				t.Errorf("expected Msg = 'stream_part', got %q", event.Msg)
			}
		}
	})

	t.Run("filters by step range", func(t *testing.T) {
		emitter := NewBufferedEmitter()

		events := []Event{
			{CallID: "call-001", Step: 0, Msg: "event0"},
			{CallID: "call-001", Step: 1, Msg: "event1"},
			{CallID: "call-001", Step: 2, Msg: "event2"},
			{CallID: "call-001", Step: 3, Msg: "event3"},
		}

		for _, event := range events {
			emitter.Emit(event)
		}

		minStep := 1
		maxStep := 2
		filter := HistoryFilter{MinStep: &minStep, MaxStep: &maxStep}
		history := emitter.GetHistoryWithFilter("call-001", filter)

		if len(history) != 2 {
			t.Fatalf("expected 2 events, got %d", len(history))
		}
		if history[0].Step != 1 || history[1].Step != 2 {
			t.Error("expected steps 1 and 2")
		}
	})

	t.Run("combines multiple filters", func(t *testing.T) {
		emitter := NewBufferedEmitter()

		events := []Event{
			{CallID: "call-001", Step: 1, Provider: "openai", Msg: "stream_part"},
			{CallID: "call-001", Step: 1, Provider: "anthropic", Msg: "stream_part"},
			{CallID: "call-001", Step: 2, Provider: "openai", Msg: "stream_part"},
			{CallID: "call-001", Step: 1, Provider: "openai", Msg: "request_built"},
		}

		for _, event := range events {
			emitter.Emit(event)
		}

		step := 1
		filter := HistoryFilter{
			Provider: "openai",
			Msg:      "stream_part",
			MinStep:  &step,
			MaxStep:  &step,
		}
		history := emitter.GetHistoryWithFilter("call-001", filter)

		if len(history) != 1 {
			t.Fatalf("expected 1 event, got %d", len(history))
		}
		if history[0].Step != 1 || history[0].Provider != "openai" || history[0].Msg != "stream_part" {
			t.Error("expected event with step=1, provider=openai, msg=stream_part")
		}
	})

	t.Run("empty filter returns all events", func(t *testing.T) {
		emitter := NewBufferedEmitter()

		events := []Event{
			{CallID: "call-001", Msg: "event1"},
			{CallID: "call-001", Msg: "event2"},
			{CallID: "call-001", Msg: "event3"},
		}

		for _, event := range events {
			emitter.Emit(event)
		}

		history := emitter.GetHistoryWithFilter("call-001", HistoryFilter{})

		if len(history) != 3 {
			t.Fatalf("expected 3 events, got %d", len(history))
		}
	})
}

func TestBufferedEmitter_Clear(t *testing.T) {
	t.Run("clears all events for callID", func(t *testing.T) {
		emitter := NewBufferedEmitter()

		emitter.Emit(Event{CallID: "call-001", Msg: "event1"})
		emitter.Emit(Event{CallID: "call-002", Msg: "event2"})

		emitter.Clear("call-001")

		if len(emitter.GetHistory("call-001")) != 0 {
			t.Error("expected 0 events for call-001")
		}
		if len(emitter.GetHistory("call-002")) != 1 {
			t.Error("expected 1 event for call-002")
		}
	})

	t.Run("clears all events when callID is empty", func(t *testing.T) {
		emitter := NewBufferedEmitter()

		emitter.Emit(Event{CallID: "call-001", Msg: "event1"})
		emitter.Emit(Event{CallID: "call-002", Msg: "event2"})

		emitter.Clear("")

		if len(emitter.GetHistory("call-001")) != 0 || len(emitter.GetHistory("call-002")) != 0 {
			t.Error("expected all events to be cleared")
		}
	})
}

func TestBufferedEmitter_ThreadSafety(t *testing.T) {
	t.Run("concurrent emit and read", func(t *testing.T) {
		emitter := NewBufferedEmitter()

		done := make(chan bool)
		for i := 0; i < 10; i++ {
			go func() {
				for j := 0; j < 100; j++ {
					emitter.Emit(Event{CallID: "call-001", Step: j, Msg: "concurrent_event"})
				}
				done <- true
			}()
		}

		readDone := make(chan bool)
		go func() {
			for i := 0; i < 100; i++ {
				emitter.GetHistory("call-001")
				time.Sleep(time.Millisecond)
			}
			readDone <- true
		}()

		for i := 0; i < 10; i++ {
			<-done
		}
		<-readDone

		history := emitter.GetHistory("call-001")
		if len(history) != 1000 {
			t.Errorf("expected 1000 events, got %d", len(history))
		}
	})
}

func TestBufferedEmitter_InterfaceContract(_ *testing.T) {
	var _ Emitter = NewBufferedEmitter()
}
