package emit

import (
	"context"
	"errors"
	"testing"
)

func TestNullEmitter_NoOp(t *testing.T) {
	t.Run("emits events without error", func(t *testing.T) {
		emitter := NewNullEmitter()

		events := []Event{
			{CallID: "call-001", Step: 0, Provider: "openai", Msg: "request_built"},
			{CallID: "call-001", Step: 0, Provider: "openai", Msg: "stream_part"},
			{CallID: "call-001", Step: 1, Provider: "openai", Msg: "tool_loop_blocked", Meta: map[string]any{"error": "test"}},
		}

		for _, event := range events {
			emitter.Emit(event)
		}
	})

	t.Run("can emit with nil meta", func(t *testing.T) {
		emitter := NewNullEmitter()

		event := Event{
			CallID:   "call-001",
			Step:     0,
			Provider: "openai",
			Msg:      "test",
			Meta:     nil,
		}

		emitter.Emit(event)
	})

	t.Run("emit batch and flush are no-ops", func(t *testing.T) {
		emitter := NewNullEmitter()

		if err := emitter.EmitBatch(context.Background(), []Event{{Msg: "a"}, {Msg: "b"}}); err != nil {
			t.Fatalf("EmitBatch returned error: %v", err)
		}
		if err := emitter.Flush(context.Background()); err != nil {
			t.Fatalf("Flush returned error: %v", err)
		}
	})
}

func TestNullEmitter_InterfaceContract(t *testing.T) {
	var _ Emitter = NewNullEmitter()
}

func TestMultiEmitter_FansOut(t *testing.T) {
	t.Run("forwards to every wrapped emitter", func(t *testing.T) {
		a := &mockEmitter{}
		b := &mockEmitter{}
		multi := NewMultiEmitter(a, b)

		multi.Emit(Event{CallID: "call-001", Msg: "request_built"})

		if len(a.events) != 1 || len(b.events) != 1 {
			t.Fatalf("expected both emitters to receive 1 event, got %d and %d", len(a.events), len(b.events))
		}
	})

	t.Run("emit batch fans out and joins errors", func(t *testing.T) {
		failing := &failingEmitter{err: errTestFlush}
		ok := &mockEmitter{}
		multi := NewMultiEmitter(ok, failing)

		err := multi.EmitBatch(context.Background(), []Event{{Msg: "a"}})
		if err == nil {
			t.Fatal("expected EmitBatch to return an error from the failing emitter")
		}
		if len(ok.events) != 1 {
			t.Errorf("expected the healthy emitter to still receive the batch, got %d events", len(ok.events))
		}
	})

	t.Run("flush fans out and joins errors", func(t *testing.T) {
		failing := &failingEmitter{err: errTestFlush}
		ok := &mockEmitter{}
		multi := NewMultiEmitter(ok, failing)

		if err := multi.Flush(context.Background()); err == nil {
			t.Fatal("expected Flush to return an error from the failing emitter")
		}
	})

	var _ Emitter = NewMultiEmitter()
}

type failingEmitter struct {
	err error
}

func (f *failingEmitter) Emit(event Event) {}

func (f *failingEmitter) EmitBatch(_ context.Context, _ []Event) error {
	return f.err
}

func (f *failingEmitter) Flush(_ context.Context) error {
	return f.err
}

var errTestFlush = errors.New("backend unavailable")
