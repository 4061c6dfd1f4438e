package emit

import (
	"context"
	"errors"
)

// NullEmitter discards all events. Zero overhead, safe for concurrent use.
//
// Use it to disable observability without threading nil-checks through
// every call site.
type NullEmitter struct{}

// NewNullEmitter creates a NullEmitter.
func NewNullEmitter() *NullEmitter {
	return &NullEmitter{}
}

// Emit discards the event.
func (n *NullEmitter) Emit(event Event) {}

// EmitBatch discards the events and always succeeds.
func (n *NullEmitter) EmitBatch(_ context.Context, events []Event) error {
	return nil
}

// Flush is a no-op.
func (n *NullEmitter) Flush(_ context.Context) error {
	return nil
}

// MultiEmitter fans events out to every wrapped Emitter in order.
//
// Individual EmitBatch/Flush failures are collected and joined; one
// failing backend does not stop delivery to the others.
type MultiEmitter struct {
	emitters []Emitter
}

// NewMultiEmitter fans out to the given emitters, in order.
func NewMultiEmitter(emitters ...Emitter) *MultiEmitter {
	return &MultiEmitter{emitters: emitters}
}

// Emit forwards the event to every wrapped emitter.
func (m *MultiEmitter) Emit(event Event) {
	for _, e := range m.emitters {
		e.Emit(event)
	}
}

// EmitBatch forwards the batch to every wrapped emitter, collecting errors.
func (m *MultiEmitter) EmitBatch(ctx context.Context, events []Event) error {
	var errs []error
	for _, e := range m.emitters {
		if err := e.EmitBatch(ctx, events); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Flush flushes every wrapped emitter, collecting errors.
func (m *MultiEmitter) Flush(ctx context.Context) error {
	var errs []error
	for _, e := range m.emitters {
		if err := e.Flush(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
