// Package emit provides event emission and observability for the LLM
// client core.
package emit

import "context"

// Emitter receives observability events produced while driving a chat,
// stream, or tool-loop call.
//
// Emitters enable pluggable backends: logging, distributed tracing
// (OpenTelemetry), metrics, or in-memory capture for tests. Implementations
// must be non-blocking and safe for concurrent use — a slow or failing
// emitter must never stall or abort the call that is emitting through it.
type Emitter interface {
	// Emit sends a single event. Must not block the caller meaningfully and
	// must not panic; failures should be handled internally (dropped,
	// logged, or buffered for retry).
	Emit(event Event)

	// EmitBatch sends multiple events as one operation, preserving order.
	// Returns an error only for catastrophic, non-per-event failures (e.g.
	// a misconfigured backend); individual event delivery failures should
	// be absorbed rather than returned.
	EmitBatch(ctx context.Context, events []Event) error

	// Flush blocks until all events accepted so far have been delivered to
	// the backend, or ctx is done. Safe to call multiple times. Call before
	// process shutdown to avoid losing buffered events.
	Flush(ctx context.Context) error
}
