// Package emit provides pluggable observability for the LLM client core.
//
// The tool-loop engine reports through an Emitter instead of calling a
// concrete logger directly, so callers can route events to stdout, a JSON
// log, or a distributed tracer without the core depending on any of them.
// Request construction and the streaming adapters emit no events.
package emit

// Event represents a single observability event emitted while driving a
// chat/stream/tool-loop call.
//
// Events give visibility into tool-loop progress that the caller would
// otherwise only see as a final Outcome or stream part:
//   - Tool-loop step started (tool_loop_step_start)
//   - Tool invoked (tool_invoked), tools of a step executed
//     (tool_loop_tools_executed)
//   - Loop completed (tool_loop_completed) or blocked on approval
//     (tool_loop_blocked)
type Event struct {
	// CallID identifies the chat/stream/tool-loop invocation that emitted
	// this event. Stable for the lifetime of one call, including every
	// step of a tool loop.
	CallID string

	// Step is the tool-loop step number (0-indexed). Zero for events that
	// are not part of a tool loop.
	Step int

	// Provider is the provider_id that produced or is handling this event.
	// Empty for call-level events that precede provider selection.
	Provider string

	// Msg is a short, stable event name, e.g. "tool_loop_step_start",
	// "tool_invoked", "tool_loop_blocked".
	Msg string

	// Meta contains event-specific structured data. Common keys:
	//   - "model": model name
	//   - "tool": tool name
	//   - "duration_ms": elapsed time for the event's operation
	//   - "error": error message, when Msg signals a failure
	//   - "part_type": the stream.Part concrete type name
	Meta map[string]any
}
