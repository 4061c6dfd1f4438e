// Package persist provides optional conversation-history persistence: a
// ConversationStore saves and replays the ChatMessage turns a tool-loop or
// task-facade call accumulates, keyed by an application-chosen conversation
// id. This is orthogonal to the core orchestration layer, which never
// persists anything itself; callers that want resumable conversations wire
// a ConversationStore in front of the toolloop/task entry points.
package persist

import (
	"context"
	"errors"
	"time"

	"github.com/dshills/llmcore/llm"
)

// ErrNotFound is returned when a requested conversation id does not exist.
var ErrNotFound = errors.New("conversation not found")

// Turn is one persisted message within a conversation, alongside the
// sequence number it was appended at.
type Turn struct {
	Seq       int
	Message   llm.ChatMessage
	CreatedAt time.Time
}

// ConversationStore persists and replays conversation history across
// process restarts. Implementations must be safe for concurrent use.
type ConversationStore interface {
	// AppendTurn appends message to the conversation's history and returns
	// its assigned sequence number (1-indexed, monotonically increasing per
	// conversation).
	AppendTurn(ctx context.Context, conversationID string, message llm.ChatMessage) (seq int, err error)

	// LoadConversation returns every persisted turn for conversationID in
	// sequence order. Returns ErrNotFound if the conversation has no turns.
	LoadConversation(ctx context.Context, conversationID string) ([]Turn, error)

	// DeleteConversation removes all persisted turns for conversationID. It
	// is not an error to delete a conversation that does not exist.
	DeleteConversation(ctx context.Context, conversationID string) error

	// Close releases any resources (connections, file handles) held by the
	// store.
	Close() error
}
