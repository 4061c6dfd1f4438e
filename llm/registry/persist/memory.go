package persist

import (
	"context"
	"sync"
	"time"

	"github.com/dshills/llmcore/llm"
)

// MemoryStore is an in-memory ConversationStore. Designed for tests,
// single-process agents, and short-lived sessions where losing history on
// process exit is acceptable; use SQLiteStore or MySQLStore otherwise.
type MemoryStore struct {
	mu     sync.RWMutex
	turns  map[string][]Turn
	closed bool
}

// NewMemoryStore returns an empty, ready-to-use MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{turns: make(map[string][]Turn)}
}

func (m *MemoryStore) AppendTurn(_ context.Context, conversationID string, message llm.ChatMessage) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, llm.NewError(llm.KindInvalidRequest, "store closed")
	}

	seq := len(m.turns[conversationID]) + 1
	m.turns[conversationID] = append(m.turns[conversationID], Turn{
		Seq:       seq,
		Message:   message,
		CreatedAt: time.Now(),
	})
	return seq, nil
}

func (m *MemoryStore) LoadConversation(_ context.Context, conversationID string) ([]Turn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, llm.NewError(llm.KindInvalidRequest, "store closed")
	}

	turns, ok := m.turns[conversationID]
	if !ok || len(turns) == 0 {
		return nil, ErrNotFound
	}
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out, nil
}

func (m *MemoryStore) DeleteConversation(_ context.Context, conversationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return llm.NewError(llm.KindInvalidRequest, "store closed")
	}
	delete(m.turns, conversationID)
	return nil
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
