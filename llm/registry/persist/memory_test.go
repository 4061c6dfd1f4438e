package persist

import (
	"context"
	"errors"
	"testing"

	"github.com/dshills/llmcore/llm"
)

func TestMemoryStore_AppendAndLoad_RoundTrips(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	seq, err := store.AppendTurn(ctx, "conv-1", llm.ChatMessage{Role: llm.RoleUser, ContentText: "hi"})
	if err != nil {
		t.Fatalf("AppendTurn failed: %v", err)
	}
	if seq != 1 {
		t.Fatalf("expected seq 1, got %d", seq)
	}

	turns, err := store.LoadConversation(ctx, "conv-1")
	if err != nil {
		t.Fatalf("LoadConversation failed: %v", err)
	}
	if len(turns) != 1 || turns[0].Message.ContentText != "hi" {
		t.Fatalf("unexpected turns: %+v", turns)
	}
}

func TestMemoryStore_LoadConversation_ReturnsErrNotFoundWhenEmpty(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.LoadConversation(context.Background(), "nonexistent")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_DeleteConversation_RemovesTurns(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	_, _ = store.AppendTurn(ctx, "conv-1", llm.ChatMessage{Role: llm.RoleUser, ContentText: "hi"})
	if err := store.DeleteConversation(ctx, "conv-1"); err != nil {
		t.Fatalf("DeleteConversation failed: %v", err)
	}
	if _, err := store.LoadConversation(ctx, "conv-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
