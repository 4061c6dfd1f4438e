package persist

import (
	"context"
	"errors"
	"testing"

	"github.com/dshills/llmcore/llm"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_AppendTurn_AssignsIncreasingSequenceNumbers(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seq1, err := store.AppendTurn(ctx, "conv-1", llm.ChatMessage{Role: llm.RoleUser, ContentText: "hi"})
	if err != nil {
		t.Fatalf("AppendTurn failed: %v", err)
	}
	seq2, err := store.AppendTurn(ctx, "conv-1", llm.ChatMessage{Role: llm.RoleAssistant, ContentText: "hello"})
	if err != nil {
		t.Fatalf("AppendTurn failed: %v", err)
	}
	if seq1 != 1 || seq2 != 2 {
		t.Fatalf("expected sequence 1, 2, got %d, %d", seq1, seq2)
	}
}

func TestSQLiteStore_LoadConversation_ReturnsTurnsInOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, _ = store.AppendTurn(ctx, "conv-1", llm.ChatMessage{Role: llm.RoleUser, ContentText: "first"})
	_, _ = store.AppendTurn(ctx, "conv-1", llm.ChatMessage{Role: llm.RoleAssistant, ContentText: "second"})

	turns, err := store.LoadConversation(ctx, "conv-1")
	if err != nil {
		t.Fatalf("LoadConversation failed: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].Seq != 1 || turns[0].Message.ContentText != "first" {
		t.Fatalf("unexpected first turn: %+v", turns[0])
	}
	if turns[1].Seq != 2 || turns[1].Message.ContentText != "second" {
		t.Fatalf("unexpected second turn: %+v", turns[1])
	}
}

func TestSQLiteStore_LoadConversation_ReturnsErrNotFoundWhenEmpty(t *testing.T) {
	store := newTestStore(t)
	_, err := store.LoadConversation(context.Background(), "nonexistent")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteStore_DeleteConversation_RemovesTurns(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, _ = store.AppendTurn(ctx, "conv-1", llm.ChatMessage{Role: llm.RoleUser, ContentText: "hi"})
	if err := store.DeleteConversation(ctx, "conv-1"); err != nil {
		t.Fatalf("DeleteConversation failed: %v", err)
	}
	_, err := store.LoadConversation(ctx, "conv-1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestSQLiteStore_DeleteConversation_NonexistentIsNotAnError(t *testing.T) {
	store := newTestStore(t)
	if err := store.DeleteConversation(context.Background(), "never-existed"); err != nil {
		t.Fatalf("expected no error deleting nonexistent conversation, got %v", err)
	}
}

func TestSQLiteStore_Conversations_AreIsolatedByID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, _ = store.AppendTurn(ctx, "conv-a", llm.ChatMessage{Role: llm.RoleUser, ContentText: "a"})
	_, _ = store.AppendTurn(ctx, "conv-b", llm.ChatMessage{Role: llm.RoleUser, ContentText: "b"})

	turnsA, err := store.LoadConversation(ctx, "conv-a")
	if err != nil {
		t.Fatalf("LoadConversation(conv-a) failed: %v", err)
	}
	if len(turnsA) != 1 || turnsA[0].Message.ContentText != "a" {
		t.Fatalf("unexpected conv-a turns: %+v", turnsA)
	}
}

func TestSQLiteStore_Close_IsIdempotentAndRejectsFurtherUse(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("first Close failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("second Close should be a no-op, got: %v", err)
	}
	if _, err := store.AppendTurn(context.Background(), "conv-1", llm.ChatMessage{Role: llm.RoleUser}); err == nil {
		t.Fatal("expected AppendTurn to fail after Close")
	}
}
