package llm

import (
	"sync"
	"testing"
	"time"
)

func TestCancelToken_CancelIsIdempotent(t *testing.T) {
	tok := NewCancelToken()

	calls := 0
	tok.OnCancel(func(reason string) { calls++ })

	tok.Cancel("first")
	tok.Cancel("second")

	if calls != 1 {
		t.Errorf("expected callback to run once, ran %d times", calls)
	}
	if tok.Reason() != "first" {
		t.Errorf("expected reason %q to stick, got %q", "first", tok.Reason())
	}
	if !tok.IsCancelled() {
		t.Error("expected token to be cancelled")
	}
}

func TestCancelToken_OnCancelAfterCancelRunsImmediately(t *testing.T) {
	tok := NewCancelToken()
	tok.Cancel("done")

	var gotReason string
	tok.OnCancel(func(reason string) { gotReason = reason })

	if gotReason != "done" {
		t.Errorf("expected late OnCancel to run synchronously with reason %q, got %q", "done", gotReason)
	}
}

func TestCancelToken_Done(t *testing.T) {
	tok := NewCancelToken()

	select {
	case <-tok.Done():
		t.Fatal("expected Done channel to be open before Cancel")
	default:
	}

	tok.Cancel("bye")

	select {
	case <-tok.Done():
	case <-time.After(time.Second):
		t.Fatal("expected Done channel to close after Cancel")
	}
}

func TestCancelToken_Err(t *testing.T) {
	tok := NewCancelToken()
	if err := tok.Err(); err != nil {
		t.Fatalf("expected nil error before cancel, got %v", err)
	}

	tok.Cancel("user requested stop")
	err := tok.Err()
	if err == nil {
		t.Fatal("expected non-nil error after cancel")
	}
	if !IsKind(err, KindCancelled) {
		t.Errorf("expected KindCancelled, got %v", err)
	}
}

func TestCancelToken_ConcurrentCancel(t *testing.T) {
	tok := NewCancelToken()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok.Cancel("race")
		}()
	}
	wg.Wait()

	if !tok.IsCancelled() {
		t.Error("expected token to be cancelled")
	}
}
