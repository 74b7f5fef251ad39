package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newTestQueue(t *testing.T, deadLetterKey string) (*Queue, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	q, err := NewQueue(Config{
		Addr:          mr.Addr(),
		Key:           "changes",
		DeadLetterKey: deadLetterKey,
		BlockTimeout:  time.Second,
	})
	if err != nil {
		t.Fatalf("new queue: %v", err)
	}
	t.Cleanup(func() { q.Close() })
	return q, mr
}

func TestNewQueueRequiresKey(t *testing.T) {
	if _, err := NewQueue(Config{Addr: "127.0.0.1:6379"}); err == nil {
		t.Fatalf("expected error for empty key")
	}
}

func TestPushPopFIFO(t *testing.T) {
	q, _ := newTestQueue(t, "")
	ctx := context.Background()

	for _, p := range []string{"first", "second"} {
		if err := q.Push(ctx, []byte(p)); err != nil {
			t.Fatalf("push %s: %v", p, err)
		}
	}
	for _, want := range []string{"first", "second"} {
		got, err := q.Pop(ctx)
		if err != nil {
			t.Fatalf("pop: %v", err)
		}
		if string(got) != want {
			t.Fatalf("expected %q, got %q", want, got)
		}
	}
}

func TestPopTimeoutReturnsNil(t *testing.T) {
	q, _ := newTestQueue(t, "")
	got, err := q.Pop(context.Background())
	if err != nil {
		t.Fatalf("pop: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil payload on timeout, got %q", got)
	}
}

func TestDeadLetter(t *testing.T) {
	q, mr := newTestQueue(t, "changes:dead")
	if err := q.DeadLetter(context.Background(), []byte("bad")); err != nil {
		t.Fatalf("dead letter: %v", err)
	}
	items, err := mr.List("changes:dead")
	if err != nil {
		t.Fatalf("read dead letter list: %v", err)
	}
	if len(items) != 1 || items[0] != "bad" {
		t.Fatalf("unexpected dead letters: %v", items)
	}
}

func TestDeadLetterWithoutKeyIsNoop(t *testing.T) {
	q, mr := newTestQueue(t, "")
	if err := q.DeadLetter(context.Background(), []byte("bad")); err != nil {
		t.Fatalf("dead letter: %v", err)
	}
	if keys := mr.Keys(); len(keys) != 0 {
		t.Fatalf("expected no keys written, got %v", keys)
	}
}
