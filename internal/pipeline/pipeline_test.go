package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"sentinel/pkg/models"
)

type chanSource struct {
	ch   chan []byte
	mu   sync.Mutex
	dead [][]byte
}

func (s *chanSource) Pop(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case p := <-s.ch:
		return p, nil
	case <-time.After(20 * time.Millisecond):
		return nil, nil
	}
}

func (s *chanSource) DeadLetter(ctx context.Context, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dead = append(s.dead, payload)
	return nil
}

func (s *chanSource) Close() error { return nil }

type recordingHandler struct {
	mu   sync.Mutex
	seen []models.ChangeEvent
	fail map[string]bool
	done chan struct{}
}

func (h *recordingHandler) Handle(ctx context.Context, ev models.ChangeEvent) (*models.Alert, error) {
	h.mu.Lock()
	h.seen = append(h.seen, ev)
	h.mu.Unlock()
	h.done <- struct{}{}
	if h.fail[ev.InteractionID] {
		return nil, errors.New("store unavailable")
	}
	return nil, nil
}

func TestPipelineDispatchesAndDeadLetters(t *testing.T) {
	src := &chanSource{ch: make(chan []byte, 4)}
	h := &recordingHandler{fail: map[string]bool{"bad": true}, done: make(chan struct{}, 4)}
	p := New(src, h, nil, 2)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(ctx) }()

	src.ch <- []byte(`{"user_id":"u1","interaction_id":"ok","after":{"participants":"A"}}`)
	src.ch <- []byte(`garbage`)
	src.ch <- []byte(`{"user_id":"u1","interaction_id":"bad","after":{"participants":"B"}}`)

	for i := 0; i < 2; i++ {
		select {
		case <-h.done:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for handler")
		}
	}
	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Fatalf("unexpected run error: %v", err)
	}

	if len(h.seen) != 2 {
		t.Fatalf("expected 2 handled events, got %d", len(h.seen))
	}
	if len(src.dead) != 1 || string(src.dead[0]) != `{"user_id":"u1","interaction_id":"bad","after":{"participants":"B"}}` {
		t.Fatalf("unexpected dead letters: %q", src.dead)
	}
}
