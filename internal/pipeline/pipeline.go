package pipeline

import (
	"context"
	"sync"
	"time"

	"sentinel/internal/logger"
	"sentinel/internal/metrics"
	"sentinel/internal/transform/change"
)

// Pipeline consumes change events and runs the monitor on each, one
// independent invocation per event.
type Pipeline struct {
	source  Source
	handler Handler
	metrics *metrics.Metrics
	workers int
}

// New creates a pipeline with the given worker count.
func New(source Source, handler Handler, m *metrics.Metrics, workers int) *Pipeline {
	return &Pipeline{
		source:  source,
		handler: handler,
		metrics: m,
		workers: workers,
	}
}

// Run starts the pipeline and blocks until ctx is cancelled and in-flight
// evaluations have finished.
func (p *Pipeline) Run(ctx context.Context) error {
	logger.Infof("Change-feed pipeline started")

	if p.workers <= 0 {
		p.workers = 8
	}

	msgCh := make(chan []byte, p.workers*4)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		p.readLoop(ctx, msgCh)
		close(msgCh)
	}()

	// Evaluations already dequeued run to completion on shutdown.
	workCtx := context.WithoutCancel(ctx)
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.workerLoop(workCtx, msgCh)
		}()
	}

	<-ctx.Done()
	wg.Wait()
	return ctx.Err()
}

// Close releases pipeline resources.
func (p *Pipeline) Close() error {
	if p.source != nil {
		return p.source.Close()
	}
	return nil
}

func (p *Pipeline) readLoop(ctx context.Context, out chan<- []byte) {
	for {
		payload, err := p.source.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Errorf("Failed to pop change event: %v", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(500 * time.Millisecond):
			}
			continue
		}
		if payload == nil {
			if ctx.Err() != nil {
				return
			}
			continue
		}
		select {
		case out <- payload:
		case <-ctx.Done():
			return
		}
	}
}

func (p *Pipeline) workerLoop(ctx context.Context, in <-chan []byte) {
	for payload := range in {
		p.process(ctx, payload)
	}
}

func (p *Pipeline) process(ctx context.Context, payload []byte) {
	ev, err := change.Parse(payload)
	if err != nil {
		p.metrics.ObserveDropped()
		logger.Warnf("Failed to decode change event: %v", err)
		return
	}

	if _, err := p.handler.Handle(ctx, *ev); err != nil {
		logger.With("user", ev.UserID, "interaction", ev.InteractionID).Errorf("Evaluation failed: %v", err)
		if dlErr := p.source.DeadLetter(ctx, payload); dlErr != nil {
			logger.Errorf("Failed to dead-letter change event: %v", dlErr)
		}
	}
}
