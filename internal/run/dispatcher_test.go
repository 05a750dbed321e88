package run

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// countingHandler records work and can detect overlapping execution.
type countingHandler struct {
	builds   atomic.Int32
	bibs     atomic.Int32
	inFlight atomic.Int32
	overlap  atomic.Bool
	delay    time.Duration
	err      error
}

func (h *countingHandler) Build(context.Context) error {
	return h.work(&h.builds)
}

func (h *countingHandler) Bibliography(context.Context) error {
	return h.work(&h.bibs)
}

func (h *countingHandler) work(counter *atomic.Int32) error {
	if h.inFlight.Add(1) > 1 {
		h.overlap.Store(true)
	}
	if h.delay > 0 {
		time.Sleep(h.delay)
	}
	counter.Add(1)
	h.inFlight.Add(-1)
	return h.err
}

func TestDispatcher_SubmitRunsWork(t *testing.T) {
	handler := &countingHandler{}
	d := NewDispatcher(handler)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	d.Submit(ctx, KindBuild)
	d.Submit(ctx, KindBibliography)

	assert.Equal(t, int32(1), handler.builds.Load())
	assert.Equal(t, int32(1), handler.bibs.Load())
}

func TestDispatcher_SubmitWaitsForCompletion(t *testing.T) {
	handler := &countingHandler{delay: 50 * time.Millisecond}
	d := NewDispatcher(handler)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	start := time.Now()
	d.Submit(ctx, KindBuild)

	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond, "Submit returns only after the work is done")
	assert.Equal(t, int32(1), handler.builds.Load())
}

func TestDispatcher_NeverRunsConcurrently(t *testing.T) {
	handler := &countingHandler{delay: 20 * time.Millisecond}
	d := NewDispatcher(handler)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.Submit(ctx, KindBuild)
		}()
	}
	wg.Wait()

	assert.False(t, handler.overlap.Load(), "builds must be serialized")
	assert.Equal(t, int32(5), handler.builds.Load())
}

func TestDispatcher_HandlerErrorStopsLoop(t *testing.T) {
	wantErr := errors.New("spawn failed")
	handler := &countingHandler{err: wantErr}
	d := NewDispatcher(handler)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- d.Run(ctx) }()

	d.Submit(ctx, KindBuild)

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, wantErr)
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not stop on handler error")
	}
}

func TestDispatcher_SubmitReturnsOnCancel(t *testing.T) {
	d := NewDispatcher(&countingHandler{})

	// No Run loop consuming: Submit must still return once the context
	// is cancelled.
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Submit(ctx, KindBuild)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Submit blocked past context cancellation")
	}
}
