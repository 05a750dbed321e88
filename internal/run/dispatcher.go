// Package run serializes build requests from the file watcher and the
// command loop into a single worker, so no two typesetting passes ever
// overlap.
package run

import "context"

// Kind selects the work a Request asks for.
type Kind int

const (
	// KindBuild is a single typesetting pass (with its rerun policy).
	KindBuild Kind = iota
	// KindBibliography is a bibliography pass followed by two builds.
	KindBibliography
)

// Request is one unit of work. Done is closed when the work has finished;
// producers that need back-pressure (the watcher) wait on it before
// re-arming their triggers.
type Request struct {
	Kind Kind
	Done chan struct{}
}

// Handler executes the serialized work.
type Handler interface {
	Build(ctx context.Context) error
	Bibliography(ctx context.Context) error
}

// Dispatcher consumes requests one at a time on a single goroutine.
type Dispatcher struct {
	requests chan Request
	handler  Handler
}

// NewDispatcher creates a dispatcher for the given handler. The request
// channel is unbuffered: a producer blocks until the worker is idle, and
// there is no queue for events to pile up in.
func NewDispatcher(handler Handler) *Dispatcher {
	return &Dispatcher{
		requests: make(chan Request),
		handler:  handler,
	}
}

// Submit enqueues a request and waits for it to complete. Returns early
// if ctx is cancelled before the worker picks the request up or finishes
// it.
func (d *Dispatcher) Submit(ctx context.Context, kind Kind) {
	req := Request{Kind: kind, Done: make(chan struct{})}

	select {
	case d.requests <- req:
	case <-ctx.Done():
		return
	}

	select {
	case <-req.Done:
	case <-ctx.Done():
	}
}

// Run consumes requests until ctx is cancelled. A handler error stops the
// loop and is returned: spawn failures of the core tools terminate the
// whole program.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-d.requests:
			err := d.dispatch(ctx, req)
			close(req.Done)
			if err != nil {
				return err
			}
		}
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, req Request) error {
	switch req.Kind {
	case KindBibliography:
		return d.handler.Bibliography(ctx)
	default:
		return d.handler.Build(ctx)
	}
}
