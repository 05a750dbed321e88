// Package watch triggers builds when the main source file is replaced on
// disk.
package watch

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/swiftgame/latex-ide/internal/logger"
	"github.com/swiftgame/latex-ide/internal/run"
)

// replaceOps are the operations an editor's durable save produces on the
// watched path. Most editors write a temp file and move it into place,
// which shows up as a rename or remove of the original inode; plain
// writes are accepted too.
const replaceOps = fsnotify.Rename | fsnotify.Remove | fsnotify.Create | fsnotify.Write

// settleDelay absorbs the burst of operations a single save can produce
// (truncate then write, rename then chmod) so one save triggers one
// build rather than one per operation.
const settleDelay = 50 * time.Millisecond

// Watcher re-arms a one-shot watch on a single file and submits a build
// for every replace event. Replacing a file invalidates an inode-based
// watch, so the watch is torn down and recreated around every build
// rather than held as a long-lived subscription.
//
// The cycle has two states: Idle (watch armed, waiting for an event) and
// Building (no watch armed, build in flight). A save landing while a
// build runs is not observed; the newest on-disk state is picked up by
// the operator's next save.
type Watcher struct {
	path       string
	dispatcher *run.Dispatcher
}

// New creates a watcher for path, feeding builds through dispatcher.
func New(path string, dispatcher *run.Dispatcher) *Watcher {
	return &Watcher{
		path:       path,
		dispatcher: dispatcher,
	}
}

// Run drives the Idle/Building cycle until ctx is cancelled. The first
// build fires immediately; there is no real event to respond to yet.
func (w *Watcher) Run(ctx context.Context) error {
	log := logger.GetLogger()

	w.dispatcher.Submit(ctx, run.KindBuild)

	for ctx.Err() == nil {
		if err := w.waitForReplace(ctx); err != nil {
			return err
		}
		if ctx.Err() != nil {
			break
		}

		log.Debug().Str("file", w.path).Msg("source file replaced")
		w.dispatcher.Submit(ctx, run.KindBuild)
	}
	return ctx.Err()
}

// waitForReplace arms a fresh watch, blocks for one matching event, and
// tears the watch down again. Watcher errors are logged, not fatal.
func (w *Watcher) waitForReplace(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.path); err != nil {
		return fmt.Errorf("watch %s: %w", w.path, err)
	}

	log := logger.GetLogger()
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Op&replaceOps == 0 {
				continue
			}
			return w.settle(ctx, fsw)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Str("file", w.path).Msg("watcher error")
		}
	}
}

// settle drains follow-up events for a short window after the first
// matching one, coalescing a multi-operation save into a single firing.
func (w *Watcher) settle(ctx context.Context, fsw *fsnotify.Watcher) error {
	timer := time.NewTimer(settleDelay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
			return nil
		case _, ok := <-fsw.Events:
			if !ok {
				return nil
			}
		case _, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
		}
	}
}
