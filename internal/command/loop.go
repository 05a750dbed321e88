// Package command reads single keystrokes from the operator and
// dispatches loop actions. It also owns the terminal's raw input mode
// (terminal.go), though entering and restoring it is the caller's job.
package command

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/swiftgame/latex-ide/internal/run"
)

const menu = "commands: m=latex  b=bibtex  t=terminal  e=editor  p=pdf viewer  q=quit"

// Raw mode disables signal generation, so interrupt keys arrive as
// plain control bytes and are treated as quit.
const (
	keyInterrupt = 0x03 // Ctrl-C
	keyEOT       = 0x04 // Ctrl-D
)

// Launchers starts the companion tools behind the t/e/p keys.
type Launchers interface {
	Terminal()
	Editor()
	Viewer()
}

// Loop owns the interactive menu, reading keys one byte at a time.
type Loop struct {
	in         io.Reader
	out        io.Writer
	dispatcher *run.Dispatcher
	launcher   Launchers
}

// New creates a command loop reading keys from in.
func New(in io.Reader, out io.Writer, dispatcher *run.Dispatcher, launcher Launchers) *Loop {
	return &Loop{
		in:         in,
		out:        out,
		dispatcher: dispatcher,
		launcher:   launcher,
	}
}

// Run dispatches keystrokes until a quit key or the reader closes.
func (l *Loop) Run(ctx context.Context) error {
	fmt.Fprintln(l.out, menu)

	buf := make([]byte, 1)
	for ctx.Err() == nil {
		n, err := l.in.Read(buf)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read key: %w", err)
		}
		if n == 0 {
			continue
		}

		if quit := l.handleKey(ctx, buf[0]); quit {
			return nil
		}
	}
	return ctx.Err()
}

// handleKey runs one menu action synchronously; reports true on quit.
func (l *Loop) handleKey(ctx context.Context, key byte) bool {
	switch key {
	case 'q', keyInterrupt, keyEOT:
		return true
	case 'm':
		l.dispatcher.Submit(ctx, run.KindBuild)
	case 'b':
		l.dispatcher.Submit(ctx, run.KindBibliography)
	case 't':
		l.launcher.Terminal()
	case 'e':
		l.launcher.Editor()
	case 'p':
		l.launcher.Viewer()
	default:
		fmt.Fprintf(l.out, "unknown command '%c'\n", key)
	}
	return false
}
