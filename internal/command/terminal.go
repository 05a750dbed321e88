package command

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/term"
)

// EnterRawMode switches f into raw mode when it is a terminal, so keys
// arrive one byte at a time with no line buffering and no local echo.
// The returned restore is idempotent and safe to call from any exit
// path; raw reports whether a mode change actually happened.
//
// The caller owns the terminal state: restore must run before the
// process exits, including the signal path, so it cannot live behind a
// defer inside a goroutine that may be abandoned mid-read.
func EnterRawMode(f *os.File) (restore func(), raw bool, err error) {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return func() {}, false, nil
	}

	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, false, fmt.Errorf("raw mode: %w", err)
	}

	var once sync.Once
	restore = func() {
		once.Do(func() { _ = term.Restore(fd, state) })
	}
	return restore, true, nil
}

// NewCRLFWriter wraps w so every newline is written as "\r\n". Raw mode
// turns off the terminal's output processing, so a bare newline no
// longer returns the cursor to column 0; everything the tool prints
// while the command loop holds the terminal goes through this writer.
// Bytes other than the line terminator pass through untouched.
func NewCRLFWriter(w io.Writer) io.Writer {
	return &crlfWriter{w: w}
}

type crlfWriter struct {
	w io.Writer
}

var crlf = []byte("\r\n")

// Write reports n in terms of the caller's bytes, not the expanded
// stream, per the io.Writer contract.
func (c *crlfWriter) Write(p []byte) (int, error) {
	written := 0
	for len(p) > 0 {
		i := bytes.IndexByte(p, '\n')
		if i < 0 {
			n, err := c.w.Write(p)
			return written + n, err
		}

		n, err := c.w.Write(p[:i])
		written += n
		if err != nil {
			return written, err
		}
		if _, err := c.w.Write(crlf); err != nil {
			return written, err
		}
		written++
		p = p[i+1:]
	}
	return written, nil
}
