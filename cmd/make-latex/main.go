// Package main provides the CLI entry point for make-latex.
//
// make-latex is an interactive LaTeX development loop: it rebuilds the
// document whenever the source file is saved, filters the toolchain log
// down to actionable lines, and offers a single-keystroke menu for
// rebuilds, bibliography passes, and companion tool launches.
//
// Usage:
//
//	make-latex <mainFile> [-b|--bibtex FILE] [extraFiles...]
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/swiftgame/latex-ide/internal/command"
	"github.com/swiftgame/latex-ide/internal/config"
	"github.com/swiftgame/latex-ide/internal/latex"
	"github.com/swiftgame/latex-ide/internal/launch"
	"github.com/swiftgame/latex-ide/internal/logger"
	"github.com/swiftgame/latex-ide/internal/run"
	"github.com/swiftgame/latex-ide/internal/watch"
)

// Version information (set via ldflags during build).
var version = "dev"

func main() {
	os.Exit(realMain())
}

func realMain() int {
	args := os.Args[1:]
	if len(args) == 1 && (args[0] == "-v" || args[0] == "--version") {
		fmt.Printf("make-latex %s\n", version)
		return 0
	}

	cfg, err := config.ParseArgs(args)
	if err != nil {
		var usageErr *config.UsageError
		if errors.As(err, &usageErr) {
			fmt.Fprintf(os.Stderr, "error: %v\n\n", err)
			printUsage()
			return 1
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	logger.Setup(cfg.LogLevel)
	defer logger.Stop()

	fmt.Printf("make-latex: %s -> %s\n", cfg.MainFile, cfg.PDFFile())

	// Raw mode is owned here, not by the command loop: the loop's
	// goroutine can be abandoned while blocked in a read, so a defer
	// inside it would never restore the operator's terminal.
	restoreTerm, rawInput, err := command.EnterRawMode(os.Stdin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	defer restoreTerm()

	out := io.Writer(os.Stdout)
	if rawInput {
		out = command.NewCRLFWriter(os.Stdout)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signals
		cancel()
	}()

	builder := latex.NewBuilder(cfg.Tools, out)
	dispatcher := run.NewDispatcher(&buildHandler{builder: builder, cfg: cfg})
	watcher := watch.New(cfg.MainFile, dispatcher)
	loop := command.New(os.Stdin, out, dispatcher, launch.New(cfg))

	errCh := make(chan error, 3)
	go func() { errCh <- dispatcher.Run(ctx) }()
	go func() { errCh <- watcher.Run(ctx) }()
	go func() { errCh <- loop.Run(ctx) }()

	// First finisher wins: a quit keystroke returns nil, a spawn failure
	// of a core tool returns its error.
	err = <-errCh
	cancel()
	restoreTerm()

	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

// buildHandler adapts the latex builder to the dispatcher's Handler.
type buildHandler struct {
	builder *latex.Builder
	cfg     *config.Config
}

func (h *buildHandler) Build(ctx context.Context) error {
	return h.builder.Build(ctx, h.cfg.MainFile, false)
}

func (h *buildHandler) Bibliography(ctx context.Context) error {
	return h.builder.BuildBibliography(ctx, h.cfg)
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage: make-latex <mainFile> [-b|--bibtex FILE] [extraFiles...]

Options:
  -b, --bibtex FILE   Bibliography file processed by the 'b' command
  --log-level LEVEL   Diagnostic log level (default "warn")
  -v, --version       Show version information

Keys while running:
  m  run latex            t  open a terminal here
  b  run bibtex + latex   e  open the editor
  q  quit                 p  open the PDF viewer`)
}
