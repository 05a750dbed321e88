package latex

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"

	"github.com/charmbracelet/lipgloss"

	"github.com/swiftgame/latex-ide/internal/config"
	"github.com/swiftgame/latex-ide/internal/logger"
)

// StaleLabelsLine is printed verbatim by the typesetting tool when a
// second pass is needed to settle cross-references.
const StaleLabelsLine = "LaTeX Warning: Label(s) may have changed. Rerun to get cross-references right."

// BannerText is fixed; only the color varies with the outcome.
const BannerText = "latex run complete -------------------------"

const rerunNotice = "rerunning latex for cross-references"

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

// RunCommandFunc executes an external command and returns its combined
// output as raw bytes.
type RunCommandFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Builder invokes the typesetting and bibliography tools, filters their
// output, and reports outcomes on the out writer.
type Builder struct {
	tools config.Tools
	out   io.Writer
	run   RunCommandFunc
}

// Option configures a Builder.
type Option func(*Builder)

// WithRunner replaces the command runner. Tests use this to script tool
// output without a TeX installation.
func WithRunner(run RunCommandFunc) Option {
	return func(b *Builder) {
		b.run = run
	}
}

// NewBuilder creates a Builder writing filtered output to out.
func NewBuilder(tools config.Tools, out io.Writer, opts ...Option) *Builder {
	b := &Builder{
		tools: tools,
		out:   out,
		run:   runCommand,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Outcome describes one typesetting pass. It is consumed by the rerun
// decision immediately after the pass and then discarded.
type Outcome struct {
	FilteredLines        [][]byte
	Succeeded            bool
	CrossReferencesStale bool
}

// newOutcome derives the pass outcome from the split log lines. Success
// is judged purely by the filtered output being empty; the tool's exit
// status is deliberately not consulted.
func newOutcome(lines [][]byte) Outcome {
	filtered := Classify(lines)
	outcome := Outcome{
		FilteredLines: filtered,
		Succeeded:     len(filtered) == 0,
	}
	for _, line := range filtered {
		if string(line) == StaleLabelsLine {
			outcome.CrossReferencesStale = true
			break
		}
	}
	return outcome
}

// Build runs one typesetting pass over file, prints every interesting
// line followed by a colored status banner, and reruns exactly once when
// the tool reports stale cross-references. A failure to spawn the tool is
// fatal; a non-zero exit from a tool that did run is not.
func (b *Builder) Build(ctx context.Context, file string, isRerun bool) error {
	log := logger.GetLogger()
	log.Debug().Str("file", file).Msg("starting latex pass")

	name, args := commandFor(b.tools.Latex, file)
	output, err := b.run(ctx, name, args...)
	if err != nil && !isExitError(err) {
		return fmt.Errorf("run %s: %w", name, err)
	}

	outcome := newOutcome(SplitLines(output))
	for _, line := range outcome.FilteredLines {
		b.writeLine(line)
	}

	if outcome.Succeeded {
		fmt.Fprintln(b.out, successStyle.Render(BannerText))
	} else {
		fmt.Fprintln(b.out, failureStyle.Render(BannerText))
	}

	if !isRerun && outcome.CrossReferencesStale {
		fmt.Fprintln(b.out, rerunNotice)
		return b.Build(ctx, file, true)
	}
	return nil
}

// writeLine emits one filtered line byte-for-byte, terminated by a
// newline. The line itself is never re-encoded.
func (b *Builder) writeLine(line []byte) {
	b.out.Write(line)
	b.out.Write([]byte{'\n'})
}

// commandFor appends the target to a configured command line.
func commandFor(cmdline []string, target string) (string, []string) {
	args := append([]string{}, cmdline[1:]...)
	return cmdline[0], append(args, target)
}

// isExitError distinguishes "the tool ran and exited non-zero" from "the
// tool could not be spawned at all". Only the latter is an error here.
func isExitError(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr)
}
