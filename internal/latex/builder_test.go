package latex

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiftgame/latex-ide/internal/config"
)

// fakeRunner scripts the output of external commands and records every
// invocation.
type fakeRunner struct {
	outputs map[string][][]byte // per command name, consumed in order
	errs    map[string]error
	calls   []fakeCall
}

type fakeCall struct {
	name string
	args []string
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		outputs: make(map[string][][]byte),
		errs:    make(map[string]error),
	}
}

func (f *fakeRunner) script(name string, outputs ...string) {
	for _, out := range outputs {
		f.outputs[name] = append(f.outputs[name], []byte(out))
	}
}

func (f *fakeRunner) run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, fakeCall{name: name, args: args})

	var output []byte
	if queue := f.outputs[name]; len(queue) > 0 {
		output = queue[0]
		f.outputs[name] = queue[1:]
	}
	return output, f.errs[name]
}

func (f *fakeRunner) callsTo(name string) int {
	n := 0
	for _, c := range f.calls {
		if c.name == name {
			n++
		}
	}
	return n
}

func testTools() config.Tools {
	return config.Tools{
		Latex:  []string{"pdflatex", "-halt-on-error", "-interaction=batchmode", "-synctex=1"},
		Bibtex: []string{"bibtex"},
	}
}

func TestBuild_CleanRunPrintsSingleBanner(t *testing.T) {
	runner := newFakeRunner()
	runner.script("pdflatex", "This is pdfTeX\nOutput written on doc.pdf (3 pages)\n")

	var out bytes.Buffer
	b := NewBuilder(testTools(), &out, WithRunner(runner.run))

	err := b.Build(context.Background(), "doc.tex", false)

	require.NoError(t, err)
	assert.Equal(t, 1, runner.callsTo("pdflatex"), "clean run must not rerun")
	assert.Equal(t, 1, strings.Count(out.String(), BannerText), "exactly one banner")
	assert.NotContains(t, out.String(), "pdfTeX", "chatter must be filtered out")
}

func TestBuild_PassesFlagsAndFile(t *testing.T) {
	runner := newFakeRunner()

	var out bytes.Buffer
	b := NewBuilder(testTools(), &out, WithRunner(runner.run))

	require.NoError(t, b.Build(context.Background(), "doc.tex", false))

	require.Len(t, runner.calls, 1)
	assert.Equal(t, "pdflatex", runner.calls[0].name)
	assert.Equal(t, []string{"-halt-on-error", "-interaction=batchmode", "-synctex=1", "doc.tex"}, runner.calls[0].args)
}

func TestBuild_RerunsOnceOnStaleLabels(t *testing.T) {
	runner := newFakeRunner()
	// Both passes report stale labels; only the first may trigger a rerun.
	runner.script("pdflatex", StaleLabelsLine+"\n", StaleLabelsLine+"\n")

	var out bytes.Buffer
	b := NewBuilder(testTools(), &out, WithRunner(runner.run))

	err := b.Build(context.Background(), "doc.tex", false)

	require.NoError(t, err)
	assert.Equal(t, 2, runner.callsTo("pdflatex"), "exactly one rerun")
	assert.Equal(t, 2, strings.Count(out.String(), BannerText), "one banner per pass")
}

func TestBuild_RerunFlagCapsRecursion(t *testing.T) {
	runner := newFakeRunner()
	runner.script("pdflatex", StaleLabelsLine+"\n")

	var out bytes.Buffer
	b := NewBuilder(testTools(), &out, WithRunner(runner.run))

	err := b.Build(context.Background(), "doc.tex", true)

	require.NoError(t, err)
	assert.Equal(t, 1, runner.callsTo("pdflatex"), "rerun pass must never recurse")
}

func TestBuild_IgnoresExitStatus(t *testing.T) {
	// The tool exiting non-zero while printing nothing interesting still
	// counts as a clean run. Success is judged purely by the filtered
	// output being empty.
	runner := newFakeRunner()
	runner.script("pdflatex", "some chatter\n")
	runner.errs["pdflatex"] = &exec.ExitError{}

	var out bytes.Buffer
	b := NewBuilder(testTools(), &out, WithRunner(runner.run))

	err := b.Build(context.Background(), "doc.tex", false)

	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out.String(), BannerText))
}

func TestBuild_SpawnFailureIsFatal(t *testing.T) {
	runner := newFakeRunner()
	runner.errs["pdflatex"] = errors.New("executable file not found in $PATH")

	var out bytes.Buffer
	b := NewBuilder(testTools(), &out, WithRunner(runner.run))

	err := b.Build(context.Background(), "doc.tex", false)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "pdflatex")
}

func TestBuild_FilteredLinesPrintedInOrder(t *testing.T) {
	runner := newFakeRunner()
	runner.script("pdflatex",
		"chatter\n"+
			"! Undefined control sequence.\n"+
			"more chatter\n"+
			"l.9 \\nope\n")

	var out bytes.Buffer
	b := NewBuilder(testTools(), &out, WithRunner(runner.run))

	require.NoError(t, b.Build(context.Background(), "doc.tex", false))

	text := out.String()
	errIdx := strings.Index(text, "! Undefined control sequence.")
	ctxIdx := strings.Index(text, "l.9 \\nope")
	bannerIdx := strings.Index(text, BannerText)

	require.GreaterOrEqual(t, errIdx, 0)
	require.GreaterOrEqual(t, ctxIdx, 0)
	require.GreaterOrEqual(t, bannerIdx, 0)
	assert.Less(t, errIdx, ctxIdx, "original order preserved")
	assert.Less(t, ctxIdx, bannerIdx, "banner printed after the lines")
	assert.NotContains(t, text, "chatter")
}

func TestBuild_EndToEndStaleLabelScenario(t *testing.T) {
	runner := newFakeRunner()
	runner.script("pdflatex",
		"Some chatter\n"+StaleLabelsLine+"\nmore chatter\n",
		"Some chatter\nmore chatter\n")

	var out bytes.Buffer
	b := NewBuilder(testTools(), &out, WithRunner(runner.run))

	require.NoError(t, b.Build(context.Background(), "doc.tex", false))

	assert.Equal(t, 2, runner.callsTo("pdflatex"), "second pass triggered automatically")
	assert.Contains(t, out.String(), StaleLabelsLine)
	assert.Equal(t, 2, strings.Count(out.String(), BannerText))
}
