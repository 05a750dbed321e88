// Package config provides session configuration for make-latex.
//
// A session is described entirely by the command line: the main document,
// an optional bibliography file, and any extra files. The derived output
// path is never settable on its own. Tool commands may be overridden from
// an optional .make-latex.toml next to the main file.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/swiftgame/latex-ide/internal/fileutil"
)

// OverridesFile is the optional tool-command override file looked up in
// the main file's directory.
const OverridesFile = ".make-latex.toml"

// Config is the session configuration. It is immutable after ParseArgs;
// the loops only ever read it.
type Config struct {
	MainFile         string
	BibliographyFile string
	ExtraFiles       []string
	Tools            Tools
	LogLevel         string
}

// Tools holds the external commands the loop spawns. Each entry is the
// command name followed by its leading arguments; the target path is
// appended at invocation time.
type Tools struct {
	Latex    []string `toml:"latex"`
	Bibtex   []string `toml:"bibtex"`
	Terminal []string `toml:"terminal"`
	Editor   []string `toml:"editor"`
	Viewer   []string `toml:"viewer"`
}

// DefaultTools returns the stock tool commands. The latex flags request
// halt-on-first-error, batch mode, and synctex position mapping.
func DefaultTools() Tools {
	return Tools{
		Latex:    []string{"pdflatex", "-halt-on-error", "-interaction=batchmode", "-synctex=1"},
		Bibtex:   []string{"bibtex"},
		Terminal: []string{"x-terminal-emulator"},
		Editor:   []string{"gvim"},
		Viewer:   []string{"okular", "--unique"},
	}
}

// UsageError marks a command-line problem that should print the usage
// text and terminate without starting the loop.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string {
	return e.Message
}

// ParseArgs builds a Config from the argv tail. The first positional
// argument is the main file; anything after it (besides flags) is kept in
// ExtraFiles in order.
func ParseArgs(args []string) (*Config, error) {
	cfg := &Config{
		Tools:    DefaultTools(),
		LogLevel: "warn",
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-b" || arg == "--bibtex":
			if i+1 >= len(args) {
				return nil, &UsageError{Message: arg + " requires a file argument"}
			}
			i++
			cfg.BibliographyFile = args[i]
		case arg == "--log-level":
			if i+1 >= len(args) {
				return nil, &UsageError{Message: "--log-level requires a level argument"}
			}
			i++
			cfg.LogLevel = args[i]
		case strings.HasPrefix(arg, "-"):
			return nil, &UsageError{Message: "unknown flag: " + arg}
		case cfg.MainFile == "":
			cfg.MainFile = arg
		default:
			cfg.ExtraFiles = append(cfg.ExtraFiles, arg)
		}
	}

	if cfg.MainFile == "" {
		return nil, &UsageError{Message: "missing main file"}
	}

	if err := cfg.loadToolOverrides(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// PDFFile returns MainFile with its final extension replaced by "pdf".
// The output path is always derived, never set independently.
func (c *Config) PDFFile() string {
	return strings.TrimSuffix(c.MainFile, filepath.Ext(c.MainFile)) + ".pdf"
}

// loadToolOverrides merges tool commands from the override file in the
// main file's directory. A missing file is not an error.
func (c *Config) loadToolOverrides() error {
	path := filepath.Join(filepath.Dir(c.MainFile), OverridesFile)
	if !fileutil.Exists(path) {
		return nil
	}

	var file struct {
		Tools Tools `toml:"tools"`
	}
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	c.Tools.merge(file.Tools)
	return nil
}

// merge replaces each command that the override file sets. Empty entries
// keep the defaults.
func (t *Tools) merge(other Tools) {
	if len(other.Latex) > 0 {
		t.Latex = other.Latex
	}
	if len(other.Bibtex) > 0 {
		t.Bibtex = other.Bibtex
	}
	if len(other.Terminal) > 0 {
		t.Terminal = other.Terminal
	}
	if len(other.Editor) > 0 {
		t.Editor = other.Editor
	}
	if len(other.Viewer) > 0 {
		t.Viewer = other.Viewer
	}
}
