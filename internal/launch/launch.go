// Package launch starts companion programs: a terminal, the editor, and
// the PDF viewer. Nothing is read back from them.
package launch

import (
	"os/exec"

	"github.com/swiftgame/latex-ide/internal/config"
	"github.com/swiftgame/latex-ide/internal/fileutil"
	"github.com/swiftgame/latex-ide/internal/logger"
)

// Launcher spawns companion tools detached from the build loop. These are
// conveniences, so a failed launch is logged and the loop keeps running.
type Launcher struct {
	cfg *config.Config
}

// New creates a Launcher over the session configuration.
func New(cfg *config.Config) *Launcher {
	return &Launcher{cfg: cfg}
}

// Terminal opens a shell in the directory containing the real main file,
// following a symlinked main file to its target.
func (l *Launcher) Terminal() {
	l.start(l.cfg.Tools.Terminal, "", fileutil.ResolveDir(l.cfg.MainFile))
}

// Editor opens the configured editor on the main file.
func (l *Launcher) Editor() {
	l.start(l.cfg.Tools.Editor, l.cfg.MainFile, "")
}

// Viewer opens the document viewer on the derived output file. The
// default viewer command supports synctex jumps back into the editor.
func (l *Launcher) Viewer() {
	l.start(l.cfg.Tools.Viewer, l.cfg.PDFFile(), "")
}

func (l *Launcher) start(cmdline []string, target, dir string) {
	log := logger.GetLogger()
	if len(cmdline) == 0 {
		log.Warn().Msg("no command configured")
		return
	}

	args := append([]string{}, cmdline[1:]...)
	if target != "" {
		args = append(args, target)
	}

	cmd := exec.Command(cmdline[0], args...)
	cmd.Dir = dir
	if err := cmd.Start(); err != nil {
		log.Warn().Err(err).Str("command", cmdline[0]).Msg("launch failed")
		return
	}

	// Reap in the background so finished tools do not linger as zombies.
	go func() { _ = cmd.Wait() }()
}
