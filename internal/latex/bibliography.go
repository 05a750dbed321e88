package latex

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/swiftgame/latex-ide/internal/config"
	"github.com/swiftgame/latex-ide/internal/logger"
)

// BuildBibliography runs the bibliography tool when a bibliography file
// is configured, printing its output verbatim and unfiltered, then runs
// two full typesetting passes to stabilize citation numbering. The two
// passes happen whether or not the bibliography tool ran; each one still
// applies its own rerun-on-stale-labels policy independently.
func (b *Builder) BuildBibliography(ctx context.Context, cfg *config.Config) error {
	if cfg.BibliographyFile != "" {
		base := strings.TrimSuffix(cfg.BibliographyFile, filepath.Ext(cfg.BibliographyFile))
		logger.GetLogger().Debug().Str("bibliography", base).Msg("starting bibliography pass")

		name, args := commandFor(b.tools.Bibtex, base)
		output, err := b.run(ctx, name, args...)
		if err != nil && !isExitError(err) {
			return fmt.Errorf("run %s: %w", name, err)
		}

		// Bibliography output is shown whole, byte-for-byte.
		b.out.Write(output)
		if len(output) > 0 && output[len(output)-1] != '\n' {
			b.out.Write([]byte{'\n'})
		}
	}

	if err := b.Build(ctx, cfg.MainFile, false); err != nil {
		return err
	}
	return b.Build(ctx, cfg.MainFile, false)
}
