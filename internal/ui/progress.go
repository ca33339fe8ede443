package ui

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/fenilsonani/cleancache/internal/progress"
	"github.com/fenilsonani/cleancache/internal/scanner"
	"github.com/fenilsonani/cleancache/pkg/utils"
	"github.com/schollz/progressbar/v3"
)

// PlainProgress draws run progress as a single-line bar, for terminals
// where the full-screen view is unwanted
type PlainProgress struct {
	bar     *progressbar.ProgressBar
	percent int
	phase   progress.Phase
}

// NewPlainProgress creates a bar writing to w
func NewPlainProgress(w io.Writer) *PlainProgress {
	bar := progressbar.NewOptions(
		100,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(string(progress.PhaseIdle)),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(w, "\n")
		}),
	)
	return &PlainProgress{bar: bar, phase: progress.PhaseIdle}
}

// Consume draws every snapshot from ch until it is closed
func (p *PlainProgress) Consume(ch <-chan progress.Snapshot) {
	for s := range ch {
		p.Handle(s)
	}
}

// Handle draws one snapshot. The bar never moves backwards.
func (p *PlainProgress) Handle(s progress.Snapshot) {
	if s.Phase != p.phase {
		p.phase = s.Phase
		p.bar.Describe(fmt.Sprintf("%-9s", s.Phase))
	}

	if !s.Indeterminate() && s.Percent > p.percent {
		p.percent = s.Percent
		p.bar.Set(p.percent)
	}

	if s.Phase == progress.PhaseComplete || s.Phase == progress.PhaseError {
		p.bar.Finish()
	}
}

// Percent returns the last percentage drawn
func (p *PlainProgress) Percent() int {
	return p.percent
}

// Finished reports whether the bar has been completed
func (p *PlainProgress) Finished() bool {
	return p.bar.IsFinished()
}

// maxTreeFiles caps the files listed under each folder
const maxTreeFiles = 5

// PrintFolderTree prints scan results grouped by cache folder
func PrintFolderTree(w io.Writer, entries []scanner.CacheEntry) {
	for _, e := range entries {
		if len(e.Files) == 0 && len(e.Skipped) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n╭─ 📁 %s (%s)\n", e.Folder, utils.FormatBytes(e.TotalSize))

		shown := min(len(e.Files), maxTreeFiles)
		more := len(e.Files) - shown
		for i := 0; i < shown; i++ {
			f := e.Files[i]
			connector := "├"
			if i == shown-1 && more == 0 && len(e.Skipped) == 0 {
				connector = "╰"
			}
			rel, err := filepath.Rel(e.Folder, f.Path)
			if err != nil {
				rel = f.Path
			}
			fmt.Fprintf(w, "%s── %s (%s)\n", connector, rel, utils.FormatBytes(f.Size))
		}
		if more > 0 {
			connector := "├"
			if len(e.Skipped) == 0 {
				connector = "╰"
			}
			fmt.Fprintf(w, "%s── ... and %d more files\n", connector, more)
		}
		if n := len(e.Skipped); n > 0 {
			fmt.Fprintf(w, "╰── ⚠ %d unreadable directories skipped\n", n)
		}
	}

	fmt.Fprintf(w, "\n════════════════════════════════════════════════════════\n")
	fmt.Fprintf(w, "Total: %d files | %s\n", scanner.TotalFiles(entries), utils.FormatBytes(scanner.TotalSize(entries)))
}
