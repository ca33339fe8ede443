package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fenilsonani/cleancache/internal/cleaner"
	"github.com/fenilsonani/cleancache/internal/orchestrator"
	"github.com/fenilsonani/cleancache/internal/ui/styles"
	"github.com/fenilsonani/cleancache/pkg/utils"
)

// maxListedErrors caps the per-file failures shown before the summary
const maxListedErrors = 5

// SummaryViewModel renders the result of a finished run
type SummaryViewModel struct {
	summary *orchestrator.Summary
	err     error
}

// NewSummaryViewModel creates a new summary view model
func NewSummaryViewModel(summary *orchestrator.Summary, err error) *SummaryViewModel {
	return &SummaryViewModel{summary: summary, err: err}
}

// View renders the summary view
func (m *SummaryViewModel) View() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("Cleanup Summary"))
	b.WriteString("\n\n")

	if m.err != nil {
		msg := m.err.Error()
		if errors.Is(m.err, orchestrator.ErrRunInProgress) {
			msg = "Another cleanup is already running."
		}
		b.WriteString(styles.ErrorStyle.Render("✗ " + msg))
		b.WriteString("\n")
	}

	s := m.summary
	if s == nil {
		return b.String()
	}

	if s.Cancelled {
		b.WriteString(styles.WarningStyle.Render("⚠ Cancelled before all files were processed"))
		b.WriteString("\n")
	}

	b.WriteString(styles.SuccessStyle.Render(fmt.Sprintf("✓ Deleted %d of %d files", s.FilesDeleted, s.FilesTotal)))
	b.WriteString("\n")
	b.WriteString(styles.BoldStyle.Render(fmt.Sprintf("Space freed: %s", utils.FormatBytes(s.FreedBytes))))
	b.WriteString("\n")
	if s.Pruned > 0 {
		b.WriteString(fmt.Sprintf("Empty folders removed: %d\n", s.Pruned))
	}
	if s.FreeSpaceAfter > 0 {
		b.WriteString(styles.DimStyle.Render(fmt.Sprintf("Free space: %s → %s",
			utils.FormatBytes(int64(s.FreeSpaceBefore)), utils.FormatBytes(int64(s.FreeSpaceAfter)))))
		b.WriteString("\n")
	}

	if n := s.ErrorCount(); n > 0 {
		b.WriteString("\n")
		b.WriteString(styles.ErrorStyle.Render(fmt.Sprintf("✗ %d files could not be deleted", n)))
		b.WriteString("\n")
		for i, e := range s.Errors {
			if i == maxListedErrors {
				b.WriteString(styles.DimStyle.Render(fmt.Sprintf("  ... and %d more", n-maxListedErrors)))
				b.WriteString("\n")
				break
			}
			b.WriteString(styles.DimStyle.Render("  " + e.Path + ": " + e.Reason))
			b.WriteString("\n")
		}
		b.WriteString(cleaner.FormatErrorSummary(s.DeletionErrors()))
	}

	if s.DryRun {
		b.WriteString("\n")
		b.WriteString(styles.InfoStyle.Render("Note: This was a dry run. No files were actually deleted."))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styles.HelpStyle.Render("Press q or enter to exit"))

	return b.String()
}
