package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fenilsonani/cleancache/internal/ui/styles"
	"github.com/fenilsonani/cleancache/pkg/utils"
)

// Shortcut is a key hint shown on the right of the status bar
type Shortcut struct {
	Key  string
	Desc string
}

// StatusBar represents a status bar component that displays at the bottom of views
type StatusBar struct {
	phase     string
	counter   string
	freed     int64
	shortcuts []Shortcut
}

// NewStatusBar creates a new status bar
func NewStatusBar() *StatusBar {
	return &StatusBar{}
}

// SetPhase sets the current phase name
func (s *StatusBar) SetPhase(phase string) {
	s.phase = phase
}

// SetProgress sets the file counter ("N/M") and the bytes freed so far
func (s *StatusBar) SetProgress(counter string, freed int64) {
	s.counter = counter
	s.freed = freed
}

// SetShortcuts sets the shortcuts to display, in order
func (s *StatusBar) SetShortcuts(shortcuts ...Shortcut) {
	s.shortcuts = shortcuts
}

// Render renders the status bar with the given width
func (s *StatusBar) Render(width int) string {
	if width <= 0 {
		width = 80
	}

	var parts []string
	if s.phase != "" {
		parts = append(parts, styles.BoldStyle.Render(s.phase))
	}
	if s.counter != "" {
		parts = append(parts, s.counter+" files")
	}
	if s.freed > 0 {
		parts = append(parts, styles.FileSizeStyle.Render(utils.FormatBytes(s.freed)+" freed"))
	}
	leftSide := strings.Join(parts, " • ")

	shortcutParts := make([]string, 0, len(s.shortcuts))
	for _, sc := range s.shortcuts {
		shortcutParts = append(shortcutParts, fmt.Sprintf("%s:%s", styles.DimStyle.Render(sc.Key), sc.Desc))
	}
	rightSide := strings.Join(shortcutParts, " ")

	spacing := width - lipgloss.Width(leftSide) - lipgloss.Width(rightSide) - 2
	if spacing < 1 {
		spacing = 1
	}

	return styles.StatusBarStyle.Width(width).Render(leftSide + strings.Repeat(" ", spacing) + rightSide)
}
