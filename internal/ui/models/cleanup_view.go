package models

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fenilsonani/cleancache/internal/orchestrator"
	runprogress "github.com/fenilsonani/cleancache/internal/progress"
	"github.com/fenilsonani/cleancache/internal/ui/components"
	"github.com/fenilsonani/cleancache/internal/ui/styles"
)

// CleanupModel shows a running cleanup and then its summary. It only reads
// snapshots; the run itself lives elsewhere.
type CleanupModel struct {
	snapshots  <-chan runprogress.Snapshot
	outcome    <-chan orchestrator.Outcome
	cancel     context.CancelFunc
	spinner    spinner.Model
	progress   progress.Model
	status     *components.StatusBar
	latest     runprogress.Snapshot
	output     []string
	summary    *SummaryViewModel
	err        error
	startTime  time.Time
	width      int
	cancelling bool
	done       bool
}

// NewCleanupModel creates a model fed by a progress subscription and the
// run's outcome channel. cancel, if set, is called when the user aborts.
func NewCleanupModel(snapshots <-chan runprogress.Snapshot, outcome <-chan orchestrator.Outcome, cancel context.CancelFunc) *CleanupModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.SelectedStyle

	status := components.NewStatusBar()
	status.SetShortcuts(components.Shortcut{Key: "ctrl+c", Desc: "cancel"})

	return &CleanupModel{
		snapshots: snapshots,
		outcome:   outcome,
		cancel:    cancel,
		spinner:   s,
		progress:  progress.New(progress.WithDefaultGradient()),
		status:    status,
		latest:    runprogress.Snapshot{Phase: runprogress.PhaseIdle},
		startTime: time.Now(),
		width:     80,
	}
}

// Init initializes the cleanup view
func (m *CleanupModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		waitForSnapshot(m.snapshots),
		waitForOutcome(m.outcome),
	)
}

// Update handles messages
func (m *CleanupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progress.Width = min(msg.Width-4, 60)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if m.done {
				return m, tea.Quit
			}
			if !m.cancelling && m.cancel != nil {
				m.cancelling = true
				m.cancel()
			}
			return m, nil
		case "enter":
			if m.done {
				return m, tea.Quit
			}
		}
		return m, nil

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case SnapshotMsg:
		m.apply(runprogress.Snapshot(msg))
		return m, waitForSnapshot(m.snapshots)

	case OutcomeMsg:
		m.done = true
		m.err = msg.Err
		m.summary = NewSummaryViewModel(msg.Summary, msg.Err)
		m.status.SetPhase("done")
		m.status.SetShortcuts(components.Shortcut{Key: "enter", Desc: "exit"})
		return m, nil
	}

	return m, nil
}

func (m *CleanupModel) apply(s runprogress.Snapshot) {
	// Detail-only snapshots update what they carry and keep the rest
	if s.Indeterminate() {
		prev := m.latest
		s.Percent = prev.Percent
		if s.Counter == "" {
			s.Counter = prev.Counter
		}
		if s.FreedBytes < prev.FreedBytes {
			s.FreedBytes = prev.FreedBytes
		}
		if s.Phase == prev.Phase {
			if s.Operation == "" {
				s.Operation = prev.Operation
			}
			if s.Error == "" {
				s.Error = prev.Error
			}
		}
	}
	if s.Output != "" {
		m.output = strings.Split(strings.TrimRight(s.Output, "\n"), "\n")
	}
	m.latest = s
	m.status.SetPhase(string(s.Phase))
	m.status.SetProgress(s.Counter, s.FreedBytes)
}

// Percent returns the last percentage shown, 0 to 100
func (m *CleanupModel) Percent() int {
	if m.latest.Percent < 0 {
		return 0
	}
	return m.latest.Percent
}

// Done reports whether the run has finished
func (m *CleanupModel) Done() bool {
	return m.done
}

// Summary returns the finished run's summary, or nil
func (m *CleanupModel) Summary() *orchestrator.Summary {
	if m.summary == nil {
		return nil
	}
	return m.summary.summary
}

// Err returns the run's error, if it failed
func (m *CleanupModel) Err() error {
	return m.err
}

// View renders the cleanup view
func (m *CleanupModel) View() string {
	var b strings.Builder

	if m.done {
		b.WriteString(m.summary.View())
		b.WriteString("\n")
		b.WriteString(m.status.Render(m.width))
		return b.String()
	}

	b.WriteString(styles.TitleStyle.Render("Cleaning Cache"))
	b.WriteString("\n\n")

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(styles.PhaseStyle.Render(phaseLabel(m.latest.Phase)))
	b.WriteString(" ")
	b.WriteString(styles.DimStyle.Render(fmt.Sprintf("(%s)", runprogress.FormatDuration(time.Since(m.startTime)))))
	b.WriteString("\n\n")

	b.WriteString(m.progress.ViewAs(float64(m.Percent()) / 100))
	b.WriteString("\n\n")

	if m.latest.Operation != "" {
		b.WriteString(styles.FilePathStyle.Render(truncate(m.latest.Operation, m.width-2)))
		b.WriteString("\n")
	}
	if m.latest.Error != "" {
		b.WriteString(styles.ErrorStyle.Render(truncate(m.latest.Error, m.width-2)))
		b.WriteString("\n")
	}
	for _, line := range m.output {
		b.WriteString(styles.OutputStyle.Render(line))
		b.WriteString("\n")
	}
	if m.cancelling {
		b.WriteString(styles.WarningStyle.Render("Cancelling after the current file..."))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.status.Render(m.width))
	return b.String()
}

func phaseLabel(p runprogress.Phase) string {
	switch p {
	case runprogress.PhaseScanning:
		return "Scanning cache folders..."
	case runprogress.PhaseDeleting:
		return "Deleting files..."
	case runprogress.PhasePruning:
		return "Removing empty folders..."
	case runprogress.PhaseReporting:
		return "Measuring results..."
	case runprogress.PhaseComplete:
		return "Finishing..."
	case runprogress.PhaseError:
		return "Stopped"
	default:
		return "Starting..."
	}
}

// truncate keeps the tail of s within width display cells
func truncate(s string, width int) string {
	if width < 4 || lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	i, w := len(runes), 0
	for i > 0 {
		rw := lipgloss.Width(string(runes[i-1]))
		if w+rw > width-3 {
			break
		}
		w += rw
		i--
	}
	return "..." + string(runes[i:])
}
