package ui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fenilsonani/cleancache/internal/orchestrator"
	"github.com/fenilsonani/cleancache/internal/ui/models"
)

// RunInteractive starts a cleanup and shows it in a full-screen view until
// the user dismisses the summary
func RunInteractive(ctx context.Context, orch *orchestrator.Orchestrator) (*orchestrator.Summary, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	reporter := orch.Reporter()
	snapshots := reporter.Subscribe()
	defer reporter.Unsubscribe(snapshots)

	outcome, ok := orch.Start(ctx)
	if !ok {
		return nil, orchestrator.ErrRunInProgress
	}

	m := models.NewCleanupModel(snapshots, outcome, cancel)
	p := tea.NewProgram(m, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return nil, fmt.Errorf("error running interactive mode: %w", err)
	}

	return m.Summary(), m.Err()
}
