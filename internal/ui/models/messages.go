package models

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fenilsonani/cleancache/internal/orchestrator"
	runprogress "github.com/fenilsonani/cleancache/internal/progress"
)

// SnapshotMsg carries one progress snapshot from the run
type SnapshotMsg runprogress.Snapshot

// OutcomeMsg carries the final result of the run
type OutcomeMsg orchestrator.Outcome

func waitForSnapshot(ch <-chan runprogress.Snapshot) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return nil
		}
		return SnapshotMsg(s)
	}
}

func waitForOutcome(ch <-chan orchestrator.Outcome) tea.Cmd {
	return func() tea.Msg {
		o, ok := <-ch
		if !ok {
			return nil
		}
		return OutcomeMsg(o)
	}
}
