package models

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fenilsonani/cleancache/internal/orchestrator"
	runprogress "github.com/fenilsonani/cleancache/internal/progress"
)

func newTestModel() (*CleanupModel, *bool) {
	cancelled := false
	m := NewCleanupModel(make(chan runprogress.Snapshot), make(chan orchestrator.Outcome), func() { cancelled = true })
	return m, &cancelled
}

func TestCleanupModelAppliesSnapshots(t *testing.T) {
	m, _ := newTestModel()

	m.Update(SnapshotMsg{Phase: runprogress.PhaseDeleting, Percent: 35, Operation: "Deleting /tmp/a.log", Counter: "1/3", FreedBytes: 2048})
	if m.Percent() != 35 {
		t.Errorf("expected 35, got %d", m.Percent())
	}

	// Detail-only snapshots keep the bar where it was
	m.Update(SnapshotMsg{Phase: runprogress.PhaseDeleting, Percent: runprogress.PercentIndeterminate, Output: "> ipconfig /flushdns\nok\n"})
	if m.Percent() != 35 {
		t.Errorf("indeterminate snapshot moved the bar to %d", m.Percent())
	}

	view := m.View()
	for _, want := range []string{"Deleting files...", "ipconfig /flushdns", "1/3 files", "2.0 KiB freed", "Deleting /tmp/a.log"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestCleanupModelPhaseChangeDropsStaleDetail(t *testing.T) {
	m, _ := newTestModel()

	m.Update(SnapshotMsg{Phase: runprogress.PhaseDeleting, Percent: 100, Operation: "Deleting /tmp/last.log", Counter: "3/3", FreedBytes: 4096})
	m.Update(SnapshotMsg{Phase: runprogress.PhasePruning, Percent: runprogress.PercentIndeterminate})

	view := m.View()
	if strings.Contains(view, "/tmp/last.log") {
		t.Errorf("pruning view should not show the last deleted file:\n%s", view)
	}
	for _, want := range []string{"Removing empty folders...", "3/3 files", "4.0 KiB freed"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
	if m.Percent() != 100 {
		t.Errorf("expected 100, got %d", m.Percent())
	}
}

func TestTruncateKeepsWholeRunes(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		width int
		want  string
	}{
		{"fits", "/tmp/a.log", 20, "/tmp/a.log"},
		{"ascii tail", "/var/cache/abcdef", 10, ".../abcdef"},
		{"multibyte tail", "/缓存/文件夹/数据.bin", 12, ".../数据.bin"},
		{"too narrow", "/tmp/abc", 3, "/tmp/abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.in, tt.width)
			if got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("truncate produced invalid UTF-8: %q", got)
			}
		})
	}
}

func TestCleanupModelCancelWhileRunning(t *testing.T) {
	m, cancelled := newTestModel()

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd != nil {
		t.Error("cancelling a running cleanup must not quit the program")
	}
	if !*cancelled {
		t.Error("expected cancel to be called")
	}
	if !strings.Contains(m.View(), "Cancelling") {
		t.Error("view should show the cancellation")
	}
}

func TestCleanupModelOutcome(t *testing.T) {
	m, _ := newTestModel()

	summary := &orchestrator.Summary{
		FilesTotal:   4,
		FilesDeleted: 3,
		FreedBytes:   2048,
		Errors: []orchestrator.FileError{
			{Path: "/tmp/busy.dat", Reason: "File is in use", Message: "file is in use by another process"},
		},
	}
	m.Update(OutcomeMsg{Summary: summary})

	if !m.Done() {
		t.Fatal("model should be done after the outcome")
	}
	if m.Summary() != summary {
		t.Error("summary not kept")
	}

	view := m.View()
	for _, want := range []string{"Deleted 3 of 4 files", "Space freed: 2.0 KiB", "1 files could not be deleted", "/tmp/busy.dat"} {
		if !strings.Contains(view, want) {
			t.Errorf("summary view missing %q:\n%s", want, view)
		}
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter should quit once the run is done")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected a quit message")
	}
}

func TestCleanupModelFault(t *testing.T) {
	m, _ := newTestModel()

	fault := errors.Join(orchestrator.ErrOrchestratorFault, errors.New("boom"))
	m.Update(OutcomeMsg{Err: fault})

	if !errors.Is(m.Err(), orchestrator.ErrOrchestratorFault) {
		t.Errorf("expected fault, got %v", m.Err())
	}
	if m.Summary() != nil {
		t.Error("a faulted run has no summary")
	}
	if !strings.Contains(m.View(), "boom") {
		t.Error("view should show the fault")
	}
}

func TestWaitForSnapshotClosed(t *testing.T) {
	ch := make(chan runprogress.Snapshot)
	close(ch)
	if msg := waitForSnapshot(ch)(); msg != nil {
		t.Errorf("closed channel should yield nil, got %v", msg)
	}
}
