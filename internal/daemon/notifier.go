package daemon

import (
	"github.com/fenilsonani/cleancache/internal/orchestrator"
	"github.com/fenilsonani/cleancache/internal/reporter"
	"github.com/fenilsonani/cleancache/pkg/utils"
	"github.com/rs/zerolog"
)

// Notifier records the outcome of a scheduled run
type Notifier interface {
	Notify(s *orchestrator.Summary) error
}

// HistoryNotifier appends each summary to the history log
type HistoryNotifier struct {
	path string
}

// NewHistoryNotifier creates a notifier writing to path
func NewHistoryNotifier(path string) *HistoryNotifier {
	return &HistoryNotifier{path: path}
}

// Notify implements Notifier
func (n *HistoryNotifier) Notify(s *orchestrator.Summary) error {
	return reporter.AppendHistory(n.path, s)
}

// LogNotifier writes a one-line summary to the logger
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier creates a notifier writing to logger
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify implements Notifier
func (n *LogNotifier) Notify(s *orchestrator.Summary) error {
	event := n.logger.Info()
	if s.ErrorCount() > 0 {
		event = n.logger.Warn()
	}
	event.
		Str("run_id", s.RunID).
		Int("files_deleted", s.FilesDeleted).
		Str("freed", utils.FormatBytes(s.FreedBytes)).
		Int("errors", s.ErrorCount()).
		Dur("duration", s.Duration).
		Msg("scheduled cleanup completed")
	return nil
}
