package orchestrator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fenilsonani/cleancache/internal/cleaner"
	"github.com/fenilsonani/cleancache/internal/commands"
)

// FileError records one file that could not be deleted
type FileError struct {
	Path    string `json:"path" yaml:"path"`
	Folder  string `json:"folder" yaml:"folder"`
	Reason  string `json:"reason" yaml:"reason"`
	Message string `json:"message" yaml:"message"`
	Err     error  `json:"-" yaml:"-"`
}

// EntrySummary is the per-folder outcome of a run
type EntrySummary struct {
	Folder  string `json:"folder" yaml:"folder"`
	Files   int    `json:"files" yaml:"files"`
	Bytes   int64  `json:"bytes" yaml:"bytes"`
	Deleted int    `json:"deleted" yaml:"deleted"`
	Failed  int    `json:"failed" yaml:"failed"`
	Freed   int64  `json:"freed" yaml:"freed"`
	Skipped int    `json:"skipped_dirs" yaml:"skipped_dirs"`
}

// CommandSummary is the outcome of one command channel step
type CommandSummary struct {
	Command  string        `json:"command" yaml:"command"`
	Output   string        `json:"output,omitempty" yaml:"output,omitempty"`
	Error    string        `json:"error,omitempty" yaml:"error,omitempty"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Summary is the final report of one run
type Summary struct {
	RunID           string           `json:"run_id" yaml:"run_id"`
	StartedAt       time.Time        `json:"started_at" yaml:"started_at"`
	Duration        time.Duration    `json:"duration" yaml:"duration"`
	DryRun          bool             `json:"dry_run" yaml:"dry_run"`
	Cancelled       bool             `json:"cancelled" yaml:"cancelled"`
	Folders         []string         `json:"folders" yaml:"folders"`
	FilesTotal      int              `json:"files_total" yaml:"files_total"`
	BytesTotal      int64            `json:"bytes_total" yaml:"bytes_total"`
	FilesDeleted    int              `json:"files_deleted" yaml:"files_deleted"`
	FilesVanished   int              `json:"files_vanished" yaml:"files_vanished"`
	FreedBytes      int64            `json:"freed_bytes" yaml:"freed_bytes"`
	Errors          []FileError      `json:"errors" yaml:"errors"`
	Entries         []EntrySummary   `json:"entries" yaml:"entries"`
	Pruned          int              `json:"pruned_dirs" yaml:"pruned_dirs"`
	PruneFailures   int              `json:"prune_failures" yaml:"prune_failures"`
	Commands        []CommandSummary `json:"commands,omitempty" yaml:"commands,omitempty"`
	CacheSizeBefore int64            `json:"cache_size_before" yaml:"cache_size_before"`
	CacheSizeAfter  int64            `json:"cache_size_after" yaml:"cache_size_after"`
	FreeSpaceBefore uint64           `json:"free_space_before" yaml:"free_space_before"`
	FreeSpaceAfter  uint64           `json:"free_space_after" yaml:"free_space_after"`
}

// ErrorCount returns the number of files that could not be deleted
func (s *Summary) ErrorCount() int {
	return len(s.Errors)
}

// ErrorText returns one line per failed file
func (s *Summary) ErrorText() string {
	var b strings.Builder
	for _, e := range s.Errors {
		fmt.Fprintf(&b, "%s: %s\n", e.Path, e.Message)
	}
	return b.String()
}

// OutputText returns the command channel output, one block per step
func (s *Summary) OutputText() string {
	var b strings.Builder
	for _, c := range s.Commands {
		fmt.Fprintf(&b, "> %s\n", c.Command)
		if c.Output != "" {
			b.WriteString(c.Output)
			b.WriteString("\n")
		}
		if c.Error != "" {
			fmt.Fprintf(&b, "error: %s\n", c.Error)
		}
	}
	return b.String()
}

// DeletionErrors returns the categorized errors for FormatErrorSummary
func (s *Summary) DeletionErrors() []*cleaner.DeletionError {
	out := make([]*cleaner.DeletionError, 0, len(s.Errors))
	for _, e := range s.Errors {
		err := e.Err
		if err == nil {
			err = errors.New(e.Message)
		}
		out = append(out, cleaner.CategorizeError(e.Path, "delete", err))
	}
	return out
}

// Reclaimed returns how much the cache folders shrank, which includes the
// effect of the command channel
func (s *Summary) Reclaimed() int64 {
	if s.CacheSizeBefore <= s.CacheSizeAfter {
		return 0
	}
	return s.CacheSizeBefore - s.CacheSizeAfter
}

func newFileError(folder, path string, err error) FileError {
	fe := FileError{
		Path:    path,
		Folder:  folder,
		Reason:  cleaner.ErrorUnexpectedIO.String(),
		Message: err.Error(),
		Err:     err,
	}
	var delErr *cleaner.DeletionError
	if errors.As(err, &delErr) {
		fe.Reason = delErr.Reason.String()
	}
	return fe
}

func summarizeCommands(results []commands.Result) []CommandSummary {
	out := make([]CommandSummary, 0, len(results))
	for _, r := range results {
		cs := CommandSummary{Command: r.Command, Output: r.Output, Duration: r.Duration}
		if r.Err != nil {
			cs.Error = r.Err.Error()
		}
		out = append(out, cs)
	}
	return out
}
