package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fenilsonani/cleancache/internal/orchestrator"
	"github.com/fenilsonani/cleancache/internal/scanner"
	"github.com/fenilsonani/cleancache/pkg/utils"
	"gopkg.in/yaml.v3"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatTable   OutputFormat = "table"
	FormatJSON    OutputFormat = "json"
	FormatYAML    OutputFormat = "yaml"
	FormatSummary OutputFormat = "summary"
)

// ParseFormat validates a format name
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case FormatTable, FormatJSON, FormatYAML, FormatSummary:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported format: %s", s)
	}
}

// Reporter handles report generation
type Reporter struct {
	writer io.Writer
	format OutputFormat
}

// New creates a new Reporter
func New(writer io.Writer, format OutputFormat) *Reporter {
	return &Reporter{
		writer: writer,
		format: format,
	}
}

type scanReport struct {
	Timestamp          string               `json:"timestamp" yaml:"timestamp"`
	TotalFiles         int                  `json:"total_files" yaml:"total_files"`
	TotalSize          int64                `json:"total_size" yaml:"total_size"`
	TotalSizeFormatted string               `json:"total_size_formatted" yaml:"total_size_formatted"`
	Folders            []scanner.CacheEntry `json:"folders" yaml:"folders"`
	SkippedDirs        int                  `json:"skipped_dirs" yaml:"skipped_dirs"`
}

// Report renders the cache entries found by a scan
func (r *Reporter) Report(entries []scanner.CacheEntry) error {
	switch r.format {
	case FormatTable:
		return r.reportTable(entries)
	case FormatJSON, FormatYAML:
		report := scanReport{
			Timestamp:          time.Now().Format(time.RFC3339),
			TotalFiles:         scanner.TotalFiles(entries),
			TotalSize:          scanner.TotalSize(entries),
			TotalSizeFormatted: utils.FormatBytes(scanner.TotalSize(entries)),
			Folders:            entries,
		}
		for _, e := range entries {
			report.SkippedDirs += len(e.Skipped)
		}
		return r.encode(report)
	case FormatSummary:
		return r.reportSummary(entries)
	default:
		return fmt.Errorf("unsupported format: %s", r.format)
	}
}

// reportSummary prints one line per folder
func (r *Reporter) reportSummary(entries []scanner.CacheEntry) error {
	fmt.Fprintf(r.writer, "=== Cache Scan ===\n")
	fmt.Fprintf(r.writer, "Total Files: %d\n", scanner.TotalFiles(entries))
	fmt.Fprintf(r.writer, "Total Size: %s\n", utils.FormatBytes(scanner.TotalSize(entries)))
	fmt.Fprintf(r.writer, "\nBreakdown by Folder:\n")

	skipped := 0
	for _, e := range entries {
		skipped += len(e.Skipped)
		if len(e.Files) == 0 {
			continue
		}
		fmt.Fprintf(r.writer, "  %s: %d files, %s\n", e.Folder, len(e.Files), utils.FormatBytes(e.TotalSize))
	}

	if skipped > 0 {
		fmt.Fprintf(r.writer, "\nUnreadable directories skipped: %d\n", skipped)
	}

	return nil
}

// reportTable prints one row per file
func (r *Reporter) reportTable(entries []scanner.CacheEntry) error {
	rule := strings.Repeat("-", 100)
	fmt.Fprintf(r.writer, "%-64s | %-12s | %s\n", "Path", "Size", "Modified")
	fmt.Fprintln(r.writer, rule)

	for _, e := range entries {
		for _, file := range e.Files {
			fmt.Fprintf(r.writer, "%-64s | %-12s | %s\n",
				truncate(file.Path, 64),
				utils.FormatBytes(file.Size),
				file.ModTime.Format("2006-01-02 15:04:05"))
		}
	}

	fmt.Fprintf(r.writer, "%s\n", rule)
	fmt.Fprintf(r.writer, "Total: %d files, %s\n", scanner.TotalFiles(entries), utils.FormatBytes(scanner.TotalSize(entries)))

	return nil
}

// ReportSummary renders the outcome of a cleanup run
func (r *Reporter) ReportSummary(s *orchestrator.Summary) error {
	switch r.format {
	case FormatJSON, FormatYAML:
		return r.encode(s)
	case FormatTable:
		rule := strings.Repeat("-", 100)
		fmt.Fprintf(r.writer, "%-56s | %7s | %7s | %6s | %s\n", "Folder", "Files", "Deleted", "Failed", "Freed")
		fmt.Fprintln(r.writer, rule)
		for _, e := range s.Entries {
			fmt.Fprintf(r.writer, "%-56s | %7d | %7d | %6d | %s\n",
				truncate(e.Folder, 56), e.Files, e.Deleted, e.Failed, utils.FormatBytes(e.Freed))
		}
		fmt.Fprintln(r.writer, rule)
		fallthrough
	case FormatSummary:
		WriteSummary(r.writer, s)
		return nil
	default:
		return fmt.Errorf("unsupported format: %s", r.format)
	}
}

// WriteSummary writes the plain-text run summary
func WriteSummary(w io.Writer, s *orchestrator.Summary) {
	title := "Cleanup Summary"
	if s.DryRun {
		title = "Cleanup Summary (dry run)"
	}
	fmt.Fprintf(w, "=== %s ===\n", title)
	fmt.Fprintf(w, "Run: %s\n", s.RunID)
	fmt.Fprintf(w, "Started: %s (%s)\n", s.StartedAt.Format("2006-01-02 15:04:05"), s.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "Folders: %d\n", len(s.Folders))
	fmt.Fprintf(w, "Files deleted: %d of %d\n", s.FilesDeleted, s.FilesTotal)
	fmt.Fprintf(w, "Space freed: %s\n", utils.FormatBytes(s.FreedBytes))
	if s.CacheSizeBefore > 0 {
		fmt.Fprintf(w, "Cache size: %s -> %s\n", utils.FormatBytes(s.CacheSizeBefore), utils.FormatBytes(s.CacheSizeAfter))
	}
	if s.FreeSpaceBefore > 0 || s.FreeSpaceAfter > 0 {
		fmt.Fprintf(w, "Free space: %s -> %s\n", utils.FormatBytes(int64(s.FreeSpaceBefore)), utils.FormatBytes(int64(s.FreeSpaceAfter)))
	}
	if s.Pruned > 0 {
		fmt.Fprintf(w, "Empty folders removed: %d\n", s.Pruned)
	}
	if s.Cancelled {
		fmt.Fprintf(w, "Run was cancelled before all files were processed\n")
	}
	fmt.Fprintf(w, "Errors: %d\n", s.ErrorCount())

	if out := s.OutputText(); out != "" {
		fmt.Fprintf(w, "\nCommands:\n%s", out)
	}
	if s.ErrorCount() > 0 {
		fmt.Fprintf(w, "\n%s", s.ErrorText())
	}
}

// AppendHistory appends a timestamped summary block to the history log
func AppendHistory(path string, s *orchestrator.Summary) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open history file: %w", err)
	}
	defer file.Close()

	fmt.Fprintf(file, "[%s]\n", time.Now().Format(time.RFC3339))
	WriteSummary(file, s)
	fmt.Fprintln(file)
	return nil
}

// SaveToFile saves a run summary to a file
func SaveToFile(s *orchestrator.Summary, path string, format OutputFormat) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return New(file, format).ReportSummary(s)
}

func (r *Reporter) encode(v any) error {
	if r.format == FormatYAML {
		encoder := yaml.NewEncoder(r.writer)
		defer encoder.Close()
		return encoder.Encode(v)
	}
	encoder := json.NewEncoder(r.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-(n-3):]
}
