package reporter

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fenilsonani/cleancache/internal/orchestrator"
	"github.com/fenilsonani/cleancache/internal/scanner"
	"gopkg.in/yaml.v3"
)

func sampleEntries() []scanner.CacheEntry {
	mod := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	return []scanner.CacheEntry{
		{
			Folder: "/cache/a",
			Files: []scanner.FileInfo{
				{Path: "/cache/a/one.bin", Size: 2048, ModTime: mod},
				{Path: "/cache/a/two.bin", Size: 1024, ModTime: mod},
			},
			TotalSize: 3072,
		},
		{Folder: "/cache/empty"},
		{
			Folder:  "/cache/b",
			Files:   []scanner.FileInfo{{Path: "/cache/b/three.bin", Size: 512, ModTime: mod}},
			TotalSize: 512,
			Skipped:   []scanner.SkippedDir{{Path: "/cache/b/locked"}},
		},
	}
}

func sampleSummary() *orchestrator.Summary {
	return &orchestrator.Summary{
		RunID:        "run-1",
		StartedAt:    time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		Duration:     1500 * time.Millisecond,
		Folders:      []string{"/cache/a", "/cache/b"},
		FilesTotal:   3,
		BytesTotal:   3584,
		FilesDeleted: 2,
		FreedBytes:   3072,
		Pruned:       1,
		Errors: []orchestrator.FileError{
			{Path: "/cache/b/three.bin", Folder: "/cache/b", Reason: "File is in use", Message: "file is in use by another process"},
		},
		Entries: []orchestrator.EntrySummary{
			{Folder: "/cache/a", Files: 2, Bytes: 3072, Deleted: 2, Freed: 3072},
			{Folder: "/cache/b", Files: 1, Bytes: 512, Failed: 1},
		},
		Commands: []orchestrator.CommandSummary{{Command: "echo hi", Output: "hi"}},
	}
}

func TestParseFormat(t *testing.T) {
	for _, name := range []string{"table", "JSON", "yaml", "summary"} {
		if _, err := ParseFormat(name); err != nil {
			t.Errorf("ParseFormat(%q) failed: %v", name, err)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("expected error for xml")
	}
}

func TestReportSummaryFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := New(&buf, FormatSummary).Report(sampleEntries()); err != nil {
		t.Fatalf("Report failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"Total Files: 3", "Total Size: 3.5 KiB", "/cache/a: 2 files", "Unreadable directories skipped: 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "/cache/empty") {
		t.Error("empty folders should not be listed")
	}
}

func TestReportTable(t *testing.T) {
	var buf bytes.Buffer
	if err := New(&buf, FormatTable).Report(sampleEntries()); err != nil {
		t.Fatalf("Report failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "/cache/b/three.bin") {
		t.Errorf("table missing file row:\n%s", out)
	}
	if !strings.Contains(out, "Total: 3 files") {
		t.Errorf("table missing total:\n%s", out)
	}
}

func TestReportJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := New(&buf, FormatJSON).Report(sampleEntries()); err != nil {
		t.Fatalf("Report failed: %v", err)
	}

	var decoded struct {
		TotalFiles  int   `json:"total_files"`
		TotalSize   int64 `json:"total_size"`
		SkippedDirs int   `json:"skipped_dirs"`
		Folders     []struct {
			Folder string `json:"folder"`
		} `json:"folders"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded.TotalFiles != 3 || decoded.TotalSize != 3584 {
		t.Errorf("unexpected totals: %+v", decoded)
	}
	if decoded.SkippedDirs != 1 {
		t.Errorf("expected 1 skipped dir, got %d", decoded.SkippedDirs)
	}
	if len(decoded.Folders) != 3 {
		t.Errorf("expected 3 folders, got %d", len(decoded.Folders))
	}
}

func TestReportUnsupportedFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := New(&buf, OutputFormat("xml")).Report(nil); err == nil {
		t.Error("expected error for unsupported format")
	}
	if err := New(&buf, OutputFormat("xml")).ReportSummary(sampleSummary()); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestReportRunSummary(t *testing.T) {
	var buf bytes.Buffer
	if err := New(&buf, FormatSummary).ReportSummary(sampleSummary()); err != nil {
		t.Fatalf("ReportSummary failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"Files deleted: 2 of 3",
		"Space freed: 3.0 KiB",
		"Empty folders removed: 1",
		"Errors: 1",
		"> echo hi",
		"/cache/b/three.bin: file is in use by another process",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestReportRunSummaryTable(t *testing.T) {
	var buf bytes.Buffer
	if err := New(&buf, FormatTable).ReportSummary(sampleSummary()); err != nil {
		t.Fatalf("ReportSummary failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "/cache/a") || !strings.Contains(out, "Files deleted: 2 of 3") {
		t.Errorf("table output incomplete:\n%s", out)
	}
}

func TestReportRunSummaryYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := New(&buf, FormatYAML).ReportSummary(sampleSummary()); err != nil {
		t.Fatalf("ReportSummary failed: %v", err)
	}

	var decoded map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid YAML: %v", err)
	}
	if decoded["run_id"] != "run-1" {
		t.Errorf("unexpected run_id: %v", decoded["run_id"])
	}
	if decoded["freed_bytes"] != 3072 {
		t.Errorf("unexpected freed_bytes: %v", decoded["freed_bytes"])
	}
}

func TestDryRunTitle(t *testing.T) {
	s := sampleSummary()
	s.DryRun = true

	var buf bytes.Buffer
	WriteSummary(&buf, s)
	if !strings.Contains(buf.String(), "(dry run)") {
		t.Errorf("dry run not flagged:\n%s", buf.String())
	}
}

func TestAppendHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Log", "output.txt")

	if err := AppendHistory(path, sampleSummary()); err != nil {
		t.Fatalf("AppendHistory failed: %v", err)
	}
	if err := AppendHistory(path, sampleSummary()); err != nil {
		t.Fatalf("AppendHistory failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("history not written: %v", err)
	}
	if n := strings.Count(string(data), "=== Cleanup Summary ==="); n != 2 {
		t.Errorf("expected 2 history blocks, got %d", n)
	}
}

func TestSaveToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.json")

	if err := SaveToFile(sampleSummary(), path, FormatJSON); err != nil {
		t.Fatalf("SaveToFile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("file not written: %v", err)
	}
	var s orchestrator.Summary
	if err := json.Unmarshal(data, &s); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if s.FilesDeleted != 2 || len(s.Errors) != 1 {
		t.Errorf("unexpected round trip: %+v", s)
	}
}
