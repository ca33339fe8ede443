package scanner

import "time"

// FileInfo represents information about a file found during scanning
type FileInfo struct {
	Path    string    `json:"path" yaml:"path"`
	Size    int64     `json:"size" yaml:"size"`
	ModTime time.Time `json:"mod_time" yaml:"mod_time"`
}

// SkippedDir is a directory the walker could not list. Its subtree is
// missing from the listing; siblings are unaffected.
type SkippedDir struct {
	Path string `json:"path" yaml:"path"`
	Err  error  `json:"-" yaml:"-"`
}

// Listing is the result of enumerating one root
type Listing struct {
	Root      string
	Files     []FileInfo
	TotalSize int64
	Skipped   []SkippedDir
}

// Paths returns the file paths in enumeration order
func (l *Listing) Paths() []string {
	paths := make([]string, len(l.Files))
	for i, f := range l.Files {
		paths[i] = f.Path
	}
	return paths
}

// CacheEntry maps one candidate folder to the files found beneath it.
// Sizes are read once at scan time and are not refreshed.
type CacheEntry struct {
	Folder    string       `json:"folder" yaml:"folder"`
	Files     []FileInfo   `json:"files" yaml:"files"`
	TotalSize int64        `json:"total_size" yaml:"total_size"`
	Skipped   []SkippedDir `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

// FileCount returns the number of files in the entry
func (e CacheEntry) FileCount() int {
	return len(e.Files)
}

// ProgressCallback is called before each folder is scanned
type ProgressCallback func(folder string, index, total int)

// TotalSize sums the sizes of all entries
func TotalSize(entries []CacheEntry) int64 {
	var total int64
	for _, e := range entries {
		total += e.TotalSize
	}
	return total
}

// TotalFiles counts the files across all entries
func TotalFiles(entries []CacheEntry) int {
	var total int
	for _, e := range entries {
		total += len(e.Files)
	}
	return total
}
