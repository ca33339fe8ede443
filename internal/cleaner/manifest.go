package cleaner

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// DeletionManifest keeps track of deleted files
type DeletionManifest struct {
	mu        sync.Mutex
	Files     []DeletedFileInfo
	Timestamp time.Time
	TotalSize int64
}

// DeletedFileInfo represents information about a deleted file
type DeletedFileInfo struct {
	Path      string
	Size      int64
	DeletedAt time.Time
}

// NewDeletionManifest creates a new DeletionManifest
func NewDeletionManifest() *DeletionManifest {
	return &DeletionManifest{
		Files:     []DeletedFileInfo{},
		Timestamp: time.Now(),
	}
}

// Add adds a file to the manifest
func (m *DeletionManifest) Add(path string, size int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Files = append(m.Files, DeletedFileInfo{
		Path:      path,
		Size:      size,
		DeletedAt: time.Now(),
	})
	m.TotalSize += size
}

// Reset empties the manifest and restarts its timestamp
func (m *DeletionManifest) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Files = []DeletedFileInfo{}
	m.TotalSize = 0
	m.Timestamp = time.Now()
}

// Len returns the number of recorded files
func (m *DeletionManifest) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Files)
}

// Save saves the manifest to a file
func (m *DeletionManifest) Save(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	fmt.Fprintf(file, "Deletion Manifest\n")
	fmt.Fprintf(file, "Created: %s\n", m.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(file, "Total Size: %d bytes\n", m.TotalSize)
	fmt.Fprintf(file, "Total Files: %d\n\n", len(m.Files))

	for _, f := range m.Files {
		fmt.Fprintf(file, "%s | %d bytes | %s\n",
			f.Path, f.Size, f.DeletedAt.Format(time.RFC3339))
	}

	return nil
}
