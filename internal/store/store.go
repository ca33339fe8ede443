// Package store persists the resolved folder lists between runs.
package store

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/afero"
	"gopkg.in/ini.v1"
)

const (
	// SectionFolders holds the editable list of folders from the last run
	SectionFolders = "CleanupFolders"
	// SectionPresets is a read-only reference copy of the built-in folders
	SectionPresets = "PresetFolders"

	keyPrefix = "path"
)

// Folder paths may contain ';' and '#'
var loadOptions = ini.LoadOptions{IgnoreInlineComment: true}

// FolderStore loads and saves folder lists
type FolderStore interface {
	Load() ([]string, error)
	Save(folders []string) error
	SavePresets(folders []string) error
}

// IniStore keeps folder lists in an ini file. Each save clears the section
// and rewrites it with ordinal keys path0, path1, ...
type IniStore struct {
	mu   sync.Mutex
	fs   afero.Fs
	path string
}

// NewIniStore creates a store backed by path on fsys. A nil fsys means the
// OS filesystem.
func NewIniStore(fsys afero.Fs, path string) *IniStore {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &IniStore{fs: fsys, path: path}
}

// Path returns the backing file path
func (s *IniStore) Path() string {
	return s.path
}

// Load returns the editable folder list. A missing file is an empty list.
func (s *IniStore) Load() ([]string, error) {
	return s.loadSection(SectionFolders)
}

// LoadPresets returns the preset reference list
func (s *IniStore) LoadPresets() ([]string, error) {
	return s.loadSection(SectionPresets)
}

// Save replaces the editable folder list
func (s *IniStore) Save(folders []string) error {
	return s.saveSection(SectionFolders, folders)
}

// SavePresets replaces the preset reference list
func (s *IniStore) SavePresets(folders []string) error {
	return s.saveSection(SectionPresets, folders)
}

func (s *IniStore) loadSection(name string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.read()
	if err != nil {
		return nil, err
	}

	sec, err := cfg.GetSection(name)
	if err != nil {
		return []string{}, nil
	}

	type indexed struct {
		n     int
		value string
	}
	var items []indexed
	for _, key := range sec.Keys() {
		n, ok := ordinal(key.Name())
		if !ok {
			continue
		}
		if v := strings.TrimSpace(key.String()); v != "" {
			items = append(items, indexed{n: n, value: v})
		}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].n < items[j].n })

	folders := make([]string, len(items))
	for i, item := range items {
		folders[i] = item.value
	}
	return folders, nil
}

func (s *IniStore) saveSection(name string, folders []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.read()
	if err != nil {
		// An unreadable store is replaced rather than blocking the save
		cfg = ini.Empty(loadOptions)
	}

	cfg.DeleteSection(name)
	sec, err := cfg.NewSection(name)
	if err != nil {
		return fmt.Errorf("failed to create section %s: %w", name, err)
	}
	for i, folder := range folders {
		if _, err := sec.NewKey(keyPrefix+strconv.Itoa(i), folder); err != nil {
			return fmt.Errorf("failed to write key %d: %w", i, err)
		}
	}

	var buf bytes.Buffer
	if _, err := cfg.WriteTo(&buf); err != nil {
		return fmt.Errorf("failed to encode folder store: %w", err)
	}

	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}
	if err := afero.WriteFile(s.fs, s.path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write folder store: %w", err)
	}
	return nil
}

func (s *IniStore) read() (*ini.File, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ini.Empty(loadOptions), nil
		}
		return nil, fmt.Errorf("failed to read folder store: %w", err)
	}

	cfg, err := ini.LoadSources(loadOptions, data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse folder store: %w", err)
	}
	return cfg, nil
}

func ordinal(key string) (int, bool) {
	if !strings.HasPrefix(key, keyPrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(key[len(keyPrefix):])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
