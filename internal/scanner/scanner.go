package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fenilsonani/cleancache/internal/security"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Walker enumerates files beneath cleanup roots. Unreadable directories are
// recorded and skipped; the walk never fails as a whole.
type Walker struct {
	fs        afero.Fs
	validator *security.PathValidator
	logger    zerolog.Logger
}

// Option configures a Walker
type Option func(*Walker)

// WithValidator refuses roots the validator rejects
func WithValidator(pv *security.PathValidator) Option {
	return func(w *Walker) {
		w.validator = pv
	}
}

// WithLogger sets the walker's logger
func WithLogger(logger zerolog.Logger) Option {
	return func(w *Walker) {
		w.logger = logger
	}
}

// New creates a Walker over fsys. A nil fsys means the OS filesystem.
func New(fsys afero.Fs, opts ...Option) *Walker {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	w := &Walker{
		fs:     fsys,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Fs returns the filesystem the walker reads
func (w *Walker) Fs() afero.Fs {
	return w.fs
}

// Enumerate lists every regular file beneath root. A root that does not exist
// yields an empty listing. Symlinks are neither followed nor listed.
func (w *Walker) Enumerate(root string) *Listing {
	return w.walk(root, 0)
}

// EnumerateFiltered lists files strictly larger than minSize
func (w *Walker) EnumerateFiltered(root string, minSize int64) *Listing {
	return w.walk(root, minSize)
}

// FolderSize returns the total size of every file beneath root
func (w *Walker) FolderSize(root string) int64 {
	return w.Enumerate(root).TotalSize
}

// ScanFolders builds one CacheEntry per folder, in input order. Folders that
// do not exist produce empty entries. Scanning stops early if ctx is done.
func (w *Walker) ScanFolders(ctx context.Context, folders []string, minSize int64, cb ProgressCallback) []CacheEntry {
	entries := make([]CacheEntry, 0, len(folders))
	for i, folder := range folders {
		if ctx.Err() != nil {
			break
		}
		if cb != nil {
			cb(folder, i, len(folders))
		}

		listing := w.EnumerateFiltered(folder, minSize)
		entries = append(entries, CacheEntry{
			Folder:    folder,
			Files:     listing.Files,
			TotalSize: listing.TotalSize,
			Skipped:   listing.Skipped,
		})
	}
	return entries
}

func (w *Walker) walk(root string, minSize int64) *Listing {
	listing := &Listing{Root: root, Files: []FileInfo{}}

	if w.validator != nil {
		if err := w.validator.ValidateRoot(root); err != nil {
			listing.Skipped = append(listing.Skipped, SkippedDir{Path: root, Err: err})
			w.logger.Warn().Str("root", root).Err(err).Msg("refusing to scan root")
			return listing
		}
	}

	info, err := lstat(w.fs, root)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			listing.Skipped = append(listing.Skipped, SkippedDir{Path: root, Err: err})
		}
		return listing
	}
	if !info.IsDir() {
		listing.Skipped = append(listing.Skipped, SkippedDir{Path: root, Err: fmt.Errorf("not a directory")})
		return listing
	}

	stack := []string{root}
	for len(stack) > 0 {
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := afero.ReadDir(w.fs, dir)
		if err != nil {
			// Permission denied, path too long, I/O error: skip this subtree
			listing.Skipped = append(listing.Skipped, SkippedDir{Path: dir, Err: err})
			w.logger.Debug().Str("dir", dir).Err(err).Msg("skipping unreadable directory")
			continue
		}

		// Push subdirectories in reverse so they pop in name order
		var subdirs []string
		for _, entry := range entries {
			path := filepath.Join(dir, entry.Name())
			mode := entry.Mode()
			switch {
			case mode&os.ModeSymlink != 0:
				continue
			case entry.IsDir():
				subdirs = append(subdirs, path)
			case mode.IsRegular():
				if minSize > 0 && entry.Size() <= minSize {
					continue
				}
				listing.Files = append(listing.Files, FileInfo{
					Path:    path,
					Size:    entry.Size(),
					ModTime: entry.ModTime(),
				})
				listing.TotalSize += entry.Size()
			}
		}
		for i := len(subdirs) - 1; i >= 0; i-- {
			stack = append(stack, subdirs[i])
		}
	}

	return listing
}

func lstat(fsys afero.Fs, path string) (os.FileInfo, error) {
	if lst, ok := fsys.(afero.Lstater); ok {
		info, _, err := lst.LstatIfPossible(path)
		return info, err
	}
	return fsys.Stat(path)
}
