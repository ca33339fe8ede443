package cleaner

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// Deleter removes and relocates single files. A file that another process
// holds open is never forced: the operation fails with ErrFileInUse and the
// file is left in place.
type Deleter struct {
	manifest *DeletionManifest
	logger   zerolog.Logger
}

// New creates a new Deleter
func New(logger zerolog.Logger) *Deleter {
	return &Deleter{
		manifest: NewDeletionManifest(),
		logger:   logger,
	}
}

// GetManifest returns the deletion manifest
func (d *Deleter) GetManifest() *DeletionManifest {
	return d.manifest
}

// SaveManifest saves the deletion manifest to a file
func (d *Deleter) SaveManifest(path string) error {
	return d.manifest.Save(path)
}

// ResetManifest forgets every recorded deletion. Each cleanup run starts
// with an empty manifest.
func (d *Deleter) ResetManifest() {
	d.manifest.Reset()
}

// IsFileInUse probes path with an exclusive read/write open. If the probe is
// refused for lack of permission, the file's attributes are reset and the
// probe is tried once more; a second refusal counts as in use. The returned
// error explains a positive result, or is a not-exist error when the file
// has already gone.
func IsFileInUse(path string) (bool, error) {
	h, err := OpenExclusive(path)
	if err == nil {
		h.Close()
		return false, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, err
	}

	if errors.Is(err, fs.ErrPermission) {
		if rerr := resetAttributes(path); rerr == nil {
			h, err = OpenExclusive(path)
			if err == nil {
				h.Close()
				return false, nil
			}
		}
	}

	return true, err
}

// Delete removes a single regular file. A file that no longer exists counts
// as deleted.
func (d *Deleter) Delete(path string) error {
	_, err := d.Remove(path)
	return err
}

// Remove is Delete that also reports whether this call removed the file.
// A file that was already gone returns false and no error.
func (d *Deleter) Remove(path string) (bool, error) {
	info, err := os.Lstat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, CategorizeError(path, "delete", err)
	}

	if err := IsSafeToDelete(path); err != nil {
		reason := ErrorInvalidPath
		if info.IsDir() {
			reason = ErrorIsDirectory
		}
		return false, &DeletionError{Path: path, Op: "delete", Reason: reason, Original: err}
	}

	if err := d.checkNotInUse(path, "delete"); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}

	// The probe may already have reset attributes; check again before removing
	if info, err = os.Lstat(path); err == nil && isReadOnly(info) {
		if err := resetAttributes(path); err != nil {
			d.logger.Debug().Str("path", path).Err(err).Msg("could not clear read-only attribute")
		}
	}

	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, CategorizeError(path, "delete", err)
	}

	var size int64
	if info != nil {
		size = info.Size()
	}
	d.manifest.Add(path, size)
	d.logger.Debug().Str("path", path).Int64("size", size).Msg("deleted")
	return true, nil
}

// Move relocates src to dst under the same busy-file rules as Delete: src
// must not be in use, an existing dst is deleted first (and must not be in
// use either), and dst's directory is created when missing.
func (d *Deleter) Move(src, dst string) error {
	if err := d.checkNotInUse(src, "move"); err != nil {
		return CategorizeError(src, "move", err)
	}

	if _, err := os.Lstat(dst); err == nil {
		if err := d.Delete(dst); err != nil {
			return err
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return CategorizeError(dst, "move", err)
	} else if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return CategorizeError(dst, "move", err)
	}

	if err := os.Rename(src, dst); err != nil {
		if !isCrossDevice(err) {
			return CategorizeError(src, "move", err)
		}
		if err := copyFile(src, dst); err != nil {
			os.Remove(dst)
			return CategorizeError(src, "move", err)
		}
		if err := os.Remove(src); err != nil {
			return CategorizeError(src, "move", err)
		}
	}

	d.logger.Debug().Str("from", src).Str("to", dst).Msg("moved")
	return nil
}

// RemoveTree deletes root and everything beneath it. Files are deleted as
// they are found, then directories are removed deepest first. The traversal
// uses an explicit stack and carries on past failures, returning all of them.
func (d *Deleter) RemoveTree(root string) []error {
	info, err := os.Lstat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return []error{CategorizeError(root, "remove", err)}
	}
	if !info.IsDir() {
		if err := d.Delete(root); err != nil {
			return []error{err}
		}
		return nil
	}

	var errs []error
	var dirs []string
	stack := []string{root}

	for len(stack) > 0 {
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		dirs = append(dirs, dir)

		entries, err := os.ReadDir(dir)
		if err != nil {
			if rerr := resetDirAttributes(dir); rerr == nil {
				entries, err = os.ReadDir(dir)
			}
			if err != nil {
				errs = append(errs, CategorizeError(dir, "remove", err))
				continue
			}
		}

		for _, entry := range entries {
			path := filepath.Join(dir, entry.Name())
			if entry.IsDir() {
				stack = append(stack, path)
				continue
			}
			if entry.Type()&fs.ModeSymlink != 0 {
				// Remove the link itself, never its target
				if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
					errs = append(errs, CategorizeError(path, "remove", err))
				}
				continue
			}
			if err := d.Delete(path); err != nil {
				errs = append(errs, err)
			}
		}
	}

	for i := len(dirs) - 1; i >= 0; i-- {
		dir := dirs[i]
		resetDirAttributes(dir)
		if err := os.Remove(dir); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, CategorizeError(dir, "remove", err))
		}
	}

	return errs
}

func (d *Deleter) checkNotInUse(path, op string) error {
	inUse, err := IsFileInUse(path)
	if !inUse {
		return err
	}
	if err == nil || errors.Is(err, ErrFileInUse) {
		err = ErrFileInUse
	} else {
		err = fmt.Errorf("%w: %v", ErrFileInUse, err)
	}
	return &DeletionError{Path: path, Op: op, Reason: ErrorFileInUse, Original: err}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}
