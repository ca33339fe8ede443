// Package pruner removes directories left empty after a cleanup run.
package pruner

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// Failure is a directory that could not be listed or removed
type Failure struct {
	Path string
	Err  error
}

// Result tags every directory the pruner acted on
type Result struct {
	Root    string
	Removed []string
	Failed  []Failure
}

// Prune removes every empty directory beneath root, children before parents,
// so a parent emptied by the pass is removed in the same pass. root itself
// is removed only when deleteSelf is true. Failures are recorded and the
// directory is left in place; nothing is retried. Running Prune twice is a
// no-op the second time.
func Prune(fsys afero.Fs, root string, deleteSelf bool) *Result {
	result := &Result{Root: root}

	info, err := lstat(fsys, root)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			result.Failed = append(result.Failed, Failure{Path: root, Err: err})
		}
		return result
	}
	if !info.IsDir() {
		return result
	}

	// Pre-order collection; walking it backwards visits children first
	var dirs []string
	stack := []string{root}
	for len(stack) > 0 {
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		dirs = append(dirs, dir)

		entries, err := afero.ReadDir(fsys, dir)
		if err != nil {
			result.Failed = append(result.Failed, Failure{Path: dir, Err: err})
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() && entry.Mode()&os.ModeSymlink == 0 {
				stack = append(stack, filepath.Join(dir, entry.Name()))
			}
		}
	}

	for i := len(dirs) - 1; i >= 0; i-- {
		dir := dirs[i]
		if dir == root && !deleteSelf {
			continue
		}

		empty, err := isEmpty(fsys, dir)
		if err != nil || !empty {
			continue
		}

		if err := fsys.Remove(dir); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				result.Failed = append(result.Failed, Failure{Path: dir, Err: err})
			}
			continue
		}
		result.Removed = append(result.Removed, dir)
	}

	return result
}

// PruneAll prunes each root in order, never deleting the roots themselves
func PruneAll(fsys afero.Fs, roots []string) []*Result {
	results := make([]*Result, 0, len(roots))
	for _, root := range roots {
		results = append(results, Prune(fsys, root, false))
	}
	return results
}

// RemovedCount totals the directories removed across results
func RemovedCount(results []*Result) int {
	n := 0
	for _, r := range results {
		n += len(r.Removed)
	}
	return n
}

func isEmpty(fsys afero.Fs, dir string) (bool, error) {
	f, err := fsys.Open(dir)
	if err != nil {
		return false, err
	}
	defer f.Close()

	names, err := f.Readdirnames(1)
	if len(names) > 0 {
		return false, nil
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	return true, nil
}

func lstat(fsys afero.Fs, path string) (os.FileInfo, error) {
	if lst, ok := fsys.(afero.Lstater); ok {
		info, _, err := lst.LstatIfPossible(path)
		return info, err
	}
	return fsys.Stat(path)
}
