// Package relocate moves a folder's contents, typically the user's desktop,
// to another location under the same busy-file rules as deletion.
package relocate

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fenilsonani/cleancache/internal/progress"
	"github.com/fenilsonani/cleancache/internal/pruner"
	"github.com/fenilsonani/cleancache/internal/scanner"
	"github.com/fenilsonani/cleancache/pkg/utils"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/spf13/afero"
)

var (
	// ErrSameFolder is returned when source and destination are one folder
	ErrSameFolder = errors.New("destination is the source folder")
	// ErrNested is returned when one folder contains the other
	ErrNested = errors.New("source and destination must not contain each other")
	// ErrInsufficientSpace is returned when the destination volume is too small
	ErrInsufficientSpace = errors.New("not enough free space at destination")
)

// Mover moves one file, refusing files that are in use
type Mover interface {
	Move(src, dst string) error
}

// FreeSpaceFunc reports the free bytes on the volume holding path
type FreeSpaceFunc func(path string) (uint64, error)

// Result describes a finished relocation
type Result struct {
	Moved      int
	Bytes      int64
	Pruned     int
	RolledBack bool
}

// Relocator moves every file under a source folder to the same relative path
// under a destination folder. If any file fails, files already moved are put
// back.
type Relocator struct {
	mover     Mover
	walker    *scanner.Walker
	freeSpace FreeSpaceFunc
	reporter  *progress.Reporter
	logger    zerolog.Logger
}

// New creates a Relocator. A nil freeSpace uses gopsutil.
func New(mover Mover, walker *scanner.Walker, freeSpace FreeSpaceFunc, reporter *progress.Reporter, logger zerolog.Logger) *Relocator {
	if freeSpace == nil {
		freeSpace = diskFree
	}
	return &Relocator{
		mover:     mover,
		walker:    walker,
		freeSpace: freeSpace,
		reporter:  reporter,
		logger:    logger,
	}
}

func diskFree(path string) (uint64, error) {
	usage, err := disk.Usage(path)
	if err != nil {
		return 0, err
	}
	return usage.Free, nil
}

// Preflight checks that dst can be created and that its volume has more free
// space than src occupies
func (r *Relocator) Preflight(src, dst string) error {
	srcAbs, err := filepath.Abs(src)
	if err != nil {
		return err
	}
	dstAbs, err := filepath.Abs(dst)
	if err != nil {
		return err
	}

	if sameOrInside(srcAbs, dstAbs) && sameOrInside(dstAbs, srcAbs) {
		return ErrSameFolder
	}
	if sameOrInside(srcAbs, dstAbs) || sameOrInside(dstAbs, srcAbs) {
		return ErrNested
	}

	if ok, err := afero.DirExists(r.walker.Fs(), srcAbs); err != nil || !ok {
		return fmt.Errorf("source folder %s does not exist", srcAbs)
	}

	if err := r.walker.Fs().MkdirAll(dstAbs, 0755); err != nil {
		return fmt.Errorf("cannot create destination: %w", err)
	}

	need := r.walker.FolderSize(srcAbs)
	free, err := r.freeSpace(dstAbs)
	if err != nil {
		return fmt.Errorf("cannot measure free space at %s: %w", dstAbs, err)
	}
	if uint64(need) >= free {
		return fmt.Errorf("%w: need %s, have %s", ErrInsufficientSpace,
			utils.FormatBytes(need), utils.FormatBytes(int64(free)))
	}
	return nil
}

// Relocate runs Preflight and then moves every file. On the first failure
// the moved files are moved back and the error is returned. Empty folders
// left under src are pruned; src itself is kept.
func (r *Relocator) Relocate(ctx context.Context, src, dst string) (*Result, error) {
	if err := r.Preflight(src, dst); err != nil {
		return nil, err
	}
	src, _ = filepath.Abs(src)
	dst, _ = filepath.Abs(dst)

	listing := r.walker.Enumerate(src)
	if len(listing.Skipped) > 0 {
		return nil, fmt.Errorf("cannot read %s: %w", listing.Skipped[0].Path, listing.Skipped[0].Err)
	}

	result := &Result{}
	type moved struct{ from, to string }
	var done []moved
	var handled int64

	r.publish(progress.Snapshot{Phase: progress.PhaseDeleting, Percent: progress.PercentIndeterminate, Operation: "Relocating " + src})

	var moveErr error
	for i, file := range listing.Files {
		if err := ctx.Err(); err != nil {
			moveErr = err
			break
		}

		rel, err := filepath.Rel(src, file.Path)
		if err != nil {
			moveErr = err
			break
		}
		target := filepath.Join(dst, rel)

		if err := r.mover.Move(file.Path, target); err != nil {
			moveErr = err
			break
		}
		done = append(done, moved{from: file.Path, to: target})
		result.Moved++
		result.Bytes += file.Size
		handled += file.Size

		r.publish(progress.Snapshot{
			Phase:     progress.PhaseDeleting,
			Percent:   progress.PercentOf(handled, listing.TotalSize),
			Counter:   progress.Counter(i+1, len(listing.Files)),
			Operation: "Moved " + rel,
		})
	}

	if moveErr != nil {
		r.logger.Warn().Err(moveErr).Int("moved", len(done)).Msg("relocation failed, restoring moved files")
		for i := len(done) - 1; i >= 0; i-- {
			if err := r.mover.Move(done[i].to, done[i].from); err != nil {
				r.logger.Error().Str("path", done[i].to).Err(err).Msg("could not restore file")
			}
		}
		pruner.Prune(r.walker.Fs(), dst, false)
		result.RolledBack = true
		result.Moved = 0
		result.Bytes = 0
		return result, moveErr
	}

	pr := pruner.Prune(r.walker.Fs(), src, false)
	result.Pruned = len(pr.Removed)

	r.publish(progress.Snapshot{Phase: progress.PhaseComplete, Percent: 100, Operation: "Relocation complete"})
	r.logger.Info().Str("from", src).Str("to", dst).Int("files", result.Moved).Int64("bytes", result.Bytes).Msg("relocated")
	return result, nil
}

func (r *Relocator) publish(s progress.Snapshot) {
	if r.reporter != nil {
		r.reporter.Publish(s)
	}
}

// sameOrInside reports whether path is base or lies beneath it
func sameOrInside(base, path string) bool {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

