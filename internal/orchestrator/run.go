package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fenilsonani/cleancache/internal/progress"
	"github.com/fenilsonani/cleancache/internal/pruner"
	"github.com/fenilsonani/cleancache/internal/scanner"
	"github.com/rs/zerolog"
)

// runState is the bookkeeping of a single run
type runState struct {
	o       *Orchestrator
	summary *Summary
	logger  zerolog.Logger

	handled int64 // bytes of files processed so far, deleted or not
	percent int
}

func (r *runState) snapshot(phase progress.Phase) progress.Snapshot {
	return progress.Snapshot{
		RunID:      r.summary.RunID,
		Phase:      phase,
		Percent:    progress.PercentIndeterminate,
		FreedBytes: r.summary.FreedBytes,
	}
}

// scan resolves the candidate folders and lists the files above the size
// threshold in each
func (r *runState) scan(ctx context.Context) []scanner.CacheEntry {
	r.o.setState(StateScanning)

	s := r.snapshot(progress.PhaseScanning)
	s.Operation = "Resolving folders"
	r.o.publish(s)

	folders, err := r.o.resolver.Resolve(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			r.summary.Cancelled = true
		} else {
			r.logger.Warn().Err(err).Msg("folder resolution incomplete")
		}
	}
	r.summary.Folders = folders

	for _, folder := range folders {
		r.summary.CacheSizeBefore += r.o.walker.FolderSize(folder)
	}

	entries := r.o.walker.ScanFolders(ctx, folders, r.o.minSize, func(folder string, index, total int) {
		s := r.snapshot(progress.PhaseScanning)
		s.Operation = folder
		s.Counter = progress.Counter(index+1, total)
		r.o.publish(s)
	})

	r.summary.FilesTotal = scanner.TotalFiles(entries)
	r.summary.BytesTotal = scanner.TotalSize(entries)
	for _, e := range entries {
		if len(e.Skipped) > 0 {
			r.logger.Debug().Str("folder", e.Folder).Int("skipped_dirs", len(e.Skipped)).Msg("some directories could not be listed")
		}
	}

	r.logger.Info().
		Int("folders", len(folders)).
		Int("files", r.summary.FilesTotal).
		Int64("bytes", r.summary.BytesTotal).
		Msg("scan complete")

	return entries
}

// delete removes every listed file in order. A failed file is recorded and
// the batch continues. Cancellation is checked between files.
func (r *runState) delete(ctx context.Context, entries []scanner.CacheEntry) {
	r.o.setState(StateDeleting)

	total := r.summary.BytesTotal
	count := r.summary.FilesTotal
	done := 0

	r.percent = progress.PercentOf(0, total)
	start := r.snapshot(progress.PhaseDeleting)
	start.Percent = r.percent
	start.Counter = progress.Counter(0, count)
	r.o.publish(start)

	for _, entry := range entries {
		es := EntrySummary{
			Folder:  entry.Folder,
			Files:   len(entry.Files),
			Bytes:   entry.TotalSize,
			Skipped: len(entry.Skipped),
		}

		for _, file := range entry.Files {
			if ctx.Err() != nil {
				r.summary.Cancelled = true
				break
			}

			s := r.snapshot(progress.PhaseDeleting)
			s.Operation = "Deleting " + file.Path

			removed, err := r.deleteFile(file.Path)
			switch {
			case err != nil:
				fe := newFileError(entry.Folder, file.Path, err)
				r.summary.Errors = append(r.summary.Errors, fe)
				es.Failed++
				s.Error = fmt.Sprintf("%s: %s\n", fe.Path, fe.Message)
				r.logger.Warn().Str("path", file.Path).Str("reason", fe.Reason).Err(err).Msg("file not deleted")
			case !removed:
				// Gone since the scan; nothing was freed by this run
				r.summary.FilesVanished++
				r.logger.Debug().Str("path", file.Path).Msg("file already removed")
			default:
				r.summary.FreedBytes += file.Size
				r.summary.FilesDeleted++
				es.Deleted++
				es.Freed += file.Size
			}

			done++
			r.handled += file.Size
			if p := progress.PercentOf(r.handled, total); p > r.percent {
				r.percent = p
			}
			s.Percent = r.percent
			s.Counter = progress.Counter(done, count)
			s.FreedBytes = r.summary.FreedBytes
			r.o.publish(s)
		}

		r.summary.Entries = append(r.summary.Entries, es)
		if r.summary.Cancelled {
			break
		}
	}
}

func (r *runState) deleteFile(path string) (bool, error) {
	if r.o.dryRun {
		return true, nil
	}
	return r.o.deleter.Remove(path)
}

// prune removes empty folders beneath every candidate folder, keeping the
// folders themselves. A cancelled run is still pruned.
func (r *runState) prune() {
	if r.o.dryRun {
		return
	}
	r.o.setState(StatePruning)
	r.o.publish(r.snapshot(progress.PhasePruning))

	for _, res := range pruner.PruneAll(r.o.walker.Fs(), r.summary.Folders) {
		r.summary.Pruned += len(res.Removed)
		r.summary.PruneFailures += len(res.Failed)
		for _, f := range res.Failed {
			r.logger.Debug().Str("dir", f.Path).Err(f.Err).Msg("empty folder left in place")
		}
	}
}

// report re-measures the folders and publishes the final snapshot
func (r *runState) report() {
	r.o.setState(StateReporting)

	for _, folder := range r.summary.Folders {
		r.summary.CacheSizeAfter += r.o.walker.FolderSize(folder)
	}
	r.summary.FreeSpaceAfter = r.o.measureFree(r.logger)
	r.summary.Duration = time.Since(r.summary.StartedAt)

	final := r.snapshot(progress.PhaseComplete)
	final.Percent = r.percent
	if !r.summary.Cancelled {
		final.Percent = 100
	}
	final.Counter = progress.Counter(r.summary.FilesDeleted+r.summary.FilesVanished+r.summary.ErrorCount(), r.summary.FilesTotal)
	final.Operation = progress.FormatSnapshot(final)
	final.Error = r.summary.ErrorText()
	final.Output = r.summary.OutputText()
	r.o.publish(final)

	r.logger.Info().
		Int64("freed", r.summary.FreedBytes).
		Int("deleted", r.summary.FilesDeleted).
		Int("errors", r.summary.ErrorCount()).
		Int("pruned", r.summary.Pruned).
		Bool("cancelled", r.summary.Cancelled).
		Dur("took", r.summary.Duration).
		Msg("cleanup run finished")
}
