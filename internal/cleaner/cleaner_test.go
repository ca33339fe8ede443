package cleaner

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fenilsonani/cleancache/internal/testutil"
	"github.com/rs/zerolog"
)

func newTestDeleter() *Deleter {
	return New(zerolog.Nop())
}

// =============================================================================
// IsFileInUse Tests
// =============================================================================

func TestIsFileInUseFreeFile(t *testing.T) {
	f := testutil.NewFixture(t)
	path := f.CreateFile("free.bin", []byte("data"))

	inUse, err := IsFileInUse(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inUse {
		t.Error("free file reported as in use")
	}
}

func TestIsFileInUseHeldFile(t *testing.T) {
	f := testutil.NewFixture(t)
	path := f.CreateFile("held.bin", []byte("data"))
	release := f.HoldExclusive(path)

	inUse, _ := IsFileInUse(path)
	if !inUse {
		t.Error("held file should be reported as in use")
	}

	release()
	if inUse, _ := IsFileInUse(path); inUse {
		t.Error("file should be free after the holder releases it")
	}
}

func TestIsFileInUseReadOnlyFile(t *testing.T) {
	testutil.SkipOnWindows(t)
	f := testutil.NewFixture(t)
	path := f.CreateReadOnlyFile("ro.bin", []byte("data"))

	inUse, err := IsFileInUse(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inUse {
		t.Error("read-only file is not in use; the attribute reset should let the probe succeed")
	}
}

func TestIsFileInUseMissingFile(t *testing.T) {
	f := testutil.NewFixture(t)

	inUse, err := IsFileInUse(f.Path("missing.bin"))
	if inUse {
		t.Error("missing file reported as in use")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

// =============================================================================
// Delete Tests
// =============================================================================

func TestDeleteRemovesFile(t *testing.T) {
	f := testutil.NewFixture(t)
	path := f.CreateFile("cache/a.tmp", make([]byte, 100))
	d := newTestDeleter()

	if err := d.Delete(path); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	f.AssertFileNotExists(path)
	if d.GetManifest().Len() != 1 {
		t.Errorf("expected 1 manifest entry, got %d", d.GetManifest().Len())
	}
	if d.GetManifest().TotalSize != 100 {
		t.Errorf("expected 100 bytes in manifest, got %d", d.GetManifest().TotalSize)
	}
}

func TestDeleteReadOnlyFile(t *testing.T) {
	f := testutil.NewFixture(t)
	path := f.CreateReadOnlyFile("cache/ro.tmp", []byte("read only"))
	d := newTestDeleter()

	if err := d.Delete(path); err != nil {
		t.Fatalf("Delete of read-only file failed: %v", err)
	}
	f.AssertFileNotExists(path)
}

func TestDeleteHeldFileFailsWithFileInUse(t *testing.T) {
	f := testutil.NewFixture(t)
	path := f.CreateFile("cache/held.tmp", []byte("busy"))
	f.HoldExclusive(path)
	d := newTestDeleter()

	err := d.Delete(path)
	if err == nil {
		t.Fatal("expected Delete to refuse a held file")
	}
	if !errors.Is(err, ErrFileInUse) {
		t.Errorf("expected ErrFileInUse, got %v", err)
	}

	var delErr *DeletionError
	if !errors.As(err, &delErr) || delErr.Reason != ErrorFileInUse {
		t.Errorf("expected DeletionError with ErrorFileInUse, got %#v", err)
	}

	f.AssertFileExists(path)
	if d.GetManifest().Len() != 0 {
		t.Error("refused file must not be recorded in the manifest")
	}
}

func TestDeleteMissingFileIsSuccess(t *testing.T) {
	f := testutil.NewFixture(t)
	d := newTestDeleter()

	if err := d.Delete(f.Path("gone.tmp")); err != nil {
		t.Errorf("deleting a missing file should succeed, got %v", err)
	}
}

func TestRemoveReportsMissingFile(t *testing.T) {
	f := testutil.NewFixture(t)
	d := newTestDeleter()
	path := f.CreateSizedFile("cache/a.tmp", 10)

	removed, err := d.Remove(path)
	if err != nil || !removed {
		t.Fatalf("expected file to be removed, got removed=%v err=%v", removed, err)
	}

	removed, err = d.Remove(path)
	if err != nil {
		t.Errorf("removing a missing file should not fail, got %v", err)
	}
	if removed {
		t.Error("a missing file must not be reported as removed")
	}
	if d.GetManifest().Len() != 1 {
		t.Errorf("expected 1 manifest entry, got %d", d.GetManifest().Len())
	}
}

func TestDeleteRefusesSymlink(t *testing.T) {
	f := testutil.NewFixture(t)
	target := f.CreateFile("keep/target.txt", []byte("important"))
	link := f.CreateSymlink(target, "cache/link.txt")
	d := newTestDeleter()

	err := d.Delete(link)
	var delErr *DeletionError
	if !errors.As(err, &delErr) || delErr.Reason != ErrorInvalidPath {
		t.Fatalf("expected ErrorInvalidPath for symlink, got %v", err)
	}
	f.AssertFileExists(link)
	f.AssertFileExists(target)
}

func TestDeleteRefusesDirectory(t *testing.T) {
	f := testutil.NewFixture(t)
	dir := f.CreateDir("cache/sub")
	d := newTestDeleter()

	err := d.Delete(dir)
	var delErr *DeletionError
	if !errors.As(err, &delErr) || delErr.Reason != ErrorIsDirectory {
		t.Fatalf("expected ErrorIsDirectory, got %v", err)
	}
	f.AssertFileExists(dir)
}

func TestDeleteInReadOnlyDirectory(t *testing.T) {
	testutil.SkipOnWindows(t)
	testutil.SkipIfRoot(t)
	f := testutil.NewFixture(t)
	dir := f.CreateReadOnlyDir("locked")
	path := filepath.Join(dir, "trapped.txt")
	d := newTestDeleter()

	err := d.Delete(path)
	var delErr *DeletionError
	if !errors.As(err, &delErr) || delErr.Reason != ErrorPermissionDenied {
		t.Fatalf("expected ErrorPermissionDenied, got %v", err)
	}
	f.AssertFileExists(path)
}

// =============================================================================
// Move Tests
// =============================================================================

func TestMoveCreatesDestinationDirectory(t *testing.T) {
	f := testutil.NewFixture(t)
	src := f.CreateFile("desktop/notes.txt", []byte("hello"))
	dst := f.Path("d/desktop/nested/notes.txt")
	d := newTestDeleter()

	if err := d.Move(src, dst); err != nil {
		t.Fatalf("Move failed: %v", err)
	}

	f.AssertFileNotExists(src)
	f.AssertFileSize(dst, 5)
}

func TestMoveReplacesExistingDestination(t *testing.T) {
	f := testutil.NewFixture(t)
	src := f.CreateFile("src/file.txt", []byte("new content"))
	dst := f.CreateFile("dst/file.txt", []byte("old"))
	d := newTestDeleter()

	if err := d.Move(src, dst); err != nil {
		t.Fatalf("Move failed: %v", err)
	}

	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("failed to read destination: %v", err)
	}
	if string(data) != "new content" {
		t.Errorf("destination not replaced, got %q", data)
	}
}

func TestMoveHeldSourceFails(t *testing.T) {
	f := testutil.NewFixture(t)
	src := f.CreateFile("src/busy.txt", []byte("busy"))
	dst := f.Path("dst/busy.txt")
	f.HoldExclusive(src)
	d := newTestDeleter()

	err := d.Move(src, dst)
	if !errors.Is(err, ErrFileInUse) {
		t.Fatalf("expected ErrFileInUse, got %v", err)
	}
	f.AssertFileExists(src)
	f.AssertFileNotExists(dst)
}

func TestMoveHeldDestinationFails(t *testing.T) {
	f := testutil.NewFixture(t)
	src := f.CreateFile("src/file.txt", []byte("new"))
	dst := f.CreateFile("dst/file.txt", []byte("old"))
	f.HoldExclusive(dst)
	d := newTestDeleter()

	err := d.Move(src, dst)
	if !errors.Is(err, ErrFileInUse) {
		t.Fatalf("expected ErrFileInUse for held destination, got %v", err)
	}
	f.AssertFileExists(src)
}

func TestMoveMissingSource(t *testing.T) {
	f := testutil.NewFixture(t)
	d := newTestDeleter()

	err := d.Move(f.Path("nope.txt"), f.Path("dst/nope.txt"))
	var delErr *DeletionError
	if !errors.As(err, &delErr) || delErr.Reason != ErrorFileNotFound {
		t.Fatalf("expected ErrorFileNotFound, got %v", err)
	}
}

// =============================================================================
// RemoveTree Tests
// =============================================================================

func TestRemoveTree(t *testing.T) {
	f := testutil.NewFixture(t)
	root := f.CreateDir("patchcache")
	f.CreateFile("patchcache/a.msp", []byte("a"))
	f.CreateFile("patchcache/x/b.msp", []byte("b"))
	f.CreateReadOnlyFile("patchcache/x/y/z/c.msp", []byte("c"))
	f.CreateDir("patchcache/empty/deeper")
	d := newTestDeleter()

	if errs := d.RemoveTree(root); len(errs) != 0 {
		t.Fatalf("RemoveTree returned errors: %v", errs)
	}
	f.AssertFileNotExists(root)
}

func TestRemoveTreeKeepsHeldFilesAndReportsThem(t *testing.T) {
	f := testutil.NewFixture(t)
	root := f.CreateDir("tree")
	free := f.CreateFile("tree/free.txt", []byte("free"))
	held := f.CreateFile("tree/sub/held.txt", []byte("held"))
	f.HoldExclusive(held)
	d := newTestDeleter()

	errs := d.RemoveTree(root)
	if len(errs) == 0 {
		t.Fatal("expected errors for held file and its non-empty parents")
	}

	foundInUse := false
	for _, err := range errs {
		if errors.Is(err, ErrFileInUse) {
			foundInUse = true
		}
	}
	if !foundInUse {
		t.Errorf("expected an in-use error among %v", errs)
	}

	f.AssertFileNotExists(free)
	f.AssertFileExists(held)
}

func TestRemoveTreeMissingRoot(t *testing.T) {
	f := testutil.NewFixture(t)
	d := newTestDeleter()

	if errs := d.RemoveTree(f.Path("absent")); len(errs) != 0 {
		t.Errorf("expected no errors for a missing root, got %v", errs)
	}
}

// =============================================================================
// Manifest Tests
// =============================================================================

func TestDeletionManifestSave(t *testing.T) {
	f := testutil.NewFixture(t)
	m := NewDeletionManifest()
	m.Add("/tmp/a", 10)
	m.Add("/tmp/b", 20)

	out := f.Path("manifest.txt")
	if err := m.Save(out); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("failed to read manifest: %v", err)
	}
	content := string(data)
	for _, want := range []string{"Total Size: 30 bytes", "Total Files: 2", "/tmp/a | 10 bytes"} {
		if !strings.Contains(content, want) {
			t.Errorf("manifest should contain %q:\n%s", want, content)
		}
	}
}

func TestResetManifest(t *testing.T) {
	f := testutil.NewFixture(t)
	d := newTestDeleter()

	if err := d.Delete(f.CreateSizedFile("a.tmp", 10)); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	d.ResetManifest()

	if d.GetManifest().Len() != 0 || d.GetManifest().TotalSize != 0 {
		t.Errorf("expected empty manifest after reset, got %d files, %d bytes",
			d.GetManifest().Len(), d.GetManifest().TotalSize)
	}
}

func TestDeletionManifestSaveError(t *testing.T) {
	m := NewDeletionManifest()
	if err := m.Save(filepath.Join(t.TempDir(), "missing", "dir", "manifest.txt")); err == nil {
		t.Error("expected error saving into a missing directory")
	}
}
