package pruner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fenilsonani/cleancache/internal/testutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exists(t *testing.T, fsys afero.Fs, path string) bool {
	t.Helper()
	ok, err := afero.Exists(fsys, path)
	require.NoError(t, err)
	return ok
}

func TestPruneKeepsRoot(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, fsys.MkdirAll("/root/empty1/empty2", 0755))

	result := Prune(fsys, "/root", false)

	assert.Empty(t, result.Failed)
	assert.ElementsMatch(t, []string{"/root/empty1", "/root/empty1/empty2"}, result.Removed)
	assert.False(t, exists(t, fsys, "/root/empty1"))
	assert.True(t, exists(t, fsys, "/root"), "root must survive when deleteSelf is false")
}

func TestPruneDeleteSelf(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, fsys.MkdirAll("/root/a/b", 0755))

	result := Prune(fsys, "/root", true)

	assert.Empty(t, result.Failed)
	assert.Len(t, result.Removed, 3)
	assert.Equal(t, "/root", result.Removed[len(result.Removed)-1], "root is removed last")
	assert.False(t, exists(t, fsys, "/root"))
}

func TestPruneChildrenBeforeParents(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, fsys.MkdirAll("/r/a/b/c", 0755))

	result := Prune(fsys, "/r", false)

	require.Equal(t, []string{"/r/a/b/c", "/r/a/b", "/r/a"}, result.Removed)
}

func TestPruneLeavesFoldersWithFiles(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, fsys.MkdirAll("/r/keep/empty", 0755))
	require.NoError(t, fsys.MkdirAll("/r/gone", 0755))
	require.NoError(t, afero.WriteFile(fsys, "/r/keep/file.txt", []byte("x"), 0644))

	result := Prune(fsys, "/r", true)

	assert.ElementsMatch(t, []string{"/r/keep/empty", "/r/gone"}, result.Removed)
	assert.True(t, exists(t, fsys, "/r/keep/file.txt"))
	assert.True(t, exists(t, fsys, "/r"), "root with content survives even with deleteSelf")
}

func TestPruneIsIdempotent(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, fsys.MkdirAll("/r/x/y", 0755))
	require.NoError(t, fsys.MkdirAll("/r/z", 0755))
	require.NoError(t, afero.WriteFile(fsys, "/r/z/f", []byte("x"), 0644))

	first := Prune(fsys, "/r", false)
	require.NotEmpty(t, first.Removed)

	second := Prune(fsys, "/r", false)
	assert.Empty(t, second.Removed)
	assert.Empty(t, second.Failed)
	assert.True(t, exists(t, fsys, "/r/z/f"))
}

func TestPruneMissingRoot(t *testing.T) {
	result := Prune(afero.NewMemMapFs(), "/nowhere", true)

	assert.Empty(t, result.Removed)
	assert.Empty(t, result.Failed)
}

func TestPruneAll(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, fsys.MkdirAll("/a/1", 0755))
	require.NoError(t, fsys.MkdirAll("/b/2/3", 0755))

	results := PruneAll(fsys, []string{"/a", "/b", "/missing"})

	require.Len(t, results, 3)
	assert.Equal(t, 3, RemovedCount(results))
	assert.True(t, exists(t, fsys, "/a"))
	assert.True(t, exists(t, fsys, "/b"))
}

func TestPruneDoesNotFollowSymlinks(t *testing.T) {
	f := testutil.NewFixture(t)
	outside := f.CreateDir("outside/empty")
	f.CreateDir("root")
	f.CreateSymlink(filepath.Dir(outside), "root/link")

	result := Prune(afero.NewOsFs(), f.Path("root"), false)

	assert.Empty(t, result.Failed)
	f.AssertFileExists(outside)
	f.AssertFileExists(f.Path("root/link"))
}

func TestPruneRecordsFailures(t *testing.T) {
	testutil.SkipOnWindows(t)
	testutil.SkipIfRoot(t)
	f := testutil.NewFixture(t)
	f.CreateDir("root/locked/empty")
	locked := f.Path("root/locked")
	require.NoError(t, os.Chmod(locked, 0555))
	t.Cleanup(func() { os.Chmod(locked, 0755) })

	result := Prune(afero.NewOsFs(), f.Path("root"), false)

	require.Len(t, result.Failed, 1)
	assert.Equal(t, f.Path("root/locked/empty"), result.Failed[0].Path)
	f.AssertFileExists(f.Path("root/locked/empty"))
}
