package relocate

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/fenilsonani/cleancache/internal/cleaner"
	"github.com/fenilsonani/cleancache/internal/progress"
	"github.com/fenilsonani/cleancache/internal/scanner"
	"github.com/fenilsonani/cleancache/internal/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plenty(string) (uint64, error) { return 1 << 40, nil }

func newRelocator(free FreeSpaceFunc) *Relocator {
	return New(cleaner.New(zerolog.Nop()), scanner.New(nil), free, progress.NewReporter(), zerolog.Nop())
}

func TestPreflight(t *testing.T) {
	f := testutil.NewFixture(t)
	src := f.CreateDir("Desktop")
	f.CreateSizedFile("Desktop/a.docx", 100)

	r := newRelocator(plenty)

	assert.NoError(t, r.Preflight(src, f.Path("D/Desktop")))
	f.AssertFileExists(f.Path("D/Desktop"))

	assert.ErrorIs(t, r.Preflight(src, src), ErrSameFolder)
	assert.ErrorIs(t, r.Preflight(src, f.Path("Desktop/inner")), ErrNested)
	assert.ErrorIs(t, r.Preflight(src, f.RootDir), ErrNested)
	assert.Error(t, r.Preflight(f.Path("missing"), f.Path("D/x")))
}

func TestPreflightInsufficientSpace(t *testing.T) {
	f := testutil.NewFixture(t)
	src := f.CreateDir("Desktop")
	f.CreateSizedFile("Desktop/big.bin", 1000)

	r := newRelocator(func(string) (uint64, error) { return 1000, nil })
	assert.ErrorIs(t, r.Preflight(src, f.Path("D")), ErrInsufficientSpace)

	r = newRelocator(func(string) (uint64, error) { return 0, errors.New("no volume") })
	assert.Error(t, r.Preflight(src, f.Path("D")))
}

func TestRelocateMovesTree(t *testing.T) {
	f := testutil.NewFixture(t)
	src := f.CreateDir("Desktop")
	f.CreateSizedFile("Desktop/a.txt", 10)
	f.CreateSizedFile("Desktop/folder/b.txt", 20)
	f.CreateSizedFile("Desktop/folder/deep/c.txt", 30)
	dst := f.Path("D/Desktop")

	result, err := newRelocator(plenty).Relocate(context.Background(), src, dst)

	require.NoError(t, err)
	assert.Equal(t, 3, result.Moved)
	assert.Equal(t, int64(60), result.Bytes)
	assert.Equal(t, 2, result.Pruned)
	assert.False(t, result.RolledBack)

	f.AssertFileSize(f.Path("D/Desktop/a.txt"), 10)
	f.AssertFileSize(f.Path("D/Desktop/folder/deep/c.txt"), 30)
	f.AssertFileNotExists(f.Path("Desktop/folder"))
	f.AssertFileExists(src)
}

func TestRelocateRollsBackOnBusyFile(t *testing.T) {
	f := testutil.NewFixture(t)
	src := f.CreateDir("Desktop")
	first := f.CreateSizedFile("Desktop/a.txt", 10)
	held := f.CreateSizedFile("Desktop/b.txt", 10)
	f.HoldExclusive(held)
	dst := f.Path("D/Desktop")

	result, err := newRelocator(plenty).Relocate(context.Background(), src, dst)

	require.Error(t, err)
	assert.ErrorIs(t, err, cleaner.ErrFileInUse)
	assert.True(t, result.RolledBack)
	assert.Equal(t, 0, result.Moved)

	f.AssertFileExists(first)
	f.AssertFileExists(held)
	f.AssertFileNotExists(f.Path("D/Desktop/a.txt"))

	entries, err := os.ReadDir(dst)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRelocateCancelled(t *testing.T) {
	f := testutil.NewFixture(t)
	src := f.CreateDir("Desktop")
	file := f.CreateSizedFile("Desktop/a.txt", 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := newRelocator(plenty).Relocate(ctx, src, f.Path("D"))

	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, result.RolledBack)
	f.AssertFileExists(file)
}
