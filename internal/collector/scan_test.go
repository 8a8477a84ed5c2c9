package collector

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jorge-barreto/refcollect/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePage(t *testing.T, dir, rel, content string) string {
	t.Helper()
	p := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func TestScan_AddsFiles(t *testing.T) {
	out := t.TempDir()
	p := writePage(t, out, "boost/urls/url.adoc", "= url\n")
	cv := &catalog.ComponentVersion{Name: "url"}
	o := &catalog.Origin{GitDir: "/repos/url/.git", Worktree: "/src/url"}

	n, err := Scan(out, cv, o, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	f := cv.FindFile("modules/reference/pages/boost/urls/url.adoc")
	require.NotNil(t, f)
	assert.Equal(t, p, f.Content)
	assert.Equal(t, int64(6), f.Size)
	assert.Equal(t, "url.adoc", f.Src.Basename)
	assert.Equal(t, "url", f.Src.Stem)
	assert.Equal(t, ".adoc", f.Src.Extname)
	assert.Equal(t, p, f.Src.Abspath)
	assert.Empty(t, f.Src.Realpath)
	assert.Equal(t, "boost/urls/url.adoc", f.Src.Scanned)
	assert.Same(t, o, f.Src.Origin)
}

func TestScan_ManagedWorktreeMovesAbspath(t *testing.T) {
	out := t.TempDir()
	p := writePage(t, out, "index.adoc", "x")
	cv := &catalog.ComponentVersion{Name: "url"}

	_, err := Scan(out, cv, &catalog.Origin{GitDir: "/repos/url.git"}, nil)
	require.NoError(t, err)

	f := cv.FindFile("modules/reference/pages/index.adoc")
	require.NotNil(t, f)
	assert.Equal(t, p, f.Src.Realpath)
	assert.Equal(t, "index.adoc", f.Src.Abspath)
}

func TestScan_ReplacesExistingFileInPlace(t *testing.T) {
	first := &catalog.Origin{GitDir: "/a/.git", Worktree: "/a"}
	second := &catalog.Origin{GitDir: "/b/.git", Worktree: "/b"}
	cv := &catalog.ComponentVersion{Name: "url"}

	out1 := t.TempDir()
	writePage(t, out1, "index.adoc", "old")
	_, err := Scan(out1, cv, first, nil)
	require.NoError(t, err)

	out2 := t.TempDir()
	p := writePage(t, out2, "index.adoc", "newer")
	_, err = Scan(out2, cv, second, nil)
	require.NoError(t, err)

	require.Len(t, cv.Files, 1)
	f := cv.Files[0]
	assert.Equal(t, p, f.Content)
	assert.Equal(t, int64(5), f.Size)
	assert.Same(t, first, f.Src.Origin, "source information is kept")
}

func TestScan_MissingDir(t *testing.T) {
	_, err := Scan(filepath.Join(t.TempDir(), "missing"), &catalog.ComponentVersion{}, &catalog.Origin{}, nil)
	assert.Error(t, err)
}

func TestScan_SkipsFilesUnchangedSinceSnapshot(t *testing.T) {
	first := &catalog.Origin{GitDir: "/a/.git", Worktree: "/a"}
	second := &catalog.Origin{GitDir: "/b/.git", Worktree: "/b"}
	cv := &catalog.ComponentVersion{Name: "url"}
	out := t.TempDir()

	writePage(t, out, "index.adoc", "first")
	writePage(t, out, "url.adoc", "first")
	n, err := Scan(out, cv, first, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	before, err := TakeSnapshot(out)
	require.NoError(t, err)
	assert.Len(t, before, 2)

	writePage(t, out, "params.adoc", "second")
	p := writePage(t, out, "url.adoc", "second, longer")
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(p, later, later))

	n, err = Scan(out, cv, second, before)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, cv.Files, 3)

	idx := cv.FindFile("modules/reference/pages/index.adoc")
	require.NotNil(t, idx)
	assert.Equal(t, int64(5), idx.Size, "untouched page keeps its stats")
	assert.Same(t, first, idx.Src.Origin)
	assert.Same(t, second, cv.FindFile("modules/reference/pages/params.adoc").Src.Origin)
	assert.Equal(t, int64(14), cv.FindFile("modules/reference/pages/url.adoc").Size)
}

func TestTakeSnapshot_MissingDir(t *testing.T) {
	snap, err := TakeSnapshot(filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	assert.Empty(t, snap)
}
