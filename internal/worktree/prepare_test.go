package worktree

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	gitdir string
	repo   *git.Repository
	first  plumbing.Hash // a.txt
	second plumbing.Hash // a.txt, docs/b.txt
}

// newFixture creates a repository with two commits on master, a
// remote-tracking branch origin/develop at the second commit and a tag v1 at
// the first.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)

	sig := &object.Signature{Name: "Docs Bot", Email: "docs@example.com", When: time.Unix(1700000000, 0)}
	commit := func(rel, content, msg string) plumbing.Hash {
		full := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0644))
		_, err := wt.Add(rel)
		require.NoError(t, err)
		h, err := wt.Commit(msg, &git.CommitOptions{Author: sig})
		require.NoError(t, err)
		return h
	}

	f := &fixture{gitdir: filepath.Join(dir, ".git"), repo: repo}
	f.first = commit("a.txt", "one\n", "first")
	f.second = commit("docs/b.txt", "two\n", "second")

	require.NoError(t, repo.Storer.SetReference(
		plumbing.NewHashReference(plumbing.NewRemoteReferenceName("origin", "develop"), f.second)))
	require.NoError(t, repo.Storer.SetReference(
		plumbing.NewHashReference(plumbing.NewTagReferenceName("v1"), f.first)))
	return f
}

func (f *fixture) sharedIndex(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(f.gitdir, "index"))
	require.NoError(t, err)
	return data
}

func (f *fixture) assertSharedUntouched(t *testing.T, index []byte) {
	t.Helper()
	assert.Equal(t, index, f.sharedIndex(t), "shared index restored")
	assert.NoFileExists(t, filepath.Join(f.gitdir, "index~"))
	head, err := os.ReadFile(filepath.Join(f.gitdir, "HEAD"))
	require.NoError(t, err)
	assert.Equal(t, "ref: refs/heads/master\n", string(head))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestPrepare_BranchIntoFreshWorktree(t *testing.T) {
	f := newFixture(t)
	index := f.sharedIndex(t)
	dir := filepath.Join(t.TempDir(), "url@develop")

	err := NewPreparer().Prepare(context.Background(), PrepareOptions{
		Dir: dir, GitDir: f.gitdir, Ref: "refs/heads/develop", Bare: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "one\n", readFile(t, filepath.Join(dir, "a.txt")))
	assert.Equal(t, "two\n", readFile(t, filepath.Join(dir, "docs", "b.txt")))
	assert.Equal(t, "ref: refs/heads/develop\n", readFile(t, filepath.Join(dir, ".git", "HEAD")))
	assert.Equal(t, f.gitdir+"\n", readFile(t, filepath.Join(dir, ".git", "commondir")))
	assert.FileExists(t, filepath.Join(dir, ".git", "index"))

	branch, err := f.repo.Reference(plumbing.NewBranchReferenceName("develop"), true)
	require.NoError(t, err)
	assert.Equal(t, f.second, branch.Hash())

	f.assertSharedUntouched(t, index)
}

func TestPrepare_TagResolvesToCommit(t *testing.T) {
	f := newFixture(t)
	index := f.sharedIndex(t)
	dir := filepath.Join(t.TempDir(), "wt")

	err := NewPreparer().Prepare(context.Background(), PrepareOptions{Dir: dir, GitDir: f.gitdir, Ref: "refs/tags/v1"})
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, "a.txt"))
	assert.NoFileExists(t, filepath.Join(dir, "docs", "b.txt"))
	assert.Equal(t, f.first.String()+"\n", readFile(t, filepath.Join(dir, ".git", "HEAD")))
	f.assertSharedUntouched(t, index)
}

func TestPrepare_IncrementalReusesIndexAndDropsUntracked(t *testing.T) {
	f := newFixture(t)
	index := f.sharedIndex(t)
	dir := filepath.Join(t.TempDir(), "wt")
	p := NewPreparer()
	ctx := context.Background()

	require.NoError(t, p.Prepare(ctx, PrepareOptions{Dir: dir, GitDir: f.gitdir, Ref: "refs/heads/develop", Bare: true}))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stray.txt"), []byte("left over"), 0644))

	require.NoError(t, p.Prepare(ctx, PrepareOptions{Dir: dir, GitDir: f.gitdir, Ref: "refs/tags/v1"}))

	assert.NoFileExists(t, filepath.Join(dir, "stray.txt"))
	assert.NoFileExists(t, filepath.Join(dir, "docs", "b.txt"))
	assert.Equal(t, "one\n", readFile(t, filepath.Join(dir, "a.txt")))
	assert.FileExists(t, filepath.Join(dir, ".git", "index"))
	f.assertSharedUntouched(t, index)
}

func TestPrepare_WithoutSavedIndexRebuilds(t *testing.T) {
	f := newFixture(t)
	dir := filepath.Join(t.TempDir(), "wt")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stale.txt"), []byte("stale"), 0644))

	require.NoError(t, NewPreparer().Prepare(context.Background(), PrepareOptions{Dir: dir, GitDir: f.gitdir, Ref: f.second.String()}))

	assert.NoFileExists(t, filepath.Join(dir, "stale.txt"))
	assert.FileExists(t, filepath.Join(dir, "docs", "b.txt"))
	assert.Equal(t, f.second.String()+"\n", readFile(t, filepath.Join(dir, ".git", "HEAD")))
}

func TestPrepare_FailureRestoresSharedIndex(t *testing.T) {
	f := newFixture(t)
	index := f.sharedIndex(t)
	dir := filepath.Join(t.TempDir(), "wt")

	err := NewPreparer().Prepare(context.Background(), PrepareOptions{
		Dir: dir, GitDir: f.gitdir, Ref: "refs/heads/missing", Bare: true,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "origin/missing")
	f.assertSharedUntouched(t, index)
}

func TestPrepare_BadRevisionRestoresSharedIndex(t *testing.T) {
	f := newFixture(t)
	index := f.sharedIndex(t)

	err := NewPreparer().Prepare(context.Background(), PrepareOptions{
		Dir: filepath.Join(t.TempDir(), "wt"), GitDir: f.gitdir, Ref: "refs/tags/nope",
	})
	require.Error(t, err)
	f.assertSharedUntouched(t, index)
}

func TestPrepare_LocalBranchUsedWhenNotBare(t *testing.T) {
	f := newFixture(t)
	dir := filepath.Join(t.TempDir(), "wt")

	require.NoError(t, NewPreparer().Prepare(context.Background(), PrepareOptions{
		Dir: dir, GitDir: f.gitdir, Ref: "refs/heads/master",
	}))
	assert.Equal(t, "ref: refs/heads/master\n", readFile(t, filepath.Join(dir, ".git", "HEAD")))
	assert.FileExists(t, filepath.Join(dir, "docs", "b.txt"))
}

func TestPrepare_NoSharedIndexLeavesNone(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.Remove(filepath.Join(f.gitdir, "index")))
	dir := filepath.Join(t.TempDir(), "wt")

	require.NoError(t, NewPreparer().Prepare(context.Background(), PrepareOptions{Dir: dir, GitDir: f.gitdir, Ref: "refs/tags/v1"}))
	assert.NoFileExists(t, filepath.Join(f.gitdir, "index"))
	assert.FileExists(t, filepath.Join(dir, ".git", "index"))
}

func TestPrepare_FailedIncrementalReturnsWorktreeIndex(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.Remove(filepath.Join(f.gitdir, "index")))
	dir := filepath.Join(t.TempDir(), "wt")
	p := NewPreparer()

	require.NoError(t, p.Prepare(context.Background(), PrepareOptions{Dir: dir, GitDir: f.gitdir, Ref: "refs/tags/v1"}))
	err := p.Prepare(context.Background(), PrepareOptions{Dir: dir, GitDir: f.gitdir, Ref: "refs/tags/nope"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resolving refs/tags/nope")
	assert.NoFileExists(t, filepath.Join(f.gitdir, "index"))
	assert.FileExists(t, filepath.Join(dir, ".git", "index"))

	require.NoError(t, p.Prepare(context.Background(), PrepareOptions{Dir: dir, GitDir: f.gitdir, Ref: "refs/heads/master"}))
	assert.FileExists(t, filepath.Join(dir, "docs", "b.txt"))
	assert.NoFileExists(t, filepath.Join(f.gitdir, "index"))
}

func TestPrepare_FailedIncrementalKeepsSharedIndex(t *testing.T) {
	f := newFixture(t)
	index := f.sharedIndex(t)
	dir := filepath.Join(t.TempDir(), "wt")
	p := NewPreparer()

	require.NoError(t, p.Prepare(context.Background(), PrepareOptions{Dir: dir, GitDir: f.gitdir, Ref: "refs/tags/v1"}))
	require.Error(t, p.Prepare(context.Background(), PrepareOptions{Dir: dir, GitDir: f.gitdir, Ref: "refs/tags/nope"}))
	f.assertSharedUntouched(t, index)
	assert.FileExists(t, filepath.Join(dir, ".git", "index"))
}

func TestMoveFile_MissingSource(t *testing.T) {
	dir := t.TempDir()
	err := moveFile(filepath.Join(dir, "absent"), filepath.Join(dir, "dst"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
