package worktree

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/jorge-barreto/refcollect/internal/logger"
)

const branchRefPrefix = "refs/heads/"

// PrepareOptions describes one checkout into a managed worktree.
type PrepareOptions struct {
	Dir    string // worktree directory
	GitDir string // git dir of the shared repository
	Ref    string // refs/heads/<b>, refs/tags/<t> or a commit
	Remote string // remote holding the tracking branch, default "origin"
	// Bare is set when the origin has no working copy of its own, so local
	// branches are always reset to their remote-tracking counterpart.
	Bare bool
}

// Preparer checks refs of shared repositories out into managed worktrees.
// Preparations for the same git dir are serialized.
type Preparer struct {
	mu     sync.Mutex
	caches map[string]*cache.ObjectLRU
	locks  map[string]*sync.Mutex
}

// NewPreparer returns a Preparer with empty object caches.
func NewPreparer() *Preparer {
	return &Preparer{
		caches: make(map[string]*cache.ObjectLRU),
		locks:  make(map[string]*sync.Mutex),
	}
}

func (p *Preparer) lock(gitdir string) func() {
	p.mu.Lock()
	l, ok := p.locks[gitdir]
	if !ok {
		l = &sync.Mutex{}
		p.locks[gitdir] = l
	}
	p.mu.Unlock()
	l.Lock()
	return l.Unlock
}

func (p *Preparer) objectCache(gitdir string) *cache.ObjectLRU {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.caches[gitdir]
	if !ok {
		c = cache.NewObjectLRUDefault()
		p.caches[gitdir] = c
	}
	return c
}

// Prepare materializes opts.Ref into opts.Dir using the object store of
// opts.GitDir.
//
// The shared repository's index is moved aside to index~ for the duration
// and put back on every exit path. A worktree left by an earlier run keeps its
// own index in .git/index, which is swapped into the shared slot so the
// checkout only touches changed files; without one the worktree is rebuilt
// from scratch.
func (p *Preparer) Prepare(ctx context.Context, opts PrepareOptions) (err error) {
	unlock := p.lock(opts.GitDir)
	defer unlock()

	log := logger.WithComponent("worktree").With("dir", opts.Dir, "gitdir", opts.GitDir, "ref", opts.Ref)
	if opts.Remote == "" {
		opts.Remote = "origin"
	}

	indexPath := filepath.Join(opts.GitDir, "index")
	backupPath := indexPath + "~"
	restore := os.Rename(indexPath, backupPath) == nil
	log.Debug("shared index moved aside", "restore", restore)
	defer func() {
		if !restore {
			return
		}
		if rerr := os.Rename(backupPath, indexPath); rerr != nil {
			err = errors.Join(err, fmt.Errorf("restoring index %s: %w", indexPath, rerr))
		}
	}()

	wtGitDir := filepath.Join(opts.Dir, ".git")
	wtIndexPath := filepath.Join(wtGitDir, "index")
	objects := p.objectCache(opts.GitDir)

	if err := os.MkdirAll(wtGitDir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", wtGitDir, err)
	}
	storer, err := newSharedStorer(opts.GitDir, objects)
	if err != nil {
		return err
	}
	repo, err := git.Open(storer, osfs.New(opts.Dir))
	if err != nil {
		return fmt.Errorf("opening %s: %w", opts.GitDir, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("opening worktree %s: %w", opts.Dir, err)
	}

	// Runs before the shared index is restored. Whatever sits in the
	// shared slot at this point belongs to the worktree.
	defer func() {
		if err == nil {
			return
		}
		if merr := moveFile(indexPath, wtIndexPath); merr != nil && !errors.Is(merr, fs.ErrNotExist) {
			err = errors.Join(err, fmt.Errorf("returning worktree index: %w", merr))
		}
	}()

	force := true
	if rerr := reuseIndex(wt, wtIndexPath, indexPath); rerr != nil {
		log.Debug("no reusable worktree index, rebuilding", "reason", rerr)
		force = false
		if err := os.Remove(indexPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("removing stray index: %w", err)
		}
		if err := os.RemoveAll(opts.Dir); err != nil {
			return fmt.Errorf("wiping worktree %s: %w", opts.Dir, err)
		}
		if err := os.MkdirAll(wtGitDir, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", wtGitDir, err)
		}
		objects.Clear()
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	head, checkout, err := resolveHead(repo, storer, opts)
	if err != nil {
		return err
	}
	checkout.Force = force
	log.Debug("checking out", "head", head, "force", force)
	if err := wt.Checkout(checkout); err != nil {
		return fmt.Errorf("checking out %s into %s: %w", opts.Ref, opts.Dir, err)
	}

	if err := os.WriteFile(filepath.Join(wtGitDir, "commondir"), []byte(opts.GitDir+"\n"), 0644); err != nil {
		return fmt.Errorf("writing commondir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(wtGitDir, "HEAD"), []byte(head+"\n"), 0644); err != nil {
		return fmt.Errorf("writing HEAD: %w", err)
	}
	if err := moveFile(indexPath, wtIndexPath); err != nil {
		return fmt.Errorf("saving worktree index: %w", err)
	}
	log.Debug("worktree prepared", "head", head)
	return nil
}

// reuseIndex moves the worktree's saved index into the shared slot and
// deletes files the index does not track.
func reuseIndex(wt *git.Worktree, wtIndexPath, indexPath string) error {
	if err := moveFile(wtIndexPath, indexPath); err != nil {
		return err
	}
	return wt.Clean(&git.CleanOptions{Dir: true})
}

// resolveHead computes the HEAD value to record for the worktree and the
// checkout to perform. Branches get a symbolic HEAD; the local branch is
// (re)created from the remote-tracking branch when the worktree is bare or the
// branch does not exist yet.
func resolveHead(repo *git.Repository, storer *sharedStorer, opts PrepareOptions) (string, *git.CheckoutOptions, error) {
	if branch, ok := strings.CutPrefix(opts.Ref, branchRefPrefix); ok {
		refName := plumbing.ReferenceName(opts.Ref)
		exists, err := branchExists(repo, refName)
		if err != nil {
			return "", nil, err
		}
		if opts.Bare || !exists {
			remoteRef, err := repo.Reference(plumbing.NewRemoteReferenceName(opts.Remote, branch), true)
			switch {
			case err == nil:
				if err := storer.SetReference(plumbing.NewHashReference(refName, remoteRef.Hash())); err != nil {
					return "", nil, fmt.Errorf("creating branch %s: %w", branch, err)
				}
			case exists:
				// no tracking branch; the local one is all there is
			default:
				return "", nil, fmt.Errorf("resolving %s/%s: %w", opts.Remote, branch, err)
			}
		}
		return "ref: " + opts.Ref, &git.CheckoutOptions{Branch: refName}, nil
	}

	hash, err := repo.ResolveRevision(plumbing.Revision(opts.Ref))
	if err != nil {
		return "", nil, fmt.Errorf("resolving %s: %w", opts.Ref, err)
	}
	return hash.String(), &git.CheckoutOptions{Hash: *hash}, nil
}

func branchExists(repo *git.Repository, name plumbing.ReferenceName) (bool, error) {
	iter, err := repo.Branches()
	if err != nil {
		return false, fmt.Errorf("listing branches: %w", err)
	}
	defer iter.Close()
	found := false
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		if ref.Name() == name {
			found = true
		}
		return nil
	})
	return found, err
}

// moveFile renames src to dst, copying when a rename is not possible.
func moveFile(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return err
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.WriteFile(dst, data, 0644); err != nil {
		return err
	}
	return os.Remove(src)
}
