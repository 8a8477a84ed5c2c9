package worktree

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jorge-barreto/refcollect/internal/catalog"
	"github.com/jorge-barreto/refcollect/internal/logger"
	"github.com/jorge-barreto/refcollect/internal/retention"
)

// Entry is one managed worktree directory and the origins using it.
type Entry struct {
	Path      string
	Retention retention.Policy

	origins     []*catalog.Origin
	preparedRef string
	scheduled   bool
	removed     bool
}

// Origins returns the origins sharing this worktree, in registration order.
func (e *Entry) Origins() []*catalog.Origin {
	out := make([]*catalog.Origin, len(e.origins))
	copy(out, e.origins)
	return out
}

// PreparedRef is the ref last checked out into the worktree during this run.
func (e *Entry) PreparedRef() string { return e.preparedRef }

// Removed reports whether the worktree directory has been deleted.
func (e *Entry) Removed() bool { return e.removed }

func (e *Entry) addOrigin(o *catalog.Origin) {
	for _, existing := range e.origins {
		if existing == o {
			return
		}
	}
	e.origins = append(e.origins, o)
}

// Registry maps target directories to managed worktree entries. There is at
// most one entry per directory.
type Registry struct {
	root string

	mu      sync.Mutex
	entries map[string]*Entry
	order   []string
}

// NewRegistry returns a registry placing worktrees under root.
func NewRegistry(root string) *Registry {
	return &Registry{
		root:    root,
		entries: make(map[string]*Entry),
	}
}

// Root returns the directory holding managed worktrees.
func (r *Registry) Root() string { return r.root }

// Acquire returns the worktree directory for origin, registering a new entry
// on first use. A second request for the same directory adds origin to the
// existing entry instead of creating another one.
//
// The directory is wiped when the caller will not check it out, and for new
// entries whose policy is not Keep, so content from an earlier run is never
// silently reused.
func (r *Registry) Acquire(origin *catalog.Origin, policy retention.Policy, checkout bool) (string, error) {
	log := logger.WithComponent("worktree")
	dir := filepath.Join(r.root, FolderName(origin, policy.Retains()))

	r.mu.Lock()
	entry, ok := r.entries[dir]
	if ok {
		entry.addOrigin(origin)
	} else {
		entry = &Entry{Path: dir, Retention: policy, origins: []*catalog.Origin{origin}}
		r.entries[dir] = entry
		r.order = append(r.order, dir)
	}
	r.mu.Unlock()

	if ok {
		log.Debug("worktree already managed", "dir", dir, "origin", origin.String())
		if !checkout {
			r.mu.Lock()
			entry.preparedRef = ""
			r.mu.Unlock()
			if err := removeDir(dir); err != nil {
				return "", err
			}
		}
		return dir, nil
	}

	log.Debug("managing worktree", "dir", dir, "origin", origin.String(), "keep", policy.String())
	if !checkout || policy.Kind != retention.Keep {
		if err := removeDir(dir); err != nil {
			return "", err
		}
	}
	return dir, nil
}

// Entry looks up the entry for dir.
func (r *Registry) Entry(dir string) (*Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[dir]
	return e, ok
}

// Entries returns all entries in registration order.
func (r *Registry) Entries() []*Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Entry, 0, len(r.order))
	for _, dir := range r.order {
		out = append(out, r.entries[dir])
	}
	return out
}

// Len returns the number of registered entries.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// MarkPrepared records that ref was checked out into dir during this run.
func (r *Registry) MarkPrepared(dir, ref string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[dir]; ok {
		e.preparedRef = ref
		e.removed = false
	}
}

var removeAll = os.RemoveAll

// removeDir deletes dir recursively. A missing directory is not an error.
func removeDir(dir string) error {
	if err := removeAll(dir); err != nil {
		return fmt.Errorf("removing worktree %s: %w", dir, err)
	}
	return nil
}
