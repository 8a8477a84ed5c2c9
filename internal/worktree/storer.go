package worktree

import (
	"fmt"
	"sync"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

// sharedStorer exposes the object store, refs and index of a shared
// repository while keeping HEAD private to one worktree. Checkouts through it
// never move the shared repository's HEAD.
type sharedStorer struct {
	*filesystem.Storage

	mu   sync.Mutex
	head *plumbing.Reference
}

func newSharedStorer(gitdir string, objects cache.Object) (*sharedStorer, error) {
	s := filesystem.NewStorage(osfs.New(gitdir), objects)
	head, err := s.Reference(plumbing.HEAD)
	if err != nil {
		return nil, fmt.Errorf("reading HEAD of %s: %w", gitdir, err)
	}
	return &sharedStorer{Storage: s, head: head}, nil
}

// Head returns the worktree-private HEAD.
func (s *sharedStorer) Head() *plumbing.Reference {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.head
}

func (s *sharedStorer) SetReference(ref *plumbing.Reference) error {
	if ref.Name() == plumbing.HEAD {
		s.mu.Lock()
		s.head = ref
		s.mu.Unlock()
		return nil
	}
	return s.Storage.SetReference(ref)
}

func (s *sharedStorer) CheckAndSetReference(ref, old *plumbing.Reference) error {
	if ref.Name() == plumbing.HEAD {
		return s.SetReference(ref)
	}
	return s.Storage.CheckAndSetReference(ref, old)
}

func (s *sharedStorer) Reference(name plumbing.ReferenceName) (*plumbing.Reference, error) {
	if name == plumbing.HEAD {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.head == nil {
			return nil, plumbing.ErrReferenceNotFound
		}
		return s.head, nil
	}
	return s.Storage.Reference(name)
}

func (s *sharedStorer) RemoveReference(name plumbing.ReferenceName) error {
	if name == plumbing.HEAD {
		s.mu.Lock()
		s.head = nil
		s.mu.Unlock()
		return nil
	}
	return s.Storage.RemoveReference(name)
}
