package worktree

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// Prune deletes the worktree directories under root that keep does not
// claim and returns their paths. A missing root is not an error.
func Prune(root string, keep func(dir string) bool) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var removed []string
	var errs []error
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(root, e.Name())
		if keep != nil && keep(dir) {
			continue
		}
		if err := removeDir(dir); err != nil {
			errs = append(errs, err)
			continue
		}
		removed = append(removed, dir)
	}
	return removed, errors.Join(errs...)
}
