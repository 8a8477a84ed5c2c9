package worktree

import (
	"crypto/sha1"
	"encoding/hex"
	"path"
	"path/filepath"
	"strings"

	"github.com/jorge-barreto/refcollect/internal/catalog"
)

// FolderName derives the directory name of the managed worktree for an
// origin. Identical inputs always produce the same name; distinct
// repositories that share a basename are kept apart by a SHA-1 suffix.
//
// When keep is set the ref name is folded into the name so retained worktrees
// of different refs do not overwrite each other.
func FolderName(o *catalog.Origin, keep bool) string {
	var qualifier string
	if keep {
		qualifier = "@" + strings.ReplaceAll(o.RefName, "/", "-")
	}

	if o.Worktree == "" {
		if name, ok := cachedCloneName(o.GitDir); ok {
			if qualifier == "" {
				return name
			}
			i := strings.LastIndex(name, "-")
			if i < 0 {
				return name + qualifier
			}
			return name[:i] + qualifier + name[i:]
		}
	}

	normalized := NormalizeURL(o.Source())
	slug := path.Base(normalized) + qualifier
	sum := sha1.Sum([]byte(normalized))
	return slug + "-" + hex.EncodeToString(sum[:])
}

// cachedCloneName returns the basename of a named clone directory such as
// "url-2c1a9b.git". A plain ".git" metadata directory is not a named clone.
func cachedCloneName(gitdir string) (string, bool) {
	if gitdir == "" {
		return "", false
	}
	base := filepath.Base(filepath.Clean(gitdir))
	name, ok := strings.CutSuffix(base, ".git")
	if !ok || name == "" {
		return "", false
	}
	return name, true
}

// NormalizeURL lower-cases a repository URL or path, converts separators to
// forward slashes and strips trailing separators and a trailing ".git".
func NormalizeURL(s string) string {
	s = strings.ToLower(strings.ReplaceAll(s, `\`, "/"))
	if !strings.Contains(s, "://") && !strings.Contains(s, "@") {
		s = path.Clean(s)
	}
	s = strings.TrimRight(s, "/")
	s = strings.TrimSuffix(s, ".git")
	return strings.TrimRight(s, "/")
}
