package collector

import (
	"os"
	"path/filepath"
)

// DefaultConfigLocations are tried after the configured generator config.
var DefaultConfigLocations = []string{"mrdocs.yml", "docs/mrdocs.yml", "doc/mrdocs.yml"}

// FindConfig returns the first candidate that exists, trying each candidate
// under the worktree root and then under the start path.
func FindConfig(worktreeDir, startPath, configured string) (string, bool) {
	candidates := append([]string{configured}, DefaultConfigLocations...)
	bases := []string{worktreeDir, filepath.Join(worktreeDir, startPath)}
	for _, c := range candidates {
		if c == "" {
			continue
		}
		for _, base := range bases {
			p := filepath.Join(base, filepath.FromSlash(c))
			if info, err := os.Stat(p); err == nil && !info.IsDir() {
				return p, true
			}
		}
	}
	return "", false
}
