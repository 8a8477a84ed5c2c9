package scaffold

import (
	"os"
	"path"
	"path/filepath"
)

// skipDirs are never searched for a generator config.
var skipDirs = map[string]bool{
	".git":         true,
	".refcollect":  true,
	".cache":       true,
	"build":        true,
	"node_modules": true,
}

const configName = "mrdocs.yml"

// findStartPath returns the directory holding the generator config, searching
// the project root and one level below it. The root itself is preferred;
// "doc" is the default when no config exists yet.
func findStartPath(root string) (string, bool) {
	if isFile(filepath.Join(root, configName)) {
		return "", true
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return "doc", false
	}
	for _, e := range entries {
		if !e.IsDir() || skipDirs[e.Name()] {
			continue
		}
		if isFile(filepath.Join(root, e.Name(), configName)) {
			return path.Clean(e.Name()), true
		}
	}
	return "doc", false
}

func isFile(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}
