package state

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// EnsureDir creates the cache directory structure.
func EnsureDir(cacheDir string) error {
	for _, d := range []string{cacheDir, LogsDir(cacheDir), WorktreesDir(cacheDir), ReferenceDir(cacheDir)} {
		if err := os.MkdirAll(d, 0755); err != nil {
			return fmt.Errorf("creating cache dir %s: %w", d, err)
		}
	}
	return nil
}

// LogsDir holds the run log and per-command logs.
func LogsDir(cacheDir string) string {
	return filepath.Join(cacheDir, "logs")
}

// WorktreesDir holds the managed worktrees.
func WorktreesDir(cacheDir string) string {
	return filepath.Join(cacheDir, "worktrees")
}

// ReferenceDir holds generated reference output.
func ReferenceDir(cacheDir string) string {
	return filepath.Join(cacheDir, "reference")
}

// OutputDir returns where the reference for a component version is
// generated. Versionless components go to "main".
func OutputDir(cacheDir, component, version string) string {
	if version == "" {
		return filepath.Join(ReferenceDir(cacheDir), component, "main")
	}
	return filepath.Join(ReferenceDir(cacheDir), component, "versioned", version)
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// CommandLogPath returns the log file for the n-th generator run of a component version.
func CommandLogPath(cacheDir, component, version string, n int) string {
	name := unsafeChars.ReplaceAllString(component, "_")
	if version != "" {
		name += "-" + unsafeChars.ReplaceAllString(version, "_")
	}
	return filepath.Join(LogsDir(cacheDir), fmt.Sprintf("%s-%d.log", name, n+1))
}
