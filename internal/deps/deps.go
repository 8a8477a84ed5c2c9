// Package deps makes the libraries the generator needs available on disk,
// either from the environment or as shallow clones in the cache.
package deps

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jorge-barreto/refcollect/internal/config"
	"github.com/jorge-barreto/refcollect/internal/dispatch"
	"github.com/jorge-barreto/refcollect/internal/logger"
)

// Dir returns the directory holding dependency clones.
func Dir(cacheDir string) string {
	return filepath.Join(cacheDir, "dependencies")
}

// CloneDir returns where dep is cloned.
func CloneDir(cacheDir string, dep config.Dependency) string {
	dir := filepath.Join(Dir(cacheDir), dep.Name)
	if dep.Tag != "" {
		dir = filepath.Join(dir, dep.Tag)
	}
	return dir
}

// Setup resolves dependencies into directories.
type Setup struct {
	CacheDir string
	Exec     dispatch.Executor
	Getenv   func(string) string
}

// Result is the outcome of Setup.Run.
type Result struct {
	Vars    map[string]string
	Skipped []error
}

// Run resolves deps in order and returns the variables that point at them.
// Entries missing a required field are logged and skipped; a failed clone aborts.
func (s *Setup) Run(ctx context.Context, deps []config.Dependency) (*Result, error) {
	log := logger.WithComponent("deps")
	getenv := s.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	res := &Result{Vars: make(map[string]string)}
	for i, dep := range deps {
		if err := check(dep); err != nil {
			log.Error("skipping dependency", slog.Int("index", i+1), slog.String("error", err.Error()))
			res.Skipped = append(res.Skipped, err)
			continue
		}

		if dep.SystemEnv != "" {
			if dir := getenv(dep.SystemEnv); dir != "" && isDir(dir) {
				log.Debug("dependency found in environment", slog.String("name", dep.Name), slog.String("dir", dir))
				res.Vars[dep.Variable] = dir
				continue
			}
		}

		dir := CloneDir(s.CacheDir, dep)
		if _, err := os.Stat(dir); err == nil {
			log.Debug("dependency already cloned", slog.String("name", dep.Name), slog.String("dir", dir))
			res.Vars[dep.Variable] = dir
			continue
		}

		if err := s.clone(ctx, dep, dir); err != nil {
			os.RemoveAll(dir)
			return nil, fmt.Errorf("dependency %s: %w", dep.Name, err)
		}
		res.Vars[dep.Variable] = dir
	}
	return res, nil
}

func (s *Setup) clone(ctx context.Context, dep config.Dependency, dir string) error {
	log := logger.WithComponent("deps")
	log.Info("cloning dependency", slog.String("name", dep.Name), slog.String("repo", dep.Repo), slog.String("dir", dir))
	if err := os.MkdirAll(filepath.Dir(dir), 0755); err != nil {
		return err
	}
	argv := []string{"git", "clone", dep.Repo, "--depth", "1"}
	if dep.Tag != "" {
		argv = append(argv, "--branch", dep.Tag)
	}
	argv = append(argv, dir)
	if _, err := dispatch.Check(ctx, s.Exec, dispatch.Command{Argv: argv}, nil); err != nil {
		return err
	}
	if !dep.Submodules() {
		return nil
	}
	_, err := dispatch.Check(ctx, s.Exec, dispatch.Command{
		Argv: []string{"git", "submodule", "update", "--init", "--recursive"},
		Dir:  dir,
	}, nil)
	return err
}

func check(dep config.Dependency) error {
	var missing string
	switch {
	case dep.Name == "":
		if dep.Repo != "" {
			return fmt.Errorf("dependency name is required for %s", dep.Repo)
		}
		return fmt.Errorf("dependency name is required")
	case dep.Repo == "":
		missing = "repo"
	case dep.Variable == "":
		missing = "variable"
	default:
		return nil
	}
	return fmt.Errorf("dependency field %q is required for %s", missing, dep.Name)
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}
