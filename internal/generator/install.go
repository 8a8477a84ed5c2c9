package generator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/jorge-barreto/refcollect/internal/dispatch"
	"github.com/jorge-barreto/refcollect/internal/logger"
)

// Generator is an installed generator executable.
type Generator struct {
	Exe  string
	Root string
	// Args are appended to every invocation.
	Args []string
}

// Env returns the variables exported to child processes.
func (g *Generator) Env() map[string]string {
	return map[string]string{"MRDOCS_ROOT": g.Root}
}

// ExeName returns the executable file name for goos.
func ExeName(goos string) string {
	if goos == "windows" {
		return "mrdocs.exe"
	}
	return "mrdocs"
}

// FromPath wraps an explicitly configured executable. The root is the
// directory above its bin directory.
func FromPath(exe string) (*Generator, error) {
	info, err := os.Stat(exe)
	if err != nil {
		return nil, fmt.Errorf("generator %s: %w", exe, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("generator %s is a directory", exe)
	}
	return &Generator{Exe: exe, Root: filepath.Dir(filepath.Dir(exe))}, nil
}

// Installer downloads and unpacks a generator release into the cache.
type Installer struct {
	CacheDir string
	Client   *Client
	Exec     dispatch.Executor
	GOOS     string
}

// Dir returns the per-platform download directory.
func (in *Installer) Dir() string {
	return filepath.Join(in.CacheDir, "mrdocs", in.goos())
}

func (in *Installer) goos() string {
	if in.GOOS == "" {
		return runtime.GOOS
	}
	return in.GOOS
}

// Install makes the newest release with a binary for the platform available,
// downloading it only when it is not cached yet.
func (in *Installer) Install(ctx context.Context) (*Generator, error) {
	log := logger.WithComponent("generator")
	releases, err := in.Client.Releases(ctx)
	if err != nil {
		return nil, err
	}
	release, url, err := SelectRelease(releases, in.goos())
	if err != nil {
		return nil, err
	}

	root := filepath.Join(in.Dir(), release.Version())
	exe := filepath.Join(root, "bin", ExeName(in.goos()))
	if _, err := os.Stat(exe); err == nil {
		log.Debug("generator already installed", slog.String("root", root))
		return &Generator{Exe: exe, Root: root}, nil
	}

	archive := filepath.Join(in.Dir(), path.Base(url))
	log.Info("downloading generator", slog.String("url", url), slog.String("to", archive))
	if err := in.Client.Download(ctx, url, archive); err != nil {
		return nil, err
	}
	defer os.Remove(archive)

	if err := in.extract(ctx, archive, root); err != nil {
		return nil, err
	}
	if _, err := os.Stat(exe); err != nil {
		return nil, fmt.Errorf("could not find generator executable at %s", exe)
	}
	log.Info("generator installed", slog.String("root", root))
	return &Generator{Exe: exe, Root: root}, nil
}

// extract unpacks archive into a temporary sibling of dest, then moves it
// into place. A single top-level directory is flattened.
func (in *Installer) extract(ctx context.Context, archive, dest string) error {
	tmp := dest + "-temp"
	if err := os.RemoveAll(tmp); err != nil {
		return err
	}
	if err := os.MkdirAll(tmp, 0755); err != nil {
		return err
	}
	defer os.RemoveAll(tmp)

	var argv []string
	switch {
	case strings.HasSuffix(archive, ".7z"):
		argv = []string{"7z", "x", archive, "-o" + tmp}
	case strings.HasSuffix(archive, ".tar.gz"):
		argv = []string{"tar", "-xzf", archive, "-C", tmp}
	default:
		return fmt.Errorf("unsupported archive %s", filepath.Base(archive))
	}
	if _, err := dispatch.Check(ctx, in.Exec, dispatch.Command{Argv: argv}, nil); err != nil {
		return fmt.Errorf("extracting %s: %w", filepath.Base(archive), err)
	}

	src := tmp
	entries, err := os.ReadDir(tmp)
	if err != nil {
		return err
	}
	if len(entries) == 1 && entries[0].IsDir() {
		src = filepath.Join(tmp, entries[0].Name())
	}
	if err := os.RemoveAll(dest); err != nil {
		return err
	}
	return os.Rename(src, dest)
}
