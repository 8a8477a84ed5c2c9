// Package generator installs and runs the C++ reference generator.
package generator

import (
	"context"
	"fmt"

	"github.com/jorge-barreto/refcollect/internal/dispatch"
)

// Invocation is one generator run over a worktree.
type Invocation struct {
	Config    string
	OutputDir string
	Dir       string
	LogPath   string
	Echo      bool
}

// Argv returns the command line for inv.
func (g *Generator) Argv(inv Invocation) []string {
	argv := []string{
		g.Exe,
		"--config=" + inv.Config,
		"--output=" + inv.OutputDir,
		"--generate=adoc",
		"--multipage=true",
	}
	return append(argv, g.Args...)
}

// Run executes the generator in inv.Dir. A non-zero exit is an error.
func (g *Generator) Run(ctx context.Context, ex dispatch.Executor, env *dispatch.Environment, inv Invocation) error {
	_, err := dispatch.Check(ctx, ex, dispatch.Command{
		Argv:    g.Argv(inv),
		Dir:     inv.Dir,
		LogPath: inv.LogPath,
		Echo:    inv.Echo,
	}, env)
	if err != nil {
		return fmt.Errorf("generating reference for %s: %w", inv.Config, err)
	}
	return nil
}
