package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jorge-barreto/refcollect/internal/config"
	"github.com/jorge-barreto/refcollect/internal/docs"
	"github.com/jorge-barreto/refcollect/internal/doctor"
	"github.com/jorge-barreto/refcollect/internal/scaffold"
	"github.com/jorge-barreto/refcollect/internal/state"
	"github.com/jorge-barreto/refcollect/internal/ux"
	cli "github.com/urfave/cli/v3"
)

const playbookFile = "playbook.yaml"

func main() {
	app := &cli.Command{
		Name:        "refcollect",
		Usage:       "Collect C++ reference documentation for versioned components",
		Description: "Run 'refcollect docs' for documentation on the playbook, worktrees, retention, and more.",
		Commands: []*cli.Command{
			initCmd(),
			runCmd(),
			statusCmd(),
			doctorCmd(),
			worktreesCmd(),
			docsCmd(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%serror:%s %v\n", ux.Red, ux.Reset, err)
		os.Exit(1)
	}
}

// project is a loaded playbook and the directories derived from it.
type project struct {
	Root     string
	Playbook string
	Config   *config.Config
	CacheDir string
}

func loadProject() (*project, error) {
	root, err := findProjectRoot()
	if err != nil {
		return nil, err
	}
	path := filepath.Join(root, ".refcollect", playbookFile)
	cfg, err := config.Load(path, root)
	if err != nil {
		return nil, fmt.Errorf("loading playbook: %w", err)
	}
	return &project{Root: root, Playbook: path, Config: cfg, CacheDir: cfg.ResolveCacheDir(root)}, nil
}

func statusCmd() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show the outcome of the last run",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			p, err := loadProject()
			if err != nil {
				return err
			}
			st, err := state.Load(p.CacheDir)
			if err != nil {
				return fmt.Errorf("loading state: %w", err)
			}
			ux.RenderStatus(st, p.CacheDir)
			return nil
		},
	}
}

func doctorCmd() *cli.Command {
	return &cli.Command{
		Name:  "doctor",
		Usage: "Check the environment and explain the last failed run",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			p, err := loadProject()
			if err != nil {
				return err
			}
			st, err := state.Load(p.CacheDir)
			if err != nil {
				return fmt.Errorf("loading state: %w", err)
			}
			return doctor.New(p.CacheDir, p.Config).Run(st)
		},
	}
}

func initCmd() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Initialize a new .refcollect/ directory with an example playbook",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dir, err := os.Getwd()
			if err != nil {
				return err
			}
			return scaffold.Init(dir)
		},
	}
}

func docsCmd() *cli.Command {
	return &cli.Command{
		Name:      "docs",
		Usage:     "Show documentation",
		ArgsUsage: "[topic]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			name := cmd.Args().First()
			if name == "" {
				fmt.Print("\nAvailable topics:\n\n")
				for _, t := range docs.All() {
					fmt.Printf("  %-14s %s\n", t.Name, t.Summary)
				}
				fmt.Println("\nRun 'refcollect docs <topic>' to read a topic.")
				return nil
			}
			t, err := docs.Get(name)
			if err != nil {
				return err
			}
			fmt.Print(t.Content)
			return nil
		},
	}
}

// findProjectRoot walks up from cwd looking for .refcollect/playbook.yaml.
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, ".refcollect", playbookFile)); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no .refcollect/%s found (searched from cwd to root)", playbookFile)
		}
		dir = parent
	}
}
