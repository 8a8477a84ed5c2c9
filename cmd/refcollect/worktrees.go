package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jorge-barreto/refcollect/internal/state"
	"github.com/jorge-barreto/refcollect/internal/ux"
	"github.com/jorge-barreto/refcollect/internal/worktree"
	cli "github.com/urfave/cli/v3"
)

func worktreesCmd() *cli.Command {
	return &cli.Command{
		Name:  "worktrees",
		Usage: "Inspect and clean managed worktrees",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List the worktrees recorded by the last run",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					p, err := loadProject()
					if err != nil {
						return err
					}
					st, err := state.Load(p.CacheDir)
					if err != nil {
						return fmt.Errorf("loading state: %w", err)
					}
					if st == nil || len(st.Worktrees) == 0 {
						fmt.Println("No managed worktrees recorded.")
						return nil
					}
					for _, w := range st.Worktrees {
						onDisk := "missing"
						if _, err := os.Stat(w.Path); err == nil {
							onDisk = "present"
						}
						fmt.Printf("  %-8s %-22s %s\n", onDisk, "keep="+w.Retention, w.Path)
					}
					return nil
				},
			},
			{
				Name:  "prune",
				Usage: "Remove leftover worktrees",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "all", Usage: "Also remove worktrees kept with keep: true"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					p, err := loadProject()
					if err != nil {
						return err
					}
					st, err := state.Load(p.CacheDir)
					if err != nil {
						return fmt.Errorf("loading state: %w", err)
					}
					kept := make(map[string]bool)
					if st != nil && !cmd.Bool("all") {
						for _, w := range st.Worktrees {
							if w.Retention == "true" {
								kept[w.Path] = true
							}
						}
					}
					removed, err := worktree.Prune(state.WorktreesDir(p.CacheDir), func(dir string) bool {
						return kept[dir]
					})
					for _, dir := range removed {
						ux.Removed(dir, "prune")
					}
					if err != nil {
						return err
					}
					fmt.Printf("Removed %d worktree(s).\n", len(removed))
					return nil
				},
			},
		},
	}
}
