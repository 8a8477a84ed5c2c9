package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jorge-barreto/refcollect/internal/collector"
	"github.com/jorge-barreto/refcollect/internal/deps"
	"github.com/jorge-barreto/refcollect/internal/dispatch"
	"github.com/jorge-barreto/refcollect/internal/events"
	"github.com/jorge-barreto/refcollect/internal/generator"
	"github.com/jorge-barreto/refcollect/internal/logger"
	"github.com/jorge-barreto/refcollect/internal/state"
	"github.com/jorge-barreto/refcollect/internal/toolchain"
	"github.com/jorge-barreto/refcollect/internal/ux"
	"github.com/jorge-barreto/refcollect/internal/worktree"
	cli "github.com/urfave/cli/v3"
)

func runCmd() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Generate the reference for every origin in the playbook",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "debug", Usage: "Write debug records to the log file"},
			&cli.BoolFlag{Name: "fail-fast", Usage: "Stop at the first failed origin"},
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "Print only errors"},
			&cli.StringSliceFlag{Name: "emit", Usage: "Emit a named event after the catalog is written (repeatable)"},
			&cli.StringSliceFlag{Name: "component", Usage: "Only collect the named component (repeatable)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			p, err := loadProject()
			if err != nil {
				return err
			}
			if cmd.Bool("quiet") {
				p.Config.Quiet = true
			}
			ux.SetQuiet(p.Config.Quiet)

			if err := state.EnsureDir(p.CacheDir); err != nil {
				return err
			}
			logger.SetDebug(cmd.Bool("debug"))
			if err := logger.Init(logger.LogPath(p.CacheDir)); err != nil {
				return err
			}
			defer logger.Close()

			if err := dispatch.Preflight(dispatch.RequiredBinaries(p.Config)); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
			defer stop()

			bus := events.NewBus()
			announce(bus, append([]string{events.ContentAggregated, events.ReferenceGenerated, events.CatalogWritten}, cmd.StringSlice("emit")...))
			defer func() {
				if err := bus.Close(context.WithoutCancel(ctx)); err != nil {
					ux.Warn("%v", err)
				}
			}()

			c, err := setup(ctx, p, bus)
			if err != nil {
				return err
			}
			c.FailFast = cmd.Bool("fail-fast")
			c.Components = cmd.StringSlice("component")
			for _, name := range c.Components {
				if p.Config.Component(name, "") == nil {
					return fmt.Errorf("unknown component %q", name)
				}
			}

			if err := bus.Emit(ctx, events.ContentAggregated); err != nil {
				return err
			}
			runErr := c.Run(ctx)
			if runErr != nil && !errors.Is(runErr, collector.ErrOriginsFailed) {
				return runErr
			}
			for _, name := range cmd.StringSlice("emit") {
				if err := bus.Emit(ctx, name); err != nil {
					return err
				}
			}
			return runErr
		},
	}
}

// announce prints each named event every time it fires. Removal handlers
// registered later run after the announcement.
func announce(bus *events.Bus, names []string) {
	for _, name := range names {
		bus.On(name, func(context.Context) error {
			ux.Event(name)
			return nil
		})
	}
}

// setup prepares everything a collection run needs: the environment child
// processes see, the compilers, the dependencies and the generator.
func setup(ctx context.Context, p *project, bus *events.Bus) (*collector.Collector, error) {
	st := state.NewRun(p.Playbook)
	log := logger.WithRun(st.RunID)
	log.Info("run started", "playbook", p.Playbook, "cache", p.CacheDir)

	env := &dispatch.Environment{
		ProjectRoot: p.Root,
		CacheDir:    p.CacheDir,
		RunID:       st.RunID,
	}
	if len(p.Config.Vars) > 0 {
		env.CustomVars = dispatch.ExpandConfigVars(p.Config.Vars, env.Vars())
	}
	ex := dispatch.NewRealExecutor()

	ux.Section("Toolchain")
	tc, err := toolchain.Discover()
	if err != nil {
		return nil, err
	}
	for k, v := range tc.Env() {
		env.SetExtra(k, v)
	}
	ux.Step("C++ compiler: %s", tc.CXX)
	ux.Step("C compiler: %s", tc.C)

	if len(p.Config.Dependencies) > 0 {
		ux.Section("Dependencies")
		s := &deps.Setup{CacheDir: p.CacheDir, Exec: ex}
		res, err := s.Run(ctx, p.Config.Dependencies)
		if err != nil {
			return nil, err
		}
		for _, skipped := range res.Skipped {
			ux.Warn("skipping dependency: %v", skipped)
		}
		for k, v := range res.Vars {
			env.SetExtra(k, v)
			ux.Step("%s=%s", k, v)
		}
	}

	ux.Section("Generator")
	gen, err := resolveGenerator(ctx, p, env, ex)
	if err != nil {
		return nil, err
	}
	for k, v := range gen.Env() {
		env.SetExtra(k, v)
	}
	gen.Args = dispatch.ParseCommand(dispatch.ExpandVars(p.Config.Generator.Args, env.Vars()))
	ux.Step("using %s", gen.Exe)

	return &collector.Collector{
		Config:    p.Config,
		CacheDir:  p.CacheDir,
		Registry:  worktree.NewRegistry(state.WorktreesDir(p.CacheDir)),
		Preparer:  worktree.NewPreparer(),
		Bus:       bus,
		Exec:      ex,
		Env:       env,
		Generator: gen,
		State:     st,
		Timing:    &state.Timing{},
	}, nil
}

func resolveGenerator(ctx context.Context, p *project, env *dispatch.Environment, ex dispatch.Executor) (*generator.Generator, error) {
	if path := p.Config.Generator.Path; path != "" {
		return generator.FromPath(dispatch.ExpandVars(path, env.Vars()))
	}
	in := &generator.Installer{
		CacheDir: p.CacheDir,
		Client:   generator.NewClient(p.Config.Generator.ReleasesURL),
		Exec:     ex,
	}
	g, err := in.Install(ctx)
	if err != nil {
		return nil, fmt.Errorf("installing generator: %w", err)
	}
	return g, nil
}
