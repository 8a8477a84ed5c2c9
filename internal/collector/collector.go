// Package collector drives a collection run: for every origin of every
// component version it materializes a worktree, runs the reference
// generator and scans the generated pages into the catalog.
package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/jorge-barreto/refcollect/internal/catalog"
	"github.com/jorge-barreto/refcollect/internal/config"
	"github.com/jorge-barreto/refcollect/internal/dispatch"
	"github.com/jorge-barreto/refcollect/internal/events"
	"github.com/jorge-barreto/refcollect/internal/generator"
	"github.com/jorge-barreto/refcollect/internal/logger"
	"github.com/jorge-barreto/refcollect/internal/retention"
	"github.com/jorge-barreto/refcollect/internal/state"
	"github.com/jorge-barreto/refcollect/internal/ux"
	"github.com/jorge-barreto/refcollect/internal/worktree"
)

// ErrOriginsFailed is returned when at least one origin failed.
var ErrOriginsFailed = errors.New("reference collection failed")

// Collector runs the reference pipeline over a playbook.
type Collector struct {
	Config    *config.Config
	CacheDir  string
	Registry  *worktree.Registry
	Preparer  *worktree.Preparer
	Bus       *events.Bus
	Exec      dispatch.Executor
	Env       *dispatch.Environment
	Generator *generator.Generator
	State     *state.RunState
	Timing    *state.Timing
	// FailFast stops at the first failed origin.
	FailFast bool
	// Components limits the run to the named components when non-empty.
	Components []string

	runs    int
	cleaned map[string]bool
}

type job struct {
	cv     *catalog.ComponentVersion
	origin *catalog.Origin
}

func (c *Collector) jobs() []job {
	var out []job
	for _, cv := range c.Config.Components {
		if !c.selected(cv.Name) {
			continue
		}
		for _, o := range cv.Origins {
			out = append(out, job{cv: cv, origin: o})
		}
	}
	return out
}

func (c *Collector) selected(name string) bool {
	if len(c.Components) == 0 {
		return true
	}
	for _, n := range c.Components {
		if n == name {
			return true
		}
	}
	return false
}

func label(cv *catalog.ComponentVersion) string {
	if cv.Version == "" {
		return cv.Name
	}
	return cv.Name + "@" + cv.Version
}

// Run processes every origin in order, removes the worktrees that are not
// retained, writes the catalog and emits referenceGenerated and
// catalogWritten. Origins fail independently unless FailFast is set.
func (c *Collector) Run(ctx context.Context) error {
	log := logger.WithComponent("collector")
	if err := state.EnsureDir(c.CacheDir); err != nil {
		return err
	}
	if c.Timing == nil {
		c.Timing = &state.Timing{}
	}

	jobs := c.jobs()
	failed := 0
	var runErr error
	for i, j := range jobs {
		if ctx.Err() != nil {
			runErr = ctx.Err()
			break
		}
		rec := c.processOrigin(ctx, i, len(jobs), j)
		c.State.Record(rec)
		if rec.Status == state.StatusFailed {
			failed++
			if ctx.Err() != nil {
				runErr = ctx.Err()
				break
			}
			if c.FailFast {
				break
			}
		}
		if err := c.Timing.Flush(c.CacheDir); err != nil {
			log.Warn("failed to flush timing", slog.String("error", err.Error()))
		}
	}

	if err := c.Registry.PerformRemovals(context.WithoutCancel(ctx), c.Bus); err != nil {
		log.Error("worktree removal failed", slog.String("error", err.Error()))
		ux.Warn("worktree removal failed: %v", err)
	}
	c.recordWorktrees()

	if runErr == nil {
		if err := c.Bus.Emit(ctx, events.ReferenceGenerated); err != nil {
			runErr = err
		}
	}
	if err := state.SaveCatalog(c.CacheDir, c.Config.Components); err != nil {
		return c.finish(state.StatusFailed, fmt.Errorf("writing catalog: %w", err))
	}
	if runErr == nil {
		if err := c.Bus.Emit(ctx, events.CatalogWritten); err != nil {
			runErr = err
		}
	}

	files := 0
	for _, cv := range c.Config.Components {
		files += len(cv.Files)
	}
	switch {
	case errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded):
		return c.finish(state.StatusInterrupted, runErr)
	case runErr != nil:
		return c.finish(state.StatusFailed, runErr)
	case failed > 0:
		ux.Summary(len(jobs), failed, files)
		return c.finish(state.StatusFailed, fmt.Errorf("%w: %d of %d origins failed", ErrOriginsFailed, failed, len(jobs)))
	}
	ux.Success(len(jobs), files)
	return c.finish(state.StatusCompleted, nil)
}

func (c *Collector) finish(status string, err error) error {
	c.State.Finish(status)
	if saveErr := c.State.Save(c.CacheDir); saveErr != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to save state: %v\n", saveErr)
	}
	if flushErr := c.Timing.Flush(c.CacheDir); flushErr != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to flush timing: %v\n", flushErr)
	}
	return err
}

func (c *Collector) recordWorktrees() {
	c.State.Worktrees = c.State.Worktrees[:0]
	for _, e := range c.Registry.Entries() {
		c.State.Worktrees = append(c.State.Worktrees, state.WorktreeRecord{
			Path:      e.Path,
			Retention: e.Retention.String(),
			Origins:   len(e.Origins()),
			Removed:   e.Removed(),
		})
	}
}

func (c *Collector) processOrigin(ctx context.Context, idx, total int, j job) state.OriginRun {
	o := j.origin
	rec := state.OriginRun{
		Component: j.cv.Name,
		Version:   j.cv.Version,
		Source:    o.Source(),
		Ref:       o.RefName,
		Status:    state.StatusCompleted,
	}
	name := label(j.cv)
	ux.OriginHeader(idx, total, name, o.String())

	if len(o.Collectors) == 0 {
		logger.WithComponent("collector").Warn("no reference collector configured", slog.String("component", name))
		ux.OriginSkip(idx, name, "no reference collectors configured")
		rec.Status = state.StatusSkipped
		return rec
	}

	step := ux.StepName(rec.Component, rec.Version, rec.Source, rec.Ref)
	end := c.Timing.Begin(step)
	files, err := c.collect(ctx, j)
	rec.Worktree = o.CollectorWorktree
	rec.Files = files
	if err != nil {
		end(state.StatusFailed)
		logger.WithComponent("collector").Error("origin failed", slog.String("origin", o.String()), slog.String("error", err.Error()))
		ux.OriginFail(idx, name, err.Error())
		rec.Status = state.StatusFailed
		rec.Error = err.Error()
		return rec
	}
	if files == 0 {
		end(state.StatusSkipped)
		ux.OriginSkip(idx, name, "no generator config found")
		rec.Status = state.StatusSkipped
		return rec
	}
	ux.OriginComplete(idx, files, end(state.StatusCompleted))
	return rec
}

// policyFor decides the retention of a managed worktree: the collector's
// keep setting, then the playbook default.
func (c *Collector) policyFor(opts catalog.WorktreeOptions) retention.Policy {
	if opts.Keep != nil {
		return *opts.Keep
	}
	if c.Config.KeepWorktrees {
		return retention.KeepPolicy()
	}
	return retention.EagerPolicy()
}

// worktreeFor returns the directory the generator runs in, creating and
// checking out a managed worktree when the origin needs one.
func (c *Collector) worktreeFor(ctx context.Context, o *catalog.Origin) (string, error) {
	opts := o.Collectors[0].Worktree
	create := opts.Create
	if create == "" {
		create = c.Config.CreateWorktrees
	}
	managed := o.Worktree == "" || create == config.CreateAlways
	if !managed {
		o.CollectorWorktree = o.Worktree
		ux.Step("using worktree %s", o.Worktree)
		return o.Worktree, nil
	}

	checkout := opts.ShouldCheckout()
	dir, err := c.Registry.Acquire(o, c.policyFor(opts), checkout)
	if err != nil {
		return "", err
	}
	o.CollectorWorktree = dir

	if !checkout {
		return dir, os.MkdirAll(dir, 0755)
	}
	ref := o.Ref()
	if entry, ok := c.Registry.Entry(dir); ok && entry.PreparedRef() == ref {
		ux.Step("reusing worktree %s", dir)
		return dir, nil
	}
	ux.Step("checking out %s into %s", ref, dir)
	err = c.Preparer.Prepare(ctx, worktree.PrepareOptions{
		Dir:    dir,
		GitDir: o.GitDir,
		Ref:    ref,
		Remote: o.RemoteName(),
		Bare:   o.Worktree == "",
	})
	if err != nil {
		return "", fmt.Errorf("preparing worktree %s: %w", dir, err)
	}
	c.Registry.MarkPrepared(dir, ref)
	return dir, nil
}

func (c *Collector) collect(ctx context.Context, j job) (int, error) {
	o := j.origin
	dir, err := c.worktreeFor(ctx, o)
	if err != nil {
		return 0, err
	}

	var configs []string
	for _, col := range o.Collectors {
		p, ok := FindConfig(dir, o.StartPath, col.Config)
		if !ok {
			logger.WithComponent("collector").Warn("no generator config found",
				slog.String("component", label(j.cv)), slog.String("start-path", o.StartPath), slog.String("configured", col.Config))
			ux.Warn("no generator config found in %s for %s", dir, label(j.cv))
			continue
		}
		configs = append(configs, p)
	}

	files := 0
	for _, cfgPath := range configs {
		n, err := c.generate(ctx, j, dir, cfgPath)
		if err != nil {
			return files, err
		}
		files += n
	}
	return files, nil
}

func (c *Collector) generate(ctx context.Context, j job, dir, cfgPath string) (int, error) {
	out := state.OutputDir(c.CacheDir, j.cv.Name, j.cv.Version)
	// Stale output is cleared once per run; later origins of the same
	// component version add to it.
	if c.cleaned == nil {
		c.cleaned = make(map[string]bool)
	}
	if !c.cleaned[out] {
		if err := os.RemoveAll(out); err != nil {
			return 0, err
		}
		c.cleaned[out] = true
	}
	if err := os.MkdirAll(out, 0755); err != nil {
		return 0, err
	}
	before, err := TakeSnapshot(out)
	if err != nil {
		return 0, err
	}

	env := c.Env.Clone()
	env.WorkDir = dir
	env.OutputDir = out
	env.Component = j.cv.Name
	env.Version = j.cv.Version

	ux.Step("generating reference from %s", cfgPath)
	inv := generator.Invocation{
		Config:    cfgPath,
		OutputDir: out,
		Dir:       dir,
		LogPath:   state.CommandLogPath(c.CacheDir, j.cv.Name, j.cv.Version, c.runs),
		Echo:      !c.Config.Quiet,
	}
	c.runs++
	if err := c.Generator.Run(ctx, c.Exec, env, inv); err != nil {
		return 0, err
	}
	return Scan(out, j.cv, j.origin, before)
}
