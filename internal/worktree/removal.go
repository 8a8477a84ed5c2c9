package worktree

import (
	"context"
	"errors"

	"github.com/jorge-barreto/refcollect/internal/events"
	"github.com/jorge-barreto/refcollect/internal/logger"
	"github.com/jorge-barreto/refcollect/internal/retention"
	"golang.org/x/sync/errgroup"
)

// DeferredRemovals groups worktrees whose removal waits for a named event.
type DeferredRemovals struct {
	events []string
	groups map[string][]*Entry
}

// Events returns the event names in first-seen order.
func (d *DeferredRemovals) Events() []string {
	out := make([]string, len(d.events))
	copy(out, d.events)
	return out
}

// Entries returns the worktrees waiting on event.
func (d *DeferredRemovals) Entries(event string) []*Entry {
	return d.groups[event]
}

func (d *DeferredRemovals) add(event string, e *Entry) {
	if d.groups == nil {
		d.groups = make(map[string][]*Entry)
	}
	if _, ok := d.groups[event]; !ok {
		d.events = append(d.events, event)
	}
	d.groups[event] = append(d.groups[event], e)
}

// PrepareDeferredRemovals partitions the registry by retention policy. Keep
// entries are left alone, RemoveOnEvent entries are grouped by event name,
// and every other entry is removed before this function returns.
//
// Entries already removed or already scheduled by an earlier call are
// skipped, so calling this repeatedly is safe.
func (r *Registry) PrepareDeferredRemovals(ctx context.Context) (*DeferredRemovals, error) {
	log := logger.WithComponent("worktree")
	deferred := &DeferredRemovals{}
	var errs []error

	for _, e := range r.Entries() {
		if err := ctx.Err(); err != nil {
			return deferred, err
		}
		r.mu.Lock()
		skip := e.removed || e.scheduled
		r.mu.Unlock()
		if skip {
			continue
		}
		switch e.Retention.Kind {
		case retention.Keep:
			log.Debug("keeping worktree", "dir", e.Path)
		case retention.RemoveOnEvent:
			log.Debug("deferring worktree removal", "dir", e.Path, "event", e.Retention.Event)
			r.mu.Lock()
			e.scheduled = true
			r.mu.Unlock()
			deferred.add(e.Retention.Event, e)
		default:
			if err := r.Remove(e); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return deferred, errors.Join(errs...)
}

// PerformDeferredRemovals registers one handler per event on bus. When the
// event fires, all worktrees in its group are removed concurrently. Groups
// whose event has already been emitted are removed immediately.
func (r *Registry) PerformDeferredRemovals(bus *events.Bus, deferred *DeferredRemovals) {
	for _, event := range deferred.events {
		entries := deferred.groups[event]
		if bus.Emitted(event) > 0 {
			if err := r.removeEntries(entries); err != nil {
				logger.WithComponent("worktree").Error("removing worktrees", "event", event, "error", err)
			}
			continue
		}
		bus.Once(event, func(context.Context) error {
			return r.removeEntries(entries)
		})
	}
}

// removeEntries attempts every entry even when one of them fails.
func (r *Registry) removeEntries(entries []*Entry) error {
	var g errgroup.Group
	for _, e := range entries {
		g.Go(func() error {
			return r.Remove(e)
		})
	}
	return g.Wait()
}

// PerformRemovals removes eager worktrees now and binds the deferred ones to bus.
func (r *Registry) PerformRemovals(ctx context.Context, bus *events.Bus) error {
	deferred, err := r.PrepareDeferredRemovals(ctx)
	r.PerformDeferredRemovals(bus, deferred)
	return err
}

// Remove clears the worktree association on every origin of e and deletes
// its directory. Removing an entry twice, or one whose directory never
// existed, succeeds. An entry whose directory could not be deleted stays
// eligible for a later pass.
func (r *Registry) Remove(e *Entry) error {
	r.mu.Lock()
	if e.removed {
		r.mu.Unlock()
		return nil
	}
	for _, o := range e.origins {
		o.CollectorWorktree = ""
	}
	r.mu.Unlock()

	logger.WithComponent("worktree").Debug("removing worktree", "dir", e.Path)
	err := removeDir(e.Path)
	r.mu.Lock()
	e.removed = err == nil
	e.scheduled = false
	r.mu.Unlock()
	return err
}
