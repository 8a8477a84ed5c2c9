// Package events is a small named-event bus used to scope the lifetime of
// resources (worktrees, temporary directories) to points in a collection run.
package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Lifecycle events emitted by a collection run.
const (
	ContentAggregated  = "contentAggregated"
	ReferenceGenerated = "referenceGenerated"
	CatalogWritten     = "catalogWritten"
	ContextClosed      = "contextClosed"
)

// Handler reacts to an emitted event.
type Handler func(ctx context.Context) error

// Bus dispatches named events to registered handlers. The zero value is ready to use.
type Bus struct {
	mu       sync.Mutex
	handlers map[string][]handler
	emitted  map[string]int
	closed   bool
}

type handler struct {
	fn   Handler
	once bool
}

// NewBus returns an empty Bus.
func NewBus() *Bus {
	return &Bus{}
}

// On registers fn to run every time name is emitted.
func (b *Bus) On(name string, fn Handler) {
	b.register(name, handler{fn: fn})
}

// Once registers fn to run the next time name is emitted, and then never again.
func (b *Bus) Once(name string, fn Handler) {
	b.register(name, handler{fn: fn, once: true})
}

func (b *Bus) register(name string, h handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.handlers == nil {
		b.handlers = make(map[string][]handler)
	}
	b.handlers[name] = append(b.handlers[name], h)
}

// Pending reports how many handlers are waiting on name.
func (b *Bus) Pending(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handlers[name])
}

// Emitted reports how many times name has been emitted.
func (b *Bus) Emitted(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.emitted[name]
}

// Emit runs the handlers registered for name in registration order. Every
// handler runs even when an earlier one fails; the errors are joined.
func (b *Bus) Emit(ctx context.Context, name string) error {
	b.mu.Lock()
	hs := b.handlers[name]
	var keep []handler
	for _, h := range hs {
		if !h.once {
			keep = append(keep, h)
		}
	}
	if len(keep) == 0 {
		delete(b.handlers, name)
	} else {
		b.handlers[name] = keep
	}
	if b.emitted == nil {
		b.emitted = make(map[string]int)
	}
	b.emitted[name]++
	b.mu.Unlock()

	var errs []error
	for _, h := range hs {
		if err := h.fn(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s handler: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// Close emits ContextClosed exactly once. Later calls are no-ops.
func (b *Bus) Close(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()
	return b.Emit(ctx, ContextClosed)
}
