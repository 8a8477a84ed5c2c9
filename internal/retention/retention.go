// Package retention describes when a managed worktree directory is deleted.
package retention

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jorge-barreto/refcollect/internal/events"
	"gopkg.in/yaml.v3"
)

// Kind tags the retention variant.
type Kind int

const (
	// RemoveEager removes the worktree as soon as the run no longer needs it.
	RemoveEager Kind = iota
	// Keep never removes the worktree.
	Keep
	// RemoveOnEvent removes the worktree when a named event fires.
	RemoveOnEvent
)

const untilPrefix = "until:"

// Policy is a retention rule. The zero value is RemoveEager.
type Policy struct {
	Kind  Kind
	Event string // set only for RemoveOnEvent
}

// KeepPolicy returns the policy that never removes.
func KeepPolicy() Policy { return Policy{Kind: Keep} }

// EagerPolicy returns the policy that removes immediately.
func EagerPolicy() Policy { return Policy{Kind: RemoveEager} }

// OnEvent returns the policy that removes when event fires. The alias "exit"
// maps to events.ContextClosed.
func OnEvent(event string) Policy {
	if event == "exit" {
		event = events.ContextClosed
	}
	return Policy{Kind: RemoveOnEvent, Event: event}
}

// Retains reports whether the worktree outlives the immediate removal pass.
// Retaining policies also qualify worktree folder names with the ref name.
func (p Policy) Retains() bool {
	return p.Kind != RemoveEager
}

// String renders the policy in its configuration form.
func (p Policy) String() string {
	switch p.Kind {
	case Keep:
		return "true"
	case RemoveOnEvent:
		if p.Event == events.ContextClosed {
			return untilPrefix + "exit"
		}
		return untilPrefix + p.Event
	default:
		return "false"
	}
}

// Parse decodes "true", "false" or "until:<event>".
func Parse(s string) (Policy, error) {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, untilPrefix); ok {
		if rest == "" {
			return Policy{}, fmt.Errorf("retention %q: missing event name", s)
		}
		return OnEvent(rest), nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return Policy{}, fmt.Errorf("retention %q: must be true, false or until:<event>", s)
	}
	if b {
		return KeepPolicy(), nil
	}
	return EagerPolicy(), nil
}

// UnmarshalYAML accepts a boolean or an "until:<event>" string.
func (p *Policy) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: keep must be a boolean or until:<event>", value.Line)
	}
	parsed, err := Parse(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*p = parsed
	return nil
}

// MarshalYAML writes booleans for Keep/RemoveEager and a string otherwise.
func (p Policy) MarshalYAML() (any, error) {
	switch p.Kind {
	case Keep:
		return true, nil
	case RemoveEager:
		return false, nil
	}
	return p.String(), nil
}
