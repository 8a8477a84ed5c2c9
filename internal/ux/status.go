package ux

import (
	"fmt"

	"github.com/jorge-barreto/refcollect/internal/state"
)

// RenderStatus prints the last run recorded in cacheDir.
func RenderStatus(st *state.RunState, cacheDir string) {
	if st == nil {
		fmt.Fprintf(Out, "%sNo runs recorded in%s %s\n", Dim, Reset, cacheDir)
		return
	}
	timing, _ := state.LoadTiming(cacheDir)

	fmt.Fprintf(Out, "%sRun:%s      %s\n", Bold, Reset, st.RunID)
	fmt.Fprintf(Out, "%sPlaybook:%s %s\n", Bold, Reset, st.Playbook)
	fmt.Fprintf(Out, "%sStarted:%s  %s\n", Bold, Reset, st.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(Out, "%sState:%s    %s\n", Bold, Reset, colorStatus(st.Status))
	if timing != nil {
		if total := timing.Total(); total > 0 {
			fmt.Fprintf(Out, "%sElapsed:%s  %s\n", Bold, Reset, state.FormatDuration(total))
		}
	}
	if n := st.Failed(); n > 0 {
		fmt.Fprintf(Out, "%sFailed:%s   %s%d of %d origins%s\n", Bold, Reset, Red, n, len(st.Origins), Reset)
	}

	if len(st.Origins) > 0 {
		fmt.Fprintf(Out, "\n%sOrigins:%s\n", Bold, Reset)
		for i, o := range st.Origins {
			label := o.Component
			if o.Version != "" {
				label += "@" + o.Version
			}
			fmt.Fprintf(Out, "  %s%d%s  %-24s %-12s %s  %d files %s\n",
				Dim, i+1, Reset, label, o.Ref, colorStatus(o.Status), o.Files, findDuration(timing, stepName(o)))
			if o.Error != "" {
				fmt.Fprintf(Out, "       %s%s%s\n", Red, o.Error, Reset)
			}
		}
	}

	if len(st.Worktrees) > 0 {
		fmt.Fprintf(Out, "\n%sWorktrees:%s\n", Bold, Reset)
		for _, w := range st.Worktrees {
			status := Green + "kept" + Reset
			if w.Removed {
				status = Dim + "removed" + Reset
			}
			fmt.Fprintf(Out, "  %s  %s(keep: %s, %d origins)%s %s\n", w.Path, Dim, w.Retention, w.Origins, Reset, status)
		}
	}
	fmt.Fprintln(Out)
}

// StepName is the timing key used for an origin.
func StepName(component, version, source, ref string) string {
	return fmt.Sprintf("%s@%s %s#%s", component, version, source, ref)
}

func stepName(o state.OriginRun) string {
	return StepName(o.Component, o.Version, o.Source, o.Ref)
}

func colorStatus(s string) string {
	switch s {
	case state.StatusCompleted:
		return Green + s + Reset
	case state.StatusFailed, state.StatusInterrupted:
		return Red + s + Reset
	case state.StatusSkipped:
		return Dim + s + Reset
	default:
		return Yellow + s + Reset
	}
}

func findDuration(timing *state.Timing, step string) string {
	if timing == nil {
		return ""
	}
	if span, ok := timing.Last(step); ok {
		return fmt.Sprintf("(%s)", state.FormatDuration(span.Elapsed))
	}
	return ""
}
