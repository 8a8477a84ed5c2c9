package ux

import (
	"fmt"
	"io"
	"os"
	"time"
)

// ANSI color helpers
const (
	Reset  = "\033[0m"
	Bold   = "\033[1m"
	Dim    = "\033[2m"
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Cyan   = "\033[36m"
)

// Out receives all progress output. Quiet runs point it at io.Discard.
var Out io.Writer = os.Stdout

// SetQuiet silences progress output.
func SetQuiet(quiet bool) {
	if quiet {
		Out = io.Discard
	} else {
		Out = os.Stdout
	}
}

func timestamp() string {
	return time.Now().Format("15:04:05")
}

func formatDuration(d time.Duration) string {
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm %02ds", m, s)
}

// Section prints a timestamped banner for a setup stage.
func Section(title string) {
	fmt.Fprintf(Out, "\n%s[%s]%s %s══ %s ══%s\n", Dim, timestamp(), Reset, Cyan, title, Reset)
}

// OriginHeader prints the header for one origin.
func OriginHeader(index, total int, label, source string) {
	fmt.Fprintf(Out, "\n%s[%s]%s %s══════════════════════════════════════%s\n",
		Dim, timestamp(), Reset, Cyan, Reset)
	fmt.Fprintf(Out, "%s[%s]%s  %sOrigin %d/%d: %s%s\n",
		Dim, timestamp(), Reset, Bold, index+1, total, label, Reset)
	fmt.Fprintf(Out, "%s[%s]%s  %s%s%s\n", Dim, timestamp(), Reset, Dim, source, Reset)
}

// Step prints a sub-step inside an origin.
func Step(format string, args ...any) {
	fmt.Fprintf(Out, "%s[%s]%s    %s›%s %s\n", Dim, timestamp(), Reset, Cyan, Reset, fmt.Sprintf(format, args...))
}

// OriginComplete prints an origin completion message.
func OriginComplete(index, files int, duration time.Duration) {
	fmt.Fprintf(Out, "%s[%s]%s  %s✓ Origin %d complete: %d files (%s)%s\n",
		Dim, timestamp(), Reset, Green, index+1, files, formatDuration(duration), Reset)
}

// OriginFail prints an origin failure message.
func OriginFail(index int, label, errMsg string) {
	fmt.Fprintf(Out, "%s[%s]%s  %s✗ Origin %d (%s) failed: %s%s\n",
		Dim, timestamp(), Reset, Red, index+1, label, errMsg, Reset)
}

// OriginSkip prints an origin skip message.
func OriginSkip(index int, label, reason string) {
	fmt.Fprintf(Out, "%s[%s]%s  %s– Origin %d (%s) skipped (%s)%s\n",
		Dim, timestamp(), Reset, Dim, index+1, label, reason, Reset)
}

// Event prints a lifecycle event as it is emitted.
func Event(name string) {
	fmt.Fprintf(Out, "%s[%s]%s  %s◆ %s%s\n", Dim, timestamp(), Reset, Cyan, name, Reset)
}

// Warn prints a warning line.
func Warn(format string, args ...any) {
	fmt.Fprintf(Out, "%s[%s]%s  %s⚠ %s%s\n", Dim, timestamp(), Reset, Yellow, fmt.Sprintf(format, args...), Reset)
}

// Removed prints a worktree removal.
func Removed(path, when string) {
	fmt.Fprintf(Out, "%s[%s]%s  %s✂ removed %s (%s)%s\n", Dim, timestamp(), Reset, Dim, path, when, Reset)
}

// Success prints the final summary of a run without failures.
func Success(origins, files int) {
	fmt.Fprintf(Out, "\n%s[%s]%s  %s%s══ %d origins collected, %d reference files ══%s\n\n",
		Dim, timestamp(), Reset, Bold, Green, origins, files, Reset)
}

// Summary prints the final summary of a run with failures.
func Summary(origins, failed, files int) {
	fmt.Fprintf(Out, "\n%s[%s]%s  %s%s══ %d/%d origins failed, %d reference files ══%s\n\n",
		Dim, timestamp(), Reset, Bold, Red, failed, origins, files, Reset)
}
