package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Span is one timed step of a run. An open span has no outcome yet.
type Span struct {
	Step    string        `json:"step"`
	Start   time.Time     `json:"start"`
	Elapsed time.Duration `json:"elapsed_ns,omitempty"`
	Outcome string        `json:"outcome,omitempty"`
}

// Open reports whether the span was never ended.
func (s Span) Open() bool { return s.Outcome == "" }

// Timing collects the spans of a run. Safe for concurrent use.
type Timing struct {
	mu    sync.Mutex
	Spans []Span `json:"spans"`
}

func timingPath(cacheDir string) string {
	return filepath.Join(cacheDir, "timing.json")
}

// LoadTiming reads the spans of the last run. A missing file yields an empty
// Timing.
func LoadTiming(cacheDir string) (*Timing, error) {
	data, err := os.ReadFile(timingPath(cacheDir))
	if errors.Is(err, fs.ErrNotExist) {
		return &Timing{}, nil
	}
	if err != nil {
		return nil, err
	}
	t := &Timing{}
	if err := json.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", timingPath(cacheDir), err)
	}
	return t, nil
}

// Begin opens a span for step. The returned func closes it with outcome and
// reports the elapsed time; calls after the first only report.
func (t *Timing) Begin(step string) func(outcome string) time.Duration {
	t.mu.Lock()
	i := len(t.Spans)
	t.Spans = append(t.Spans, Span{Step: step, Start: time.Now()})
	t.mu.Unlock()

	return func(outcome string) time.Duration {
		t.mu.Lock()
		defer t.mu.Unlock()
		s := &t.Spans[i]
		if s.Open() {
			s.Elapsed = time.Since(s.Start)
			s.Outcome = outcome
		}
		return s.Elapsed
	}
}

// Last returns the most recent closed span for step.
func (t *Timing) Last(step string) (Span, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := len(t.Spans) - 1; i >= 0; i-- {
		if s := t.Spans[i]; s.Step == step && !s.Open() {
			return s, true
		}
	}
	return Span{}, false
}

// Total sums the closed spans.
func (t *Timing) Total() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	var total time.Duration
	for _, s := range t.Spans {
		total += s.Elapsed
	}
	return total
}

// Flush writes the spans to the cache directory.
func (t *Timing) Flush(cacheDir string) error {
	t.mu.Lock()
	data, err := json.MarshalIndent(t, "", "  ")
	t.mu.Unlock()
	if err != nil {
		return err
	}
	return writeFileAtomic(timingPath(cacheDir), data, 0644)
}

// FormatDuration renders d as "1m 05s", or "0.42s" under a second.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
	return fmt.Sprintf("%dm %02ds", int(d.Minutes()), int(d.Seconds())%60)
}
